package file

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Cyclone1070/q/internal/config"
	"github.com/Cyclone1070/q/internal/tool/helper/content"
	fssvc "github.com/Cyclone1070/q/internal/tool/service/fs"
)

// pdfTimeout bounds the external PDF converter.
const pdfTimeout = time.Minute

// ReadFileTool handles file reading operations.
type ReadFileTool struct {
	fileOps      fileReader
	pathResolver pathResolver
	converter    commandExecutor
	pdfCommand   string
	maxFileSize  int64
	logger       *slog.Logger
}

// NewReadFileTool creates a new ReadFileTool with injected dependencies.
func NewReadFileTool(
	fileOps fileReader,
	pathResolver pathResolver,
	converter commandExecutor,
	cfg config.ToolsConfig,
	logger *slog.Logger,
) *ReadFileTool {
	if fileOps == nil {
		panic("fileOps is required")
	}
	if pathResolver == nil {
		panic("pathResolver is required")
	}
	if converter == nil {
		panic("converter is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadFileTool{
		fileOps:      fileOps,
		pathResolver: pathResolver,
		converter:    converter,
		pdfCommand:   cfg.PDFConverter,
		maxFileSize:  cfg.MaxFileSize,
		logger:       logger,
	}
}

// Run reads a file and returns it in the form the model can consume: text
// for text types, base64 for images and converted text for PDFs. Line
// ranges only apply to text. Any other type is rejected.
// NOTE: This tool does NOT enforce policy - the caller is responsible for policy checks.
func (t *ReadFileTool) Run(ctx context.Context, req *ReadRequest) (*ReadResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	abs, err := t.pathResolver.Abs(req.Path)
	if err != nil {
		return nil, err
	}

	data, err := t.fileOps.ReadFileLimit(abs, t.maxFileSize)
	if err != nil {
		return nil, t.mapReadError(req.Path, abs, err)
	}

	mimeType := content.DetectMIME(abs, data)
	t.logger.DebugContext(ctx, "detected file type", "path", abs, "mime", mimeType)

	switch {
	case content.IsTextMIME(mimeType):
		return t.readText(abs, data, req)
	case mimeType == content.MIMEPDF:
		if req.Partial() {
			t.logger.DebugContext(ctx, "line range ignored for PDF", "path", abs)
		}
		return t.readPDF(ctx, abs)
	case content.IsImageMIME(mimeType):
		if req.Partial() {
			t.logger.DebugContext(ctx, "line range ignored for image", "path", abs)
		}
		return &ReadResponse{
			AbsolutePath: abs,
			MimeType:     mimeType,
			Content:      base64.StdEncoding.EncodeToString(data),
			Encoding:     EncodingBase64,
		}, nil
	default:
		return nil, &UnsupportedTypeError{Path: abs, MimeType: mimeType}
	}
}

func (t *ReadFileTool) readText(abs string, data []byte, req *ReadRequest) (*ReadResponse, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotUTF8, abs)
	}
	text := string(data)
	if req.Partial() {
		text = sliceLines(text, req.From, req.To)
	}
	return &ReadResponse{
		AbsolutePath: abs,
		MimeType:     content.MIMEPlain,
		Content:      text,
		Ranged:       req.Partial(),
	}, nil
}

func (t *ReadFileTool) readPDF(ctx context.Context, abs string) (*ReadResponse, error) {
	res, err := t.converter.RunWithTimeout(ctx, []string{t.pdfCommand, "-layout", abs, "-"}, "", nil, pdfTimeout)
	if err != nil {
		detail := err.Error()
		if res != nil && res.Stderr != "" {
			detail = strings.TrimSpace(res.Stderr)
		}
		return nil, fmt.Errorf("%w: %s", ErrPDFConversion, detail)
	}
	return &ReadResponse{
		AbsolutePath: abs,
		MimeType:     content.MIMEMarkdown,
		Content:      pdfToMarkdown(res.Stdout),
	}, nil
}

func (t *ReadFileTool) mapReadError(given, abs string, err error) error {
	var tooLarge *fssvc.TooLargeError
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &NotFoundError{Path: given}
	case errors.Is(err, os.ErrPermission):
		return &PermissionError{Path: given, Cause: err}
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: %s (size %d, limit %d)", ErrFileTooLarge, abs, tooLarge.Size, tooLarge.Limit)
	default:
		return &ReadError{Path: abs, Cause: err}
	}
}

// sliceLines returns lines from..to (1-indexed, inclusive) keeping their
// line endings. Out of range bounds are clamped.
func sliceLines(text string, from, to *int) string {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	start := 0
	if from != nil {
		start = *from - 1
	}
	end := len(lines)
	if to != nil {
		end = *to
	}
	start = max(start, 0)
	end = min(end, len(lines))
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "")
}

// pdfToMarkdown turns converter pages into sections separated by rules.
func pdfToMarkdown(text string) string {
	pages := strings.Split(text, "\f")
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n---\n\n")
}
