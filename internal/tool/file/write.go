package file

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/q/internal/config"
)

// WriteFileTool handles file writing operations.
type WriteFileTool struct {
	fileOps      fileWriter
	pathResolver pathResolver
	maxFileSize  int64
	logger       *slog.Logger
}

// NewWriteFileTool creates a new WriteFileTool with injected dependencies.
func NewWriteFileTool(fileOps fileWriter, pathResolver pathResolver, cfg config.ToolsConfig, logger *slog.Logger) *WriteFileTool {
	if fileOps == nil {
		panic("fileOps is required")
	}
	if pathResolver == nil {
		panic("pathResolver is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WriteFileTool{
		fileOps:      fileOps,
		pathResolver: pathResolver,
		maxFileSize:  cfg.MaxFileSize,
		logger:       logger,
	}
}

// Run creates or replaces a file, creating parent directories first. The
// write is atomic and an existing file keeps its permissions. Content is
// written as given; callers normalize model output beforehand.
// NOTE: This tool does NOT enforce policy - the caller is responsible for policy checks.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *WriteFileTool) Run(ctx context.Context, req *WriteRequest) (*WriteResponse, error) {
	if err := req.Validate(t.maxFileSize); err != nil {
		return nil, err
	}

	abs, err := t.pathResolver.Abs(req.Path)
	if err != nil {
		return nil, err
	}

	perm := os.FileMode(0o644)
	created := false
	info, err := t.fileOps.Stat(abs)
	switch {
	case err == nil:
		perm = info.Mode().Perm()
	case os.IsNotExist(err):
		created = true
	default:
		return nil, &StatError{Path: abs, Cause: err}
	}

	parentDir := filepath.Dir(abs)
	if err := t.fileOps.EnsureDirs(parentDir); err != nil {
		return nil, &EnsureDirsError{Path: parentDir, Cause: err}
	}

	contentBytes := []byte(req.Content)
	if err := t.fileOps.WriteFileAtomic(abs, contentBytes, perm); err != nil {
		return nil, &WriteError{Path: abs, Cause: err}
	}

	resp := &WriteResponse{
		AbsolutePath: abs,
		Created:      created,
		BytesWritten: len(contentBytes),
	}
	t.logger.DebugContext(ctx, "file written", "path", abs, "action", resp.Verb(), "bytes", resp.BytesWritten)
	return resp, nil
}
