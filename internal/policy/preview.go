package policy

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	previewFullLines = 30
	previewHeadLines = 12
	previewTailLines = 12
)

// WritePreview renders what a write will change: a unified diff against the
// existing content, or the head and tail of a new file.
func WritePreview(path string, existing []byte, exists bool, body string) string {
	if !exists {
		return newFilePreview(body)
	}

	old := string(existing)
	if old == body {
		return "(no changes)"
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(body),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
	if err != nil || diff == "" {
		return newFilePreview(body)
	}
	return strings.TrimRight(diff, "\n")
}

func newFilePreview(body string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) <= previewFullLines {
		return strings.Join(lines, "\n")
	}
	hidden := len(lines) - previewHeadLines - previewTailLines
	var sb strings.Builder
	sb.WriteString(strings.Join(lines[:previewHeadLines], "\n"))
	fmt.Fprintf(&sb, "\n... (%d more lines) ...\n", hidden)
	sb.WriteString(strings.Join(lines[len(lines)-previewTailLines:], "\n"))
	return sb.String()
}
