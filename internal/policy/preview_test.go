package policy

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWritePreview_NewFileShort(t *testing.T) {
	body := "line1\nline2\n"
	assert.Equal(t, "line1\nline2", WritePreview("a.txt", nil, false, body))
}

func TestWritePreview_NewFileLong(t *testing.T) {
	var lines []string
	for i := 1; i <= 40; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}

	got := WritePreview("a.txt", nil, false, strings.Join(lines, "\n"))

	assert.True(t, strings.HasPrefix(got, "line 1\n"))
	assert.Contains(t, got, "line 12\n... (16 more lines) ...\nline 29")
	assert.True(t, strings.HasSuffix(got, "line 40"))
	assert.NotContains(t, got, "line 13\n")
}

func TestWritePreview_ExactlyThirtyLinesShownInFull(t *testing.T) {
	var lines []string
	for i := 1; i <= 30; i++ {
		lines = append(lines, fmt.Sprintf("l%d", i))
	}

	got := WritePreview("a.txt", nil, false, strings.Join(lines, "\n"))

	assert.NotContains(t, got, "more lines")
}

func TestWritePreview_Diff(t *testing.T) {
	got := WritePreview("/p/a.txt", []byte("one\ntwo\nthree\n"), true, "one\n2\nthree\n")

	assert.Contains(t, got, "--- /p/a.txt")
	assert.Contains(t, got, "+++ /p/a.txt")
	assert.Contains(t, got, "-two")
	assert.Contains(t, got, "+2")
}

func TestWritePreview_Unchanged(t *testing.T) {
	assert.Equal(t, "(no changes)", WritePreview("a", []byte("x\n"), true, "x\n"))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "approved", Approved.String())
	assert.Equal(t, "denied", Denied.String())
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.Equal(t, "custom", Custom.String())
}
