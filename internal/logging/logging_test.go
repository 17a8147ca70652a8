package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TerminalRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Terminal: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
}

func TestNew_FileReceivesDebugAsJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "nested", "q.log")
	l, err := New(Options{Level: "error", File: path, Terminal: &buf})
	require.NoError(t, err)

	l.Debug("deep detail", "n", 3)
	require.NoError(t, l.Close())

	assert.Empty(t, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record))
	assert.Equal(t, "deep detail", record["msg"])
	assert.Equal(t, float64(3), record["n"])
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "error", Terminal: &buf})
	require.NoError(t, err)

	l.SetLevel(slog.LevelDebug)
	l.Debug("now visible")

	assert.Contains(t, buf.String(), "now visible")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
