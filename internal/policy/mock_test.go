package policy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MockPrompter replays scripted answers and records everything shown.
type MockPrompter struct {
	Answers []string
	AskErr  error
	Prompts []string
	Notices []Notice
}

func (m *MockPrompter) Ask(ctx context.Context, prompt, def string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.AskErr != nil {
		return "", m.AskErr
	}
	if len(m.Answers) == 0 {
		return "", errors.New("no scripted answer left")
	}
	answer := m.Answers[0]
	m.Answers = m.Answers[1:]
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (m *MockPrompter) Show(n Notice) {
	m.Notices = append(m.Notices, n)
}

func (m *MockPrompter) noticeBodies() string {
	var sb strings.Builder
	for _, n := range m.Notices {
		sb.WriteString(n.Title)
		sb.WriteString("\n")
		sb.WriteString(n.Body)
		sb.WriteString("\n")
	}
	return sb.String()
}

// MockFileReader serves files from memory.
type MockFileReader struct {
	Files map[string]string
}

func (m *MockFileReader) ReadFile(path string) ([]byte, error) {
	if content, ok := m.Files[path]; ok {
		return []byte(content), nil
	}
	return nil, os.ErrNotExist
}

// MockResolver resolves paths lexically against a fixed home and cwd.
type MockResolver struct {
	HomeDir string
	Cwd     string
	AbsErr  error
}

func (m *MockResolver) Abs(path string) (string, error) {
	if m.AbsErr != nil {
		return "", m.AbsErr
	}
	path = strings.TrimSpace(path)
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(m.HomeDir, rest), nil
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Join(m.Cwd, path), nil
}

func (m *MockResolver) Home() string {
	return m.HomeDir
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
