// Package session persists the tail of a conversation so a crashed or
// closed run can be resumed with --recover.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Cyclone1070/q/internal/provider/models"
)

const fileVersion = 1

type fileOps interface {
	ReadFile(path string) ([]byte, error)
	WriteFileAtomic(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
}

type file struct {
	Version  int              `json:"version"`
	SavedAt  time.Time        `json:"saved_at"`
	Messages []models.Message `json:"messages"`
}

// Store saves and loads the last turns of a conversation as JSON.
type Store struct {
	path     string
	maxTurns int
	files    fileOps
	now      func() time.Time
	logger   *slog.Logger
}

// NewStore creates a Store writing to path. An empty path disables saving.
func NewStore(path string, maxTurns int, files fileOps, logger *slog.Logger) *Store {
	if files == nil {
		panic("files is required")
	}
	if maxTurns < 1 {
		panic("maxTurns must be >= 1")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, maxTurns: maxTurns, files: files, now: time.Now, logger: logger}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes the last maxTurns turns of messages. System messages are
// dropped and a turn starts at a user message.
func (s *Store) Save(messages []models.Message) error {
	if s.path == "" {
		return nil
	}
	kept := Tail(messages, s.maxTurns)
	data, err := json.MarshalIndent(file{Version: fileVersion, SavedAt: s.now(), Messages: kept}, "", "  ")
	if err != nil {
		return &SaveError{Path: s.path, Cause: err}
	}
	if err := s.files.EnsureDirs(filepath.Dir(s.path)); err != nil {
		return &SaveError{Path: s.path, Cause: err}
	}
	if err := s.files.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return &SaveError{Path: s.path, Cause: err}
	}
	s.logger.Debug("session saved", "path", s.path, "messages", len(kept))
	return nil
}

// Load returns the saved messages. A missing file yields ErrNoSession.
func (s *Store) Load() ([]models.Message, error) {
	if s.path == "" {
		return nil, ErrNoSession
	}
	data, err := s.files.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, &LoadError{Path: s.path, Cause: err}
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &LoadError{Path: s.path, Cause: err}
	}
	if f.Version != fileVersion {
		return nil, &LoadError{Path: s.path, Cause: fmt.Errorf("unsupported session version %d", f.Version)}
	}
	if len(f.Messages) == 0 {
		return nil, ErrNoSession
	}
	s.logger.Debug("session loaded", "path", s.path, "messages", len(f.Messages), "saved_at", f.SavedAt)
	return f.Messages, nil
}

// Clear removes the session file. A missing file is not an error.
func (s *Store) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &SaveError{Path: s.path, Cause: err}
	}
	return nil
}

// Tail returns the messages from the turns-th last user message onward,
// without system messages.
func Tail(messages []models.Message, turns int) []models.Message {
	filtered := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role != models.RoleSystem {
			m.Attachment = nil
			filtered = append(filtered, m)
		}
	}
	seen := 0
	for i := len(filtered) - 1; i >= 0; i-- {
		if filtered[i].Role != models.RoleUser {
			continue
		}
		seen++
		if seen == turns {
			return filtered[i:]
		}
	}
	return filtered
}

// Recap returns the last user and assistant texts, for showing what was
// recovered.
func Recap(messages []models.Message) (user, assistant string) {
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if assistant == "" && m.Role == models.RoleAssistant && m.Content != "" {
			assistant = m.Content
		}
		if user == "" && m.Role == models.RoleUser {
			user = m.Content
		}
		if user != "" && assistant != "" {
			break
		}
	}
	return user, assistant
}
