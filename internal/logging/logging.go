// Package logging builds the process logger: terse text on the terminal,
// full JSON records in the log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Options configures New.
type Options struct {
	// Level is the terminal log level ("debug", "info", "warn", "error").
	Level string
	// File receives every record at debug level. Empty disables file logging.
	File string
	// Terminal receives records at Level. Defaults to os.Stderr.
	Terminal io.Writer
}

// Logger wraps the slog logger with the resources it owns.
type Logger struct {
	*slog.Logger
	level  *slog.LevelVar
	closer io.Closer
}

// New returns a logger fanning out to the terminal and the log file.
func New(opts Options) (*Logger, error) {
	level := new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	terminal := opts.Terminal
	if terminal == nil {
		terminal = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(terminal, &slog.HandlerOptions{Level: level}),
	}

	var closer io.Closer
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		closer = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return &Logger{
		Logger: slog.New(slogmulti.Fanout(handlers...)),
		level:  level,
		closer: closer,
	}, nil
}

// SetLevel changes the terminal level at runtime.
func (l *Logger) SetLevel(lvl slog.Level) {
	l.level.Set(lvl)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
