package ui

import (
	"io"

	"github.com/chzyer/readline"
)

// NewLineReader opens a readline instance with persistent history.
// historyFile may be empty to keep history in memory only. Only REPL input
// is recorded; approval answers are not.
func NewLineReader(historyFile string, out io.Writer) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:          " Q⏵ ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,

		DisableAutoSaveHistory: true,
	})
}
