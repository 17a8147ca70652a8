package policy

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// NoticeLevel sets how prominently a notice is rendered.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeDanger
)

// Notice is a message shown to the user while an approval is pending.
type Notice struct {
	Level NoticeLevel
	Title string
	Body  string
}

// Prompter is the user-facing side of the approval flow.
type Prompter interface {
	// Ask shows prompt and returns the typed line, or def for an empty line.
	Ask(ctx context.Context, prompt, def string) (string, error)
	// Show displays a notice without waiting for input.
	Show(n Notice)
}

const baseChoices = "Yes[y]/No[n]/Cancel[c]/All[a]"

// choose asks until the answer maps to y, n, c, a or the custom key.
// Input errors count as cancel.
func (e *Engine) choose(ctx context.Context, prompt string, custom *Choice) string {
	display := baseChoices
	mapping := map[string]string{
		"y": "y", "yes": "y",
		"n": "n", "no": "n",
		"c": "c", "cancel": "c",
		"a": "a", "all": "a",
	}
	if custom != nil {
		key := strings.ToLower(custom.Key)
		display += "/" + custom.Label
		mapping[key] = key
		if word, _, _ := strings.Cut(strings.ToLower(custom.Label), "["); word != "" {
			mapping[word] = key
		}
	}

	full := fmt.Sprintf("(%s)", display)
	if prompt != "" {
		full = prompt + " " + full
	}

	for {
		if ctx.Err() != nil {
			return "c"
		}
		raw, err := e.prompter.Ask(ctx, full, "No")
		if err != nil {
			e.logger.Error("failed to read confirmation", "error", err)
			e.prompter.Show(Notice{Level: NoticeWarning, Body: "An error occurred during input. Cancelling operation."})
			return "c"
		}
		answer := strings.ToLower(strings.TrimSpace(raw))
		if answer == "" {
			answer = "n"
		}
		if key, ok := mapping[answer]; ok {
			return key
		}
		e.prompter.Show(Notice{Level: NoticeWarning, Body: "Invalid input. Please enter one of: " + display})
	}
}

// askMinutes asks for an approve-all duration. Input errors fall back to def.
func (e *Engine) askMinutes(ctx context.Context, def int) int {
	for {
		if ctx.Err() != nil {
			return def
		}
		raw, err := e.prompter.Ask(ctx, "Approve all subsequent operations for how many minutes", strconv.Itoa(def))
		if err != nil {
			e.prompter.Show(Notice{Level: NoticeWarning, Body: fmt.Sprintf("An error occurred. Using default value (%d minutes).", def)})
			return def
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err == nil {
			return n
		}
		e.prompter.Show(Notice{Level: NoticeWarning, Body: "Please enter a valid number of minutes."})
	}
}
