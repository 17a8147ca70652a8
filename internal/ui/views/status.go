package views

import (
	"fmt"
	"strings"
)

// Phase is what the agent is doing while a status line is shown.
type Phase string

const (
	PhaseThinking  Phase = "thinking"
	PhaseExecuting Phase = "executing"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
)

// RenderStatus renders a status line. icon is the current spinner frame for
// the running phases and ignored otherwise.
func RenderStatus(s Styles, phase Phase, icon, message string) string {
	switch phase {
	case PhaseThinking:
		if message == "" {
			message = "Thinking..."
		}
		return s.StatusThinking.Render(fmt.Sprintf("%s %s", icon, message))
	case PhaseExecuting:
		return s.StatusExecuting.Render(fmt.Sprintf("%s %s", icon, message))
	case PhaseDone:
		return s.StatusDone.Render("✔") + " " + message
	case PhaseFailed:
		return s.StatusFailed.Render("✘") + " " + message
	default:
		return message
	}
}

// RenderOutcome renders the line printed after an operation ends. detail
// is the summary or error, reduced to its first line.
func RenderOutcome(s Styles, description, detail string, failed bool) string {
	detail = strings.TrimSpace(detail)
	if line, _, ok := strings.Cut(detail, "\n"); ok {
		detail = line
	}
	phase := PhaseDone
	if failed {
		phase = PhaseFailed
	}
	line := RenderStatus(s, phase, "", description)
	if detail == "" {
		return line
	}
	return line + s.Dim.Render(" · "+detail)
}

// RenderPrompt renders the REPL prompt. The auto variant marks an active
// approve-all window or the allow-all flag.
func RenderPrompt(s Styles, auto bool) string {
	if auto {
		return s.PromptAuto.Render(" AQ⏵") + " "
	}
	return s.Prompt.Render(" Q⏵") + " "
}

// RenderBanner renders the startup line.
func RenderBanner(s Styles, version, provider, model string) string {
	return s.Dim.Render(fmt.Sprintf("Q ver:%s - brain:%s/%s", version, provider, model))
}
