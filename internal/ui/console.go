// Package ui renders the agent's output in the terminal and reads the
// user's input and approval answers.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Cyclone1070/q/internal/policy"
	"github.com/Cyclone1070/q/internal/ui/services"
	"github.com/Cyclone1070/q/internal/ui/views"
	"github.com/Cyclone1070/q/internal/workflow"
	"github.com/chzyer/readline"
)

// ErrInterrupted is returned by Ask and ReadInput when the user pressed
// Ctrl+C at the prompt.
var ErrInterrupted = errors.New("input interrupted")

// Options configures a Console.
type Options struct {
	Styles views.Styles
	// Markdown renders model text. Nil prints it unchanged.
	Markdown services.MarkdownRenderer
	// Spinner animates the status line while the agent is busy.
	Spinner bool
	// Width bounds notice boxes. Zero leaves them unbounded.
	Width int
}

// Console is the line-oriented terminal UI. It implements policy.Prompter
// and workflow.Emitter. It is not safe for concurrent use.
type Console struct {
	out      io.Writer
	lines    lineReader
	styles   views.Styles
	markdown services.MarkdownRenderer
	activity activity
	width    int
	logger   *slog.Logger
}

// NewConsole creates a Console writing to out and reading from lines.
func NewConsole(out io.Writer, lines lineReader, opts Options, logger *slog.Logger) *Console {
	if out == nil {
		panic("out is required")
	}
	if lines == nil {
		panic("lines is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	var act activity = noActivity{}
	if opts.Spinner {
		act = NewSpinner(out, opts.Styles, logger)
	}
	return &Console{
		out:      out,
		lines:    lines,
		styles:   opts.Styles,
		markdown: opts.Markdown,
		activity: act,
		width:    opts.Width,
		logger:   logger,
	}
}

// ReadInput shows the REPL prompt and returns the next line. auto selects
// the prompt shown while operations are auto-approved.
func (c *Console) ReadInput(auto bool) (string, error) {
	c.activity.Stop()
	c.lines.SetPrompt(views.RenderPrompt(c.styles, auto))
	line, err := c.lines.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		if err := c.lines.SaveHistory(line); err != nil {
			c.logger.Debug("failed to save history", "error", err)
		}
	}
	return line, nil
}

// Ask implements policy.Prompter. An empty answer returns def.
func (c *Console) Ask(ctx context.Context, prompt, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.activity.Stop()

	label := strings.TrimSuffix(strings.TrimSpace(prompt), ":")
	if def != "" {
		label = fmt.Sprintf("%s (%s)", label, def)
	}
	c.lines.SetPrompt(label + ": ")

	line, err := c.lines.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", ErrInterrupted
		}
		return "", err
	}
	if strings.TrimSpace(line) == "" {
		return def, nil
	}
	return strings.TrimSpace(line), nil
}

// Show implements policy.Prompter.
func (c *Console) Show(n policy.Notice) {
	c.activity.Stop()
	c.println(views.RenderNotice(c.styles, n, c.width))
}

// Emit implements workflow.Emitter.
func (c *Console) Emit(e workflow.Event) {
	switch ev := e.(type) {
	case workflow.ThinkingEvent:
		c.activity.Start("Thinking...")
	case workflow.TextEvent:
		c.activity.Stop()
		c.Response(ev.Text)
	case workflow.NoticeEvent:
		c.activity.Stop()
		c.println(views.RenderLoopNotice(c.styles, ev.Level, ev.Text))
	case workflow.OperationStartEvent:
		c.activity.Stop()
		c.activity.Start("Running " + services.FormatOperation(ev.Kind, ev.Target))
	case workflow.OperationEndEvent:
		c.activity.Stop()
		detail := ev.Summary
		if ev.Error != "" {
			detail = ev.Error
		}
		failed := ev.Error != "" || ev.Stop
		c.println(views.RenderOutcome(c.styles, services.FormatOperation(ev.Kind, ev.Target), detail, failed))
	case workflow.DoneEvent:
		c.activity.Stop()
	default:
		c.logger.Warn("unhandled event", "type", fmt.Sprintf("%T", e))
	}
}

// Response prints model text as markdown followed by a blank line. Empty
// text prints nothing.
func (c *Console) Response(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	c.println(services.RenderMarkdown(text, c.markdown))
	c.println("")
}

// Info prints a dimmed line.
func (c *Console) Info(text string) {
	c.activity.Stop()
	c.println(c.styles.Dim.Render(text))
}

// Success prints a green line.
func (c *Console) Success(text string) {
	c.activity.Stop()
	c.println(c.styles.Success.Render(text))
}

// Error prints err in the danger color.
func (c *Console) Error(err error) {
	c.activity.Stop()
	c.println(c.styles.Error.Render("Error:") + " " + err.Error())
}

// Banner prints the startup line.
func (c *Console) Banner(version, provider, model string) {
	c.println(views.RenderBanner(c.styles, version, provider, model))
}

// Recap prints the last exchange of a recovered session.
func (c *Console) Recap(messages int, user, assistant string) {
	c.Success(fmt.Sprintf("Previous session recovered successfully (%d messages).", messages))
	if user == "" && assistant == "" {
		return
	}
	c.println("")
	c.println(c.styles.NoticeTitle.Render("Conversation Summary:"))
	if user != "" {
		c.println(c.styles.Dim.Render("You: ") + firstLines(user, 3))
	}
	if assistant != "" {
		c.Response(firstLines(assistant, 10))
	}
}

// StartActivity shows message in the status line until the next output.
func (c *Console) StartActivity(message string) {
	c.activity.Start(message)
}

// StopActivity clears the status line.
func (c *Console) StopActivity() {
	c.activity.Stop()
}

func (c *Console) println(s string) {
	if _, err := fmt.Fprintln(c.out, s); err != nil {
		c.logger.Debug("failed to write to console", "error", err)
	}
}

func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:n], "\n") + "\n…"
}
