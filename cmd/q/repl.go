package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/Cyclone1070/q/internal/session"
	"github.com/Cyclone1070/q/internal/ui"
	"github.com/Cyclone1070/q/internal/workflow/loop"
)

// RunOptions are the per-invocation switches from the command line.
type RunOptions struct {
	Question  string
	ExitAfter bool
	Recover   bool
}

// command is a REPL slash command. run returns false to end the REPL.
type command struct {
	name        string
	description string
	run         func(a *App, args string) bool
}

func commands() []command {
	return []command{
		{"/exit", "Exit Q", func(*App, string) bool { return false }},
		{"/quit", "Exit Q", func(*App, string) bool { return false }},
		{"/clear", "Clear the chat history and the saved session", (*App).clearHistory},
		{"/help", "Show available commands", (*App).help},
	}
}

func findCommand(input string) (command, string, bool) {
	name, args, _ := strings.Cut(strings.TrimSpace(input), " ")
	for _, c := range commands() {
		if strings.EqualFold(c.name, name) {
			return c, strings.TrimSpace(args), true
		}
	}
	return command{}, "", false
}

// Run restores or clears the session, answers the initial question and then
// reads input until the user exits.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	a.startSession(opts.Recover)
	a.console.Banner(version, a.provider.Name(), a.provider.GetModel())

	if q := strings.TrimSpace(opts.Question); q != "" {
		a.turn(ctx, q)
		if opts.ExitAfter {
			a.logger.Info("exiting after answering initial question")
			return nil
		}
	}

	for {
		if ctx.Err() != nil {
			a.save()
			return nil
		}

		line, err := a.console.ReadInput(a.engine.AutoApproving())
		if errors.Is(err, ui.ErrInterrupted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			a.logger.Info("EOF received, exiting")
			a.save()
			return nil
		}
		if err != nil {
			a.save()
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if cmd, args, ok := findCommand(input); ok {
			if !cmd.run(a, args) {
				a.logger.Info("exiting conversation loop on command", "command", cmd.name)
				a.save()
				return nil
			}
			continue
		}

		a.turn(ctx, input)
	}
}

// turn runs one agent turn. Ctrl+C cancels the turn, not the REPL.
func (a *App) turn(ctx context.Context, input string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	a.console.Info("")
	err := a.loop.RunTurn(turnCtx, input)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) && ctx.Err() == nil:
		a.logger.Info("turn cancelled by user")
		a.console.Info("Operation cancelled.")
	case errors.Is(err, loop.ErrMaxIterations):
		a.logger.Warn("turn stopped at operation cap", "error", err)
	default:
		a.logger.Error("turn failed", "error", err)
		a.console.Error(err)
	}
	a.save()
}

func (a *App) startSession(restore bool) {
	if !restore {
		a.logger.Info("starting fresh session, clearing previous session data")
		if err := a.store.Clear(); err != nil {
			a.logger.Warn("failed to clear session", "error", err)
		}
		return
	}

	a.logger.Info("attempting to recover previous session")
	messages, err := a.store.Load()
	switch {
	case errors.Is(err, session.ErrNoSession):
		a.console.Info("No previous session found. Starting a new one.")
	case err != nil:
		a.logger.Error("failed to recover session", "error", err)
		a.console.Error(err)
	default:
		a.conv.SetHistory(messages)
		user, assistant := session.Recap(messages)
		a.console.Recap(len(messages), user, assistant)
	}
}

func (a *App) save() {
	if err := a.store.Save(a.conv.History()); err != nil {
		a.logger.Warn("failed to save session", "error", err)
	}
}

func (a *App) clearHistory(string) bool {
	a.conv.Clear()
	if err := a.store.Clear(); err != nil {
		a.logger.Warn("failed to clear session", "error", err)
	}
	a.console.Info("Conversation history cleared.")
	return true
}

func (a *App) help(string) bool {
	var sb strings.Builder
	sb.WriteString("Available commands:")
	for _, c := range commands() {
		fmt.Fprintf(&sb, "\n  %-8s %s", c.name, c.description)
	}
	a.console.Info(sb.String())
	return true
}
