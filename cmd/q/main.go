// Package main provides the q command: an assistant that answers in the
// terminal and, with the user's approval, runs shell commands, reads and
// writes files and fetches URLs.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/q/internal/config"
	"github.com/Cyclone1070/q/internal/logging"
	"github.com/Cyclone1070/q/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const version = "0.1.0"

// flags holds the root command's flag values.
type flags struct {
	allowAll   bool
	exitAfter  bool
	recover    bool
	provider   string
	model      string
	logLevel   string
	configPath string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:     "q [question]",
		Short:   "Q is a terminal assistant that can run commands, read and write files, and fetch URLs",
		Version: version,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, strings.Join(args, " "))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVarP(&f.allowAll, "all", "a", false, "Allow all operations without confirmation, except prohibited ones")
	cmd.Flags().BoolVarP(&f.exitAfter, "exit-after", "e", false, "Exit after answering the initial question")
	cmd.Flags().BoolVarP(&f.recover, "recover", "r", false, "Recover the previous session")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Model provider (gemini, openai, groq)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Terminal log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (default ~/.config/q/config.yaml)")

	return cmd
}

func run(ctx context.Context, f flags, question string) error {
	cfg, err := config.LoadWithOverrides(f.configPath, config.Overrides{
		Provider: f.provider,
		Model:    f.model,
		LogLevel: f.logLevel,
		AllowAll: f.allowAll,
	})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer logger.Close()

	historyFile := ""
	if cfg.Session.Path != "" {
		historyFile = filepath.Join(filepath.Dir(cfg.Session.Path), "history")
	}
	lines, err := ui.NewLineReader(historyFile, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to open terminal input: %w", err)
	}
	defer lines.Close()

	if cfg.Policy.AllowAll {
		logger.Info("auto-approval enabled for all operations except prohibited ones")
	}

	app, err := buildApp(ctx, Dependencies{
		Config:          cfg,
		Logger:          logger.Logger,
		Out:             os.Stdout,
		Lines:           lines,
		ProviderFactory: createRealProviderFactory(),
		Interactive:     term.IsTerminal(int(os.Stdout.Fd())),
	})
	if err != nil {
		return err
	}

	return app.Run(ctx, RunOptions{
		Question:  question,
		ExitAfter: f.exitAfter,
		Recover:   f.recover,
	})
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
