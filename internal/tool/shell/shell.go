// Package shell runs model-requested commands through a shell interpreter.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Cyclone1070/q/internal/config"
	"github.com/Cyclone1070/q/internal/tool/service/executor"
)

// ShellTool executes commands on the local machine.
type ShellTool struct {
	commandExecutor commandExecutor
	shell           string
	timeout         time.Duration
	logger          *slog.Logger
}

// NewShellTool creates a new ShellTool with injected dependencies.
func NewShellTool(commandExecutor commandExecutor, cfg config.ToolsConfig, logger *slog.Logger) *ShellTool {
	if commandExecutor == nil {
		panic("commandExecutor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	shell := cfg.Shell
	if shell == "" {
		shell = "sh"
	}
	return &ShellTool{
		commandExecutor: commandExecutor,
		shell:           shell,
		timeout:         cfg.ShellTimeoutDuration(),
		logger:          logger,
	}
}

// Run executes command with `<shell> -c` in the current directory so pipes
// and redirection behave normally. A non-zero exit is not an error; it is
// reported in Result.ExitCode. Output is trimmed.
// NOTE: This tool does NOT enforce policy - the caller is responsible for policy checks.
func (t *ShellTool) Run(ctx context.Context, command string) (*Result, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, &CommandRequiredError{}
	}

	t.logger.DebugContext(ctx, "running shell command", "command", command, "timeout", t.timeout)

	res, execErr := t.commandExecutor.RunWithTimeout(ctx, []string{t.shell, "-c", command}, "", os.Environ(), t.timeout)
	if res == nil {
		res = &executor.Result{ExitCode: -1}
	}

	out := &Result{
		Command:   command,
		Stdout:    strings.TrimSpace(res.Stdout),
		Stderr:    strings.TrimSpace(res.Stderr),
		ExitCode:  res.ExitCode,
		Truncated: res.Truncated,
	}

	if execErr != nil {
		if errors.Is(execErr, executor.ErrTimeout) {
			return out, &TimeoutError{Command: command, Duration: t.timeout}
		}
		if errors.Is(execErr, context.Canceled) || errors.Is(execErr, context.DeadlineExceeded) {
			return out, execErr
		}
		var cmdErr *executor.CommandError
		if errors.As(execErr, &cmdErr) {
			return nil, execErr
		}
		// Command ran but failed - we already have the exit code
	}

	t.logger.DebugContext(ctx, "shell command finished", "command", command, "exit_code", out.ExitCode, "truncated", out.Truncated)
	return out, nil
}
