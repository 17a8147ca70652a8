// Package executor runs external programs with bounded output, a timeout
// and a graceful interrupt before the kill.
package executor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/Cyclone1070/q/internal/config"
)

// Result represents the outcome of a command execution.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
}

// OSCommandExecutor runs real processes with os/exec.
type OSCommandExecutor struct {
	maxOutput int
	grace     time.Duration
}

// NewOSCommandExecutor creates an executor bounded by the tool settings.
func NewOSCommandExecutor(cfg config.ToolsConfig) *OSCommandExecutor {
	if cfg.MaxCommandOutputSize < 1 {
		panic("max command output size is required")
	}
	return &OSCommandExecutor{
		maxOutput: int(cfg.MaxCommandOutputSize),
		grace:     time.Duration(cfg.GracefulShutdownMs) * time.Millisecond,
	}
}

// Run executes command until it exits or ctx is done. A non-zero exit is
// reported through Result.ExitCode together with the *exec.ExitError.
func (e *OSCommandExecutor) Run(ctx context.Context, command []string, dir string, env []string) (*Result, error) {
	return e.RunWithTimeout(ctx, command, dir, env, 0)
}

// RunWithTimeout is Run with a deadline. When the deadline passes the
// process is interrupted, then killed after the grace period. A timeout of
// zero means no deadline.
func (e *OSCommandExecutor) RunWithTimeout(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*Result, error) {
	if len(command) == 0 {
		return nil, ErrEmptyCommand
	}

	// Not CommandContext: cancellation and timeouts are handled below so the
	// process gets an interrupt first.
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = nil

	stdout := newCappedOutput(e.maxOutput)
	stderr := newCappedOutput(e.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Children that inherit the pipes must not hold Wait open forever.
	cmd.WaitDelay = e.grace

	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Cmd: command[0], Cause: err, Stage: "start"}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	var execErr error
	select {
	case execErr = <-done:
		if errors.Is(execErr, exec.ErrWaitDelay) {
			execErr = nil
		}
	case <-ctx.Done():
		e.stop(cmd, done)
		execErr = ctx.Err()
	case <-deadline:
		e.stop(cmd, done)
		execErr = ErrTimeout
	}

	exitCode := exitCodeOf(execErr)

	return &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  exitCode,
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}, execErr
}

// stop interrupts the process and kills it if it outlives the grace period.
func (e *OSCommandExecutor) stop(cmd *exec.Cmd, done <-chan error) {
	_ = cmd.Process.Signal(os.Interrupt)
	select {
	case <-done:
	case <-time.After(e.grace):
		_ = cmd.Process.Kill()
		<-done
	}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
