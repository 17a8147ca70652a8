package shell

import (
	"context"
	"time"

	"github.com/Cyclone1070/q/internal/tool/service/executor"
)

// commandExecutor defines the interface for executing shell commands.
type commandExecutor interface {
	RunWithTimeout(ctx context.Context, cmd []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
}
