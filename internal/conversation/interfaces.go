package conversation

import (
	"context"
	"time"

	"github.com/Cyclone1070/q/internal/provider/models"
)

// limiter gates outbound calls on the tokens-per-minute budget.
type limiter interface {
	Wait(ctx context.Context, upcoming int) (time.Duration, error)
	Record(tokens int)
}

// retrier re-runs a call on transient provider failures.
type retrier interface {
	Do(ctx context.Context, op func(ctx context.Context) error) error
}

// toolExecutor runs native tool calls requested by the model.
type toolExecutor interface {
	Declarations() []models.ToolDefinition
	Execute(ctx context.Context, tc models.ToolCall) models.ToolResult
}
