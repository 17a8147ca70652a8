package toolmanager

import (
	"context"

	"github.com/Cyclone1070/q/internal/operation"
	"github.com/Cyclone1070/q/internal/provider/models"
	"github.com/Cyclone1070/q/internal/workflow/router"
)

// operationRunner executes an operation under policy.
type operationRunner interface {
	Execute(ctx context.Context, req operation.Request) router.Reply
}

// toolImpl maps one native tool onto an operation.
type toolImpl interface {
	// Name returns the tool's identifier.
	Name() string

	// Declaration returns the tool's schema for the model.
	Declaration() models.ToolDefinition

	// Input returns a pointer to the input struct the arguments decode into.
	Input() any

	// Request converts a decoded input into the operation to run.
	Request(input any) (operation.Request, error)
}
