package loop

import (
	"context"

	"github.com/Cyclone1070/q/internal/operation"
	"github.com/Cyclone1070/q/internal/provider/models"
	"github.com/Cyclone1070/q/internal/workflow/router"
)

// conversation talks to the model.
type conversation interface {
	// Send adds a user message and returns the reply.
	Send(ctx context.Context, text string) (string, error)

	// SendAttachment sends a user message with an attachment.
	SendAttachment(ctx context.Context, text string, att models.Attachment) (string, error)
}

// parser extracts at most one operation from a reply.
type parser interface {
	Parse(text string) operation.Result
}

// operationRunner executes an operation under policy.
type operationRunner interface {
	Execute(ctx context.Context, req operation.Request) router.Reply
}
