package router

import (
	"context"

	"github.com/Cyclone1070/q/internal/policy"
	"github.com/Cyclone1070/q/internal/tool/fetch"
	"github.com/Cyclone1070/q/internal/tool/file"
	"github.com/Cyclone1070/q/internal/tool/shell"
)

// approver decides whether an operation may run.
type approver interface {
	RequestApproval(ctx context.Context, req policy.Request) policy.Decision
}

// asker reads a line of user input with a default.
type asker interface {
	Ask(ctx context.Context, prompt, def string) (string, error)
}

type shellRunner interface {
	Run(ctx context.Context, command string) (*shell.Result, error)
}

type fileReader interface {
	Run(ctx context.Context, req *file.ReadRequest) (*file.ReadResponse, error)
}

type fileWriter interface {
	Run(ctx context.Context, req *file.WriteRequest) (*file.WriteResponse, error)
}

type fetcher interface {
	Run(ctx context.Context, rawURL string) (*fetch.Response, error)
}
