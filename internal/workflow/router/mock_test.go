package router

import (
	"context"
	"errors"

	"github.com/Cyclone1070/q/internal/policy"
	"github.com/Cyclone1070/q/internal/tool/fetch"
	"github.com/Cyclone1070/q/internal/tool/file"
	"github.com/Cyclone1070/q/internal/tool/shell"
	"github.com/Cyclone1070/q/internal/workflow"
)

type MockApprover struct {
	RequestApprovalFunc func(ctx context.Context, req policy.Request) policy.Decision
	Requests            []policy.Request
}

func (m *MockApprover) RequestApproval(ctx context.Context, req policy.Request) policy.Decision {
	m.Requests = append(m.Requests, req)
	if m.RequestApprovalFunc != nil {
		return m.RequestApprovalFunc(ctx, req)
	}
	return policy.Decision{Outcome: policy.Approved}
}

func approveAll() *MockApprover { return &MockApprover{} }

func decideWith(d policy.Decision) *MockApprover {
	return &MockApprover{RequestApprovalFunc: func(context.Context, policy.Request) policy.Decision { return d }}
}

// MockAsker returns the queued answers in order, then io errors.
type MockAsker struct {
	Answers []string
	Prompts []string
}

func (m *MockAsker) Ask(ctx context.Context, prompt, def string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if len(m.Answers) == 0 {
		return "", errors.New("EOF")
	}
	a := m.Answers[0]
	m.Answers = m.Answers[1:]
	if a == "" {
		return def, nil
	}
	return a, nil
}

type MockShell struct {
	RunFunc func(ctx context.Context, command string) (*shell.Result, error)
	Calls   []string
}

func (m *MockShell) Run(ctx context.Context, command string) (*shell.Result, error) {
	m.Calls = append(m.Calls, command)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, command)
	}
	return &shell.Result{Command: command, Stdout: "ok"}, nil
}

type MockReader struct {
	RunFunc func(ctx context.Context, req *file.ReadRequest) (*file.ReadResponse, error)
}

func (m *MockReader) Run(ctx context.Context, req *file.ReadRequest) (*file.ReadResponse, error) {
	return m.RunFunc(ctx, req)
}

type MockWriter struct {
	RunFunc func(ctx context.Context, req *file.WriteRequest) (*file.WriteResponse, error)
}

func (m *MockWriter) Run(ctx context.Context, req *file.WriteRequest) (*file.WriteResponse, error) {
	return m.RunFunc(ctx, req)
}

type MockFetcher struct {
	RunFunc func(ctx context.Context, rawURL string) (*fetch.Response, error)
}

func (m *MockFetcher) Run(ctx context.Context, rawURL string) (*fetch.Response, error) {
	return m.RunFunc(ctx, rawURL)
}

type eventRecorder struct {
	events []workflow.Event
}

func (r *eventRecorder) Emit(e workflow.Event) { r.events = append(r.events, e) }

func unusedTools() Tools {
	fail := errors.New("tool must not run")
	return Tools{
		Shell: &MockShell{RunFunc: func(context.Context, string) (*shell.Result, error) { return nil, fail }},
		Read:  &MockReader{RunFunc: func(context.Context, *file.ReadRequest) (*file.ReadResponse, error) { return nil, fail }},
		Write: &MockWriter{RunFunc: func(context.Context, *file.WriteRequest) (*file.WriteResponse, error) { return nil, fail }},
		Fetch: &MockFetcher{RunFunc: func(context.Context, string) (*fetch.Response, error) { return nil, fail }},
	}
}
