package conversation

import (
	"context"
	"time"

	"github.com/Cyclone1070/q/internal/provider/models"
)

type MockProvider struct {
	GenerateFunc    func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error)
	CountTokensFunc func(ctx context.Context, messages []models.Message) (int, error)
	Capabilities    models.Capabilities
}

func (m *MockProvider) Name() string     { return "mock" }
func (m *MockProvider) GetModel() string { return "mock-model" }
func (m *MockProvider) GetCapabilities() models.Capabilities {
	return m.Capabilities
}

func (m *MockProvider) Generate(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
	return m.GenerateFunc(ctx, req)
}

func (m *MockProvider) CountTokens(ctx context.Context, messages []models.Message) (int, error) {
	if m.CountTokensFunc != nil {
		return m.CountTokensFunc(ctx, messages)
	}
	return 0, models.ErrTokenCountingNotSupported
}

type MockLimiter struct {
	Waits    []int
	Recorded []int
	WaitErr  error
}

func (m *MockLimiter) Wait(ctx context.Context, upcoming int) (time.Duration, error) {
	m.Waits = append(m.Waits, upcoming)
	return 0, m.WaitErr
}

func (m *MockLimiter) Record(tokens int) { m.Recorded = append(m.Recorded, tokens) }

// passRetrier runs the operation once.
type passRetrier struct{}

func (passRetrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	return op(ctx)
}

type MockTools struct {
	ExecuteFunc func(ctx context.Context, tc models.ToolCall) models.ToolResult
}

func (m *MockTools) Declarations() []models.ToolDefinition {
	return []models.ToolDefinition{{Name: "shell", Description: "run a command"}}
}

func (m *MockTools) Execute(ctx context.Context, tc models.ToolCall) models.ToolResult {
	return m.ExecuteFunc(ctx, tc)
}

func textResponse(text string, reason models.FinishReason, tokens int) *models.GenerateResponse {
	return &models.GenerateResponse{
		Content:      models.ResponseContent{Type: models.ResponseTypeText, Text: text},
		FinishReason: reason,
		Metadata:     models.ResponseMetadata{TotalTokens: tokens, ModelUsed: "mock-model"},
	}
}

func toolResponse(calls ...models.ToolCall) *models.GenerateResponse {
	return &models.GenerateResponse{
		Content:      models.ResponseContent{Type: models.ResponseTypeToolCall, ToolCalls: calls},
		FinishReason: models.FinishReasonToolCalls,
		Metadata:     models.ResponseMetadata{TotalTokens: 10},
	}
}
