package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/Cyclone1070/q/internal/provider/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConversation(p *MockProvider, lim *MockLimiter, tools toolExecutor) *Conversation {
	return New(p, lim, passRetrier{}, tools, "system prompt", Options{Temperature: 0.1, MaxTokens: 100, MaxToolCycles: 5}, nil)
}

func TestSend_TextReply(t *testing.T) {
	var got *models.GenerateRequest
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			got = req
			return textResponse("hello", models.FinishReasonStop, 42), nil
		},
	}
	lim := &MockLimiter{}
	c := newTestConversation(p, lim, nil)

	reply, err := c.Send(context.Background(), "hi there")

	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, models.RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "system prompt", got.Messages[0].Content)
	assert.Equal(t, "hi there", got.Messages[1].Content)
	require.NotNil(t, got.Config.Temperature)
	assert.Equal(t, float32(0.1), *got.Config.Temperature)
	assert.Equal(t, 100, *got.Config.MaxTokens)
	assert.Nil(t, got.Tools)

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "hello"}, history[1])
	assert.Equal(t, []int{42}, lim.Recorded)
}

func TestSend_EstimatesTokensFromWords(t *testing.T) {
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			return textResponse("ok", models.FinishReasonStop, 0), nil
		},
	}
	lim := &MockLimiter{}
	c := New(p, lim, passRetrier{}, nil, "", Options{}, nil)

	_, err := c.Send(context.Background(), "one two three four five six seven eight nine ten")

	require.NoError(t, err)
	assert.Equal(t, []int{13}, lim.Waits)
	// No usage reported: the estimate plus the reply estimate is recorded.
	assert.Equal(t, []int{15}, lim.Recorded)
}

func TestSend_UsesProviderTokenCount(t *testing.T) {
	p := &MockProvider{
		Capabilities: models.Capabilities{SupportsTokenCount: true},
		CountTokensFunc: func(ctx context.Context, messages []models.Message) (int, error) {
			return 77, nil
		},
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			return textResponse("ok", models.FinishReasonStop, 80), nil
		},
	}
	lim := &MockLimiter{}
	c := newTestConversation(p, lim, nil)

	_, err := c.Send(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, []int{77}, lim.Waits)
}

func TestSend_LengthContinuation(t *testing.T) {
	calls := 0
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			calls++
			if calls == 1 {
				return textResponse("first part ", models.FinishReasonLength, 5), nil
			}
			last := req.Messages[len(req.Messages)-1]
			assert.Equal(t, models.RoleAssistant, last.Role)
			assert.Equal(t, "first part ", last.Content)
			return textResponse("second part", models.FinishReasonStop, 5), nil
		},
	}
	c := newTestConversation(p, &MockLimiter{}, nil)

	reply, err := c.Send(context.Background(), "write a lot")

	require.NoError(t, err)
	assert.Equal(t, "first part second part", reply)
	assert.Equal(t, 2, calls)
	assert.Len(t, c.History(), 3)
}

func TestSend_LengthContinuationIsCapped(t *testing.T) {
	calls := 0
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			calls++
			return textResponse("x", models.FinishReasonLength, 1), nil
		},
	}
	c := newTestConversation(p, &MockLimiter{}, nil)

	reply, err := c.Send(context.Background(), "go")

	require.NoError(t, err)
	assert.Equal(t, 5, calls)
	assert.Equal(t, "xxxxx", reply)
}

func TestSend_UnexpectedFinishReason(t *testing.T) {
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			return textResponse("", models.FinishReasonContentFilter, 1), nil
		},
	}
	c := newTestConversation(p, &MockLimiter{}, nil)

	reply, err := c.Send(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "Unexpected finish reason: content_filter", reply)
	history := c.History()
	assert.Equal(t, reply, history[len(history)-1].Content)
}

func TestSend_ProviderErrorBecomesReply(t *testing.T) {
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			return nil, &models.ProviderError{Code: models.ErrorCodeAuth, Message: "authentication failed"}
		},
	}
	lim := &MockLimiter{}
	c := newTestConversation(p, lim, nil)

	reply, err := c.Send(context.Background(), "hi")

	require.NoError(t, err)
	assert.Contains(t, reply, "Error communicating with LLM: ")
	assert.Contains(t, reply, "authentication failed")
	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Empty(t, lim.Recorded)
}

func TestSend_CancelledContextReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	c := newTestConversation(p, &MockLimiter{}, nil)

	_, err := c.Send(ctx, "hi")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSend_LimiterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			t.Fatal("provider must not be called")
			return nil, nil
		},
	}
	c := newTestConversation(p, &MockLimiter{WaitErr: context.Canceled}, nil)

	_, err := c.Send(ctx, "hi")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSend_ToolRoundTrip(t *testing.T) {
	calls := 0
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			calls++
			require.Len(t, req.Tools, 1)
			if calls == 1 {
				return toolResponse(models.ToolCall{ID: "1", Name: "shell", Args: map[string]any{"command": "ls"}}), nil
			}
			last := req.Messages[len(req.Messages)-1]
			assert.Equal(t, models.RoleTool, last.Role)
			require.Len(t, last.ToolResults, 1)
			assert.Equal(t, "file.txt", last.ToolResults[0].Content)
			return textResponse("done", models.FinishReasonStop, 3), nil
		},
	}
	tools := &MockTools{
		ExecuteFunc: func(ctx context.Context, tc models.ToolCall) models.ToolResult {
			assert.Equal(t, "ls", tc.Args["command"])
			return models.ToolResult{ID: tc.ID, Name: tc.Name, Content: "file.txt"}
		},
	}
	c := newTestConversation(p, &MockLimiter{}, tools)

	reply, err := c.Send(context.Background(), "list files")

	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	assert.Equal(t, 2, calls)
	assert.Len(t, c.History(), 4)
}

func TestSend_ToolCycleCap(t *testing.T) {
	calls, executed := 0, 0
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			calls++
			return toolResponse(models.ToolCall{ID: "x", Name: "shell"}), nil
		},
	}
	tools := &MockTools{
		ExecuteFunc: func(ctx context.Context, tc models.ToolCall) models.ToolResult {
			executed++
			return models.ToolResult{ID: tc.ID, Name: tc.Name, Content: "ok"}
		},
	}
	c := newTestConversation(p, &MockLimiter{}, tools)

	reply, err := c.Send(context.Background(), "loop forever")

	require.NoError(t, err)
	assert.Equal(t, "Error: exceeded maximum tool cycles (5)", reply)
	assert.Equal(t, 6, calls)
	assert.Equal(t, 5, executed)
}

func TestSendAttachment_Image(t *testing.T) {
	var got *models.GenerateRequest
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			got = req
			return textResponse("a cat", models.FinishReasonStop, 9), nil
		},
	}
	c := newTestConversation(p, &MockLimiter{}, nil)
	c.SetHistory([]models.Message{{Role: models.RoleUser, Content: "earlier"}})

	reply, err := c.SendAttachment(context.Background(), "Here is the content of cat.png:", models.Attachment{MimeType: "image/png", Content: "aGk=", Encoding: "base64"})

	require.NoError(t, err)
	assert.Equal(t, "a cat", reply)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, models.RoleSystem, got.Messages[0].Role)
	require.NotNil(t, got.Messages[1].Attachment)
	assert.Equal(t, "image/png", got.Messages[1].Attachment.MimeType)

	history := c.History()
	require.Len(t, history, 3)
	assert.Equal(t, "Here is the content of cat.png:", history[1].Content)
	assert.Nil(t, history[1].Attachment)
	assert.Equal(t, "a cat", history[2].Content)
}

func TestSendAttachment_TextIsInlined(t *testing.T) {
	var got *models.GenerateRequest
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			got = req
			return textResponse("ok", models.FinishReasonStop, 1), nil
		},
	}
	c := newTestConversation(p, &MockLimiter{}, nil)

	_, err := c.SendAttachment(context.Background(), "Here is the content from https://x.test:", models.Attachment{MimeType: "text/plain", Content: "body text"})

	require.NoError(t, err)
	msg := got.Messages[1]
	assert.Nil(t, msg.Attachment)
	assert.Equal(t, "Here is the content from https://x.test:\n\nbody text", msg.Content)
}

func TestSendAttachment_ProviderError(t *testing.T) {
	p := &MockProvider{
		GenerateFunc: func(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
			return nil, errors.New("boom")
		},
	}
	c := newTestConversation(p, &MockLimiter{}, nil)

	reply, err := c.SendAttachment(context.Background(), "x", models.Attachment{MimeType: "image/png", Content: "aGk=", Encoding: "base64"})

	require.NoError(t, err)
	assert.Equal(t, "Error communicating with LLM: boom", reply)
}

func TestClearAndSetHistory(t *testing.T) {
	c := newTestConversation(&MockProvider{}, &MockLimiter{}, nil)
	msgs := []models.Message{{Role: models.RoleUser, Content: "a"}}
	c.SetHistory(msgs)
	msgs[0].Content = "mutated"

	assert.Equal(t, "a", c.History()[0].Content)
	c.Clear()
	assert.Empty(t, c.History())
}

func TestNew_PanicsOnMissingDeps(t *testing.T) {
	assert.Panics(t, func() { New(nil, &MockLimiter{}, passRetrier{}, nil, "", Options{}, nil) })
	assert.Panics(t, func() { New(&MockProvider{}, nil, passRetrier{}, nil, "", Options{}, nil) })
	assert.Panics(t, func() { New(&MockProvider{}, &MockLimiter{}, nil, nil, "", Options{}, nil) })
}
