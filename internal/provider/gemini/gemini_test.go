package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	provider "github.com/Cyclone1070/q/internal/provider/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGenerate_TextResponse(t *testing.T) {
	var gotSystem *genai.Content
	var gotContents []*genai.Content
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			assert.Equal(t, "gemini-mock", model)
			gotSystem = config.SystemInstruction
			gotContents = contents
			return textResponse("Hello there!", genai.FinishReasonStop), nil
		},
	}
	p := NewGeminiProvider(mockClient, "gemini-mock")

	resp, err := p.Generate(context.Background(), &provider.GenerateRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "be brief"},
			{Role: provider.RoleUser, Content: "Hello"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, provider.ResponseTypeText, resp.Content.Type)
	assert.Equal(t, "Hello there!", resp.Content.Text)
	assert.Equal(t, provider.FinishReasonStop, resp.FinishReason)
	assert.Equal(t, 15, resp.Metadata.TotalTokens)
	assert.Equal(t, "gemini-mock", resp.Metadata.ModelUsed)

	require.NotNil(t, gotSystem)
	assert.Equal(t, "be brief", gotSystem.Parts[0].Text)
	require.Len(t, gotContents, 1)
	assert.Equal(t, genai.RoleUser, gotContents[0].Role)
}

func TestGenerate_ConfigApplied(t *testing.T) {
	temp := float32(0.3)
	maxTokens := 256
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			require.NotNil(t, config.Temperature)
			assert.Equal(t, temp, *config.Temperature)
			assert.Equal(t, int32(256), config.MaxOutputTokens)
			assert.NotEmpty(t, config.SafetySettings)
			return textResponse("ok", genai.FinishReasonStop), nil
		},
	}

	_, err := NewGeminiProvider(mockClient, "m").Generate(context.Background(), &provider.GenerateRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
		Config:   &provider.GenerateConfig{Temperature: &temp, MaxTokens: &maxTokens},
	})

	require.NoError(t, err)
}

func TestGenerate_ToolCall(t *testing.T) {
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			require.Len(t, config.Tools, 1)
			assert.Equal(t, "read_file", config.Tools[0].FunctionDeclarations[0].Name)
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{{
						FunctionCall: &genai.FunctionCall{Name: "read_file", Args: map[string]any{"path": "foo.txt"}},
					}}},
					FinishReason: genai.FinishReasonStop,
				}},
			}, nil
		},
	}
	p := NewGeminiProvider(mockClient, "m")

	resp, err := p.Generate(context.Background(), &provider.GenerateRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "Read foo.txt"}},
		Tools: []provider.ToolDefinition{{
			Name: "read_file",
			Parameters: &provider.ParameterSchema{
				Type:       "object",
				Properties: map[string]provider.PropertySchema{"path": {Type: "string"}},
				Required:   []string{"path"},
			},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, provider.ResponseTypeToolCall, resp.Content.Type)
	assert.Equal(t, provider.FinishReasonToolCalls, resp.FinishReason)
	require.Len(t, resp.Content.ToolCalls, 1)
	assert.Equal(t, "read_file", resp.Content.ToolCalls[0].Name)
	assert.Equal(t, "foo.txt", resp.Content.ToolCalls[0].Args["path"])
	assert.NotEmpty(t, resp.Content.ToolCalls[0].ID)
}

func TestGenerate_MaxTokens_ReportsLength(t *testing.T) {
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse("partial", genai.FinishReasonMaxTokens), nil
		},
	}

	resp, err := NewGeminiProvider(mockClient, "m").Generate(context.Background(), &provider.GenerateRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})

	require.NoError(t, err)
	assert.Equal(t, provider.FinishReasonLength, resp.FinishReason)
	assert.Equal(t, "partial", resp.Content.Text)
}

func TestGenerate_SafetyBlock(t *testing.T) {
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}, nil
		},
	}

	_, err := NewGeminiProvider(mockClient, "m").Generate(context.Background(), &provider.GenerateRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})

	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrorCodeContentBlocked, perr.Code)
	assert.False(t, perr.Retryable)
}

func TestGenerate_NoCandidates(t *testing.T) {
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		},
	}

	_, err := NewGeminiProvider(mockClient, "m").Generate(context.Background(), &provider.GenerateRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})

	assert.Error(t, err)
}

func TestGenerate_APIErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		code       provider.ErrorCode
		retryable  bool
		overloaded bool
	}{
		{"auth", &genai.APIError{Code: 401, Message: "bad key"}, provider.ErrorCodeAuth, false, false},
		{"rate limit", &genai.APIError{Code: 429, Message: "slow down"}, provider.ErrorCodeRateLimit, true, true},
		{"quota", &genai.APIError{Code: 429, Message: "Quota exceeded for metric"}, provider.ErrorCodeQuota, true, true},
		{"overloaded", &genai.APIError{Code: 503, Message: "The model is overloaded"}, provider.ErrorCodeOverloaded, true, true},
		{"internal", &genai.APIError{Code: 500, Message: "boom"}, provider.ErrorCodeUnavailable, true, false},
		{"bad request", &genai.APIError{Code: 400, Message: "nope"}, provider.ErrorCodeInvalidRequest, false, false},
		{"network", errors.New("connection reset"), provider.ErrorCodeNetwork, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &MockGeminiClient{
				GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					return nil, tt.err
				},
			}

			_, err := NewGeminiProvider(mockClient, "m").Generate(context.Background(), &provider.GenerateRequest{
				Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
			})

			var perr *provider.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.code, perr.Code)
			assert.Equal(t, tt.retryable, perr.Retryable)
			assert.Equal(t, tt.overloaded, provider.IsOverloaded(err))
		})
	}
}

func TestGenerate_RetryInfoParsed(t *testing.T) {
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, &genai.APIError{
				Code:    429,
				Message: "RESOURCE_EXHAUSTED",
				Details: []map[string]any{
					{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "7s"},
				},
			}
		},
	}

	_, err := NewGeminiProvider(mockClient, "m").Generate(context.Background(), &provider.GenerateRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})

	after := provider.GetRetryAfter(err)
	require.NotNil(t, after)
	assert.Equal(t, "7s", after.String())
}

func TestGenerate_InvalidAttachment(t *testing.T) {
	p := NewGeminiProvider(&MockGeminiClient{}, "m")

	_, err := p.Generate(context.Background(), &provider.GenerateRequest{
		Messages: []provider.Message{{
			Role:       provider.RoleUser,
			Attachment: &provider.Attachment{MimeType: "image/png", Content: "%%%", Encoding: "base64"},
		}},
	})

	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrorCodeInvalidRequest, perr.Code)
}

func TestCountTokens(t *testing.T) {
	var got []*genai.Content
	mockClient := &MockGeminiClient{
		CountTokensFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.CountTokensConfig) (*genai.CountTokensResponse, error) {
			got = contents
			return &genai.CountTokensResponse{TotalTokens: 42}, nil
		},
	}

	n, err := NewGeminiProvider(mockClient, "m").CountTokens(context.Background(), []provider.Message{
		{Role: provider.RoleSystem, Content: "sys"},
		{Role: provider.RoleUser, Content: "hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, 42, n)
	require.Len(t, got, 2)
	assert.Equal(t, genai.RoleUser, got[0].Role)
}

func TestCountTokens_Error(t *testing.T) {
	mockClient := &MockGeminiClient{
		CountTokensFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.CountTokensConfig) (*genai.CountTokensResponse, error) {
			return nil, &genai.APIError{Code: 503}
		},
	}

	_, err := NewGeminiProvider(mockClient, "m").CountTokens(context.Background(), []provider.Message{{Role: provider.RoleUser, Content: "x"}})

	assert.True(t, provider.IsOverloaded(err))
}

func TestNewGeminiProvider_Panics(t *testing.T) {
	assert.Panics(t, func() { NewGeminiProvider(nil, "m") })
	assert.Panics(t, func() { NewGeminiProvider(&MockGeminiClient{}, "") })
}

func TestProviderMetadata(t *testing.T) {
	p := NewGeminiProvider(&MockGeminiClient{}, "gemini-2.5-flash")

	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, "gemini-2.5-flash", p.GetModel())
	assert.True(t, p.GetCapabilities().SupportsToolCalling)
	assert.True(t, p.GetCapabilities().SupportsTokenCount)
}

func TestMessageToGeminiContent(t *testing.T) {
	t.Run("image attachment becomes inline bytes", func(t *testing.T) {
		data := []byte{0x89, 'P', 'N', 'G'}
		content, err := messageToGeminiContent(provider.Message{
			Role:       provider.RoleUser,
			Content:    "look",
			Attachment: &provider.Attachment{MimeType: "image/png", Content: base64.StdEncoding.EncodeToString(data), Encoding: "base64"},
		})

		require.NoError(t, err)
		require.Len(t, content.Parts, 2)
		assert.Equal(t, "look", content.Parts[0].Text)
		require.NotNil(t, content.Parts[1].InlineData)
		assert.Equal(t, data, content.Parts[1].InlineData.Data)
		assert.Equal(t, "image/png", content.Parts[1].InlineData.MIMEType)
	})

	t.Run("text attachment stays text", func(t *testing.T) {
		content, err := messageToGeminiContent(provider.Message{
			Role:       provider.RoleUser,
			Attachment: &provider.Attachment{MimeType: "text/plain", Content: "page"},
		})

		require.NoError(t, err)
		require.Len(t, content.Parts, 1)
		assert.Equal(t, "page", content.Parts[0].Text)
	})

	t.Run("assistant tool calls use model role", func(t *testing.T) {
		content, err := messageToGeminiContent(provider.Message{
			Role:      provider.RoleAssistant,
			ToolCalls: []provider.ToolCall{{ID: "c1", Name: "shell", Args: map[string]any{"command": "ls"}}},
		})

		require.NoError(t, err)
		assert.Equal(t, genai.RoleModel, content.Role)
		require.NotNil(t, content.Parts[0].FunctionCall)
		assert.Equal(t, "c1", content.Parts[0].FunctionCall.ID)
	})

	t.Run("tool result errors are prefixed", func(t *testing.T) {
		content, err := messageToGeminiContent(provider.Message{
			Role:        provider.RoleTool,
			ToolResults: []provider.ToolResult{{ID: "c1", Name: "shell", Error: "denied"}},
		})

		require.NoError(t, err)
		assert.Equal(t, genai.RoleUser, content.Role)
		resp := content.Parts[0].FunctionResponse
		require.NotNil(t, resp)
		assert.Equal(t, "Error: denied", resp.Response["content"])
	})

	t.Run("empty message is skipped", func(t *testing.T) {
		content, err := messageToGeminiContent(provider.Message{Role: provider.RoleUser})

		require.NoError(t, err)
		assert.Nil(t, content)
	})
}

func TestToGeminiType(t *testing.T) {
	assert.Equal(t, genai.TypeInteger, toGeminiType("integer"))
	assert.Equal(t, genai.TypeArray, toGeminiType("array"))
	assert.Equal(t, genai.TypeString, toGeminiType("mystery"))
}
