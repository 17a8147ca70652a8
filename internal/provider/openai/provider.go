// Package openai adapts OpenAI-compatible chat completion APIs (OpenAI, Groq)
// to the provider interface.
package openai

import (
	"context"
	"time"

	provider "github.com/Cyclone1070/q/internal/provider/models"
	sdk "github.com/sashabaranov/go-openai"
)

// Provider implements models.Provider over the chat completions endpoint.
type Provider struct {
	name   string
	client ChatClient
	model  string
	now    func() time.Time
}

// NewProvider creates a Provider. name defaults to "openai".
func NewProvider(name string, client ChatClient, model string) *Provider {
	if client == nil {
		panic("client is required")
	}
	if model == "" {
		panic("model is required")
	}
	if name == "" {
		name = "openai"
	}
	return &Provider{name: name, client: client, model: model, now: time.Now}
}

func (p *Provider) Name() string { return p.name }

// Generate sends one chat completion request.
func (p *Provider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	msgs, err := convertMessages(req.Messages)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:       provider.ErrorCodeInvalidRequest,
			Message:    "failed to convert messages",
			Underlying: err,
		}
	}

	chatReq := sdk.ChatCompletionRequest{
		Model:    p.model,
		Messages: msgs,
		Tools:    convertTools(req.Tools),
	}
	if req.Config != nil {
		if req.Config.Temperature != nil {
			chatReq.Temperature = *req.Config.Temperature
		}
		if req.Config.MaxTokens != nil {
			chatReq.MaxTokens = *req.Config.MaxTokens
		}
	}

	start := p.now()
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, mapError(err)
	}

	out, err := convertResponse(resp, p.model)
	if out != nil {
		out.Metadata.LatencyMs = p.now().Sub(start).Milliseconds()
	}
	return out, err
}

// CountTokens is not offered by the chat completions API.
func (p *Provider) CountTokens(ctx context.Context, messages []provider.Message) (int, error) {
	return 0, provider.ErrTokenCountingNotSupported
}

func (p *Provider) GetModel() string { return p.model }

func (p *Provider) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsToolCalling: true,
		SupportsTokenCount:  false,
		MaxContextTokens:    128_000,
		MaxOutputTokens:     4096,
	}
}
