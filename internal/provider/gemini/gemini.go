package gemini

import (
	"context"
	"sync"
	"time"

	provider "github.com/Cyclone1070/q/internal/provider/models"
	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client    GeminiClient
	modelName string
	mu        sync.RWMutex
	now       func() time.Time
}

// NewGeminiProvider creates a new GeminiProvider with the specified client and model.
func NewGeminiProvider(client GeminiClient, modelName string) *GeminiProvider {
	if client == nil {
		panic("client is required")
	}
	if modelName == "" {
		panic("modelName is required")
	}
	return &GeminiProvider{
		client:    client,
		modelName: modelName,
		now:       time.Now,
	}
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Generate sends a request to the Gemini API and returns the response.
func (p *GeminiProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	p.mu.RLock()
	model := p.modelName
	p.mu.RUnlock()

	// Convert internal types to Gemini types
	system, contents, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:       provider.ErrorCodeInvalidRequest,
			Message:    "failed to convert messages",
			Underlying: err,
		}
	}
	config := toGeminiConfig(req.Config)
	config.SystemInstruction = system
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	start := p.now()
	resp, err := p.client.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	out, err := fromGeminiResponse(resp, model)
	if out != nil {
		out.Metadata.LatencyMs = p.now().Sub(start).Milliseconds()
	}
	return out, err
}

// CountTokens returns the number of tokens in the provided messages.
func (p *GeminiProvider) CountTokens(ctx context.Context, messages []provider.Message) (int, error) {
	p.mu.RLock()
	model := p.modelName
	p.mu.RUnlock()

	// System instructions are not accepted by the Gemini API count endpoint,
	// so they are counted as ordinary user text.
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == provider.RoleSystem {
			msg.Role = provider.RoleUser
		}
		content, err := messageToGeminiContent(msg)
		if err != nil {
			return 0, err
		}
		if content != nil {
			contents = append(contents, content)
		}
	}

	resp, err := p.client.CountTokens(ctx, model, contents, nil)
	if err != nil {
		return 0, mapGeminiError(err)
	}

	return int(resp.TotalTokens), nil
}

// GetModel returns the currently active model name.
func (p *GeminiProvider) GetModel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modelName
}

// GetCapabilities returns what features the provider/model supports.
func (p *GeminiProvider) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsToolCalling: true,
		SupportsTokenCount:  true,
		MaxContextTokens:    1_000_000,
		MaxOutputTokens:     8192, // Gemini default
	}
}
