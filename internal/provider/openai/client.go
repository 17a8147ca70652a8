package openai

import (
	"context"

	sdk "github.com/sashabaranov/go-openai"
)

// GroqBaseURL is the OpenAI-compatible endpoint used for the groq provider.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// ChatClient is the part of the go-openai client the provider uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req sdk.ChatCompletionRequest) (sdk.ChatCompletionResponse, error)
}

// Config selects the endpoint and credentials for an OpenAI-compatible API.
type Config struct {
	// Name is reported by Provider.Name, e.g. "openai" or "groq".
	Name    string
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient builds a go-openai client. The groq name selects its endpoint
// when BaseURL is empty.
func NewClient(cfg Config) *sdk.Client {
	clientConfig := sdk.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		clientConfig.BaseURL = cfg.BaseURL
	case cfg.Name == "groq":
		clientConfig.BaseURL = GroqBaseURL
	}
	return sdk.NewClientWithConfig(clientConfig)
}

// New builds a provider talking to the real API.
func New(cfg Config) *Provider {
	return NewProvider(cfg.Name, NewClient(cfg), cfg.Model)
}
