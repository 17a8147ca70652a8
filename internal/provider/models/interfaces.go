package models

import (
	"context"
)

// Provider defines the interface for LLM backends.
type Provider interface {
	// Name returns the provider identifier, e.g. "gemini".
	Name() string

	// Generate sends a request to the model and returns the response.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// CountTokens returns the number of tokens in the provided messages.
	// Providers without a counting endpoint return ErrTokenCountingNotSupported.
	CountTokens(ctx context.Context, messages []Message) (int, error)

	// GetModel returns the currently active model name.
	GetModel() string

	// GetCapabilities returns what features the provider/model supports.
	GetCapabilities() Capabilities
}
