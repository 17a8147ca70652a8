package models

// GenerateRequest encapsulates all parameters for a generation request.
type GenerateRequest struct {
	// Messages is the full ordered conversation, system messages first.
	Messages []Message

	// Config contains optional generation parameters
	Config *GenerateConfig

	// Tools contains tool definitions for native tool calling
	Tools []ToolDefinition
}

// GenerateConfig contains optional generation parameters.
// All fields are pointers to distinguish between "not set" and "zero value".
type GenerateConfig struct {
	Temperature *float32
	MaxTokens   *int
}

// GenerateResponse contains the model's response and metadata.
type GenerateResponse struct {
	// Content contains the generated response
	Content ResponseContent

	// FinishReason explains why generation stopped
	FinishReason FinishReason

	// Metadata contains information about the generation
	Metadata ResponseMetadata
}

// ResponseContent is a union type representing different response types.
type ResponseContent struct {
	// Type indicates what the model produced
	Type ResponseType

	// For Type = ResponseTypeText
	Text string

	// For Type = ResponseTypeToolCall
	ToolCalls []ToolCall

	// For Type = ResponseTypeRefusal (safety block, policy violation)
	RefusalReason string
}

// ResponseType indicates the type of response from the model.
type ResponseType string

const (
	ResponseTypeText     ResponseType = "text"
	ResponseTypeToolCall ResponseType = "tool_call"
	ResponseTypeRefusal  ResponseType = "refusal"
)

// FinishReason is the normalized stop reason across providers.
// Unknown provider reasons are passed through verbatim.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// ResponseMetadata contains information about the generation.
type ResponseMetadata struct {
	// Token usage
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	// Model used
	ModelUsed string

	// Performance
	LatencyMs int64
}

// ToolDefinition defines a tool that the model can invoke.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *ParameterSchema // Pointer to allow nil (no params)
}

// ParameterSchema maps directly to standard JSON Schema.
type ParameterSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertySchema defines a single parameter property.
type PropertySchema struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Items       *PropertySchema `json:"items,omitempty"`
}

// Capabilities describes what features a provider supports.
type Capabilities struct {
	SupportsToolCalling bool
	SupportsTokenCount  bool

	// Model limits
	MaxContextTokens int
	MaxOutputTokens  int
}
