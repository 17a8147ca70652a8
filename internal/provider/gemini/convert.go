package gemini

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	provider "github.com/Cyclone1070/q/internal/provider/models"
	"github.com/oklog/ulid/v2"
	"google.golang.org/genai"
)

// toGeminiContents splits system messages into a system instruction and
// converts the rest to Gemini contents.
func toGeminiContents(messages []provider.Message) (*genai.Content, []*genai.Content, error) {
	var systemParts []*genai.Part
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == provider.RoleSystem {
			if msg.Content != "" {
				systemParts = append(systemParts, genai.NewPartFromText(msg.Content))
			}
			continue
		}
		content, err := messageToGeminiContent(msg)
		if err != nil {
			return nil, nil, err
		}
		if content != nil {
			contents = append(contents, content)
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: systemParts}
	}
	return system, contents, nil
}

// messageToGeminiContent converts a single message to Gemini Content format.
func messageToGeminiContent(msg provider.Message) (*genai.Content, error) {
	// Determine role
	role := genai.RoleUser
	if msg.Role == provider.RoleAssistant {
		role = genai.RoleModel
	}

	parts := make([]*genai.Part, 0)

	// Add text content if present
	if msg.Content != "" && len(msg.ToolResults) == 0 {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}

	if msg.Attachment != nil {
		part, err := attachmentPart(msg.Attachment)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	// Add tool calls if present (model messages)
	for _, toolCall := range msg.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   toolCall.ID,
				Name: toolCall.Name,
				Args: toolCall.Args,
			},
		})
	}

	// Add tool results if present (tool messages)
	for _, result := range msg.ToolResults {
		responseContent := result.Content
		if result.Error != "" {
			responseContent = fmt.Sprintf("Error: %s", result.Error)
		}
		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:   result.ID,
				Name: result.Name,
				Response: map[string]any{
					"content": responseContent,
				},
			},
		})
	}

	// Skip empty messages
	if len(parts) == 0 {
		return nil, nil
	}

	return &genai.Content{
		Role:  role,
		Parts: parts,
	}, nil
}

func attachmentPart(a *provider.Attachment) (*genai.Part, error) {
	if a.Encoding != "base64" {
		return genai.NewPartFromText(a.Content), nil
	}
	data, err := base64.StdEncoding.DecodeString(a.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s attachment: %w", a.MimeType, err)
	}
	return genai.NewPartFromBytes(data, a.MimeType), nil
}

// toGeminiConfig converts internal GenerateConfig to Gemini config.
func toGeminiConfig(config *provider.GenerateConfig) *genai.GenerateContentConfig {
	geminiConfig := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
	}

	if config == nil {
		return geminiConfig
	}

	if config.Temperature != nil {
		geminiConfig.Temperature = config.Temperature
	}
	if config.MaxTokens != nil {
		geminiConfig.MaxOutputTokens = int32(*config.MaxTokens)
	}

	return geminiConfig
}

// defaultSafetySettings returns safety settings with BLOCK_NONE for all categories.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockThresholdOff,
		},
	}
}

// toGeminiTools converts internal ToolDefinition to Gemini tools.
func toGeminiTools(tools []provider.ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(tools))

	for _, tool := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}

		if tool.Parameters != nil {
			fd.Parameters = toGeminiSchema(tool.Parameters)
		}

		functionDeclarations = append(functionDeclarations, fd)
	}

	return []*genai.Tool{
		{FunctionDeclarations: functionDeclarations},
	}
}

// toGeminiSchema converts ParameterSchema to Gemini Schema.
func toGeminiSchema(params *provider.ParameterSchema) *genai.Schema {
	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if params.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range params.Properties {
			schema.Properties[name] = &genai.Schema{
				Type:        toGeminiType(prop.Type),
				Description: prop.Description,
			}

			if len(prop.Enum) > 0 {
				schema.Properties[name].Enum = prop.Enum
			}

			if prop.Items != nil {
				schema.Properties[name].Items = &genai.Schema{
					Type:        toGeminiType(prop.Items.Type),
					Description: prop.Items.Description,
				}
			}
		}
	}

	if len(params.Required) > 0 {
		schema.Required = params.Required
	}

	return schema
}

// toGeminiType converts string type to Gemini Type.
func toGeminiType(typeStr string) genai.Type {
	switch typeStr {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts Gemini response to internal format.
func fromGeminiResponse(resp *genai.GenerateContentResponse, modelUsed string) (*provider.GenerateResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeInvalidRequest,
			Message: "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]

	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, &provider.ProviderError{
			Code:      provider.ErrorCodeContentBlocked,
			Message:   "content blocked by safety filters",
			Retryable: false,
		}
	}

	out := &provider.GenerateResponse{
		Content: provider.ResponseContent{
			Type: provider.ResponseTypeText,
		},
		FinishReason: toFinishReason(candidate.FinishReason),
		Metadata:     buildMetadata(resp.UsageMetadata, modelUsed),
	}

	if candidate.Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				id = ulid.Make().String()
			}
			out.Content.ToolCalls = append(out.Content.ToolCalls, provider.ToolCall{
				ID:   id,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}
	out.Content.Text = text.String()

	if len(out.Content.ToolCalls) > 0 {
		out.Content.Type = provider.ResponseTypeToolCall
		out.FinishReason = provider.FinishReasonToolCalls
	}

	return out, nil
}

func toFinishReason(r genai.FinishReason) provider.FinishReason {
	switch r {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified:
		return provider.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return provider.FinishReasonLength
	case genai.FinishReasonRecitation, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		return provider.FinishReasonContentFilter
	default:
		return provider.FinishReason(strings.ToLower(string(r)))
	}
}

// buildMetadata builds response metadata from usage data.
func buildMetadata(usage *genai.GenerateContentResponseUsageMetadata, modelUsed string) provider.ResponseMetadata {
	metadata := provider.ResponseMetadata{
		ModelUsed: modelUsed,
	}

	if usage != nil {
		metadata.PromptTokens = int(usage.PromptTokenCount)
		metadata.CompletionTokens = int(usage.CandidatesTokenCount)
		metadata.TotalTokens = int(usage.TotalTokenCount)
	}

	return metadata
}

// asAPIError extracts a Gemini API error in either value or pointer form.
func asAPIError(err error) (*genai.APIError, bool) {
	var ptr *genai.APIError
	if errors.As(err, &ptr) {
		return ptr, true
	}
	var val genai.APIError
	if errors.As(err, &val) {
		return &val, true
	}
	return nil, false
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	apiErr, ok := asAPIError(err)
	if !ok {
		// Generic network error
		return &provider.ProviderError{
			Code:       provider.ErrorCodeNetwork,
			Message:    "network error",
			Underlying: err,
			Retryable:  true,
		}
	}

	switch apiErr.Code {
	case 401, 403:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeAuth,
			Message:    "authentication failed",
			Underlying: err,
			Retryable:  false,
		}
	case 429:
		code := provider.ErrorCodeRateLimit
		if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
			code = provider.ErrorCodeQuota
		}
		return &provider.ProviderError{
			Code:       code,
			Message:    "rate limit exceeded",
			Underlying: err,
			Retryable:  true,
			RetryAfter: parseRetryAfter(apiErr),
		}
	case 400:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeInvalidRequest,
			Message:    fmt.Sprintf("invalid request: %s", apiErr.Message),
			Underlying: err,
			Retryable:  false,
		}
	case 503:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeOverloaded,
			Message:    "model overloaded",
			Underlying: err,
			Retryable:  true,
		}
	case 500, 502, 504:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeUnavailable,
			Message:    "service unavailable",
			Underlying: err,
			Retryable:  true,
		}
	default:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeNetwork,
			Message:    fmt.Sprintf("API error: %s", apiErr.Message),
			Underlying: err,
			Retryable:  true,
		}
	}
}

// parseRetryAfter reads the retryDelay of a google.rpc.RetryInfo detail.
func parseRetryAfter(apiErr *genai.APIError) *time.Duration {
	for _, detail := range apiErr.Details {
		typ, _ := detail["@type"].(string)
		if !strings.HasSuffix(typ, "RetryInfo") {
			continue
		}
		delay, _ := detail["retryDelay"].(string)
		if d, err := time.ParseDuration(delay); err == nil {
			return &d
		}
	}
	return nil
}
