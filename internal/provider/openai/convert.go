package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	provider "github.com/Cyclone1070/q/internal/provider/models"
	"github.com/oklog/ulid/v2"
	sdk "github.com/sashabaranov/go-openai"
)

func convertMessages(msgs []provider.Message) ([]sdk.ChatCompletionMessage, error) {
	result := make([]sdk.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		// Tool results become one message per call id.
		if len(m.ToolResults) > 0 {
			for _, r := range m.ToolResults {
				content := r.Content
				if r.Error != "" {
					content = "Error: " + r.Error
				}
				result = append(result, sdk.ChatCompletionMessage{
					Role:       sdk.ChatMessageRoleTool,
					Content:    content,
					Name:       r.Name,
					ToolCallID: r.ID,
				})
			}
			continue
		}

		msg := sdk.ChatCompletionMessage{Role: string(m.Role)}
		if m.Attachment != nil {
			parts, err := attachmentParts(m.Content, m.Attachment)
			if err != nil {
				return nil, err
			}
			msg.MultiContent = parts
		} else {
			msg.Content = m.Content
		}

		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to encode arguments of %s: %w", tc.Name, err)
			}
			msg.ToolCalls = append(msg.ToolCalls, sdk.ToolCall{
				ID:   tc.ID,
				Type: sdk.ToolTypeFunction,
				Function: sdk.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}

		result = append(result, msg)
	}
	return result, nil
}

// attachmentParts renders text plus attachment as multi-part content.
// Images travel as data URLs; other attachments must already be text.
func attachmentParts(text string, a *provider.Attachment) ([]sdk.ChatMessagePart, error) {
	var parts []sdk.ChatMessagePart
	if text != "" {
		parts = append(parts, sdk.ChatMessagePart{Type: sdk.ChatMessagePartTypeText, Text: text})
	}
	switch {
	case a.Encoding != "base64":
		parts = append(parts, sdk.ChatMessagePart{Type: sdk.ChatMessagePartTypeText, Text: a.Content})
	case strings.HasPrefix(a.MimeType, "image/"):
		parts = append(parts, sdk.ChatMessagePart{
			Type: sdk.ChatMessagePartTypeImageURL,
			ImageURL: &sdk.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", a.MimeType, a.Content),
				Detail: sdk.ImageURLDetailAuto,
			},
		})
	default:
		return nil, fmt.Errorf("unsupported attachment type %s", a.MimeType)
	}
	return parts, nil
}

func convertTools(tools []provider.ToolDefinition) []sdk.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]sdk.Tool, len(tools))
	for i, t := range tools {
		def := &sdk.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
		}
		if t.Parameters != nil {
			def.Parameters = t.Parameters
		} else {
			def.Parameters = &provider.ParameterSchema{Type: "object", Properties: map[string]provider.PropertySchema{}}
		}
		result[i] = sdk.Tool{Type: sdk.ToolTypeFunction, Function: def}
	}
	return result
}

func convertResponse(resp sdk.ChatCompletionResponse, model string) (*provider.GenerateResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeInvalidRequest,
			Message: "no choices in response",
		}
	}
	choice := resp.Choices[0]

	calls, err := convertToolCalls(choice.Message.ToolCalls)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:       provider.ErrorCodeInvalidRequest,
			Message:    "malformed tool call arguments",
			Underlying: err,
		}
	}

	if resp.Model != "" {
		model = resp.Model
	}
	out := &provider.GenerateResponse{
		Content: provider.ResponseContent{
			Type:      provider.ResponseTypeText,
			Text:      choice.Message.Content,
			ToolCalls: calls,
		},
		FinishReason: convertFinishReason(choice.FinishReason),
		Metadata: provider.ResponseMetadata{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
			ModelUsed:        model,
		},
	}

	switch {
	case len(calls) > 0:
		out.Content.Type = provider.ResponseTypeToolCall
		out.FinishReason = provider.FinishReasonToolCalls
	case choice.Message.Refusal != "":
		out.Content.Type = provider.ResponseTypeRefusal
		out.Content.RefusalReason = choice.Message.Refusal
	}
	return out, nil
}

func convertToolCalls(calls []sdk.ToolCall) ([]provider.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	result := make([]provider.ToolCall, len(calls))
	for i, c := range calls {
		args := map[string]any{}
		if strings.TrimSpace(c.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(c.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("tool call %s: %w", c.Function.Name, err)
			}
		}
		id := c.ID
		if id == "" {
			id = ulid.Make().String()
		}
		result[i] = provider.ToolCall{ID: id, Name: c.Function.Name, Args: args}
	}
	return result, nil
}

func convertFinishReason(r sdk.FinishReason) provider.FinishReason {
	switch r {
	case sdk.FinishReasonStop, sdk.FinishReasonNull, "":
		return provider.FinishReasonStop
	case sdk.FinishReasonLength:
		return provider.FinishReasonLength
	case sdk.FinishReasonToolCalls, sdk.FinishReasonFunctionCall:
		return provider.FinishReasonToolCalls
	case sdk.FinishReasonContentFilter:
		return provider.FinishReasonContentFilter
	default:
		return provider.FinishReason(r)
	}
}

// mapError maps go-openai errors to provider errors.
func mapError(err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		return fromStatus(apiErr.HTTPStatusCode, apiErr.Message, apiErr.Type, err)
	}
	var reqErr *sdk.RequestError
	if errors.As(err, &reqErr) {
		return fromStatus(reqErr.HTTPStatusCode, reqErr.Error(), "", err)
	}
	return &provider.ProviderError{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}

func fromStatus(status int, message, errType string, err error) error {
	lower := strings.ToLower(message + " " + errType)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &provider.ProviderError{Code: provider.ErrorCodeAuth, Message: "authentication failed", Underlying: err}
	case status == http.StatusTooManyRequests:
		code := provider.ErrorCodeRateLimit
		if strings.Contains(lower, "quota") {
			code = provider.ErrorCodeQuota
		}
		return &provider.ProviderError{Code: code, Message: "rate limit exceeded", Underlying: err, Retryable: true}
	case status == http.StatusBadRequest && strings.Contains(lower, "context_length"):
		return &provider.ProviderError{Code: provider.ErrorCodeContextLength, Message: message, Underlying: err}
	case status == http.StatusBadRequest:
		return &provider.ProviderError{Code: provider.ErrorCodeInvalidRequest, Message: fmt.Sprintf("invalid request: %s", message), Underlying: err}
	case status == http.StatusServiceUnavailable || status == 529 || strings.Contains(lower, "overloaded"):
		return &provider.ProviderError{Code: provider.ErrorCodeOverloaded, Message: "model overloaded", Underlying: err, Retryable: true}
	case status >= 500:
		return &provider.ProviderError{Code: provider.ErrorCodeUnavailable, Message: "service unavailable", Underlying: err, Retryable: true}
	default:
		return &provider.ProviderError{Code: provider.ErrorCodeNetwork, Message: fmt.Sprintf("API error: %s", message), Underlying: err, Retryable: true}
	}
}
