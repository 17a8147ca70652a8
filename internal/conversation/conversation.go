// Package conversation owns the message history and every outbound model
// call: token budgeting, retries, finish-reason handling and native tool
// round-trips.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Cyclone1070/q/internal/provider/models"
)

// DefaultMaxToolCycles bounds native tool round-trips within one Send.
const DefaultMaxToolCycles = 5

// wordsToTokens is the fallback estimate when the provider cannot count.
const wordsToTokens = 1.3

// Options configures a Conversation.
type Options struct {
	Temperature   float32
	MaxTokens     int
	MaxToolCycles int
}

// Conversation is a chat with one provider. It is not safe for concurrent use.
type Conversation struct {
	provider models.Provider
	limiter  limiter
	retrier  retrier
	tools    toolExecutor
	logger   *slog.Logger

	system  string
	history []models.Message

	temperature   float32
	maxTokens     int
	maxToolCycles int
}

// New creates a Conversation. tools may be nil to disable native tool calls.
func New(provider models.Provider, limiter limiter, retrier retrier, tools toolExecutor, systemPrompt string, opts Options, logger *slog.Logger) *Conversation {
	if provider == nil {
		panic("provider is required")
	}
	if limiter == nil {
		panic("limiter is required")
	}
	if retrier == nil {
		panic("retrier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cycles := opts.MaxToolCycles
	if cycles < 1 {
		cycles = DefaultMaxToolCycles
	}
	return &Conversation{
		provider:      provider,
		limiter:       limiter,
		retrier:       retrier,
		tools:         tools,
		logger:        logger,
		system:        systemPrompt,
		temperature:   opts.Temperature,
		maxTokens:     opts.MaxTokens,
		maxToolCycles: cycles,
	}
}

// History returns a copy of the messages exchanged so far, without the
// system prompt.
func (c *Conversation) History() []models.Message {
	out := make([]models.Message, len(c.history))
	copy(out, c.history)
	return out
}

// SetHistory replaces the history, e.g. with a recovered session.
func (c *Conversation) SetHistory(messages []models.Message) {
	c.history = append([]models.Message(nil), messages...)
}

// Clear drops the history and keeps the system prompt.
func (c *Conversation) Clear() {
	c.history = nil
}

// Send adds text as a user message and returns the model's reply. Provider
// failures do not surface as errors: they come back as the reply text
// "Error communicating with LLM: ..." and are recorded in the history. Only
// context cancellation is returned as an error.
func (c *Conversation) Send(ctx context.Context, text string) (string, error) {
	c.history = append(c.history, models.Message{Role: models.RoleUser, Content: text})

	var out strings.Builder
	toolCycles := 0
	lengthCycles := 0

	for {
		resp, err := c.call(ctx, c.messages(), c.declarations())
		if err != nil {
			return c.failed(ctx, err)
		}

		switch {
		case len(resp.Content.ToolCalls) > 0 && c.tools != nil:
			toolCycles++
			if toolCycles > c.maxToolCycles {
				msg := fmt.Sprintf("Error: exceeded maximum tool cycles (%d)", c.maxToolCycles)
				c.logger.WarnContext(ctx, "tool cycle cap reached", "cycles", c.maxToolCycles)
				c.history = append(c.history, models.Message{Role: models.RoleAssistant, Content: msg})
				return msg, nil
			}
			out.WriteString(resp.Content.Text)
			c.runTools(ctx, resp)
			if err := ctx.Err(); err != nil {
				return "", err
			}

		case resp.FinishReason == models.FinishReasonLength:
			c.logger.InfoContext(ctx, "response truncated, continuing", "chars", len(resp.Content.Text))
			out.WriteString(resp.Content.Text)
			c.history = append(c.history, models.Message{Role: models.RoleAssistant, Content: resp.Content.Text})
			lengthCycles++
			if lengthCycles >= c.maxToolCycles {
				c.logger.WarnContext(ctx, "continuation cap reached", "cycles", lengthCycles)
				return out.String(), nil
			}

		case resp.FinishReason == models.FinishReasonStop, resp.FinishReason == models.FinishReasonToolCalls, resp.FinishReason == "":
			out.WriteString(resp.Content.Text)
			c.history = append(c.history, models.Message{Role: models.RoleAssistant, Content: resp.Content.Text})
			return out.String(), nil

		default:
			msg := fmt.Sprintf("Unexpected finish reason: %s", resp.FinishReason)
			c.logger.WarnContext(ctx, "unexpected finish reason", "reason", resp.FinishReason)
			c.history = append(c.history, models.Message{Role: models.RoleAssistant, Content: msg})
			return msg, nil
		}
	}
}

// SendAttachment sends text with a file attachment. Only the system prompt
// and this message go to the model; only the text is kept in the history.
// Text attachments are inlined into the message.
func (c *Conversation) SendAttachment(ctx context.Context, text string, att models.Attachment) (string, error) {
	msg := models.Message{Role: models.RoleUser, Content: text}
	if att.Encoding == "" {
		if !strings.Contains(text, att.Content) {
			msg.Content = text + "\n\n" + att.Content
		}
	} else {
		msg.Attachment = &att
	}

	messages := c.systemMessages()
	messages = append(messages, msg)

	resp, err := c.call(ctx, messages, nil)
	if err != nil {
		return c.failed(ctx, err)
	}

	c.history = append(c.history,
		models.Message{Role: models.RoleUser, Content: text},
		models.Message{Role: models.RoleAssistant, Content: resp.Content.Text},
	)
	return resp.Content.Text, nil
}

func (c *Conversation) failed(ctx context.Context, err error) (string, error) {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return "", ctxErr
	}
	msg := fmt.Sprintf("Error communicating with LLM: %v", err)
	c.logger.ErrorContext(ctx, "model call failed", "error", err)
	c.history = append(c.history, models.Message{Role: models.RoleAssistant, Content: msg})
	return msg, nil
}

// call waits on the rate limiter, runs the request under the retrier and
// records usage.
func (c *Conversation) call(ctx context.Context, messages []models.Message, tools []models.ToolDefinition) (*models.GenerateResponse, error) {
	estimate := c.estimateTokens(ctx, messages)
	waited, err := c.limiter.Wait(ctx, estimate)
	if err != nil {
		return nil, err
	}
	if waited > 0 {
		c.logger.InfoContext(ctx, "rate limited before model call", "waited", waited, "estimate", estimate)
	}

	req := &models.GenerateRequest{
		Messages: messages,
		Config:   c.generateConfig(),
		Tools:    tools,
	}

	var resp *models.GenerateResponse
	err = c.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := c.provider.Generate(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	used := resp.Metadata.TotalTokens
	if used == 0 {
		used = estimate + approximateTokens(resp.Content.Text)
	}
	c.limiter.Record(used)
	c.logger.DebugContext(ctx, "model call complete", "model", resp.Metadata.ModelUsed, "tokens", used, "finish", resp.FinishReason)
	return resp, nil
}

func (c *Conversation) runTools(ctx context.Context, resp *models.GenerateResponse) {
	c.history = append(c.history, models.Message{
		Role:      models.RoleAssistant,
		Content:   resp.Content.Text,
		ToolCalls: resp.Content.ToolCalls,
	})
	results := make([]models.ToolResult, 0, len(resp.Content.ToolCalls))
	for _, tc := range resp.Content.ToolCalls {
		if ctx.Err() != nil {
			results = append(results, models.ToolResult{ID: tc.ID, Name: tc.Name, Error: "cancelled by user"})
			continue
		}
		results = append(results, c.tools.Execute(ctx, tc))
	}
	c.history = append(c.history, models.Message{Role: models.RoleTool, ToolResults: results})
}

func (c *Conversation) estimateTokens(ctx context.Context, messages []models.Message) int {
	if c.provider.GetCapabilities().SupportsTokenCount {
		n, err := c.provider.CountTokens(ctx, messages)
		if err == nil {
			return n
		}
		c.logger.DebugContext(ctx, "token count failed, estimating", "error", err)
	}
	total := 0
	for _, m := range messages {
		total += approximateTokens(m.Content)
		for _, r := range m.ToolResults {
			total += approximateTokens(r.Content)
		}
	}
	return total
}

func approximateTokens(text string) int {
	return int(math.Ceil(float64(len(strings.Fields(text))) * wordsToTokens))
}

func (c *Conversation) generateConfig() *models.GenerateConfig {
	cfg := &models.GenerateConfig{}
	temp := c.temperature
	cfg.Temperature = &temp
	if c.maxTokens > 0 {
		maxTokens := c.maxTokens
		cfg.MaxTokens = &maxTokens
	}
	return cfg
}

func (c *Conversation) declarations() []models.ToolDefinition {
	if c.tools == nil {
		return nil
	}
	return c.tools.Declarations()
}

func (c *Conversation) systemMessages() []models.Message {
	if c.system == "" {
		return nil
	}
	return []models.Message{{Role: models.RoleSystem, Content: c.system}}
}

func (c *Conversation) messages() []models.Message {
	out := c.systemMessages()
	return append(out, c.history...)
}
