package models

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Attachment is binary or text content sent alongside a message.
type Attachment struct {
	MimeType string `json:"mime_type"`
	// Content is base64 when Encoding is "base64".
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Message represents a single message in the conversation history
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Attachment is sent with the message but never stored in history.
	Attachment *Attachment `json:"-"`

	// For assistant messages with tool calls
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// For tool messages with tool results
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolCall represents a structured tool invocation from the model.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	ID      string `json:"id"`      // Matches ToolCall.ID
	Name    string `json:"name"`    // Tool name
	Content string `json:"content"` // Result content
	Error   string `json:"error,omitempty"`
}
