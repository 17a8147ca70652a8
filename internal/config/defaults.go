package config

import "time"

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via the config file
// and then via Q_<SECTION>_<FIELD> environment variables, e.g. Q_SESSION_PATH.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Provider     ProviderConfig     `yaml:"provider"`
	Conversation ConversationConfig `yaml:"conversation"`
	Policy       PolicyConfig       `yaml:"policy"`
	Tools        ToolsConfig        `yaml:"tools"`
	Session      SessionConfig      `yaml:"session"`
	UI           UIConfig           `yaml:"ui"`
	Log          LogConfig          `yaml:"log"`
}

type ProviderConfig struct {
	Name         string  `yaml:"name" split_words:"true"`           // Default: "gemini"
	Model        string  `yaml:"model" split_words:"true"`          // Default: provider specific
	APIKey       string  `yaml:"api_key" split_words:"true"`        // Falls back to <PROVIDER>_API_KEY
	BaseURL      string  `yaml:"base_url" split_words:"true"`       // OpenAI-compatible endpoints only
	Temperature  float32 `yaml:"temperature" split_words:"true"`    // Default: 0.1
	MaxTokens    int     `yaml:"max_tokens" split_words:"true"`     // Default: 4096
	TokensPerMin int     `yaml:"tokens_per_min" split_words:"true"` // 0 selects the provider default

	// Retry
	RetryAttempts       int     `yaml:"retry_attempts" split_words:"true"`         // Default: 5
	RetryInitialDelayMs int     `yaml:"retry_initial_delay_ms" split_words:"true"` // Default: 1000
	RetryBackoffFactor  float64 `yaml:"retry_backoff_factor" split_words:"true"`   // Default: 2
	RetryJitterMinMs    int     `yaml:"retry_jitter_min_ms" split_words:"true"`    // Default: 0
	RetryJitterMaxMs    int     `yaml:"retry_jitter_max_ms" split_words:"true"`    // Default: 1000
}

type ConversationConfig struct {
	Namespace     string `yaml:"namespace" split_words:"true"`       // Default: "Q"
	Marker        string `yaml:"marker" split_words:"true"`          // Default: "OPERATION"
	MaxToolCycles int    `yaml:"max_tool_cycles" split_words:"true"` // Default: 5
	MaxOperations int    `yaml:"max_operations" split_words:"true"`  // Default: 50 per turn
	NativeTools   bool   `yaml:"native_tools" split_words:"true"`    // Default: false
}

type PolicyConfig struct {
	AllowAll                 bool `yaml:"allow_all" split_words:"true"`
	ApproveAllDefaultMinutes int  `yaml:"approve_all_default_minutes" split_words:"true"` // Default: 15

	// User rules are appended to the built-in defaults, never replacing them.
	ReadProhibited     []string `yaml:"read_prohibited" split_words:"true"`
	ReadRestricted     []string `yaml:"read_restricted" split_words:"true"`
	WriteProhibited    []string `yaml:"write_prohibited" split_words:"true"`
	WriteApproved      []string `yaml:"write_approved" split_words:"true"`
	ShellProhibited    []string `yaml:"shell_prohibited" split_words:"true"`
	ShellApproved      []string `yaml:"shell_approved" split_words:"true"`
	FetchProhibited    []string `yaml:"fetch_prohibited" split_words:"true"`
	FetchAlwaysApprove bool     `yaml:"fetch_always_approve" split_words:"true"`
}

type ToolsConfig struct {
	// File Operations
	MaxFileSize int64 `yaml:"max_file_size" split_words:"true"` // Default: 20 * 1024 * 1024 (20MB)

	// Command Execution
	MaxCommandOutputSize int64  `yaml:"max_command_output_size" split_words:"true"` // Default: 10 * 1024 * 1024 (10MB)
	ShellTimeout         int    `yaml:"shell_timeout" split_words:"true"`           // Default: 600 (10 minutes, in seconds)
	GracefulShutdownMs   int    `yaml:"graceful_shutdown_ms" split_words:"true"`    // Default: 2000
	Shell                string `yaml:"shell" split_words:"true"`                   // Default: "sh"
	PDFConverter         string `yaml:"pdf_converter" split_words:"true"`           // Default: "pdftotext"

	// Fetch
	FetchTimeout  int   `yaml:"fetch_timeout" split_words:"true"`   // Default: 10 (seconds)
	FetchMaxBytes int64 `yaml:"fetch_max_bytes" split_words:"true"` // Default: 5 * 1024 * 1024 (5MB)
}

type SessionConfig struct {
	Path     string `yaml:"path" split_words:"true"`      // Default: ~/.config/q/session.json
	MaxTurns int    `yaml:"max_turns" split_words:"true"` // Default: 20
}

type UIConfig struct {
	WordWrap     int    `yaml:"word_wrap" split_words:"true"`     // Default: 100
	Markdown     bool   `yaml:"markdown" split_words:"true"`      // Default: true
	Spinner      bool   `yaml:"spinner" split_words:"true"`       // Default: true
	ColorPrimary string `yaml:"color_primary" split_words:"true"` // Default: "63"
	ColorDanger  string `yaml:"color_danger" split_words:"true"`  // Default: "196"
}

type LogConfig struct {
	Level string `yaml:"level" split_words:"true"` // Default: "warn"
	File  string `yaml:"file" split_words:"true"`  // Default: ~/.config/q/q.log
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:                "gemini",
			Temperature:         0.1,
			MaxTokens:           4096,
			RetryAttempts:       5,
			RetryInitialDelayMs: 1000,
			RetryBackoffFactor:  2,
			RetryJitterMinMs:    0,
			RetryJitterMaxMs:    1000,
		},
		Conversation: ConversationConfig{
			Namespace:     "Q",
			Marker:        "OPERATION",
			MaxToolCycles: 5,
			MaxOperations: 50,
		},
		Policy: PolicyConfig{
			ApproveAllDefaultMinutes: 15,
		},
		Tools: ToolsConfig{
			MaxFileSize:          20 * 1024 * 1024,
			MaxCommandOutputSize: 10 * 1024 * 1024,
			ShellTimeout:         600,
			GracefulShutdownMs:   2000,
			Shell:                "sh",
			PDFConverter:         "pdftotext",
			FetchTimeout:         10,
			FetchMaxBytes:        5 * 1024 * 1024,
		},
		Session: SessionConfig{
			MaxTurns: 20,
		},
		UI: UIConfig{
			WordWrap:     100,
			Markdown:     true,
			Spinner:      true,
			ColorPrimary: "63",
			ColorDanger:  "196",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// defaultTokensPerMin is the throughput budget used when none is configured.
var defaultTokensPerMin = map[string]int{
	"gemini": 1_000_000,
	"openai": 30_000,
	"groq":   6_000,
}

// DefaultTokensPerMin returns the tokens-per-minute budget for a provider.
func DefaultTokensPerMin(provider string) int {
	if n, ok := defaultTokensPerMin[provider]; ok {
		return n
	}
	return 20_000
}

// defaultModels maps provider names to the model used when none is configured.
var defaultModels = map[string]string{
	"gemini": "gemini-2.5-flash",
	"openai": "gpt-4o-mini",
	"groq":   "llama-3.3-70b-versatile",
}

// ShellTimeoutDuration returns ShellTimeout as a duration.
func (t ToolsConfig) ShellTimeoutDuration() time.Duration {
	return time.Duration(t.ShellTimeout) * time.Second
}

// FetchTimeoutDuration returns FetchTimeout as a duration.
func (t ToolsConfig) FetchTimeoutDuration() time.Duration {
	return time.Duration(t.FetchTimeout) * time.Second
}
