package config

import (
	"fmt"
	"log/slog"
	"slices"
)

// SupportedProviders lists the provider names the application can construct.
var SupportedProviders = []string{"gemini", "openai", "groq"}

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Provider validation
	if !slices.Contains(SupportedProviders, c.Provider.Name) {
		errs = append(errs, fmt.Sprintf("provider.name must be one of %v", SupportedProviders))
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		errs = append(errs, "provider.temperature must be between 0 and 2")
	}
	if c.Provider.MaxTokens < 1 {
		errs = append(errs, "provider.max_tokens must be >= 1")
	}
	if c.Provider.TokensPerMin < 0 {
		errs = append(errs, "provider.tokens_per_min must be >= 0")
	}
	if c.Provider.RetryAttempts < 1 {
		errs = append(errs, "provider.retry_attempts must be >= 1")
	}
	if c.Provider.RetryInitialDelayMs < 0 {
		errs = append(errs, "provider.retry_initial_delay_ms must be >= 0")
	}
	if c.Provider.RetryBackoffFactor < 1 {
		errs = append(errs, "provider.retry_backoff_factor must be >= 1")
	}
	if c.Provider.RetryJitterMinMs < 0 {
		errs = append(errs, "provider.retry_jitter_min_ms must be >= 0")
	}
	if c.Provider.RetryJitterMinMs > c.Provider.RetryJitterMaxMs {
		errs = append(errs, "provider.retry_jitter_min_ms must be <= provider.retry_jitter_max_ms")
	}

	// Conversation validation
	if c.Conversation.Namespace == "" {
		errs = append(errs, "conversation.namespace must not be empty")
	}
	if c.Conversation.Marker == "" {
		errs = append(errs, "conversation.marker must not be empty")
	}
	if c.Conversation.MaxToolCycles < 1 {
		errs = append(errs, "conversation.max_tool_cycles must be >= 1")
	}
	if c.Conversation.MaxOperations < 1 {
		errs = append(errs, "conversation.max_operations must be >= 1")
	}

	// Policy validation
	if c.Policy.ApproveAllDefaultMinutes < 0 {
		errs = append(errs, "policy.approve_all_default_minutes must be >= 0")
	}

	// Tools validation
	if c.Tools.MaxFileSize < 1 {
		errs = append(errs, "tools.max_file_size must be >= 1")
	}
	if c.Tools.MaxCommandOutputSize < 1 {
		errs = append(errs, "tools.max_command_output_size must be >= 1")
	}
	if c.Tools.ShellTimeout < 1 {
		errs = append(errs, "tools.shell_timeout must be >= 1")
	}
	if c.Tools.GracefulShutdownMs < 0 {
		errs = append(errs, "tools.graceful_shutdown_ms must be >= 0")
	}
	if c.Tools.Shell == "" {
		errs = append(errs, "tools.shell must not be empty")
	}
	if c.Tools.FetchTimeout < 1 {
		errs = append(errs, "tools.fetch_timeout must be >= 1")
	}
	if c.Tools.FetchMaxBytes < 1 {
		errs = append(errs, "tools.fetch_max_bytes must be >= 1")
	}

	// Session validation
	if c.Session.MaxTurns < 1 {
		errs = append(errs, "session.max_turns must be >= 1")
	}

	// UI validation
	if c.UI.WordWrap < 0 {
		errs = append(errs, "ui.word_wrap must be >= 0")
	}

	// Log validation
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, "log.level must be one of debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
