package llm

import (
	"context"
	"errors"

	"github.com/ppiankov/casedesk/internal/model"
)

var (
	// ErrNotConfigured means the provider has no credentials
	ErrNotConfigured = errors.New("AI service not configured")

	// ErrUpstream wraps any transport failure or non-success status from the provider
	ErrUpstream = errors.New("AI service temporarily unavailable")

	// ErrEmptyCompletion means the provider answered without any content
	ErrEmptyCompletion = errors.New("no completion generated")
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one system+user prompt pair and returns the raw completion text.
	// A single attempt is made; failures are never retried.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains one prompt exchange
type CompletionRequest struct {
	System string
	User   string

	// Model overrides the configured model when set
	Model string

	Temperature float32
	MaxTokens   int

	// JSON asks the provider to constrain output to a JSON object when it supports it
	JSON bool
}

// CompletionResponse contains the provider's answer
type CompletionResponse struct {
	Content    string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens is used when a request does not set its own
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Model:     "gpt-4",
		Timeout:   60,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = c.Provider
	if c.Model != "" {
		cfg.Model = c.Model
	}
	cfg.APIKey = c.APIKey
	cfg.BaseURL = c.BaseURL
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	cfg.HTTPProxy = c.HTTPProxy
	cfg.HTTPSProxy = c.HTTPSProxy
	cfg.NoProxy = c.NoProxy
	return cfg
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

func (c Config) model(req CompletionRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
