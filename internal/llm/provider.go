// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// LLM provider factory and configuration

package llm

import (
	"errors"
	"time"
)

// Default timeouts
const (
	DefaultTimeout = 120 * time.Second
	MaxTimeout     = 600 * time.Second
)

// Provider errors
var (
	ErrUnknownProvider = errors.New("unknown provider type")
	ErrMissingEndpoint = errors.New("HTTP provider requires endpoint")
	ErrMissingToken    = errors.New("provider requires API token")
	ErrTimeout         = errors.New("LLM request timed out")
	ErrEmptyResponse   = errors.New("LLM returned empty response")
)

// ProviderConfig holds configuration for LLM providers
type ProviderConfig struct {
	Type            ProviderType  // anthropic, openai, gemini, mistral, ollama, http, mock
	Endpoint        string        // Base URL / endpoint override
	Model           string        // Model name (optional)
	Token           string        // Authentication token
	Timeout         time.Duration // Request timeout
	OfflineFallback bool          // Fall back to mock when a call fails
	Verbose         bool
}

// Validate checks if the provider config is valid
func (c *ProviderConfig) Validate() error {
	switch c.Type {
	case ProviderHTTP:
		if c.Endpoint == "" {
			return ErrMissingEndpoint
		}
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderMistral:
		// Token validation happens in provider constructor
	case ProviderOllama, ProviderMock:
	default:
		return ErrUnknownProvider
	}
	return nil
}

// WithDefaults applies default values to the config
func (c *ProviderConfig) WithDefaults() *ProviderConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Timeout > MaxTimeout {
		c.Timeout = MaxTimeout
	}
	return c
}

// NewProvider creates an LLM provider from the default registry
func NewProvider(config *ProviderConfig) Provider {
	return DefaultRegistry.Get(config)
}

// MaskToken returns a masked version of the token for logging
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "[REDACTED]"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
