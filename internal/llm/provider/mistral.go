// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Mistral AI provider (OpenAI-compatible chat API)

package provider

import (
	"fmt"

	"github.com/sony-level/utg/internal/llm"
)

const (
	MistralBaseURL      = "https://api.mistral.ai/v1"
	DefaultMistralModel = "codestral-latest"
)

// NewMistralProvider creates a provider for the Mistral API
func NewMistralProvider(config *llm.ProviderConfig) (*OpenAIProvider, error) {
	token := llm.GetProviderToken(llm.ProviderMistral, config.Token)
	if token == "" {
		return nil, fmt.Errorf("%w: set MISTRAL_API_KEY or use --llm-token", llm.ErrMissingToken)
	}
	config.Token = token
	if config.Model == "" {
		config.Model = DefaultMistralModel
	}

	baseURL := config.Endpoint
	if baseURL == "" {
		baseURL = MistralBaseURL
	}

	return newOpenAICompatible("mistral", "Mistral", config, baseURL), nil
}
