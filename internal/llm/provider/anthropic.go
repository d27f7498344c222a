// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Anthropic API provider (recommended default)

package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sony-level/utg/internal/llm"
)

const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicProvider talks to the Messages API through the official SDK
type AnthropicProvider struct {
	config *llm.ProviderConfig
	client anthropic.Client
}

// NewAnthropicProvider creates a new Anthropic API provider
func NewAnthropicProvider(config *llm.ProviderConfig) (*AnthropicProvider, error) {
	token := llm.GetProviderToken(llm.ProviderAnthropic, config.Token)
	if token == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or use --llm-token", llm.ErrMissingToken)
	}
	config.Token = token
	if config.Model == "" {
		config.Model = DefaultAnthropicModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(token),
		option.WithMaxRetries(0),
	}
	if config.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(config.Endpoint))
	}

	return &AnthropicProvider{
		config: config,
		client: anthropic.NewClient(opts...),
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete sends one message exchange
func (p *AnthropicProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return withRetry(ctx, "Anthropic", p.config.Verbose, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return p.callAPI(ctx, req)
	})
}

func (p *AnthropicProvider) callAPI(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(maxTokens(req)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
		Temperature: anthropic.Float(temperature(req)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, timeoutErr(ctx, err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.CompletionResponse{
		Content:  content.String(),
		Model:    string(resp.Model),
		Provider: p.Name(),
	}, nil
}
