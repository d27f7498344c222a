// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// OpenAI provider and OpenAI-compatible endpoints

package provider

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sony-level/utg/internal/llm"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider uses the chat completions API. A custom endpoint turns it
// into a client for any OpenAI-compatible server.
type OpenAIProvider struct {
	name   string
	label  string
	config *llm.ProviderConfig
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config *llm.ProviderConfig) (*OpenAIProvider, error) {
	token := llm.GetProviderToken(llm.ProviderOpenAI, config.Token)
	if token == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY or use --llm-token", llm.ErrMissingToken)
	}
	config.Token = token
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}

	return newOpenAICompatible("openai", "OpenAI", config, config.Endpoint), nil
}

func newOpenAICompatible(name, label string, config *llm.ProviderConfig, baseURL string) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.Token)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIProvider{
		name:   name,
		label:  label,
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Complete sends one chat completion
func (p *OpenAIProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return withRetry(ctx, p.label, p.config.Verbose, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return p.callAPI(ctx, req)
	})
}

func (p *OpenAIProvider) callAPI(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    messages,
		Temperature: openAITemperature(req),
		MaxTokens:   maxTokens(req),
	})
	if err != nil {
		return nil, timeoutErr(ctx, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.CompletionResponse{
		Content:  resp.Choices[0].Message.Content,
		Model:    resp.Model,
		Provider: p.Name(),
	}, nil
}

// openAITemperature works around go-openai dropping a zero temperature
// (omitempty), which the API would read as its default of 1
func openAITemperature(req *llm.CompletionRequest) float32 {
	t := float32(temperature(req))
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
