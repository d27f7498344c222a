// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Google Gemini provider

package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/sony-level/utg/internal/llm"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider uses the Gemini API through the genai SDK
type GeminiProvider struct {
	config *llm.ProviderConfig
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config *llm.ProviderConfig) (*GeminiProvider, error) {
	token := llm.GetProviderToken(llm.ProviderGemini, config.Token)
	if token == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY or use --llm-token", llm.ErrMissingToken)
	}
	config.Token = token
	if config.Model == "" {
		config.Model = DefaultGeminiModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  token,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Endpoint != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.Endpoint}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{config: config, client: client}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Complete sends one generate-content call
func (p *GeminiProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return withRetry(ctx, "Gemini", p.config.Verbose, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return p.callAPI(ctx, req)
	})
}

func (p *GeminiProvider) callAPI(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature(req))),
		MaxOutputTokens: int32(maxTokens(req)),
	}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)}
	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, contents, genConfig)
	if err != nil {
		return nil, timeoutErr(ctx, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.CompletionResponse{
		Content:  text,
		Model:    p.config.Model,
		Provider: p.Name(),
	}, nil
}
