// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Ollama provider for local LLM inference (no API key required)

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sony-level/utg/internal/llm"
)

const DefaultOllamaModel = "qwen2.5-coder"

// OllamaProvider uses a local Ollama instance
type OllamaProvider struct {
	config *llm.ProviderConfig
	client *http.Client
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config *llm.ProviderConfig) (*OllamaProvider, error) {
	if config.Endpoint == "" {
		config.Endpoint = llm.OllamaBaseURL() + "/api/chat"
	}
	if config.Model == "" {
		config.Model = DefaultOllamaModel
	}

	return &OllamaProvider{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Complete sends one non-streaming chat request
func (p *OllamaProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return withRetry(ctx, "Ollama", p.config.Verbose, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return p.callAPI(ctx, req)
	})
}

// OllamaRequest is the request body for Ollama API
type OllamaRequest struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *OllamaOptions  `json:"options,omitempty"`
}

// OllamaMessage represents a chat message
type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OllamaOptions contains model options
type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// OllamaResponse is the response from Ollama API
type OllamaResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func (p *OllamaProvider) callAPI(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var messages []OllamaMessage
	if req.System != "" {
		messages = append(messages, OllamaMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, OllamaMessage{Role: "user", Content: req.User})

	reqBody := OllamaRequest{
		Model:    p.config.Model,
		Messages: messages,
		Stream:   false,
		Options: &OllamaOptions{
			Temperature: temperature(req),
			NumPredict:  maxTokens(req),
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, llm.ErrTimeout
		}
		return nil, fmt.Errorf("request failed (is Ollama running?): %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, TruncateForError(string(body), 200))
	}

	var out OllamaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("Ollama error: %s", out.Error)
	}
	if out.Message.Content == "" {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.CompletionResponse{
		Content:  out.Message.Content,
		Model:    out.Model,
		Provider: p.Name(),
	}, nil
}
