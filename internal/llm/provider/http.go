// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// HTTP LLM provider for custom endpoints

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

// HTTPProvider calls a custom JSON chat endpoint
type HTTPProvider struct {
	config *llm.ProviderConfig
	client *http.Client
}

// NewHTTPProvider creates a new HTTP LLM provider
func NewHTTPProvider(config *llm.ProviderConfig) *HTTPProvider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = llm.DefaultTimeout
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the provider name
func (p *HTTPProvider) Name() string {
	return "http"
}

// Complete posts one chat request to the endpoint
func (p *HTTPProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return withRetry(ctx, "HTTP", p.config.Verbose, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return p.callEndpoint(ctx, req)
	})
}

// HTTPRequest is the request body sent to the LLM endpoint
type HTTPRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []HTTPMessage `json:"messages"`
	Options  HTTPOptions   `json:"options,omitempty"`
}

// HTTPMessage represents a chat message
type HTTPMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HTTPOptions contains optional request parameters
type HTTPOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// HTTPResponse accepts the three common reply shapes
type HTTPResponse struct {
	Model   string `json:"model"`
	Content string `json:"content"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error string `json:"error,omitempty"`
}

func (p *HTTPProvider) callEndpoint(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	reqBody := HTTPRequest{
		Model: p.config.Model,
		Messages: []HTTPMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Options: HTTPOptions{
			Temperature: temperature(req),
			MaxTokens:   maxTokens(req),
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
	if p.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.config.Token)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, llm.ErrTimeout
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, TruncateForError(string(body), 200))
	}

	return p.parseResponse(body)
}

func (p *HTTPProvider) parseResponse(body []byte) (*llm.CompletionResponse, error) {
	var httpResp HTTPResponse
	if err := json.Unmarshal(body, &httpResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if httpResp.Error != "" {
		return nil, fmt.Errorf("LLM error: %s", httpResp.Error)
	}

	content := httpResp.Content
	if content == "" {
		content = httpResp.Message.Content
	}
	if content == "" && len(httpResp.Choices) > 0 {
		content = httpResp.Choices[0].Message.Content
	}
	if content == "" {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.CompletionResponse{
		Content:  content,
		Model:    httpResp.Model,
		Provider: p.Name(),
	}, nil
}
