// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Client wraps a provider with rate limiting, logging and code extraction

package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/sony-level/utg/internal/prompts"
	"github.com/sony-level/utg/internal/scanner"
)

// ClientOptions tunes a Client
type ClientOptions struct {
	RequestsPerMinute int // 0 = unlimited
	MaxLogBytes       int
	Temperature       *float64 // nil = provider default, 0 is honoured
	MaxTokens         int
	Logger            *log.Logger
}

// Client performs the three kinds of exchanges the pipeline needs
type Client struct {
	provider Provider
	limiter  *rate.Limiter
	builder  *MessageBuilder
	opts     ClientOptions
	logger   *log.Logger
}

// NewClient creates a client around a provider
func NewClient(provider Provider, opts ClientOptions) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}

	return &Client{
		provider: provider,
		limiter:  limiter,
		builder:  NewMessageBuilder(opts.MaxLogBytes),
		opts:     opts,
		logger:   logger,
	}
}

// ProviderName returns the wrapped provider's name
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// GenerateTests asks for a first test file for a source file
func (c *Client) GenerateTests(ctx context.Context, file, code string, prompt *prompts.Prompt) (string, error) {
	functions := scanner.ListFunctions(code)
	return c.complete(ctx, &CompletionRequest{
		Task:   TaskGenerate,
		System: prompt.Render(),
		User:   c.builder.BuildGenerateMessage(file, code, functions),
		File:   file,
		Code:   code,
	})
}

// RefineTests asks for an improved version of an existing test file
func (c *Client) RefineTests(ctx context.Context, file, testCode string, prompt *prompts.Prompt) (string, error) {
	return c.complete(ctx, &CompletionRequest{
		Task:   TaskRefine,
		System: prompt.Render(),
		User:   testCode,
		File:   file,
		Code:   testCode,
	})
}

// Repair sends the previous test code with a failing stage's log appended
// and returns the corrected test code.
func (c *Client) Repair(ctx context.Context, fb Feedback, file, testCode string, prompt *prompts.Prompt) (string, error) {
	return c.complete(ctx, &CompletionRequest{
		Task:   TaskRepair,
		System: prompt.Render(),
		User:   c.builder.BuildRepairMessage(testCode, fb),
		File:   file,
		Code:   testCode,
	})
}

func (c *Client) complete(ctx context.Context, req *CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req.Temperature = c.opts.Temperature
	req.MaxTokens = c.opts.MaxTokens

	start := time.Now()
	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		c.logger.Error().Str("provider", c.provider.Name()).Str("task", string(req.Task)).
			Str("file", req.File).Err(err).Msg("completion failed")
		return "", fmt.Errorf("%s %s: %w", c.provider.Name(), req.Task, err)
	}

	code := ExtractCode(resp.Content)
	c.logger.Debug().Str("provider", resp.Provider).Str("model", resp.Model).
		Str("task", string(req.Task)).Str("file", req.File).
		Int("bytes", len(code)).Dur("elapsed", time.Since(start)).Msg("completion")

	if code == "" {
		return "", fmt.Errorf("%s %s: %w", c.provider.Name(), req.Task, ErrEmptyResponse)
	}
	return code + "\n", nil
}
