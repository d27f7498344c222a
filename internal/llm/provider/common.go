// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Common utilities shared across providers

package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony-level/utg/internal/llm"
)

// Request defaults when the caller leaves them unset
const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 8192
	maxAttempts        = 2
	retryDelay         = 500 * time.Millisecond
)

// TruncateForError truncates a string for error messages
func TruncateForError(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func temperature(req *llm.CompletionRequest) float64 {
	if req.Temperature != nil {
		return *req.Temperature
	}
	return DefaultTemperature
}

func maxTokens(req *llm.CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return DefaultMaxTokens
}

// withRetry runs call up to maxAttempts times. Timeouts, cancellation and
// auth failures are not retried.
func withRetry(ctx context.Context, label string, verbose bool, call func(ctx context.Context) (*llm.CompletionResponse, error)) (*llm.CompletionResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := call(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if verbose {
			fmt.Printf("  [%s] Attempt %d failed: %v\n", label, attempt, err)
		}

		if !retryable(ctx, err) || attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", label, ctx.Err())
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("%s failed: %w", label, lastErr)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, llm.ErrTimeout) || errors.Is(err, llm.ErrMissingToken) {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "401") || strings.Contains(msg, "403") {
		return false
	}
	return !strings.Contains(msg, "connection refused")
}

// timeoutErr maps a deadline hit to llm.ErrTimeout
func timeoutErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return llm.ErrTimeout
	}
	return err
}
