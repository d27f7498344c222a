// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// LLM types and interfaces for test generation

package llm

import "context"

// ProviderType identifies the LLM provider
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGemini    ProviderType = "gemini"
	ProviderMistral   ProviderType = "mistral"
	ProviderOllama    ProviderType = "ollama"
	ProviderHTTP      ProviderType = "http"
	ProviderMock      ProviderType = "mock"
)

// SupportedProviders lists all provider types
var SupportedProviders = []ProviderType{
	ProviderAnthropic,
	ProviderOpenAI,
	ProviderGemini,
	ProviderMistral,
	ProviderOllama,
	ProviderHTTP,
	ProviderMock,
}

// Task tells a provider what the request is for. Real providers ignore it;
// the offline mock uses it to shape its answer.
type Task string

const (
	TaskGenerate Task = "generate"
	TaskRefine   Task = "refine"
	TaskRepair   Task = "repair"
)

// Provider interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string
	// Complete sends one system+user exchange and returns the reply
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single chat completion
type CompletionRequest struct {
	Task        Task
	System      string   // Rendered prompt YAML
	User        string   // Source code, test code, or test code + log
	File        string   // Source or test file the request is about
	Code        string   // Bare source (generate) or test code (refine/repair)
	Temperature *float64 // nil = provider default
	MaxTokens   int      // 0 = provider default
}

// CompletionResponse is the raw model reply
type CompletionResponse struct {
	Content  string
	Model    string
	Provider string
}

// FeedbackKind names the stage whose failure is fed back to the model
type FeedbackKind string

const (
	FeedbackBuild    FeedbackKind = "build"
	FeedbackTest     FeedbackKind = "test"
	FeedbackCoverage FeedbackKind = "coverage"
)

// Feedback is a failed stage's output appended to the previous test code
type Feedback struct {
	Kind FeedbackKind
	Log  string
}

// IsSupported reports whether pt is a known provider type
func IsSupported(pt ProviderType) bool {
	for _, p := range SupportedProviders {
		if p == pt {
			return true
		}
	}
	return false
}
