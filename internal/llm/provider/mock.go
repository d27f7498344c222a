// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Mock LLM provider for testing and offline mode

package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sony-level/utg/internal/llm"
	"github.com/sony-level/utg/internal/scanner"
)

// MockProvider answers without a network. Generation yields a GoogleTest
// skeleton with one test per listed function; refine and repair hand the
// test code back unchanged.
type MockProvider struct {
	fixed string
}

// NewMockProvider creates a new mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// NewMockProviderWithReply creates a mock that always returns reply
func NewMockProviderWithReply(reply string) *MockProvider {
	return &MockProvider{fixed: reply}
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return "mock"
}

// Complete builds a reply from the request
func (p *MockProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := p.fixed
	if content == "" {
		switch req.Task {
		case llm.TaskGenerate:
			content = Skeleton(req.File, req.Code)
		default:
			content = req.Code
			if content == "" {
				content = req.User
			}
		}
	}

	return &llm.CompletionResponse{
		Content:  content,
		Model:    "mock",
		Provider: p.Name(),
	}, nil
}

// Skeleton returns a GoogleTest file with one placeholder test per function
// found in code.
func Skeleton(file, code string) string {
	var sb strings.Builder

	sb.WriteString("#include <gtest/gtest.h>\n")
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	suite := suiteName(stem)
	sb.WriteString("\n")

	functions := scanner.ListFunctions(code)
	if len(functions) == 0 {
		sb.WriteString(fmt.Sprintf("TEST(%s, Placeholder) {\n  SUCCEED();\n}\n", suite))
		return sb.String()
	}

	for i, fn := range functions {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("TEST(%s, %s) {\n  // TODO: exercise %s\n  SUCCEED();\n}\n",
			suite, testName(fn), fn))
	}
	return sb.String()
}

// suiteName turns a file stem into a CamelCase suite name ending in Test
func suiteName(stem string) string {
	var sb strings.Builder
	upper := true
	for _, r := range stem {
		if r == '_' || r == '-' || r == '.' {
			upper = true
			continue
		}
		if upper {
			sb.WriteString(strings.ToUpper(string(r)))
			upper = false
		} else {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		sb.WriteString("Generated")
	}
	sb.WriteString("Test")
	return sb.String()
}

// testName makes a GoogleTest-safe identifier from a function name
func testName(fn string) string {
	if i := strings.LastIndex(fn, "::"); i >= 0 {
		fn = fn[i+2:]
	}
	fn = strings.TrimPrefix(fn, "~")
	name := suiteName(fn)
	return strings.TrimSuffix(name, "Test")
}
