// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for the LLM client, message building and code extraction

package tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sony-level/utg/internal/llm"
	"github.com/sony-level/utg/internal/llm/provider"
	"github.com/sony-level/utg/internal/logging"
	"github.com/sony-level/utg/internal/prompts"
)

const mathSource = `#include "math.h"

int add(int a, int b) {
  return a + b;
}

int sub(int a, int b) {
  if (a < b) {
    return -(b - a);
  }
  return a - b;
}
`

func defaultPrompt(t *testing.T, kind prompts.Kind) *prompts.Prompt {
	t.Helper()
	p, err := prompts.Default(kind)
	require.NoError(t, err)
	return p
}

func newMockClient(prov llm.Provider) *llm.Client {
	return llm.NewClient(prov, llm.ClientOptions{Logger: logging.Discard()})
}

func TestClientGenerateTestsWithMock(t *testing.T) {
	client := newMockClient(provider.NewMockProvider())

	code, err := client.GenerateTests(context.Background(), "math_utils.cc", mathSource, defaultPrompt(t, prompts.KindGeneration))
	require.NoError(t, err)

	assert.Contains(t, code, "#include <gtest/gtest.h>")
	assert.Contains(t, code, "TEST(MathUtilsTest, Add)")
	assert.Contains(t, code, "TEST(MathUtilsTest, Sub)")
	assert.NotContains(t, code, "TEST(MathUtilsTest, If)")
	assert.True(t, strings.HasSuffix(code, "\n"))
}

func TestClientRefineAndRepairReturnInputWithMock(t *testing.T) {
	client := newMockClient(provider.NewMockProvider())
	testCode := "#include <gtest/gtest.h>\n\nTEST(A, B) { EXPECT_EQ(1, 1); }\n"

	refined, err := client.RefineTests(context.Background(), "test_a.cc", testCode, defaultPrompt(t, prompts.KindRefinement))
	require.NoError(t, err)
	assert.Equal(t, testCode, refined)

	fb := llm.Feedback{Kind: llm.FeedbackBuild, Log: "error: 'foo' was not declared in this scope"}
	repaired, err := client.Repair(context.Background(), fb, "test_a.cc", testCode, defaultPrompt(t, prompts.KindBuildFix))
	require.NoError(t, err)
	assert.Equal(t, testCode, repaired)
}

func TestClientStripsFences(t *testing.T) {
	reply := "Here are the tests:\n```cpp\n#include <gtest/gtest.h>\nTEST(X, Y) {}\n```\nDone."
	client := newMockClient(provider.NewMockProviderWithReply(reply))

	code, err := client.RefineTests(context.Background(), "test_x.cc", "old", defaultPrompt(t, prompts.KindRefinement))
	require.NoError(t, err)
	assert.Equal(t, "#include <gtest/gtest.h>\nTEST(X, Y) {}\n", code)
}

func TestClientEmptyReply(t *testing.T) {
	client := newMockClient(provider.NewMockProviderWithReply("```\n```"))

	_, err := client.RefineTests(context.Background(), "test_x.cc", "old", defaultPrompt(t, prompts.KindRefinement))
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrEmptyResponse))
}

func TestClientProviderErrorIsWrapped(t *testing.T) {
	client := newMockClient(&failingTestProvider{})

	_, err := client.GenerateTests(context.Background(), "a.cc", mathSource, defaultPrompt(t, prompts.KindGeneration))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing generate")
}

func TestClientRateLimiterHonoursCancellation(t *testing.T) {
	client := llm.NewClient(provider.NewMockProvider(), llm.ClientOptions{
		RequestsPerMinute: 1,
		Logger:            logging.Discard(),
	})
	p := defaultPrompt(t, prompts.KindRefinement)

	// First call consumes the single token
	_, err := client.RefineTests(context.Background(), "t.cc", "x", p)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.RefineTests(ctx, "t.cc", "x", p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestBuildRepairMessage(t *testing.T) {
	b := llm.NewMessageBuilder(0)
	assert.Equal(t, llm.DefaultMaxLogBytes, b.MaxLogBytes)

	msg := b.BuildRepairMessage("TEST(A, B) {}\n", llm.Feedback{
		Kind: llm.FeedbackTest,
		Log:  "[  FAILED  ] A.B */ trailing",
	})

	assert.True(t, strings.HasPrefix(msg, "TEST(A, B) {}\n\n/* Test log"))
	assert.Contains(t, msg, "[  FAILED  ] A.B * / trailing")
	assert.True(t, strings.HasSuffix(msg, "\n*/\n"))
}

func TestTailLog(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, strings.Repeat("x", 40))
	}
	lines = append(lines, "final error line")
	log := strings.Join(lines, "\n")

	tail := llm.TailLog(log, 500)
	assert.True(t, strings.HasPrefix(tail, "... (log truncated)\n"))
	assert.True(t, strings.HasSuffix(tail, "final error line"))
	assert.LessOrEqual(t, len(tail), 500+len("... (log truncated)\n"))

	assert.Equal(t, "short", llm.TailLog("  short \n", 500))
}

func TestTailLogKeepsRunesWhole(t *testing.T) {
	// GCC quotes identifiers with U+2018/U+2019, three bytes each
	log := "a" + strings.Repeat("‘", 100)
	tail := llm.TailLog(log, 100)
	require.True(t, utf8.ValidString(tail), "tail %q", tail)
	assert.True(t, strings.HasPrefix(tail, "... (log truncated)\n‘"))

	diag := strings.Repeat("error: ‘foo’ was not declared in this scope; ", 40)
	for max := 50; max < 60; max++ {
		tail := llm.TailLog(diag, max)
		assert.True(t, utf8.ValidString(tail), "max %d: %q", max, tail)
		assert.LessOrEqual(t, len(tail), max+len("... (log truncated)\n"))
	}
}

func TestClientPassesZeroTemperature(t *testing.T) {
	zero := 0.0
	rec := &recordingProvider{}
	client := llm.NewClient(rec, llm.ClientOptions{Temperature: &zero, Logger: logging.Discard()})

	_, err := client.RefineTests(context.Background(), "test_a.cc", "TEST(A, B) {}", defaultPrompt(t, prompts.KindRefinement))
	require.NoError(t, err)
	require.NotNil(t, rec.last.Temperature)
	assert.Equal(t, 0.0, *rec.last.Temperature)

	client = newMockClient(rec)
	_, err = client.RefineTests(context.Background(), "test_a.cc", "TEST(A, B) {}", defaultPrompt(t, prompts.KindRefinement))
	require.NoError(t, err)
	assert.Nil(t, rec.last.Temperature, "unset temperature leaves the provider default")
}

// recordingProvider echoes the code back and keeps the last request
type recordingProvider struct {
	last *llm.CompletionRequest
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.last = req
	return &llm.CompletionResponse{Content: req.Code, Provider: p.Name()}, nil
}

func TestBuildGenerateMessage(t *testing.T) {
	b := llm.NewMessageBuilder(100)

	msg := b.BuildGenerateMessage("math.cc", "int add(int a, int b) { return a + b; }", []string{"add"})
	assert.True(t, strings.HasPrefix(msg, "// File: math.cc\n// Functions: add\n\n"))

	assert.Equal(t, "code", b.BuildGenerateMessage("", "code", nil))
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "  int x;\n", "int x;"},
		{"single fence", "```cpp\nint x;\n```", "int x;"},
		{"longest block wins", "```\na\n```\ntext\n```cpp\nint longer;\n```", "int longer;"},
		{"unterminated", "intro\n```cpp\nint x;\nint y;", "int x;\nint y;"},
		{"empty fence", "```\n```", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.ExtractCode(tt.in))
		})
	}
}

func TestMockSkeletonWithoutFunctions(t *testing.T) {
	sk := provider.Skeleton("empty-file.cc", "// nothing here\n")
	assert.Contains(t, sk, "TEST(EmptyFileTest, Placeholder)")
}

func TestProviderConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  llm.ProviderConfig
		wantErr error
	}{
		{"mock", llm.ProviderConfig{Type: llm.ProviderMock}, nil},
		{"ollama", llm.ProviderConfig{Type: llm.ProviderOllama}, nil},
		{"gemini", llm.ProviderConfig{Type: llm.ProviderGemini}, nil},
		{"http without endpoint", llm.ProviderConfig{Type: llm.ProviderHTTP}, llm.ErrMissingEndpoint},
		{"http with endpoint", llm.ProviderConfig{Type: llm.ProviderHTTP, Endpoint: "http://localhost"}, nil},
		{"unknown", llm.ProviderConfig{Type: "bogus"}, llm.ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	c := (&llm.ProviderConfig{Timeout: time.Hour}).WithDefaults()
	assert.Equal(t, llm.MaxTimeout, c.Timeout)
	c = (&llm.ProviderConfig{}).WithDefaults()
	assert.Equal(t, llm.DefaultTimeout, c.Timeout)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", llm.MaskToken(""))
	assert.Equal(t, "[REDACTED]", llm.MaskToken("short"))
	assert.Equal(t, "sk-a...wxyz", llm.MaskToken("sk-abcdefghijklmnopqrstuvwxyz"))
}
