// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// User message building for generation, refinement and repair

package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLogBytes is the log tail kept in a repair message
const DefaultMaxLogBytes = 8000

// MessageBuilder constructs the user side of LLM exchanges
type MessageBuilder struct {
	MaxLogBytes int
}

// NewMessageBuilder creates a new message builder
func NewMessageBuilder(maxLogBytes int) *MessageBuilder {
	if maxLogBytes <= 0 {
		maxLogBytes = DefaultMaxLogBytes
	}
	return &MessageBuilder{MaxLogBytes: maxLogBytes}
}

// BuildGenerateMessage returns the source code, preceded by a short header
// naming the file and the functions found in it.
func (b *MessageBuilder) BuildGenerateMessage(file, code string, functions []string) string {
	var sb strings.Builder

	if file != "" {
		sb.WriteString(fmt.Sprintf("// File: %s\n", file))
	}
	if len(functions) > 0 {
		sb.WriteString(fmt.Sprintf("// Functions: %s\n", strings.Join(functions, ", ")))
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(code)

	return sb.String()
}

// BuildRepairMessage appends the tail of a failing stage's log to the
// previous test code.
func (b *MessageBuilder) BuildRepairMessage(testCode string, fb Feedback) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimRight(testCode, "\n"))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("/* %s\n", feedbackTitle(fb.Kind)))
	sb.WriteString(TailLog(fb.Log, b.MaxLogBytes))
	sb.WriteString("\n*/\n")

	return sb.String()
}

func feedbackTitle(kind FeedbackKind) string {
	switch kind {
	case FeedbackBuild:
		return "Build log (compile/link failed):"
	case FeedbackTest:
		return "Test log (test run failed):"
	case FeedbackCoverage:
		return "Coverage report (coverage step failed or below target):"
	default:
		return "Log:"
	}
}

// TailLog keeps the last maxBytes of a log, cut at a line boundary when one
// is close. Closing comment markers are neutralised so the log cannot end
// the enclosing block.
func TailLog(log string, maxBytes int) string {
	log = strings.TrimSpace(log)
	if maxBytes > 0 && len(log) > maxBytes {
		cut := len(log) - maxBytes
		if nl := strings.IndexByte(log[cut:], '\n'); nl >= 0 && nl < maxBytes/2 {
			cut += nl + 1
		} else {
			// Never start the tail inside a multi-byte rune
			for cut < len(log) && !utf8.RuneStart(log[cut]) {
				cut++
			}
		}
		log = "... (log truncated)\n" + log[cut:]
	}
	return strings.ReplaceAll(log, "*/", "* /")
}
