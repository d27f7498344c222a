// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Execution types: commands and their results

package exec

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// DefaultTimeout is used when neither the command nor the runner sets one
const DefaultTimeout = 5 * time.Minute

// MaxTimeout caps any single command
const MaxTimeout = 30 * time.Minute

// RunnerConfig configures the executor
type RunnerConfig struct {
	Verbose        bool          // Stream child output to Stdout/Stderr
	DefaultTimeout time.Duration // Used when a command sets none
	Env            []string      // Appended to the parent environment
	Stdout         io.Writer     // Defaults to os.Stdout
	Stderr         io.Writer     // Defaults to os.Stderr
}

// Command is one subprocess invocation, never passed through a shell
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // Appended after RunnerConfig.Env
	Timeout time.Duration
}

// String renders the command line, quoting arguments that need it
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n'\"\\$`") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// GetTimeout returns the effective timeout for a command
func GetTimeout(cmd *Command, defaultTimeout time.Duration) time.Duration {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	return timeout
}

// CommandResult contains the result of running a command. A non-zero exit
// is reported through Success and ExitCode; Error is set for failures to
// run at all, timeouts and cancellation.
type CommandResult struct {
	Command  string
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// CombinedLog renders the result the way it is fed back to the model and
// written to stage logs.
func (r *CommandResult) CombinedLog() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("$ %s\n", r.Command))
	sb.WriteString(fmt.Sprintf("exit code: %d\n", r.ExitCode))
	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("error: %v\n", r.Error))
	}
	if s := strings.TrimRight(r.Stdout, "\n"); s != "" {
		sb.WriteString("--- stdout ---\n")
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	if s := strings.TrimRight(r.Stderr, "\n"); s != "" {
		sb.WriteString("--- stderr ---\n")
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatResult returns a one-line human-readable result
func FormatResult(label string, result *CommandResult) string {
	var sb strings.Builder

	if result.Success {
		sb.WriteString(fmt.Sprintf("✓ %s: Success", label))
	} else {
		sb.WriteString(fmt.Sprintf("✗ %s: Failed", label))
		if result.Error != nil {
			sb.WriteString(fmt.Sprintf(" - %s", result.Error.Error()))
		} else {
			sb.WriteString(fmt.Sprintf(" - exit code %d", result.ExitCode))
		}
	}

	sb.WriteString(fmt.Sprintf(" (%v)", result.Duration.Round(time.Millisecond)))
	return sb.String()
}
