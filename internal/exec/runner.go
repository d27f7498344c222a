// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Subprocess runner with streaming output and process-group cleanup

package exec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxLineBytes bounds a single line of child output (long template errors)
const maxLineBytes = 1024 * 1024

// Runner executes commands
type Runner struct {
	config *RunnerConfig
}

// NewRunner creates a new command runner
func NewRunner(config *RunnerConfig) *Runner {
	if config == nil {
		config = &RunnerConfig{}
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	return &Runner{config: config}
}

// Run executes a command and waits for it. It never returns nil.
func (r *Runner) Run(ctx context.Context, command *Command) *CommandResult {
	result := &CommandResult{
		Command:  command.String(),
		ExitCode: -1,
	}
	startTime := time.Now()
	defer func() { result.Duration = time.Since(startTime) }()

	timeout := GetTimeout(command, r.config.DefaultTimeout)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command.Name, command.Args...)
	cmd.Dir = command.Dir
	if len(r.config.Env) > 0 || len(command.Env) > 0 {
		cmd.Env = append(append(os.Environ(), r.config.Env...), command.Env...)
	}

	// Kill the whole group so grandchildren (e.g. a shell's children) die too
	setPlatformProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = 2 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		result.Error = fmt.Errorf("failed to create stdout pipe: %w", err)
		return result
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		result.Error = fmt.Errorf("failed to create stderr pipe: %w", err)
		return result
	}

	if err := cmd.Start(); err != nil {
		result.Error = fmt.Errorf("failed to start %s: %w", command.Name, err)
		return result
	}

	var stdoutBuf, stderrBuf strings.Builder
	var g errgroup.Group
	g.Go(func() error { return r.streamOutput(stdout, &stdoutBuf, r.config.Stdout) })
	g.Go(func() error { return r.streamOutput(stderr, &stderrBuf, r.config.Stderr) })
	readErr := g.Wait()

	err = cmd.Wait()

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	switch {
	case ctx.Err() != nil:
		result.Error = fmt.Errorf("command cancelled: %w", ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Error = fmt.Errorf("command timed out after %v", timeout)
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Error = err
		}
	default:
		result.ExitCode = 0
		result.Success = true
	}

	if result.Success && readErr != nil {
		result.Error = fmt.Errorf("reading output: %w", readErr)
	}

	return result
}

// streamOutput reads from a pipe into buf, echoing lines to out when verbose
func (r *Runner) streamOutput(pipe io.Reader, buf *strings.Builder, out io.Writer) error {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteString("\n")

		if r.config.Verbose {
			fmt.Fprintln(out, "    "+line)
		}
	}
	err := scanner.Err()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
