// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Prerequisite checker for tool existence and versions

package prereq

import (
	"context"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony-level/utg/internal/exec"
)

const versionTimeout = 5 * time.Second

// Checker verifies tool existence
type Checker struct {
	tools  map[string]*Tool
	runner *exec.Runner
}

// NewChecker creates a new prerequisite checker
func NewChecker(runner *exec.Runner) *Checker {
	return NewCheckerWithTools(DefaultTools(), runner)
}

// NewCheckerWithTools creates a checker with custom tools
func NewCheckerWithTools(tools map[string]*Tool, runner *exec.Runner) *Checker {
	if runner == nil {
		runner = exec.NewRunner(nil)
	}
	return &Checker{tools: tools, runner: runner}
}

// Check verifies a set of requirements
func (c *Checker) Check(ctx context.Context, reqs []Requirement) *CheckSummary {
	summary := NewCheckSummary()
	for _, req := range reqs {
		result := c.CheckTool(ctx, req.Name)
		result.Required = req.Required
		summary.AddResult(result)
	}
	return summary
}

// CheckTool checks if a specific tool exists. Names that are paths or
// unknown commands (e.g. g++-13) are looked up directly.
func (c *Checker) CheckTool(ctx context.Context, name string) CheckResult {
	result := CheckResult{Name: name}

	tool := c.GetTool(name)
	if tool == nil {
		tool = &Tool{Name: name, Command: name, VersionArgs: []string{"--version"}}
	}

	for _, candidate := range append([]string{tool.Command}, tool.Alternatives...) {
		path, err := osexec.LookPath(candidate)
		if err != nil {
			continue
		}
		result.Found = true
		result.Path = path
		result.Version = c.getVersion(ctx, path, tool.VersionArgs)
		return result
	}

	return result
}

// GetTool returns a tool definition by name
func (c *Checker) GetTool(name string) *Tool {
	return c.tools[strings.ToLower(filepath.Base(name))]
}

// GetInstallGuide returns installation instructions for a tool
func (c *Checker) GetInstallGuide(name string) string {
	tool := c.GetTool(name)
	if tool == nil {
		return "No installation guide available for " + name
	}
	return tool.InstallGuide
}

// getVersion returns the first line of the tool's version output
func (c *Checker) getVersion(ctx context.Context, path string, args []string) string {
	if len(args) == 0 {
		return ""
	}

	result := c.runner.Run(ctx, &exec.Command{Name: path, Args: args, Timeout: versionTimeout})
	if !result.Success {
		return ""
	}

	output := strings.TrimSpace(result.Stdout)
	if output == "" {
		output = strings.TrimSpace(result.Stderr)
	}
	if idx := strings.Index(output, "\n"); idx > 0 {
		output = output[:idx]
	}
	return output
}

// FormatMissing returns a formatted string of missing tools with install guides
func (c *Checker) FormatMissing(summary *CheckSummary) string {
	if summary.AllFound {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing prerequisites:\n\n")

	for _, name := range summary.MissingTools {
		sb.WriteString("─────────────────────────────────\n")
		sb.WriteString(name + "\n")
		sb.WriteString("─────────────────────────────────\n")
		sb.WriteString(c.GetInstallGuide(name))
		sb.WriteString("\n\n")
	}

	return sb.String()
}
