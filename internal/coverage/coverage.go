// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// lcov-based coverage collection and summary parsing

package coverage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sony-level/utg/internal/exec"
)

// DefaultTool is the coverage front-end
const DefaultTool = "lcov"

// InfoFile is the tracefile written into the build directory
const InfoFile = "coverage.info"

// ErrNoCoverageData is returned when lcov finds no .gcda data
var ErrNoCoverageData = errors.New("no coverage data found")

// Report is the parsed lcov summary
type Report struct {
	LinePercent     float64
	LinesHit        int
	LinesTotal      int
	FunctionPercent float64
	FunctionsHit    int
	FunctionsTotal  int
	HasFunctions    bool
	Raw             string
}

// MeetsTarget reports whether line coverage reaches target (0 = any)
func (r *Report) MeetsTarget(target float64) bool {
	if target <= 0 {
		return true
	}
	return r.LinePercent >= target
}

// String returns a one-line summary
func (r *Report) String() string {
	s := fmt.Sprintf("lines %.1f%% (%d of %d)", r.LinePercent, r.LinesHit, r.LinesTotal)
	if r.HasFunctions {
		s += fmt.Sprintf(", functions %.1f%% (%d of %d)", r.FunctionPercent, r.FunctionsHit, r.FunctionsTotal)
	}
	return s
}

// Analyzer drives lcov over a build directory. Only files under SourceDir
// are counted, minus anything matching Exclude.
type Analyzer struct {
	Tool      string
	BuildDir  string
	SourceDir string
	Exclude   []string // lcov --remove patterns
	Timeout   time.Duration
	runner    *exec.Runner
}

// NewAnalyzer creates an analyzer for buildDir measuring sources under sourceDir
func NewAnalyzer(runner *exec.Runner, tool, buildDir, sourceDir string, timeout time.Duration) *Analyzer {
	if tool == "" {
		tool = DefaultTool
	}
	return &Analyzer{
		Tool:      tool,
		BuildDir:  buildDir,
		SourceDir: sourceDir,
		Timeout:   timeout,
		runner:    runner,
	}
}

// IncludePattern returns the lcov --extract pattern for SourceDir
func (a *Analyzer) IncludePattern() string {
	if a.SourceDir == "" {
		return ""
	}
	return filepath.Join(a.SourceDir, "*")
}

// InfoPath returns the tracefile path
func (a *Analyzer) InfoPath() string {
	return filepath.Join(a.BuildDir, InfoFile)
}

// Reset zeroes the execution counters before a test run
func (a *Analyzer) Reset(ctx context.Context) *exec.CommandResult {
	return a.runner.Run(ctx, &exec.Command{
		Name:    a.Tool,
		Args:    []string{"--zerocounters", "--directory", a.BuildDir},
		Dir:     a.BuildDir,
		Timeout: a.Timeout,
	})
}

// Run captures coverage and summarises it. The returned CommandResult is the
// last lcov invocation; it is non-nil even when an error is returned.
func (a *Analyzer) Run(ctx context.Context) (*Report, *exec.CommandResult, error) {
	capture := a.runner.Run(ctx, &exec.Command{
		Name:    a.Tool,
		Args:    []string{"--capture", "--directory", a.BuildDir, "--output-file", a.InfoPath()},
		Dir:     a.BuildDir,
		Timeout: a.Timeout,
	})
	if !capture.Success {
		if noData(capture.Stdout + capture.Stderr) {
			return nil, capture, ErrNoCoverageData
		}
		return nil, capture, fmt.Errorf("%s --capture failed (exit code %d)", a.Tool, capture.ExitCode)
	}

	// The capture also records the test file, GoogleTest and system headers
	if pattern := a.IncludePattern(); pattern != "" {
		if res, err := a.filter(ctx, "--extract", pattern); err != nil {
			return nil, res, err
		}
	}
	if len(a.Exclude) > 0 {
		if res, err := a.filter(ctx, "--remove", a.Exclude...); err != nil {
			return nil, res, err
		}
	}

	summary := a.runner.Run(ctx, &exec.Command{
		Name:    a.Tool,
		Args:    []string{"--summary", a.InfoPath()},
		Dir:     a.BuildDir,
		Timeout: a.Timeout,
	})
	if !summary.Success {
		return nil, summary, fmt.Errorf("%s --summary failed (exit code %d)", a.Tool, summary.ExitCode)
	}

	// lcov prints the summary on stderr in older versions
	report, err := ParseSummary(summary.Stdout + "\n" + summary.Stderr)
	return report, summary, err
}

// filter rewrites the tracefile in place through lcov --extract or --remove
func (a *Analyzer) filter(ctx context.Context, mode string, patterns ...string) (*exec.CommandResult, error) {
	args := append([]string{mode, a.InfoPath()}, patterns...)
	args = append(args, "--output-file", a.InfoPath())
	result := a.runner.Run(ctx, &exec.Command{
		Name:    a.Tool,
		Args:    args,
		Dir:     a.BuildDir,
		Timeout: a.Timeout,
	})
	if result.Success {
		return result, nil
	}
	if noData(result.Stdout + result.Stderr) {
		return result, ErrNoCoverageData
	}
	return result, fmt.Errorf("%s %s failed (exit code %d)", a.Tool, mode, result.ExitCode)
}

var (
	linesRegex     = regexp.MustCompile(`lines\.*:\s*([\d.]+)%\s*\((\d+) of (\d+) lines?\)`)
	functionsRegex = regexp.MustCompile(`functions\.*:\s*([\d.]+)%\s*\((\d+) of (\d+) functions?\)`)
)

// ParseSummary parses the output of `lcov --summary`
func ParseSummary(text string) (*Report, error) {
	m := linesRegex.FindStringSubmatch(text)
	if m == nil {
		if noData(text) {
			return nil, ErrNoCoverageData
		}
		return nil, fmt.Errorf("no line coverage in lcov summary")
	}

	report := &Report{Raw: strings.TrimSpace(text)}
	report.LinePercent, _ = strconv.ParseFloat(m[1], 64)
	report.LinesHit, _ = strconv.Atoi(m[2])
	report.LinesTotal, _ = strconv.Atoi(m[3])

	if f := functionsRegex.FindStringSubmatch(text); f != nil {
		report.HasFunctions = true
		report.FunctionPercent, _ = strconv.ParseFloat(f[1], 64)
		report.FunctionsHit, _ = strconv.Atoi(f[2])
		report.FunctionsTotal, _ = strconv.Atoi(f[3])
	}

	return report, nil
}

func noData(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "no data found") ||
		strings.Contains(lower, "no .gcda files found") ||
		strings.Contains(lower, "no valid records")
}
