// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Compiling and running one test binary

package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sony-level/utg/internal/coverage"
	"github.com/sony-level/utg/internal/exec"
	"github.com/sony-level/utg/internal/fileio"
)

// Stage names a step of the build-test loop
type Stage string

const (
	StageBuild    Stage = "build"
	StageTest     Stage = "test"
	StageCoverage Stage = "coverage"
)

// StepOutcome is the result of one stage
type StepOutcome struct {
	Stage   Stage
	Success bool
	Result  *exec.CommandResult
	Log     string // Fed back to the model on failure
}

// Builder compiles test files and runs the resulting binaries. Each test
// gets its own directory under buildDir so coverage data never mixes.
type Builder struct {
	toolchain Toolchain
	buildDir  string
	runner    *exec.Runner
}

// NewBuilder creates a builder writing into buildDir
func NewBuilder(toolchain Toolchain, buildDir string, runner *exec.Runner) *Builder {
	return &Builder{toolchain: toolchain, buildDir: buildDir, runner: runner}
}

// WorkDir returns the per-test build directory
func (b *Builder) WorkDir(testFile string) string {
	return filepath.Join(b.buildDir, fileio.Stem(testFile))
}

// BinaryPath returns where the test binary for testFile is written
func (b *Builder) BinaryPath(testFile string) string {
	return filepath.Join(b.WorkDir(testFile), fileio.Stem(testFile))
}

// Compile compiles and links testFile with its paired source (may be empty)
// and the configured extra sources in one compiler invocation.
func (b *Builder) Compile(ctx context.Context, testFile, sourceFile string) *StepOutcome {
	workDir := b.WorkDir(testFile)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return failedOutcome(StageBuild, fmt.Errorf("failed to create build directory: %w", err))
	}

	// Stale binaries and coverage notes must not survive a failed compile
	b.clean(workDir, testFile)

	var sources []string
	if sourceFile != "" {
		sources = append(sources, sourceFile)
	}

	result := b.runner.Run(ctx, &exec.Command{
		Name:    b.toolchain.Compiler,
		Args:    b.toolchain.CompileArgs(testFile, sources, b.BinaryPath(testFile)),
		Dir:     workDir,
		Timeout: b.toolchain.CompileTimeout,
	})
	return outcome(StageBuild, result)
}

// staleGlobs are removed from the work directory before every compile
var staleGlobs = []string{"*.gcno", "*.gcda", coverage.InfoFile}

func (b *Builder) clean(workDir, testFile string) {
	_ = os.Remove(b.BinaryPath(testFile))
	for _, pattern := range staleGlobs {
		matches, _ := filepath.Glob(filepath.Join(workDir, pattern))
		for _, path := range matches {
			_ = os.Remove(path)
		}
	}
}

// RunTests executes a test binary from its build directory
func (b *Builder) RunTests(ctx context.Context, binary string) *StepOutcome {
	result := b.runner.Run(ctx, &exec.Command{
		Name:    binary,
		Dir:     filepath.Dir(binary),
		Timeout: b.toolchain.TestTimeout,
	})
	return outcome(StageTest, result)
}

func outcome(stage Stage, result *exec.CommandResult) *StepOutcome {
	return &StepOutcome{
		Stage:   stage,
		Success: result.Success,
		Result:  result,
		Log:     result.CombinedLog(),
	}
}

func failedOutcome(stage Stage, err error) *StepOutcome {
	return &StepOutcome{
		Stage: stage,
		Result: &exec.CommandResult{
			ExitCode: -1,
			Error:    err,
		},
		Log: err.Error(),
	}
}
