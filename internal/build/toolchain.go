// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Compiler invocation for test binaries

package build

import (
	"time"

	"github.com/sony-level/utg/internal/config"
)

// Toolchain describes how a test file is compiled and linked
type Toolchain struct {
	Compiler       string
	CompileFlags   []string
	IncludeDirs    []string
	ExtraSources   []string
	LinkFlags      []string
	CompileTimeout time.Duration
	TestTimeout    time.Duration
}

// ToolchainFromConfig builds a toolchain; the source directory is always on
// the include path so tests can include the project's headers.
func ToolchainFromConfig(cfg config.ToolchainConfig, sourceDir string) Toolchain {
	includes := []string{sourceDir}
	for _, dir := range cfg.IncludeDirs {
		if dir != sourceDir {
			includes = append(includes, dir)
		}
	}

	return Toolchain{
		Compiler:       cfg.Compiler,
		CompileFlags:   cfg.CompileFlags,
		IncludeDirs:    includes,
		ExtraSources:   cfg.ExtraSources,
		LinkFlags:      cfg.LinkFlags,
		CompileTimeout: cfg.CompileTimeout,
		TestTimeout:    cfg.TestTimeout,
	}
}

// CompileArgs returns the arguments of a single compile+link invocation.
// Link flags come last so libraries resolve symbols of the objects before them.
func (t Toolchain) CompileArgs(testFile string, sources []string, output string) []string {
	args := append([]string{}, t.CompileFlags...)
	for _, dir := range t.IncludeDirs {
		args = append(args, "-I", dir)
	}
	args = append(args, testFile)
	args = append(args, sources...)
	args = append(args, t.ExtraSources...)
	args = append(args, "-o", output)
	args = append(args, t.LinkFlags...)
	return args
}
