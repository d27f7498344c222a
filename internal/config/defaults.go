// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Default configuration values

package config

import "time"

const (
	DefaultSourceDir      = "."
	DefaultTestsDir       = "tests"
	DefaultPromptsDir     = "prompts"
	DefaultTestExtension  = ".cc"
	DefaultMaxDepth       = 1
	DefaultMaxIterations  = 5
	DefaultCompiler       = "g++"
	DefaultCoverageTool   = "lcov"
	DefaultMaxLogBytes    = 8000
	DefaultLogLevel       = "info"
	DefaultCompileTimeout = 2 * time.Minute
	DefaultTestTimeout    = 1 * time.Minute
	DefaultLLMTimeout     = 120 * time.Second
)

// DefaultExtensions are the source extensions scanned when none are configured
var DefaultExtensions = []string{".cc"}

// DefaultCompileFlags enable gcov instrumentation and debug info
var DefaultCompileFlags = []string{"-std=c++17", "-O0", "-g", "--coverage"}

// DefaultLinkFlags link against GoogleTest with its provided main
var DefaultLinkFlags = []string{"-lgtest", "-lgtest_main", "-pthread"}
