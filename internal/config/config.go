// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Configuration loading with precedence: CLI > ENV > config file > defaults

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full utg configuration
type Config struct {
	SourceDir     string   `yaml:"source_dir"`
	TestsDir      string   `yaml:"tests_dir"`
	PromptsDir    string   `yaml:"prompts_dir"`
	BuildDir      string   `yaml:"build_dir"` // empty = workspace build dir
	Extensions    []string `yaml:"extensions"`
	TestExtension string   `yaml:"test_extension"`
	MaxDepth      int      `yaml:"max_depth"`
	MaxIterations int      `yaml:"max_iterations"`

	Toolchain ToolchainConfig `yaml:"toolchain"`
	Coverage  CoverageConfig  `yaml:"coverage"`
	LLM       LLMConfig       `yaml:"llm"`
	Log       LogConfig       `yaml:"log"`
}

// ToolchainConfig describes how a test binary is compiled and run
type ToolchainConfig struct {
	Compiler       string        `yaml:"compiler"`
	CompileFlags   []string      `yaml:"compile_flags"`
	IncludeDirs    []string      `yaml:"include_dirs"`
	ExtraSources   []string      `yaml:"extra_sources"`
	LinkFlags      []string      `yaml:"link_flags"`
	CompileTimeout time.Duration `yaml:"compile_timeout"`
	TestTimeout    time.Duration `yaml:"test_timeout"`
}

// CoverageConfig controls the coverage stage of the loop
type CoverageConfig struct {
	Disabled bool    `yaml:"disabled"`
	Tool     string  `yaml:"tool"`
	Target   float64 `yaml:"target"` // minimum line coverage percent, 0 = none
}

// LLMConfig holds provider settings as read from file or env
type LLMConfig struct {
	Provider          string   `yaml:"provider"`
	Model             string   `yaml:"model"`
	Endpoint          string   `yaml:"endpoint"`
	Token             string   `yaml:"token"`
	Timeout           string   `yaml:"timeout"` // e.g. "120s"
	Temperature       *float64 `yaml:"temperature"` // nil = provider default
	MaxTokens         int      `yaml:"max_tokens"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
	MaxLogBytes       int      `yaml:"max_log_bytes"`
	OfflineFallback   bool     `yaml:"offline_fallback"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ValidationError reports an invalid configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid config field " + e.Field + ": " + e.Message
}

// New returns a Config populated with defaults
func New() *Config {
	return &Config{
		SourceDir:     DefaultSourceDir,
		TestsDir:      DefaultTestsDir,
		PromptsDir:    DefaultPromptsDir,
		Extensions:    append([]string(nil), DefaultExtensions...),
		TestExtension: DefaultTestExtension,
		MaxDepth:      DefaultMaxDepth,
		MaxIterations: DefaultMaxIterations,
		Toolchain: ToolchainConfig{
			Compiler:       DefaultCompiler,
			CompileFlags:   append([]string(nil), DefaultCompileFlags...),
			LinkFlags:      append([]string(nil), DefaultLinkFlags...),
			CompileTimeout: DefaultCompileTimeout,
			TestTimeout:    DefaultTestTimeout,
		},
		Coverage: CoverageConfig{
			Tool: DefaultCoverageTool,
		},
		LLM: LLMConfig{
			MaxLogBytes: DefaultMaxLogBytes,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Paths returns the config file locations checked in order
func Paths() []string {
	paths := []string{".utg.yaml", ".utg.yml"}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths,
			filepath.Join(xdg, "utg", "config.yaml"),
			filepath.Join(xdg, "utg", "config.yml"),
		)
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "utg", "config.yaml"),
			filepath.Join(home, ".config", "utg", "config.yml"),
			filepath.Join(home, ".utg.yaml"),
		)
	}

	return paths
}

// Load builds a Config from defaults, the first config file found and the
// environment. An explicit path must exist; the default search paths may not.
// Returns the path that was loaded ("" when none).
func Load(explicitPath string) (*Config, string, error) {
	cfg := New()

	var candidates []string
	if explicitPath != "" {
		candidates = []string{explicitPath}
	} else {
		candidates = Paths()
	}

	loadedFrom := ""
	for _, path := range candidates {
		err := loadFromPath(path, cfg)
		if err == nil {
			loadedFrom = path
			break
		}
		if errors.Is(err, os.ErrNotExist) && explicitPath == "" {
			continue
		}
		return nil, "", fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, "", err
	}

	return cfg, loadedFrom, nil
}

func loadFromPath(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// ApplyEnv overlays UTG_* environment variables onto the config
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("UTG_SOURCE_DIR"); v != "" {
		c.SourceDir = v
	}
	if v := os.Getenv("UTG_TESTS_DIR"); v != "" {
		c.TestsDir = v
	}
	if v := os.Getenv("UTG_PROMPTS_DIR"); v != "" {
		c.PromptsDir = v
	}
	if v := os.Getenv("UTG_COMPILER"); v != "" {
		c.Toolchain.Compiler = v
	}
	if v := os.Getenv("UTG_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: "UTG_MAX_ITERATIONS", Message: "not an integer: " + v}
		}
		c.MaxIterations = n
	}
	if v := os.Getenv("UTG_COVERAGE_TARGET"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ValidationError{Field: "UTG_COVERAGE_TARGET", Message: "not a number: " + v}
		}
		c.Coverage.Target = f
	}
	if v := os.Getenv("UTG_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks the config for values the pipeline cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourceDir) == "" {
		return &ValidationError{Field: "source_dir", Message: "must not be empty"}
	}
	if strings.TrimSpace(c.TestsDir) == "" {
		return &ValidationError{Field: "tests_dir", Message: "must not be empty"}
	}
	if len(c.Extensions) == 0 {
		return &ValidationError{Field: "extensions", Message: "at least one extension required"}
	}
	if c.MaxIterations < 1 {
		return &ValidationError{Field: "max_iterations", Message: fmt.Sprintf("must be >= 1, got %d", c.MaxIterations)}
	}
	if c.Coverage.Target < 0 || c.Coverage.Target > 100 {
		return &ValidationError{Field: "coverage.target", Message: fmt.Sprintf("must be within [0,100], got %g", c.Coverage.Target)}
	}
	if c.Toolchain.Compiler == "" {
		return &ValidationError{Field: "toolchain.compiler", Message: "must not be empty"}
	}
	return nil
}

// Resolve makes the directory fields absolute relative to root.
// BuildDir is left empty when unset so the caller can use its workspace.
func (c *Config) Resolve(root string) {
	c.SourceDir = resolveDir(root, c.SourceDir)
	c.TestsDir = resolveDir(root, c.TestsDir)
	c.PromptsDir = resolveDir(root, c.PromptsDir)
	if c.BuildDir != "" {
		c.BuildDir = resolveDir(root, c.BuildDir)
	}
	for i, dir := range c.Toolchain.IncludeDirs {
		c.Toolchain.IncludeDirs[i] = resolveDir(root, dir)
	}
	for i, src := range c.Toolchain.ExtraSources {
		c.Toolchain.ExtraSources[i] = resolveDir(root, src)
	}
	for i, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			c.Extensions[i] = "." + ext
		}
	}
	if c.TestExtension != "" && !strings.HasPrefix(c.TestExtension, ".") {
		c.TestExtension = "." + c.TestExtension
	}
}

func resolveDir(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

// LLMTimeout parses the configured LLM timeout, falling back to the default
func (c *Config) LLMTimeout() time.Duration {
	if c.LLM.Timeout == "" {
		return DefaultLLMTimeout
	}
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return DefaultLLMTimeout
	}
	return d
}
