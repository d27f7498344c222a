// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Config tests

package tests

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sony-level/utg/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	cfg := config.New()

	assert.Equal(t, config.DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, []string{".cc"}, cfg.Extensions)
	assert.Equal(t, "g++", cfg.Toolchain.Compiler)
	assert.Contains(t, cfg.Toolchain.CompileFlags, "--coverage")
	assert.False(t, cfg.Coverage.Disabled)
	assert.Nil(t, cfg.LLM.Temperature)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "utg.yaml")
	content := `
source_dir: cpp-project
max_iterations: 3
extensions: [".cc", ".cpp"]
toolchain:
  compiler: clang++
  compile_timeout: 30s
coverage:
  target: 75
llm:
  provider: ollama
  model: qwen2.5-coder
  temperature: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, loaded, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, loaded)
	assert.Equal(t, "cpp-project", cfg.SourceDir)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, []string{".cc", ".cpp"}, cfg.Extensions)
	assert.Equal(t, "clang++", cfg.Toolchain.Compiler)
	assert.Equal(t, 30*time.Second, cfg.Toolchain.CompileTimeout)
	assert.Equal(t, 75.0, cfg.Coverage.Target)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	require.NotNil(t, cfg.LLM.Temperature, "an explicit zero temperature must survive loading")
	assert.Equal(t, 0.0, *cfg.LLM.Temperature)
	// Unset fields keep their defaults
	assert.Equal(t, config.DefaultTestsDir, cfg.TestsDir)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_iterations: [oops"), 0644))

	_, _, err := config.Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("UTG_MAX_ITERATIONS", "9")
	t.Setenv("UTG_COVERAGE_TARGET", "42.5")
	t.Setenv("UTG_COMPILER", "clang++")

	cfg := config.New()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, 9, cfg.MaxIterations)
	assert.Equal(t, 42.5, cfg.Coverage.Target)
	assert.Equal(t, "clang++", cfg.Toolchain.Compiler)
}

func TestApplyEnv_InvalidNumber(t *testing.T) {
	t.Setenv("UTG_MAX_ITERATIONS", "many")

	err := config.New().ApplyEnv()
	var vErr *config.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "UTG_MAX_ITERATIONS", vErr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"zero iterations", func(c *config.Config) { c.MaxIterations = 0 }, "max_iterations"},
		{"coverage above 100", func(c *config.Config) { c.Coverage.Target = 101 }, "coverage.target"},
		{"negative coverage", func(c *config.Config) { c.Coverage.Target = -1 }, "coverage.target"},
		{"no extensions", func(c *config.Config) { c.Extensions = nil }, "extensions"},
		{"empty source dir", func(c *config.Config) { c.SourceDir = " " }, "source_dir"},
		{"empty compiler", func(c *config.Config) { c.Toolchain.Compiler = "" }, "toolchain.compiler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)

			var vErr *config.ValidationError
			require.ErrorAs(t, cfg.Validate(), &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	cfg := config.New()
	cfg.Extensions = []string{"cpp"}
	cfg.TestExtension = "cpp"
	cfg.Toolchain.IncludeDirs = []string{"include"}

	cfg.Resolve(root)

	assert.Equal(t, root, cfg.SourceDir)
	assert.Equal(t, filepath.Join(root, "tests"), cfg.TestsDir)
	assert.Equal(t, filepath.Join(root, "include"), cfg.Toolchain.IncludeDirs[0])
	assert.Equal(t, []string{".cpp"}, cfg.Extensions)
	assert.Equal(t, ".cpp", cfg.TestExtension)
	assert.Empty(t, cfg.BuildDir)
}

func TestLLMTimeout(t *testing.T) {
	cfg := config.New()
	assert.Equal(t, config.DefaultLLMTimeout, cfg.LLMTimeout())

	cfg.LLM.Timeout = "45s"
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout())

	cfg.LLM.Timeout = "soon"
	assert.Equal(t, config.DefaultLLMTimeout, cfg.LLMTimeout())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("UTG_TEST_DOTENV_KEY=from-file\n"), 0644))
	t.Setenv("UTG_TEST_DOTENV_KEY", "")
	os.Unsetenv("UTG_TEST_DOTENV_KEY")

	require.NoError(t, config.LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "from-file", os.Getenv("UTG_TEST_DOTENV_KEY"))
}
