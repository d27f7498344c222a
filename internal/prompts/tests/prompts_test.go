// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Prompt loading tests

package tests

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sony-level/utg/internal/prompts"
)

func TestDefaultsExistForAllKinds(t *testing.T) {
	for _, kind := range prompts.AllKinds {
		p, err := prompts.Default(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, prompts.EmbeddedSource, p.Source)
		assert.NotEmpty(t, p.Render(), kind)
	}
}

func TestLoad_FallsBackToEmbedded(t *testing.T) {
	p, err := prompts.Load(t.TempDir(), prompts.KindRefinement)
	require.NoError(t, err)
	assert.Equal(t, prompts.EmbeddedSource, p.Source)
	assert.Equal(t, "refinement", p.Name)
}

func TestLoad_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	content := `name: custom
role: You write tests.
instructions:
  - Cover everything
framework: catch2
`
	path := filepath.Join(dir, "initial_generation.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p, err := prompts.Load(dir, prompts.KindGeneration)
	require.NoError(t, err)
	assert.Equal(t, path, p.Source)
	assert.Equal(t, "custom", p.Name)
	assert.Equal(t, "catch2", p.Extra["framework"])

	text := p.Render()
	assert.True(t, strings.HasPrefix(text, "You write tests."))
	assert.Contains(t, text, "Instructions:\n- Cover everything")
	assert.Contains(t, text, "framework: catch2")
}

func TestLoad_ScalarDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_fix.yaml"), []byte("\"Fix the failing tests.\"\n"), 0644))

	p, err := prompts.Load(dir, prompts.KindTestFix)
	require.NoError(t, err)
	assert.Equal(t, "Fix the failing tests.", p.Render())
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build_fix.yaml"), []byte("role: [unterminated"), 0644))

	_, err := prompts.Load(dir, prompts.KindBuildFix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build_fix.yaml")
}

func TestLoadAll(t *testing.T) {
	set, err := prompts.LoadAll("")
	require.NoError(t, err)
	for _, kind := range prompts.AllKinds {
		assert.NotNil(t, set.Get(kind), kind)
	}
}

func TestWriteDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	written, err := prompts.WriteDefaults(dir, false)
	require.NoError(t, err)
	assert.Len(t, written, len(prompts.AllKinds))

	custom := filepath.Join(dir, "refinement.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("role: mine\n"), 0644))

	written, err = prompts.WriteDefaults(dir, false)
	require.NoError(t, err)
	assert.Empty(t, written)

	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Equal(t, "role: mine\n", string(data))
}
