// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// YAML prompt loading with embedded defaults

package prompts

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies one of the prompts used by the pipeline
type Kind string

const (
	KindGeneration  Kind = "initial_generation"
	KindRefinement  Kind = "refinement"
	KindBuildFix    Kind = "build_fix"
	KindTestFix     Kind = "test_fix"
	KindCoverageFix Kind = "coverage_fix"
)

// AllKinds lists every prompt kind in pipeline order
var AllKinds = []Kind{KindGeneration, KindRefinement, KindBuildFix, KindTestFix, KindCoverageFix}

// EmbeddedSource marks a prompt that came from the built-in defaults
const EmbeddedSource = "embedded"

//go:embed defaults/*.yaml
var defaultFS embed.FS

// Prompt is the structured form of a prompt YAML file
type Prompt struct {
	Name         string         `yaml:"name"`
	Role         string         `yaml:"role"`
	Instructions []string       `yaml:"instructions"`
	Constraints  []string       `yaml:"constraints"`
	OutputFormat string         `yaml:"output_format"`
	Extra        map[string]any `yaml:",inline"`

	Source string `yaml:"-"`
}

// Load reads <dir>/<kind>.yaml (or .yml). When dir is empty or holds no such
// file the embedded default is returned.
func Load(dir string, kind Kind) (*Prompt, error) {
	if dir != "" {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, string(kind)+ext)
			data, err := os.ReadFile(path)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read prompt %s: %w", path, err)
			}
			p, err := Parse(data)
			if err != nil {
				return nil, fmt.Errorf("invalid prompt %s: %w", path, err)
			}
			p.Source = path
			return p, nil
		}
	}
	return Default(kind)
}

// Default returns the embedded prompt for kind
func Default(kind Kind) (*Prompt, error) {
	data, err := defaultFS.ReadFile("defaults/" + string(kind) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no default prompt for %q", kind)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid embedded prompt %q: %w", kind, err)
	}
	p.Source = EmbeddedSource
	return p, nil
}

// Parse decodes prompt YAML. A document that is a plain string is taken as
// the role text.
func Parse(data []byte) (*Prompt, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("empty prompt document")
	}

	doc := node.Content[0]
	if doc.Kind == yaml.ScalarNode {
		return &Prompt{Role: strings.TrimSpace(doc.Value)}, nil
	}

	var p Prompt
	if err := doc.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Render turns the prompt into the system message text
func (p *Prompt) Render() string {
	var sb strings.Builder

	if role := strings.TrimSpace(p.Role); role != "" {
		sb.WriteString(role)
		sb.WriteString("\n")
	}

	writeList(&sb, "Instructions", p.Instructions)
	writeList(&sb, "Constraints", p.Constraints)

	if out := strings.TrimSpace(p.OutputFormat); out != "" {
		sb.WriteString("\nOutput format:\n")
		sb.WriteString(out)
		sb.WriteString("\n")
	}

	if len(p.Extra) > 0 {
		extra, err := yaml.Marshal(p.Extra)
		if err == nil {
			sb.WriteString("\n")
			sb.Write(extra)
		}
	}

	return strings.TrimSpace(sb.String())
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n" + title + ":\n")
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(strings.TrimSpace(item))
		sb.WriteString("\n")
	}
}

// Set holds one prompt per kind
type Set struct {
	prompts map[Kind]*Prompt
}

// LoadAll loads every prompt kind from dir
func LoadAll(dir string) (*Set, error) {
	set := &Set{prompts: make(map[Kind]*Prompt, len(AllKinds))}
	for _, kind := range AllKinds {
		p, err := Load(dir, kind)
		if err != nil {
			return nil, err
		}
		set.prompts[kind] = p
	}
	return set, nil
}

// Get returns the prompt for kind, or nil
func (s *Set) Get(kind Kind) *Prompt {
	return s.prompts[kind]
}

// WriteDefaults copies the embedded prompts into dir. Existing files are
// left alone unless overwrite is set. Returns the paths written.
func WriteDefaults(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create prompts directory: %w", err)
	}

	var written []string
	for _, kind := range AllKinds {
		path := filepath.Join(dir, string(kind)+".yaml")
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		data, err := defaultFS.ReadFile("defaults/" + string(kind) + ".yaml")
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
