// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Prerequisite types and tool definitions

package prereq

// Tool represents a prerequisite tool
type Tool struct {
	Name         string   // Tool name
	Command      string   // Command to check existence
	VersionArgs  []string // Arguments printing the version
	Alternatives []string // Alternative command names
	InstallGuide string   // Installation instructions
	Category     string   // compiler, coverage, vcs
}

// DefaultTools returns the tools the pipeline knows about
func DefaultTools() map[string]*Tool {
	return map[string]*Tool{
		"g++": {
			Name:         "g++",
			Command:      "g++",
			VersionArgs:  []string{"--version"},
			Alternatives: []string{"c++"},
			Category:     "compiler",
			InstallGuide: `Install GCC and GoogleTest:
  macOS:   brew install gcc googletest
  Ubuntu:  sudo apt install build-essential libgtest-dev
  Fedora:  sudo dnf install gcc-c++ gtest-devel`,
		},
		"clang++": {
			Name:        "clang++",
			Command:     "clang++",
			VersionArgs: []string{"--version"},
			Category:    "compiler",
			InstallGuide: `Install Clang and GoogleTest:
  macOS:   xcode-select --install && brew install googletest
  Ubuntu:  sudo apt install clang libgtest-dev
  Fedora:  sudo dnf install clang gtest-devel`,
		},
		"lcov": {
			Name:        "lcov",
			Command:     "lcov",
			VersionArgs: []string{"--version"},
			Category:    "coverage",
			InstallGuide: `Install lcov:
  macOS:   brew install lcov
  Ubuntu:  sudo apt install lcov
  Fedora:  sudo dnf install lcov`,
		},
		"gcov": {
			Name:        "gcov",
			Command:     "gcov",
			VersionArgs: []string{"--version"},
			Category:    "coverage",
			InstallGuide: `gcov ships with GCC.
  Ubuntu:  sudo apt install gcc
  Fedora:  sudo dnf install gcc`,
		},
		"git": {
			Name:        "git",
			Command:     "git",
			VersionArgs: []string{"--version"},
			Category:    "vcs",
			InstallGuide: `Install git:
  macOS:   brew install git
  Ubuntu:  sudo apt install git
  Fedora:  sudo dnf install git
  Windows: https://git-scm.com/download/win`,
		},
	}
}

// CheckResult contains the result of checking a tool
type CheckResult struct {
	Name     string // Tool name
	Found    bool   // Whether tool was found
	Required bool   // Whether a missing tool blocks the run
	Version  string // First line of the version output
	Path     string // Resolved path
}

// CheckSummary contains results for all checks
type CheckSummary struct {
	Results         []CheckResult
	AllFound        bool     // Every tool was found
	MissingTools    []string // All missing tools
	MissingRequired []string // Missing tools that block the run
}

// NewCheckSummary creates a new check summary
func NewCheckSummary() *CheckSummary {
	return &CheckSummary{AllFound: true}
}

// AddResult adds a check result to the summary
func (s *CheckSummary) AddResult(result CheckResult) {
	s.Results = append(s.Results, result)
	if result.Found {
		return
	}
	s.AllFound = false
	s.MissingTools = append(s.MissingTools, result.Name)
	if result.Required {
		s.MissingRequired = append(s.MissingRequired, result.Name)
	}
}

// Found reports whether the named tool was found
func (s *CheckSummary) Found(name string) bool {
	for _, r := range s.Results {
		if r.Name == name {
			return r.Found
		}
	}
	return false
}

// Requirement names a tool and whether it is mandatory
type Requirement struct {
	Name     string
	Required bool
}

// ToolchainRequirements returns what a run needs: the compiler always,
// lcov and gcov when coverage is on, git when the project is cloned.
func ToolchainRequirements(compiler, coverageTool string, coverage, clone bool) []Requirement {
	reqs := []Requirement{{Name: compiler, Required: true}}
	if coverage {
		if coverageTool == "" {
			coverageTool = "lcov"
		}
		reqs = append(reqs, Requirement{Name: coverageTool}, Requirement{Name: "gcov"})
	}
	if clone {
		reqs = append(reqs, Requirement{Name: "git"})
	}
	return reqs
}
