// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Fetcher types and constants

package fetcher

import (
	"io"
	"regexp"
)

// Source type constants
const (
	SourceTypeUnknown = "unknown"
	SourceTypeGitHub  = "github"
	SourceTypeGitLab  = "gitlab"
	SourceTypeLocal   = "local"
)

// gitURLPattern matches one hosting platform's HTTPS or SSH URL form
type gitURLPattern struct {
	platform string
	re       *regexp.Regexp
}

var gitURLPatterns = []gitURLPattern{
	{SourceTypeGitHub, regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)},
	{SourceTypeGitHub, regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)},
	{SourceTypeGitLab, regexp.MustCompile(`^https?://gitlab\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)},
	{SourceTypeGitLab, regexp.MustCompile(`^git@gitlab\.com:([^/]+)/([^/]+?)(?:\.git)?$`)},
}

// FetchConfig holds configuration for resolving a project
type FetchConfig struct {
	Source      string    // GitHub/GitLab URL or local path
	Destination string    // Clone target (workspace repo dir); unused for local paths
	Verbose     bool      // Print clone progress
	Progress    io.Writer // Progress output, defaults to io.Discard
	FullClone   bool      // Fetch full history instead of depth 1
}

// FetchResult describes where the project lives
type FetchResult struct {
	Source     string // Original source
	Root       string // Absolute project directory to work in
	SourceType string // github, gitlab or local
	IsGitRepo  bool   // Whether the project is a git repository
	Cloned     bool   // Whether Root is a fresh clone in the workspace
}

// GitRepoInfo contains parsed git repository information
type GitRepoInfo struct {
	Owner    string
	Repo     string
	URL      string
	Platform string // "github" or "gitlab"
}
