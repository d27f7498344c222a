// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Workspace types and layout constants

package workspace

const (
	DirName     = ".utg"
	RunIDPrefix = "utg"
	RepoSubdir  = "repo"
	BuildSubdir = "build"
	LogsSubdir  = "logs"
	LogFileName = "utg.log"
)

// Workspace is the scratch directory of a single run:
// <base>/.utg/<run-id>/{repo,build,logs}
type Workspace struct {
	RunID   string
	Path    string
	BaseDir string
	keep    bool
}

// Config holds configuration for workspace creation
type Config struct {
	BaseDir string
	Keep    bool
}
