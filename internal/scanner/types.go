// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Scanner types and constants

package scanner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoSourceFiles is returned by callers when a scan found nothing to test
	ErrNoSourceFiles = errors.New("no source files found")

	// ErrAmbiguousStem means several source files would share one test file
	ErrAmbiguousStem = errors.New("ambiguous source stem")
)

// ScanConfig holds configuration for scanning
type ScanConfig struct {
	RootPath    string   // Source directory to scan
	Extensions  []string // Source extensions, e.g. ".cc" (default: .cc)
	MaxDepth    int      // 1 = root directory only (default: 1)
	Exclude     []string // Extra directory names to skip (e.g. the tests dir)
	FollowLinks bool     // Follow symbolic links (default: false)
	Verbose     bool
}

// ScanResult contains the detected source files
type ScanResult struct {
	RootPath     string
	SourceFiles  []SourceFile // Sorted by RelPath
	TotalFiles   int          // All regular files visited
	TotalDirs    int          // Directories visited (root excluded)
	ScanDuration time.Duration
	Errors       []error // Non-fatal errors during scan
}

// SourceFile is a native source file selected for test generation
type SourceFile struct {
	Path    string // Absolute path
	RelPath string // Relative to RootPath
	Size    int64
}

// Paths returns the absolute paths of all source files
func (r *ScanResult) Paths() []string {
	paths := make([]string, 0, len(r.SourceFiles))
	for _, f := range r.SourceFiles {
		paths = append(paths, f.Path)
	}
	return paths
}

// Lookup returns the only source file whose stem matches. It returns nil
// without error when none does and ErrAmbiguousStem when several do.
func (r *ScanResult) Lookup(stem string) (*SourceFile, error) {
	var found *SourceFile
	var matches []string
	for i := range r.SourceFiles {
		if fileStem(r.SourceFiles[i].Path) != stem {
			continue
		}
		if found == nil {
			found = &r.SourceFiles[i]
		}
		matches = append(matches, r.SourceFiles[i].RelPath)
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("%w %q: %s", ErrAmbiguousStem, stem, strings.Join(matches, ", "))
	}
	return found, nil
}

// Find returns the source file whose stem matches, or nil when none or
// several do
func (r *ScanResult) Find(stem string) *SourceFile {
	f, _ := r.Lookup(stem)
	return f
}

// StemCollisions maps every stem shared by several source files to their
// relative paths
func (r *ScanResult) StemCollisions() map[string][]string {
	byStem := make(map[string][]string)
	for _, f := range r.SourceFiles {
		stem := fileStem(f.Path)
		byStem[stem] = append(byStem[stem], f.RelPath)
	}
	for stem, paths := range byStem {
		if len(paths) < 2 {
			delete(byStem, stem)
		}
	}
	return byStem
}
