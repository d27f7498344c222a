// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Main scanner logic

package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultExtensions is used when ScanConfig.Extensions is empty
var DefaultExtensions = []string{".cc"}

// Scan collects native source files under the configured root
func Scan(config *ScanConfig) (*ScanResult, error) {
	if config == nil {
		return nil, fmt.Errorf("scan config cannot be nil")
	}

	if config.RootPath == "" {
		return nil, fmt.Errorf("root path cannot be empty")
	}

	info, err := os.Stat(config.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", config.RootPath)
	}

	root, err := filepath.Abs(config.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	maxDepth := config.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}
	extensions := config.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	excluded := make(map[string]bool, len(config.Exclude))
	for _, name := range config.Exclude {
		excluded[name] = true
	}

	startTime := time.Now()

	result := &ScanResult{
		RootPath: root,
		Errors:   []error{},
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		depth := 0
		if relPath != "." {
			depth = strings.Count(relPath, string(os.PathSeparator)) + 1
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			// A directory at depth N holds files at depth N+1
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			name := d.Name()
			if ShouldSkipDir(name) || excluded[name] {
				return filepath.SkipDir
			}
			result.TotalDirs++
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 && !config.FollowLinks {
			return nil
		}

		result.TotalFiles++

		if !isSourceFile(d.Name(), extensions) {
			return nil
		}

		var size int64
		if fi, err := d.Info(); err == nil {
			size = fi.Size()
		}
		result.SourceFiles = append(result.SourceFiles, SourceFile{
			Path:    path,
			RelPath: relPath,
			Size:    size,
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	sort.Slice(result.SourceFiles, func(i, j int) bool {
		return result.SourceFiles[i].RelPath < result.SourceFiles[j].RelPath
	})
	result.ScanDuration = time.Since(startTime)

	return result, nil
}

// ListTestFiles returns the test_*<ext> files directly inside dir, sorted.
// A missing directory yields an empty list.
func ListTestFiles(dir, ext string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "test_*"+ext))
	if err != nil {
		return nil, fmt.Errorf("invalid test file pattern: %w", err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}
