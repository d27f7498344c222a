// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Source file detection logic

package scanner

import (
	"path/filepath"
	"strings"
)

// skipDirs contains directories to skip during scanning
var skipDirs = map[string]bool{
	".git":                true,
	".svn":                true,
	".hg":                 true,
	".utg":                true,
	"node_modules":        true,
	"vendor":              true,
	"third_party":         true,
	"build":               true,
	"cmake-build-debug":   true,
	"cmake-build-release": true,
	"CMakeFiles":          true,
	"coverage":            true,
	".cache":              true,
	".idea":               true,
	".vscode":             true,
}

// ShouldSkipDir returns true if a directory should be skipped
func ShouldSkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || skipDirs[name]
}

// isSourceFile reports whether name has one of the extensions and is not
// itself a generated test file
func isSourceFile(name string, extensions []string) bool {
	if strings.HasPrefix(name, "test_") {
		return false
	}
	ext := filepath.Ext(name)
	for _, want := range extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
