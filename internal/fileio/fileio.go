// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Source and test file reading/writing

package fileio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TestFilePrefix is prepended to a source stem to name its test file
const TestFilePrefix = "test_"

// ReadFile returns the file content as a string
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteFile writes content to path, creating parent directories.
// The write goes through a temp file in the same directory and a rename,
// so a crash never leaves a half-written test file behind.
func WriteFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Stem returns the file name without directory and extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TestFileName returns test_<stem><ext> for a source path
func TestFileName(sourcePath, ext string) string {
	return TestFilePrefix + Stem(sourcePath) + ext
}

// SourceStem returns the source stem a test file was generated for,
// or "" when the name does not carry the test prefix.
func SourceStem(testPath string) string {
	stem := Stem(testPath)
	if !strings.HasPrefix(stem, TestFilePrefix) {
		return ""
	}
	return strings.TrimPrefix(stem, TestFilePrefix)
}
