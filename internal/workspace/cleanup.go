// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Workspace removal

package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cleanup removes the workspace unless it is kept. The .utg parent goes too
// once it is empty.
func (w *Workspace) Cleanup() error {
	if w.keep || !w.Exists() {
		return nil
	}

	if err := os.RemoveAll(w.Path); err != nil {
		return fmt.Errorf("failed to cleanup workspace %s: %w", w.Path, err)
	}
	_ = os.Remove(filepath.Join(w.BaseDir, DirName))

	return nil
}

// CleanupAll removes every workspace under baseDir
func CleanupAll(baseDir string) error {
	root := filepath.Join(baseDir, DirName)

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("failed to cleanup all workspaces: %w", err)
	}
	return nil
}

// CleanupStale removes workspaces not modified within maxAge and returns
// how many were removed.
func CleanupStale(baseDir string, maxAge time.Duration) (int, error) {
	root := filepath.Join(baseDir, DirName)

	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", root, err)
	}

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err == nil {
			cleaned++
		}
	}

	_ = os.Remove(root)
	return cleaned, nil
}
