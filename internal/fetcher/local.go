// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Local project resolution

package fetcher

import (
	"fmt"
	"path/filepath"
)

// resolveLocal validates a local directory and returns it as the project root
func resolveLocal(config *FetchConfig) (*FetchResult, error) {
	if err := ValidateLocalPath(config.Source); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(config.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.Progress, "Using local project: %s\n", root)
	}

	return &FetchResult{
		Source:     config.Source,
		Root:       root,
		SourceType: SourceTypeLocal,
		IsGitRepo:  openRepository(root),
	}, nil
}
