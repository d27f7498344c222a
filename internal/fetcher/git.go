// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Git cloning implementation

package fetcher

import (
	"context"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// fetchFromGit clones a repository from GitHub or GitLab
func fetchFromGit(ctx context.Context, config *FetchConfig, sourceType string) (*FetchResult, error) {
	repoInfo, err := ParseGitURL(config.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse git URL: %w", err)
	}
	cloneURL := NormalizeGitURL(config.Source)

	if config.Verbose {
		fmt.Fprintf(config.Progress, "Cloning %s/%s from %s...\n", repoInfo.Owner, repoInfo.Repo, repoInfo.Platform)
		fmt.Fprintf(config.Progress, "URL: %s\n", cloneURL)
		fmt.Fprintf(config.Progress, "Destination: %s\n", config.Destination)
	}

	cloneOpts := &git.CloneOptions{URL: cloneURL}
	if config.Verbose {
		cloneOpts.Progress = config.Progress
	}
	if !config.FullClone {
		cloneOpts.Depth = 1
		cloneOpts.SingleBranch = true
		cloneOpts.ReferenceName = plumbing.HEAD
	}

	if _, err := git.PlainCloneContext(ctx, config.Destination, false, cloneOpts); err != nil {
		// Leave an empty destination behind rather than a partial clone
		_ = os.RemoveAll(config.Destination)
		_ = os.MkdirAll(config.Destination, 0755)
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	return &FetchResult{
		Source:     config.Source,
		Root:       config.Destination,
		SourceType: sourceType,
		IsGitRepo:  true,
		Cloned:     true,
	}, nil
}

// openRepository reports whether dir is a git work tree
func openRepository(dir string) bool {
	_, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}
