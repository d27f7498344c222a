// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Source resolution: local paths in place, git URLs cloned

package fetcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Fetch resolves a project source. Local paths are used in place so that
// generated tests land in the user's project; URLs are cloned into
// config.Destination.
func Fetch(ctx context.Context, config *FetchConfig) (*FetchResult, error) {
	if config == nil {
		return nil, fmt.Errorf("fetch config is nil")
	}
	if config.Source == "" {
		return nil, fmt.Errorf("source is empty")
	}
	if config.Progress == nil {
		config.Progress = io.Discard
	}

	switch sourceType := DetectSourceType(config.Source); sourceType {
	case SourceTypeGitHub, SourceTypeGitLab:
		if config.Destination == "" {
			return nil, fmt.Errorf("destination is empty")
		}
		return fetchFromGit(ctx, config, sourceType)
	case SourceTypeLocal:
		return resolveLocal(config)
	default:
		return nil, fmt.Errorf("unknown source type for: %s", config.Source)
	}
}

// DetectSourceType determines if the source is a GitHub/GitLab URL or local path
func DetectSourceType(source string) string {
	if info, err := ParseGitURL(source); err == nil {
		return info.Platform
	}
	if isLocalPath(source) {
		return SourceTypeLocal
	}
	return SourceTypeUnknown
}

// IsGitHubURL checks if the source is a valid GitHub URL
func IsGitHubURL(source string) bool {
	info, err := ParseGitURL(source)
	return err == nil && info.Platform == SourceTypeGitHub
}

// IsGitLabURL checks if the source is a valid GitLab URL
func IsGitLabURL(source string) bool {
	info, err := ParseGitURL(source)
	return err == nil && info.Platform == SourceTypeGitLab
}

// ParseGitURL extracts owner and repo from a GitHub or GitLab URL
func ParseGitURL(url string) (*GitRepoInfo, error) {
	for _, p := range gitURLPatterns {
		if m := p.re.FindStringSubmatch(url); m != nil {
			return &GitRepoInfo{
				Owner:    m[1],
				Repo:     strings.TrimSuffix(m[2], ".git"),
				URL:      url,
				Platform: p.platform,
			}, nil
		}
	}
	return nil, fmt.Errorf("invalid git URL: %s", url)
}

// NormalizeGitURL converts SSH and bare forms to an HTTPS clone URL
func NormalizeGitURL(url string) string {
	info, err := ParseGitURL(url)
	if err != nil {
		return url
	}
	return fmt.Sprintf("https://%s.com/%s/%s.git", info.Platform, info.Owner, info.Repo)
}

// isLocalPath reports whether source looks like a filesystem path
func isLocalPath(source string) bool {
	if filepath.IsAbs(source) || source == "." || source == ".." {
		return true
	}
	if strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../") {
		return true
	}
	if _, err := os.Stat(source); err == nil {
		return true
	}
	return !strings.Contains(source, "://") && !strings.Contains(source, "@")
}

// ValidateLocalPath validates that a local path exists and is a directory
func ValidateLocalPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", absPath)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied: %s", absPath)
		}
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	return nil
}
