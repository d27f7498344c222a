// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Fetcher tests

package tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"

	"github.com/sony-level/utg/internal/fetcher"
)

func TestDetectSourceType(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"github https", "https://github.com/user/repo", fetcher.SourceTypeGitHub},
		{"github https with .git", "https://github.com/user/repo.git", fetcher.SourceTypeGitHub},
		{"github https trailing slash", "https://github.com/user/repo/", fetcher.SourceTypeGitHub},
		{"github ssh", "git@github.com:user/repo.git", fetcher.SourceTypeGitHub},
		{"gitlab https", "https://gitlab.com/user/repo", fetcher.SourceTypeGitLab},
		{"gitlab ssh", "git@gitlab.com:user/repo.git", fetcher.SourceTypeGitLab},
		{"current dir", ".", fetcher.SourceTypeLocal},
		{"relative path", "./src", fetcher.SourceTypeLocal},
		{"parent relative", "../other/path", fetcher.SourceTypeLocal},
		{"bare name", "project", fetcher.SourceTypeLocal},
		{"other host", "https://bitbucket.org/user/repo", fetcher.SourceTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fetcher.DetectSourceType(tt.source); got != tt.expected {
				t.Errorf("DetectSourceType(%q) = %q, want %q", tt.source, got, tt.expected)
			}
		})
	}
}

func TestParseGitURL(t *testing.T) {
	info, err := fetcher.ParseGitURL("git@github.com:google/googletest.git")
	if err != nil {
		t.Fatalf("ParseGitURL() error = %v", err)
	}
	if info.Owner != "google" || info.Repo != "googletest" || info.Platform != fetcher.SourceTypeGitHub {
		t.Errorf("unexpected info %+v", info)
	}

	if _, err := fetcher.ParseGitURL("https://example.com/a/b"); err == nil {
		t.Error("expected error for unsupported host")
	}
}

func TestIsGitURL(t *testing.T) {
	if !fetcher.IsGitHubURL("http://github.com/user/repo") || fetcher.IsGitHubURL("https://gitlab.com/user/repo") {
		t.Error("IsGitHubURL misclassified")
	}
	if !fetcher.IsGitLabURL("https://gitlab.com/user/repo.git") || fetcher.IsGitLabURL("./local") {
		t.Error("IsGitLabURL misclassified")
	}
}

func TestNormalizeGitURL(t *testing.T) {
	tests := map[string]string{
		"git@github.com:user/repo.git": "https://github.com/user/repo.git",
		"https://gitlab.com/user/repo": "https://gitlab.com/user/repo.git",
		"./not-a-url":                  "./not-a-url",
	}
	for in, want := range tests {
		if got := fetcher.NormalizeGitURL(in); got != want {
			t.Errorf("NormalizeGitURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateLocalPath(t *testing.T) {
	tmpDir := t.TempDir()

	if err := fetcher.ValidateLocalPath(tmpDir); err != nil {
		t.Errorf("ValidateLocalPath(%q) error = %v", tmpDir, err)
	}
	if err := fetcher.ValidateLocalPath(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("expected error for missing path")
	}

	filePath := filepath.Join(tmpDir, "file.cc")
	if err := os.WriteFile(filePath, []byte("int x;"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fetcher.ValidateLocalPath(filePath); err == nil {
		t.Error("expected error for a file")
	}
}

func TestFetchLocalInPlace(t *testing.T) {
	src := t.TempDir()

	result, err := fetcher.Fetch(context.Background(), &fetcher.FetchConfig{Source: src})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	abs, _ := filepath.Abs(src)
	if result.Root != abs {
		t.Errorf("Root = %s, want %s", result.Root, abs)
	}
	if result.Cloned || result.IsGitRepo {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestFetchLocalGitRepo(t *testing.T) {
	src := t.TempDir()
	if _, err := git.PlainInit(src, false); err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	sub := filepath.Join(src, "lib")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	result, err := fetcher.Fetch(context.Background(), &fetcher.FetchConfig{Source: sub})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !result.IsGitRepo {
		t.Error("subdirectory of a work tree should be detected as a git repo")
	}
}

func TestFetch_Validation(t *testing.T) {
	ctx := context.Background()

	if _, err := fetcher.Fetch(ctx, nil); err == nil {
		t.Error("Fetch(nil) should return error")
	}
	if _, err := fetcher.Fetch(ctx, &fetcher.FetchConfig{}); err == nil {
		t.Error("Fetch with empty source should return error")
	}
	if _, err := fetcher.Fetch(ctx, &fetcher.FetchConfig{Source: "https://github.com/user/repo"}); err == nil {
		t.Error("Fetch of a URL without destination should return error")
	}
	if _, err := fetcher.Fetch(ctx, &fetcher.FetchConfig{Source: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("Fetch of a missing directory should return error")
	}
}
