// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Run IDs, workspace creation and path helpers

package workspace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sony-level/utg/internal/fileio"
)

var (
	idMutex       sync.Mutex
	lastTimestamp string
	lastCounter   int
)

// ResetRunIDState resets the run ID generator (for tests)
func ResetRunIDState() {
	idMutex.Lock()
	defer idMutex.Unlock()
	lastTimestamp = ""
	lastCounter = 0
}

// GenerateRunID returns utg-YYYYMMDD-HHMM-xxx where xxx is three random hex
// characters, or a zero-padded counter for further IDs in the same minute.
func GenerateRunID() (string, error) {
	idMutex.Lock()
	defer idMutex.Unlock()

	timestamp := time.Now().Format("20060102-1504")

	if timestamp == lastTimestamp {
		lastCounter++
		return fmt.Sprintf("%s-%s-%03d", RunIDPrefix, timestamp, lastCounter), nil
	}

	randomBytes := make([]byte, 2)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	lastTimestamp = timestamp
	lastCounter = 0

	return fmt.Sprintf("%s-%s-%s", RunIDPrefix, timestamp, hex.EncodeToString(randomBytes)[:3]), nil
}

// New creates a workspace under config.BaseDir (the working directory when
// config is nil).
func New(config *Config) (*Workspace, error) {
	if config == nil {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		config = &Config{BaseDir: cwd}
	}

	runID, err := GenerateRunID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run ID: %w", err)
	}

	ws := &Workspace{
		RunID:   runID,
		Path:    filepath.Join(config.BaseDir, DirName, runID),
		BaseDir: config.BaseDir,
		keep:    config.Keep,
	}

	for _, dir := range []string{ws.RepoPath(), ws.BuildPath(), ws.LogsPath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = os.RemoveAll(ws.Path)
			return nil, fmt.Errorf("failed to create workspace directory %s: %w", dir, err)
		}
	}

	return ws, nil
}

// RepoPath is where a cloned project lives
func (w *Workspace) RepoPath() string {
	return filepath.Join(w.Path, RepoSubdir)
}

// BuildPath holds test binaries and coverage data
func (w *Workspace) BuildPath() string {
	return filepath.Join(w.Path, BuildSubdir)
}

// LogsPath holds stage logs and the run log
func (w *Workspace) LogsPath() string {
	return filepath.Join(w.Path, LogsSubdir)
}

// LogFile returns the structured run log path
func (w *Workspace) LogFile() string {
	return filepath.Join(w.LogsPath(), LogFileName)
}

// StageLogPath returns <logs>/<test>-iter<N>-<stage>.log
func (w *Workspace) StageLogPath(testName string, iteration int, stage string) string {
	return filepath.Join(w.LogsPath(), fmt.Sprintf("%s-iter%d-%s.log", testName, iteration, stage))
}

// WriteStageLog stores one stage's output and returns its path
func (w *Workspace) WriteStageLog(testName string, iteration int, stage, content string) (string, error) {
	path := w.StageLogPath(testName, iteration, stage)
	if err := fileio.WriteFile(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// Exists checks if the workspace directory exists
func (w *Workspace) Exists() bool {
	info, err := os.Stat(w.Path)
	return err == nil && info.IsDir()
}

// SetKeep sets whether to preserve the workspace on cleanup
func (w *Workspace) SetKeep(keep bool) {
	w.keep = keep
}

// ShouldKeep returns whether the workspace will be preserved
func (w *Workspace) ShouldKeep() bool {
	return w.keep
}

func (w *Workspace) String() string {
	return fmt.Sprintf("Workspace{RunID: %s, Path: %s, Keep: %v}", w.RunID, w.Path, w.keep)
}
