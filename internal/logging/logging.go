// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Structured logger construction

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"
)

// Options configures the logger
type Options struct {
	Level   string    // trace, debug, info, warn, error
	File    string    // optional JSON log file
	Console io.Writer // defaults to os.Stderr
	Color   bool
}

// Logger is the structured logger shared across the pipeline
type Logger = log.Logger

// New builds a logger writing human-readable lines to the console and,
// when File is set, JSON lines to that file. The returned close func
// flushes and closes the file writer.
func New(opts Options) (*Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleWriter := &log.ConsoleWriter{
		Writer:      console,
		ColorOutput: opts.Color,
	}

	level := parseLevel(opts.Level)
	closeFn := func() error { return nil }

	if opts.File == "" {
		return &log.Logger{Level: level, Writer: consoleWriter}, closeFn, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fileWriter := &log.FileWriter{Filename: opts.File}
	closeFn = fileWriter.Close

	return &log.Logger{
		Level: level,
		Writer: &log.MultiEntryWriter{
			consoleWriter,
			fileWriter,
		},
	}, closeFn, nil
}

// Discard returns a logger that drops every entry
func Discard() *Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}

// parseLevel maps a level name to a log level. Empty and unknown names
// fall back to info; log.ParseLevel would return a level that drops
// every entry.
func parseLevel(level string) log.Level {
	parsed := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if parsed < log.TraceLevel || parsed > log.PanicLevel {
		return log.InfoLevel
	}
	return parsed
}
