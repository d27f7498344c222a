// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Debounced source file watching

package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/phuslu/log"

	"github.com/sony-level/utg/internal/fileio"
)

// DefaultDebounce is how long to wait for more writes before handling a batch
const DefaultDebounce = 500 * time.Millisecond

// Handler is called once per changed source file, sequentially.
// Returning an error stops the watcher.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher
type Options struct {
	Dir        string
	Extensions []string // e.g. ".cc"
	Debounce   time.Duration
	Logger     *log.Logger
}

// Watcher reports changed source files in a directory. Editors often write
// a file several times in a row, so changes are batched until the directory
// is quiet for the debounce window.
type Watcher struct {
	opts    Options
	handler Handler
	logger  *log.Logger
}

// New creates a watcher calling handler for changed source files
func New(opts Options, handler Handler) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Watcher{opts: opts, handler: handler, logger: logger}
}

// Run watches until ctx is done or the handler fails.
// A cancelled context is a clean stop and returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.Dir, err)
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.IsSource(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			sort.Strings(paths)

			for _, p := range paths {
				w.logger.Info().Str("file", p).Msg("source changed")
				if err := w.handler(ctx, p); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
			}
		}
	}
}

// IsSource reports whether path is a watched source file. Generated test
// files and editor temp files are ignored.
func (w *Watcher) IsSource(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, fileio.TestFilePrefix) {
		return false
	}
	ext := filepath.Ext(base)
	for _, want := range w.opts.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
