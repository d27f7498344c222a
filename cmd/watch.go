/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sony-level/utg/internal/build"
	"github.com/sony-level/utg/internal/watch"
)

var watchDebounce time.Duration

// watchCmd regenerates tests whenever a source file changes
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Regenerate and rebuild tests when source files change",
	Long: `Watch the source directory and, for every saved source file, generate,
refine and build-debug its test file again. Press Ctrl-C to stop.

Examples:
  utg watch .
  utg watch . --debounce 2s --no-coverage`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWatch(cmd, inputArg(args))
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before a change is handled")
	rootCmd.AddCommand(watchCmd)
}

func executeWatch(cmd *cobra.Command, input string) error {
	ctx, cancel := newSignalContext()
	defer cancel()

	p, err := setupPipeline(ctx, cmd, input, setupOptions{build: true, phases: 2})
	if err != nil {
		return err
	}
	defer p.close()

	p.console.Phase(2, 2, "Watch")
	p.console.Step("Watching %s (Ctrl-C to stop)", p.cfg.SourceDir)

	w := watch.New(watch.Options{
		Dir:        p.cfg.SourceDir,
		Extensions: p.cfg.Extensions,
		Debounce:   watchDebounce,
		Logger:     p.logger,
	}, func(ctx context.Context, path string) error {
		p.console.Step("%s changed", filepath.Base(path))
		result, err := p.manager.ProcessSource(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to process %s: %w", path, err)
		}
		if result.Status != build.StatusPassed {
			p.ws.SetKeep(true)
		}
		return nil
	})
	return w.Run(ctx)
}
