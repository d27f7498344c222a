/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sony-level/utg/internal/workspace"
)

var cleanOlderThan time.Duration

// cleanCmd removes kept workspaces
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove kept workspaces under .utg/",
	Long: `Remove workspaces left behind by --keep, cloned projects or failed runs.
With --older-than only workspaces not modified within that duration go.

Examples:
  utg clean
  utg clean --older-than 72h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}

		if cleanOlderThan > 0 {
			n, err := workspace.CleanupStale(cwd, cleanOlderThan)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d workspace(s) older than %s\n", n, cleanOlderThan)
			return nil
		}

		if err := workspace.CleanupAll(cwd); err != nil {
			return err
		}
		fmt.Println("Removed all workspaces")
		return nil
	},
}

func init() {
	cleanCmd.Flags().DurationVar(&cleanOlderThan, "older-than", 0, "Only remove workspaces older than this")
	rootCmd.AddCommand(cleanCmd)
}
