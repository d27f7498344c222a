/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sony-level/utg/internal/prompts"
)

var promptsForce bool

// promptsCmd groups prompt file helpers
var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage prompt YAML files",
}

var promptsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in prompts into the prompts directory",
	Long: `Copy the embedded default prompts (initial_generation, refinement,
build_fix, test_fix, coverage_fix) into --prompts-dir so they can be edited.
Existing files are kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := promptsDirectory(cmd)
		if err != nil {
			return err
		}
		written, err := prompts.WriteDefaults(dir, promptsForce)
		if err != nil {
			return err
		}
		if len(written) == 0 {
			fmt.Printf("All prompts already exist in %s (use --force to overwrite)\n", dir)
			return nil
		}
		for _, path := range written {
			fmt.Printf("  → wrote %s\n", path)
		}
		return nil
	},
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show which prompt file each phase uses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := promptsDirectory(cmd)
		if err != nil {
			return err
		}
		set, err := prompts.LoadAll(dir)
		if err != nil {
			return err
		}
		for _, kind := range prompts.AllKinds {
			p := set.Get(kind)
			fmt.Printf("  %-20s %s\n", kind, p.Source)
		}
		return nil
	},
}

func promptsDirectory(cmd *cobra.Command) (string, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	cfg.Resolve(cwd)
	return filepath.Clean(cfg.PromptsDir), nil
}

func init() {
	promptsInitCmd.Flags().BoolVar(&promptsForce, "force", false, "Overwrite existing prompt files")
	promptsCmd.AddCommand(promptsInitCmd, promptsListCmd)
	rootCmd.AddCommand(promptsCmd)
}
