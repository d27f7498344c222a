/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"github.com/spf13/cobra"
)

// generateCmd runs only the generation phase
var generateCmd = &cobra.Command{
	Use:   "generate [path|url]",
	Short: "Generate one test file per source file",
	Long: `Scan the project's sources and ask the LLM for one GoogleTest file per
source file, written to <tests-dir>/test_<name>.cc. Existing test files with
the same name are overwritten.

Examples:
  utg generate .
  utg generate . --llm-provider anthropic --ext .cc,.cpp`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePhases(cmd, inputArg(args), phaseGenerate)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
