/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"github.com/spf13/cobra"
)

// refineCmd runs only the refinement phase
var refineCmd = &cobra.Command{
	Use:   "refine [path|url]",
	Short: "Refine existing test files through the LLM",
	Long: `Send every test_*.cc file in the tests directory to the LLM with the
refinement prompt and overwrite it with the answer.

Examples:
  utg refine .
  utg refine . --tests-dir unit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePhases(cmd, inputArg(args), phaseRefine)
	},
}

func init() {
	rootCmd.AddCommand(refineCmd)
}
