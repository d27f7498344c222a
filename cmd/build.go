/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"github.com/spf13/cobra"
)

// buildCmd runs only the build-debug loop
var buildCmd = &cobra.Command{
	Use:   "build [path|url]",
	Short: "Compile, run and repair existing test files",
	Long: `Compile each test_*.cc file with its paired source, run it and collect
coverage. Failures are sent back to the LLM and the repaired test is tried
again, up to --max-iterations times per file.

Examples:
  utg build .
  utg build . --coverage-target 90 --max-iterations 8
  utg build . --compiler clang++ --no-coverage`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePhases(cmd, inputArg(args), phaseBuild)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
