/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sony-level/utg/internal/exec"
	"github.com/sony-level/utg/internal/llm"
	"github.com/sony-level/utg/internal/prereq"
)

// checkCmd reports toolchain prerequisites and the selected LLM provider
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check compiler, coverage tools and LLM provider",
	Long: `Look up the configured compiler, lcov, gcov and git in PATH and print their
versions, with install instructions for anything missing. Also shows which
LLM provider would be used and why.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeCheck(cmd)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func executeCheck(cmd *cobra.Command) error {
	ctx, cancel := newSignalContext()
	defer cancel()

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runner := exec.NewRunner(&exec.RunnerConfig{})
	checker := prereq.NewChecker(runner)
	reqs := prereq.ToolchainRequirements(cfg.Toolchain.Compiler, cfg.Coverage.Tool, true, true)
	summary := checker.Check(ctx, reqs)

	fmt.Println("Toolchain:")
	for _, r := range summary.Results {
		label := "optional"
		if r.Required {
			label = "required"
		}
		if r.Found {
			fmt.Printf("  %s %-10s %s (%s)\n", color.GreenString("✓"), r.Name, r.Version, r.Path)
		} else {
			fmt.Printf("  %s %-10s not found (%s)\n", color.RedString("✗"), r.Name, label)
		}
	}

	providerConfig, selection := llm.ResolveProviderConfig(
		llm.Settings{Provider: cfg.LLM.Provider, Model: cfg.LLM.Model, Endpoint: cfg.LLM.Endpoint, Token: cfg.LLM.Token},
		llm.Settings{Provider: llmProvider, Model: llmModel, Endpoint: llmEndpoint, Token: llmToken},
		verbose,
	)
	fmt.Println("\nLLM:")
	fmt.Printf("  provider: %s (%s)\n", providerConfig.Type, llm.DescribeSelection(selection))
	if providerConfig.Model != "" {
		fmt.Printf("  model:    %s\n", providerConfig.Model)
	}
	if token := llm.GetProviderToken(providerConfig.Type, providerConfig.Token); token != "" {
		fmt.Printf("  token:    %s\n", llm.MaskToken(token))
	}
	if err := providerConfig.Validate(); err != nil {
		fmt.Printf("  %s %v\n", color.YellowString("⚠"), err)
	}

	if missing := checker.FormatMissing(summary); missing != "" {
		fmt.Println()
		fmt.Print(missing)
	}
	if len(summary.MissingRequired) > 0 {
		return fmt.Errorf("missing required tools: %v", summary.MissingRequired)
	}
	return nil
}
