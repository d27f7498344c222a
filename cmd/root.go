/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath    string
	keepWorkspace bool
	verbose       bool
	noColor       bool
	logLevel      string
	logFile       string

	// Project flags
	sourceDir      string
	testsDir       string
	promptsDir     string
	extensions     []string
	compiler       string
	maxIterations  int
	coverageTarget float64
	noCoverage     bool

	// LLM flags
	llmProvider     string
	llmEndpoint     string
	llmModel        string
	llmToken        string
	llmTimeout      time.Duration
	offlineFallback bool
)

// rootCmd represents the base command - runs the full pipeline without subcommand
var rootCmd = &cobra.Command{
	Use:   "utg [path|url]",
	Short: "Generate and repair C/C++ unit tests with an LLM",
	Long: `utg (unit test generator) asks a language model to write GoogleTest unit
tests for an existing C/C++ project, then compiles, runs and measures them.
Build errors, failing tests and low coverage are fed back to the model until
the tests pass or the iteration budget runs out.

It takes a local project path or a GitHub/GitLab URL. Generated tests are
written to <source-dir>/tests as test_<name>.cc.

Examples:
  utg .
  utg https://github.com/user/repo
  utg . --max-iterations 3 --coverage-target 80
  utg . --llm-provider ollama --llm-model qwen2.5-coder
  utg . --keep --verbose`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePhases(cmd, inputArg(args), phaseAll)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
		os.Exit(exitCode(err))
	}
}

func inputArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func init() {
	// Persistent flags - available to all subcommands
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: .utg.yaml, then ~/.config/utg/config.yaml)")
	flags.BoolVar(&keepWorkspace, "keep", false, "Keep workspace directory after execution (.utg/<run-id>)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (streams compiler and test output)")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info, debug with -v)")
	flags.StringVar(&logFile, "log-file", "", "JSON log file (default: workspace logs/utg.log)")

	// Project flags
	flags.StringVar(&sourceDir, "source-dir", "", "Directory holding the sources to test, relative to the project (default: .)")
	flags.StringVar(&testsDir, "tests-dir", "", "Directory for generated tests, relative to the project (default: tests)")
	flags.StringVar(&promptsDir, "prompts-dir", "", "Directory holding prompt YAML files (default: prompts, embedded fallback)")
	flags.StringSliceVar(&extensions, "ext", nil, "Source extensions to scan (default: .cc)")
	flags.StringVar(&compiler, "compiler", "", "C++ compiler (default: g++)")
	flags.IntVar(&maxIterations, "max-iterations", 0, "Build/debug iterations per test file (default: 5)")
	flags.Float64Var(&coverageTarget, "coverage-target", 0, "Minimum line coverage percent, 0 = no target")
	flags.BoolVar(&noCoverage, "no-coverage", false, "Skip the coverage stage")

	// LLM provider flags
	// Default is empty string to enable auto-selection: anthropic > openai > gemini > mistral > ollama > mock
	flags.StringVar(&llmProvider, "llm-provider", "", "LLM provider: anthropic, openai, gemini, mistral, ollama, http, mock (default: auto-select)")
	flags.StringVar(&llmProvider, "provider", "", "Alias for --llm-provider")
	flags.StringVar(&llmEndpoint, "llm-endpoint", "", "Endpoint for the http provider or an OpenAI-compatible API")
	flags.StringVar(&llmModel, "llm-model", "", "Model name for LLM provider")
	flags.StringVar(&llmToken, "llm-token", "", "Authentication token for LLM (or env: ANTHROPIC_API_KEY, OPENAI_API_KEY, etc.)")
	flags.DurationVar(&llmTimeout, "llm-timeout", 0, "Timeout per LLM request (default: 120s)")
	flags.BoolVar(&offlineFallback, "offline-fallback", false, "Fall back to the offline mock provider when a request fails")
}
