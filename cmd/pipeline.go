/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sony-level/utg/internal/build"
	"github.com/sony-level/utg/internal/config"
	"github.com/sony-level/utg/internal/exec"
	"github.com/sony-level/utg/internal/fetcher"
	"github.com/sony-level/utg/internal/llm"
	_ "github.com/sony-level/utg/internal/llm/provider" // registers providers
	"github.com/sony-level/utg/internal/logging"
	"github.com/sony-level/utg/internal/prereq"
	"github.com/sony-level/utg/internal/prompts"
	"github.com/sony-level/utg/internal/ui"
	"github.com/sony-level/utg/internal/workspace"
)

// errTestsFailed marks a completed run where some test files did not pass
var errTestsFailed = errors.New("some test files did not pass")

// pipeline holds everything a phase command needs
type pipeline struct {
	cfg      *config.Config
	console  *ui.Console
	logger   *logging.Logger
	closeLog func() error
	ws       *workspace.Workspace
	runner   *exec.Runner
	client   *llm.Client
	manager  *build.Manager
	coverage bool
	phases   int
}

// setupOptions selects which parts of the pipeline a command needs
type setupOptions struct {
	build  bool // compiler and coverage tools are required
	phases int  // total phase count shown in headers, setup included
}

// newSignalContext returns a context cancelled on SIGINT/SIGTERM
func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig resolves the config file, .env, environment and flags
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, loadedFrom, err := config.Load(configPath)
	if err != nil {
		return nil, "", err
	}
	applyFlags(cmd, cfg)
	return cfg, loadedFrom, nil
}

// applyFlags overlays explicitly set flags onto the config
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("source-dir") {
		cfg.SourceDir = sourceDir
	}
	if changed("tests-dir") {
		cfg.TestsDir = testsDir
	}
	if changed("prompts-dir") {
		cfg.PromptsDir = promptsDir
	}
	if changed("ext") {
		cfg.Extensions = extensions
	}
	if changed("compiler") {
		cfg.Toolchain.Compiler = compiler
	}
	if changed("max-iterations") {
		cfg.MaxIterations = maxIterations
	}
	if changed("coverage-target") {
		cfg.Coverage.Target = coverageTarget
	}
	if noCoverage {
		cfg.Coverage.Disabled = true
	}
	if changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if changed("log-file") {
		cfg.Log.File = logFile
	}
	if changed("offline-fallback") {
		cfg.LLM.OfflineFallback = offlineFallback
	}
}

// setupPipeline fetches the project, creates the workspace and wires the
// manager. The caller must call close.
func setupPipeline(ctx context.Context, cmd *cobra.Command, input string, opts setupOptions) (*pipeline, error) {
	ui.SetNoColor(noColor)
	p := &pipeline{console: ui.NewConsole(), closeLog: func() error { return nil }, phases: opts.phases}

	cfg, loadedFrom, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	p.cfg = cfg

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	ws, err := workspace.New(&workspace.Config{BaseDir: cwd, Keep: keepWorkspace})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	p.ws = ws

	p.console.Phase(1, p.phases, "Project / Workspace")
	p.console.Step("Run ID: %s", ws.RunID)
	if loadedFrom != "" {
		p.console.Step("Config: %s", loadedFrom)
	}

	p.console.Step("Fetching %s (%s)", input, fetcher.DetectSourceType(input))
	fetched, err := fetcher.Fetch(ctx, &fetcher.FetchConfig{
		Source:      input,
		Destination: ws.RepoPath(),
		Verbose:     verbose,
		Progress:    os.Stdout,
	})
	if err != nil {
		p.close()
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	if fetched.Cloned {
		// Generated tests live inside the clone
		ws.SetKeep(true)
		p.console.Step("Cloned into %s (workspace kept)", fetched.Root)
	}

	cfg.Resolve(fetched.Root)
	if err := cfg.Validate(); err != nil {
		p.close()
		return nil, err
	}
	p.console.Step("Sources: %s", cfg.SourceDir)
	p.console.Step("Tests:   %s", cfg.TestsDir)

	if err := p.setupLogging(); err != nil {
		p.close()
		return nil, err
	}

	p.runner = exec.NewRunner(&exec.RunnerConfig{Verbose: verbose})
	p.coverage = !cfg.Coverage.Disabled

	if opts.build {
		if err := p.checkPrerequisites(ctx); err != nil {
			p.close()
			return nil, err
		}
	}

	if err := p.setupManager(); err != nil {
		p.close()
		return nil, err
	}
	return p, nil
}

func (p *pipeline) setupLogging() error {
	level := p.cfg.Log.Level
	if verbose && (level == "" || level == config.DefaultLogLevel) {
		level = "debug"
	}
	file := p.cfg.Log.File
	if file == "" {
		file = p.ws.LogFile()
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level: level,
		File:  file,
		Color: !noColor,
	})
	if err != nil {
		return err
	}
	p.logger = logger
	p.closeLog = closeLog
	llm.DefaultRegistry.SetLogger(logger)

	logger.Info().Str("run_id", p.ws.RunID).Str("source_dir", p.cfg.SourceDir).
		Str("tests_dir", p.cfg.TestsDir).Int("max_iterations", p.cfg.MaxIterations).Msg("run started")
	return nil
}

// checkPrerequisites fails on a missing compiler and disables coverage when
// lcov or gcov is missing.
func (p *pipeline) checkPrerequisites(ctx context.Context) error {
	checker := prereq.NewChecker(p.runner)
	reqs := prereq.ToolchainRequirements(p.cfg.Toolchain.Compiler, p.cfg.Coverage.Tool, p.coverage, false)
	summary := checker.Check(ctx, reqs)

	for _, r := range summary.Results {
		if r.Found {
			p.logger.Debug().Str("tool", r.Name).Str("path", r.Path).Str("version", r.Version).Msg("prerequisite found")
		}
	}

	if len(summary.MissingRequired) > 0 {
		return fmt.Errorf("missing required tools: %s\n\n%s",
			strings.Join(summary.MissingRequired, ", "), checker.FormatMissing(summary))
	}
	if p.coverage && !summary.AllFound {
		p.coverage = false
		p.console.Warn("coverage disabled, missing: %s", strings.Join(summary.MissingTools, ", "))
		p.logger.Warn().Strs("missing", summary.MissingTools).Msg("coverage disabled")
	}
	return nil
}

func (p *pipeline) setupManager() error {
	cfg := p.cfg

	providerConfig, selection := llm.ResolveProviderConfig(
		llm.Settings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			Endpoint: cfg.LLM.Endpoint,
			Token:    cfg.LLM.Token,
			Timeout:  cfg.LLMTimeout(),
		},
		llm.Settings{
			Provider: llmProvider,
			Model:    llmModel,
			Endpoint: llmEndpoint,
			Token:    llmToken,
			Timeout:  llmTimeout,
		},
		verbose,
	)
	providerConfig.OfflineFallback = cfg.LLM.OfflineFallback

	provider := llm.DefaultRegistry.Get(providerConfig)
	p.console.Step("LLM: %s (%s)", provider.Name(), llm.DescribeSelection(selection))
	if providerConfig.Type == llm.ProviderMock {
		p.console.Warn("offline mock provider: generated tests are placeholders")
	}
	p.logger.Info().Str("provider", provider.Name()).Str("model", providerConfig.Model).
		Str("token", llm.MaskToken(providerConfig.Token)).Str("selection", selection.Source).Msg("llm provider")

	p.client = llm.NewClient(provider, llm.ClientOptions{
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		MaxLogBytes:       cfg.LLM.MaxLogBytes,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
		Logger:            p.logger,
	})

	set, err := prompts.LoadAll(cfg.PromptsDir)
	if err != nil {
		return err
	}

	buildDir := cfg.BuildDir
	if buildDir == "" {
		buildDir = p.ws.BuildPath()
	}
	toolchain := build.ToolchainFromConfig(cfg.Toolchain, cfg.SourceDir)

	p.manager = build.NewManager(build.Options{
		SourceDir:       cfg.SourceDir,
		TestsDir:        cfg.TestsDir,
		Extensions:      cfg.Extensions,
		TestExtension:   cfg.TestExtension,
		MaxDepth:        cfg.MaxDepth,
		MaxIterations:   cfg.MaxIterations,
		Coverage:        p.coverage,
		CoverageTool:    cfg.Coverage.Tool,
		CoverageTarget:  cfg.Coverage.Target,
		CoverageTimeout: cfg.Toolchain.TestTimeout,
	}, build.Deps{
		Client:  p.client,
		Prompts: set,
		Builder: build.NewBuilder(toolchain, buildDir, p.runner),
		Runner:  p.runner,
		Logs:    p.ws,
		Logger:  p.logger,
		Console: p.console,
	})
	return nil
}

// close flushes the log and removes the workspace unless kept
func (p *pipeline) close() {
	if p.logger != nil {
		p.logger.Info().Str("run_id", p.ws.RunID).Msg("run finished")
	}
	if err := p.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log: %v\n", err)
	}
	if p.ws == nil {
		return
	}
	if p.ws.ShouldKeep() {
		p.console.Step("Workspace preserved: %s", p.ws.Path)
		return
	}
	if err := p.ws.Cleanup(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", err)
	}
}

// printSummary prints the per-file outcome of the build phase
func (p *pipeline) printSummary(summary *build.Summary) {
	p.console.Println()
	for _, f := range summary.Files {
		name := filepath.Base(f.TestFile)
		switch f.Status {
		case build.StatusPassed:
			p.console.Success("%-32s passed (%d iteration(s))", name, f.Iterations)
		case build.StatusExhausted:
			p.console.Failure("%-32s %s failing after %d iteration(s)", name, f.LastStage, f.Iterations)
		default:
			p.console.Failure("%-32s error: %v", name, f.Err)
		}
	}
	p.console.Println(fmt.Sprintf("\n%d passed, %d failed in %s", summary.Passed, summary.Failed, summary.Duration.Round(time.Millisecond)))
	if p.ws.ShouldKeep() || summary.Failed > 0 {
		p.console.Step("Stage logs: %s", p.ws.LogsPath())
	}
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
}

// exitCode maps run errors to process exit codes
func exitCode(err error) int {
	switch {
	case errors.Is(err, errTestsFailed):
		return 1
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 2
	}
}
