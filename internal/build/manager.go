// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Generate, refine and build-debug orchestration

package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/sony-level/utg/internal/coverage"
	"github.com/sony-level/utg/internal/exec"
	"github.com/sony-level/utg/internal/fileio"
	"github.com/sony-level/utg/internal/llm"
	"github.com/sony-level/utg/internal/prompts"
	"github.com/sony-level/utg/internal/scanner"
	"github.com/sony-level/utg/internal/ui"
)

// Options controls what the manager scans and how long it iterates
type Options struct {
	SourceDir     string
	TestsDir      string
	Extensions    []string
	TestExtension string
	MaxDepth      int
	MaxIterations int

	Coverage        bool
	CoverageTool    string
	CoverageTarget  float64 // line percent, 0 = any
	CoverageTimeout time.Duration
}

// LogSink stores stage output; *workspace.Workspace satisfies it
type LogSink interface {
	WriteStageLog(testName string, iteration int, stage, content string) (string, error)
}

// Deps are the collaborators of a Manager. Logs, Logger and Console are optional.
type Deps struct {
	Client  *llm.Client
	Prompts *prompts.Set
	Builder *Builder
	Runner  *exec.Runner
	Logs    LogSink
	Logger  *log.Logger
	Console *ui.Console
}

// FileStatus is the final state of one test file in the loop
type FileStatus string

const (
	StatusPassed    FileStatus = "passed"
	StatusExhausted FileStatus = "exhausted"
	StatusError     FileStatus = "error"
)

// FileReport is the outcome of generating or refining one file
type FileReport struct {
	Source   string
	TestFile string
	Err      error
}

// FileResult is the outcome of the build-debug loop for one test file
type FileResult struct {
	TestFile   string
	SourceFile string // "" when no paired source exists
	Status     FileStatus
	Iterations int
	LastStage  Stage // failing stage when not passed
	Coverage   *coverage.Report
	Err        error
	Logs       []string
}

// Summary aggregates a pipeline run
type Summary struct {
	Generated []FileReport
	Refined   []FileReport
	Files     []FileResult
	Passed    int
	Failed    int
	Duration  time.Duration
}

// OK reports whether every built test file passed
func (s *Summary) OK() bool {
	return s.Failed == 0
}

func (s *Summary) add(r FileResult) {
	s.Files = append(s.Files, r)
	if r.Status == StatusPassed {
		s.Passed++
	} else {
		s.Failed++
	}
}

// Manager runs the pipeline phases over a source tree
type Manager struct {
	opts    Options
	client  *llm.Client
	prompts *prompts.Set
	builder *Builder
	runner  *exec.Runner
	logs    LogSink
	logger  *log.Logger
	console *ui.Console
}

// NewManager creates a manager
func NewManager(opts Options, deps Deps) *Manager {
	if opts.MaxIterations < 1 {
		opts.MaxIterations = 1
	}
	if opts.TestExtension == "" {
		opts.TestExtension = ".cc"
	}
	logger := deps.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}
	console := deps.Console
	if console == nil {
		console = ui.Discard()
	}
	return &Manager{
		opts:    opts,
		client:  deps.Client,
		prompts: deps.Prompts,
		builder: deps.Builder,
		runner:  deps.Runner,
		logs:    deps.Logs,
		logger:  logger,
		console: console,
	}
}

// Run executes generate, refine and build-debug in order
func (m *Manager) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	generated, err := m.GenerateInitialTests(ctx)
	if err != nil {
		return nil, err
	}
	refined, err := m.RefineTests(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := m.BuildAndDebug(ctx)
	if err != nil {
		return nil, err
	}

	summary.Generated = generated
	summary.Refined = refined
	summary.Duration = time.Since(start)
	return summary, nil
}

func (m *Manager) scan() (*scanner.ScanResult, error) {
	result, err := scanner.Scan(&scanner.ScanConfig{
		RootPath:   m.opts.SourceDir,
		Extensions: m.opts.Extensions,
		MaxDepth:   m.opts.MaxDepth,
		Exclude:    []string{filepath.Base(m.opts.TestsDir)},
	})
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		m.logger.Warn().Err(e).Msg("scan error")
	}
	return result, nil
}

// TestPath returns where the test for sourcePath is written
func (m *Manager) TestPath(sourcePath string) string {
	return filepath.Join(m.opts.TestsDir, fileio.TestFileName(sourcePath, m.opts.TestExtension))
}

// GenerateInitialTests writes one LLM-generated test file per source file.
// A failing file is reported and skipped; only cancellation aborts the phase.
func (m *Manager) GenerateInitialTests(ctx context.Context) ([]FileReport, error) {
	result, err := m.scan()
	if err != nil {
		return nil, err
	}
	if len(result.SourceFiles) == 0 {
		return nil, fmt.Errorf("%w in %s", scanner.ErrNoSourceFiles, m.opts.SourceDir)
	}

	m.console.Step("%d source file(s) in %s", len(result.SourceFiles), m.opts.SourceDir)
	prompt := m.prompts.Get(prompts.KindGeneration)
	bar := m.console.NewProgress(len(result.SourceFiles), "generating")
	defer bar.Finish()

	collisions := result.StemCollisions()
	reports := make([]FileReport, 0, len(result.SourceFiles))
	for _, src := range result.SourceFiles {
		bar.Describe(src.RelPath)
		if shared, ok := collisions[fileio.Stem(src.Path)]; ok {
			// Every source sharing a stem would write the same test file
			report := FileReport{Source: src.Path, TestFile: m.TestPath(src.Path)}
			report.Err = fmt.Errorf("%w: %s all map to %s", scanner.ErrAmbiguousStem,
				strings.Join(shared, ", "), filepath.Base(report.TestFile))
			m.logger.Warn().Str("source", src.Path).Err(report.Err).Msg("test name collision")
			m.console.Failure("%s: %v", src.RelPath, report.Err)
			reports = append(reports, report)
			bar.Advance()
			continue
		}
		report, err := m.generateOne(ctx, src.Path, prompt)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		bar.Advance()
	}
	return reports, nil
}

func (m *Manager) generateOne(ctx context.Context, sourcePath string, prompt *prompts.Prompt) (FileReport, error) {
	report := FileReport{Source: sourcePath, TestFile: m.TestPath(sourcePath)}

	code, err := fileio.ReadFile(sourcePath)
	if err != nil {
		report.Err = err
		m.console.Failure("%s: %v", filepath.Base(sourcePath), err)
		return report, nil
	}

	testCode, err := m.client.GenerateTests(ctx, sourcePath, code, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Err = err
		m.console.Failure("%s: %v", filepath.Base(sourcePath), err)
		return report, nil
	}

	if err := fileio.WriteFile(report.TestFile, testCode); err != nil {
		report.Err = err
		m.console.Failure("%s: %v", filepath.Base(sourcePath), err)
		return report, nil
	}

	m.logger.Info().Str("source", sourcePath).Str("test", report.TestFile).Msg("tests generated")
	m.console.Success("%s → %s", filepath.Base(sourcePath), filepath.Base(report.TestFile))
	return report, nil
}

// RefineTests rewrites every test_* file in the tests directory through the LLM
func (m *Manager) RefineTests(ctx context.Context) ([]FileReport, error) {
	files, err := scanner.ListTestFiles(m.opts.TestsDir, m.opts.TestExtension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		m.console.Warn("no test files to refine in %s", m.opts.TestsDir)
		return nil, nil
	}

	prompt := m.prompts.Get(prompts.KindRefinement)
	bar := m.console.NewProgress(len(files), "refining")
	defer bar.Finish()

	reports := make([]FileReport, 0, len(files))
	for _, testFile := range files {
		bar.Describe(filepath.Base(testFile))
		report, err := m.refineOne(ctx, testFile, prompt)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		bar.Advance()
	}
	return reports, nil
}

func (m *Manager) refineOne(ctx context.Context, testFile string, prompt *prompts.Prompt) (FileReport, error) {
	report := FileReport{TestFile: testFile}

	code, err := fileio.ReadFile(testFile)
	if err == nil {
		code, err = m.client.RefineTests(ctx, testFile, code, prompt)
	}
	if err == nil {
		err = fileio.WriteFile(testFile, code)
	}
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Err = err
		m.console.Failure("%s: %v", filepath.Base(testFile), err)
		return report, nil
	}

	m.logger.Info().Str("test", testFile).Msg("tests refined")
	m.console.Success("%s refined", filepath.Base(testFile))
	return report, nil
}

// BuildAndDebug runs the compile, test and coverage loop over every test file
func (m *Manager) BuildAndDebug(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	files, err := scanner.ListTestFiles(m.opts.TestsDir, m.opts.TestExtension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		m.console.Warn("no test files to build in %s", m.opts.TestsDir)
		summary.Duration = time.Since(start)
		return summary, nil
	}

	sources, err := m.scan()
	if err != nil {
		return nil, err
	}

	for _, testFile := range files {
		src, err := sources.Lookup(fileio.SourceStem(testFile))
		if err != nil {
			result := &FileResult{TestFile: testFile, Status: StatusError, Err: err}
			m.logger.Warn().Str("test", testFile).Err(err).Msg("cannot pair test with a source file")
			m.report(result)
			summary.add(*result)
			continue
		}
		sourceFile := ""
		if src != nil {
			sourceFile = src.Path
		}

		result, err := m.debugFile(ctx, testFile, sourceFile)
		if err != nil {
			return nil, err
		}
		m.report(result)
		summary.add(*result)
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// ProcessSource regenerates, refines and debugs the tests of one source file
func (m *Manager) ProcessSource(ctx context.Context, sourcePath string) (*FileResult, error) {
	sources, err := m.scan()
	if err != nil {
		return nil, err
	}
	if _, err := sources.Lookup(fileio.Stem(sourcePath)); err != nil {
		result := &FileResult{TestFile: m.TestPath(sourcePath), SourceFile: sourcePath, Status: StatusError, Err: err}
		m.report(result)
		return result, nil
	}

	report, err := m.generateOne(ctx, sourcePath, m.prompts.Get(prompts.KindGeneration))
	if err != nil {
		return nil, err
	}
	if report.Err != nil {
		return &FileResult{TestFile: report.TestFile, SourceFile: sourcePath, Status: StatusError, Err: report.Err}, nil
	}

	refined, err := m.refineOne(ctx, report.TestFile, m.prompts.Get(prompts.KindRefinement))
	if err != nil {
		return nil, err
	}
	if refined.Err != nil {
		return &FileResult{TestFile: report.TestFile, SourceFile: sourcePath, Status: StatusError, Err: refined.Err}, nil
	}

	result, err := m.debugFile(ctx, report.TestFile, sourcePath)
	if err != nil {
		return nil, err
	}
	m.report(result)
	return result, nil
}

func (m *Manager) report(r *FileResult) {
	name := filepath.Base(r.TestFile)
	switch r.Status {
	case StatusPassed:
		if r.Coverage != nil {
			m.console.Success("%s passed after %d iteration(s), %s", name, r.Iterations, r.Coverage)
		} else {
			m.console.Success("%s passed after %d iteration(s)", name, r.Iterations)
		}
	case StatusExhausted:
		m.console.Failure("%s still failing at %s stage after %d iteration(s)", name, r.LastStage, r.Iterations)
	default:
		m.console.Failure("%s: %v", name, r.Err)
	}
}

// attempt is the outcome of one compile, run and coverage pass
type attempt struct {
	passed   bool
	stage    Stage
	feedback llm.Feedback
	coverage *coverage.Report
}

func (m *Manager) debugFile(ctx context.Context, testFile, sourceFile string) (*FileResult, error) {
	result := &FileResult{TestFile: testFile, SourceFile: sourceFile}
	if sourceFile == "" {
		m.logger.Warn().Str("test", testFile).Msg("no paired source file, compiling test alone")
	}

	code, err := fileio.ReadFile(testFile)
	if err != nil {
		result.Status = StatusError
		result.Err = err
		return result, nil
	}

	for iter := 1; iter <= m.opts.MaxIterations; iter++ {
		result.Iterations = iter

		a, err := m.attempt(ctx, result, iter)
		if err != nil {
			return nil, err
		}
		if a.passed {
			result.Status = StatusPassed
			result.LastStage = ""
			result.Coverage = a.coverage
			m.logger.Info().Str("test", filepath.Base(testFile)).Int("iteration", iter).Msg("tests passed")
			return result, nil
		}

		result.LastStage = a.stage
		result.Coverage = a.coverage
		m.logger.Info().Str("test", filepath.Base(testFile)).Int("iteration", iter).
			Str("stage", string(a.stage)).Msg("stage failed")

		// A repair on the last iteration would never be built
		if iter == m.opts.MaxIterations {
			break
		}

		m.console.Step("%s: %s failed, repairing (iteration %d/%d)", filepath.Base(testFile), a.stage, iter, m.opts.MaxIterations)
		fixed, err := m.client.Repair(ctx, a.feedback, testFile, code, m.prompts.Get(fixPrompt(a.stage)))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Status = StatusError
			result.Err = err
			return result, nil
		}
		if err := fileio.WriteFile(testFile, fixed); err != nil {
			result.Status = StatusError
			result.Err = err
			return result, nil
		}
		code = fixed
	}

	result.Status = StatusExhausted
	return result, nil
}

func (m *Manager) attempt(ctx context.Context, result *FileResult, iter int) (*attempt, error) {
	testFile := result.TestFile

	compiled := m.builder.Compile(ctx, testFile, result.SourceFile)
	m.storeLog(result, iter, compiled.Stage, compiled.Log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !compiled.Success {
		return failed(StageBuild, llm.FeedbackBuild, compiled.Log), nil
	}

	var analyzer *coverage.Analyzer
	if m.opts.Coverage {
		analyzer = coverage.NewAnalyzer(m.runner, m.opts.CoverageTool, m.builder.WorkDir(testFile), m.opts.SourceDir, m.opts.CoverageTimeout)
		analyzer.Exclude = []string{filepath.Join(m.opts.TestsDir, "*")}
		if reset := analyzer.Reset(ctx); !reset.Success {
			m.logger.Warn().Str("test", filepath.Base(testFile)).Int("exit_code", reset.ExitCode).
				Err(reset.Error).Msg("failed to reset coverage counters")
		}
	}

	ran := m.builder.RunTests(ctx, m.builder.BinaryPath(testFile))
	m.storeLog(result, iter, ran.Stage, ran.Log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ran.Success {
		return failed(StageTest, llm.FeedbackTest, ran.Log), nil
	}

	if analyzer == nil {
		return &attempt{passed: true}, nil
	}

	report, cmdResult, err := analyzer.Run(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	covLog := cmdResult.CombinedLog()
	if err != nil {
		covLog = fmt.Sprintf("%s\ncoverage error: %v\n", covLog, err)
		if errors.Is(err, coverage.ErrNoCoverageData) {
			covLog += "The test binary produced no coverage data; make sure the tests call into the source under test.\n"
		}
		m.storeLog(result, iter, StageCoverage, covLog)
		return failed(StageCoverage, llm.FeedbackCoverage, covLog), nil
	}

	if !report.MeetsTarget(m.opts.CoverageTarget) {
		covLog = fmt.Sprintf("%s\nline coverage %.1f%% is below the target of %.1f%%; add tests for the uncovered code paths.\n",
			covLog, report.LinePercent, m.opts.CoverageTarget)
		m.storeLog(result, iter, StageCoverage, covLog)
		a := failed(StageCoverage, llm.FeedbackCoverage, covLog)
		a.coverage = report
		return a, nil
	}

	m.storeLog(result, iter, StageCoverage, covLog)
	return &attempt{passed: true, coverage: report}, nil
}

func failed(stage Stage, kind llm.FeedbackKind, logText string) *attempt {
	return &attempt{
		stage:    stage,
		feedback: llm.Feedback{Kind: kind, Log: logText},
	}
}

func (m *Manager) storeLog(result *FileResult, iter int, stage Stage, content string) {
	if m.logs == nil {
		return
	}
	path, err := m.logs.WriteStageLog(fileio.Stem(result.TestFile), iter, string(stage), content)
	if err != nil {
		m.logger.Warn().Str("stage", string(stage)).Err(err).Msg("failed to write stage log")
		return
	}
	result.Logs = append(result.Logs, path)
}

func fixPrompt(stage Stage) prompts.Kind {
	switch stage {
	case StageBuild:
		return prompts.KindBuildFix
	case StageTest:
		return prompts.KindTestFix
	default:
		return prompts.KindCoverageFix
	}
}
