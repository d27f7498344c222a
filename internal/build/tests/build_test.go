// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for the build-test-coverage repair loop using scripted tools

package tests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sony-level/utg/internal/build"
	"github.com/sony-level/utg/internal/config"
	"github.com/sony-level/utg/internal/exec"
	"github.com/sony-level/utg/internal/llm"
	"github.com/sony-level/utg/internal/llm/provider"
	"github.com/sony-level/utg/internal/logging"
	"github.com/sony-level/utg/internal/prompts"
	"github.com/sony-level/utg/internal/scanner"
)

// fakeCompiler records its arguments next to the output and writes a shell
// script as the "binary". Test code containing BROKEN fails to compile,
// FAILING produces a failing binary and COVERAGE=<n> sets the reported
// line coverage.
const fakeCompiler = `#!/bin/sh
out=""
test=""
all="$*"
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift ;;
    */test_*) test="$1" ;;
  esac
  shift
done
dir=$(dirname "$out")
echo "$all" > "$dir/args"
if grep -q BROKEN "$test"; then
  echo "$test:1:1: error: BROKEN was not declared in this scope" >&2
  exit 1
fi
pct=$(sed -n 's/.*COVERAGE=\([0-9]*\).*/\1/p' "$test" | head -n 1)
[ -z "$pct" ] && pct=100
echo "$pct" > "$dir/pct"
if grep -q FAILING "$test"; then
  printf '#!/bin/sh\necho "[  FAILED  ] MathTest.Add"\nexit 1\n' > "$out"
else
  printf '#!/bin/sh\necho "[  PASSED  ] 1 test."\n' > "$out"
fi
chmod +x "$out"
`

const fakeLcov = `#!/bin/sh
case "$1" in
  --zerocounters) exit 0 ;;
  --capture) cp "$3/pct" "$5" ;;
  --extract|--remove) echo "$*" >> filters ;;
  --summary)
    pct=$(cat "$2")
    echo "Summary coverage rate:"
    echo "  lines......: $pct.0% ($pct of 100 lines)"
    ;;
esac
`

// scriptedProvider answers with queued replies and records every request
type scriptedProvider struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []*llm.CompletionRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.replies) == 0 {
		return &llm.CompletionResponse{Content: req.Code, Provider: p.Name()}, nil
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return &llm.CompletionResponse{Content: reply, Provider: p.Name()}, nil
}

// memorySink keeps stage logs in memory
type memorySink struct {
	logs map[string]string
}

func (s *memorySink) WriteStageLog(testName string, iteration int, stage, content string) (string, error) {
	if s.logs == nil {
		s.logs = map[string]string{}
	}
	name := fmt.Sprintf("%s-iter%d-%s.log", testName, iteration, stage)
	s.logs[name] = content
	return name, nil
}

type fixture struct {
	root      string
	sourceDir string
	testsDir  string
	buildDir  string
	compiler  string
	lcov      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools require a Unix shell")
	}

	root := t.TempDir()
	f := &fixture{
		root:      root,
		sourceDir: filepath.Join(root, "src"),
		testsDir:  filepath.Join(root, "src", "tests"),
		buildDir:  filepath.Join(root, "build"),
		compiler:  filepath.Join(root, "bin", "fake-cxx"),
		lcov:      filepath.Join(root, "bin", "fake-lcov"),
	}
	require.NoError(t, os.MkdirAll(f.testsDir, 0755))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.compiler), 0755))
	require.NoError(t, os.WriteFile(f.compiler, []byte(fakeCompiler), 0755))
	require.NoError(t, os.WriteFile(f.lcov, []byte(fakeLcov), 0755))
	return f
}

func (f *fixture) writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.sourceDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (f *fixture) writeTest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.testsDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type managerOptions struct {
	maxIterations int
	coverage      bool
	target        float64
	extensions    []string
	sink          build.LogSink
}

func (f *fixture) manager(t *testing.T, p llm.Provider, o managerOptions) *build.Manager {
	t.Helper()
	if o.maxIterations == 0 {
		o.maxIterations = 3
	}
	if o.extensions == nil {
		o.extensions = []string{".cc"}
	}

	runner := exec.NewRunner(&exec.RunnerConfig{Stdout: io.Discard, Stderr: io.Discard})
	toolchain := build.ToolchainFromConfig(config.ToolchainConfig{Compiler: f.compiler}, f.sourceDir)
	set, err := prompts.LoadAll("")
	require.NoError(t, err)

	return build.NewManager(build.Options{
		SourceDir:      f.sourceDir,
		TestsDir:       f.testsDir,
		Extensions:     o.extensions,
		TestExtension:  ".cc",
		MaxDepth:       1,
		MaxIterations:  o.maxIterations,
		Coverage:       o.coverage,
		CoverageTool:   f.lcov,
		CoverageTarget: o.target,
	}, build.Deps{
		Client:  llm.NewClient(p, llm.ClientOptions{Logger: logging.Discard()}),
		Prompts: set,
		Builder: build.NewBuilder(toolchain, f.buildDir, runner),
		Runner:  runner,
		Logs:    o.sink,
		Logger:  logging.Discard(),
	})
}

const mathSource = `int add(int a, int b) {
  return a + b;
}

int sub(int a, int b) {
  return a - b;
}
`

func TestToolchainCompileArgsOrder(t *testing.T) {
	tc := build.ToolchainFromConfig(config.ToolchainConfig{
		Compiler:     "g++",
		CompileFlags: []string{"-std=c++17", "--coverage"},
		IncludeDirs:  []string{"/proj", "/proj/include"},
		ExtraSources: []string{"/proj/util.cc"},
		LinkFlags:    []string{"-lgtest", "-lgtest_main"},
	}, "/proj")

	args := tc.CompileArgs("/proj/tests/test_math.cc", []string{"/proj/math.cc"}, "/build/test_math")
	assert.Equal(t, []string{
		"-std=c++17", "--coverage",
		"-I", "/proj", "-I", "/proj/include",
		"/proj/tests/test_math.cc", "/proj/math.cc", "/proj/util.cc",
		"-o", "/build/test_math",
		"-lgtest", "-lgtest_main",
	}, args)
}

func TestBuilderPaths(t *testing.T) {
	b := build.NewBuilder(build.Toolchain{}, "/tmp/build", nil)
	assert.Equal(t, filepath.Join("/tmp/build", "test_math"), b.WorkDir("/src/tests/test_math.cc"))
	assert.Equal(t, filepath.Join("/tmp/build", "test_math", "test_math"), b.BinaryPath("/src/tests/test_math.cc"))
}

func TestBuilderCompileRemovesStaleArtifacts(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)
	testFile := f.writeTest(t, "test_math.cc", "BROKEN\n")

	runner := exec.NewRunner(&exec.RunnerConfig{Stdout: io.Discard, Stderr: io.Discard})
	b := build.NewBuilder(build.ToolchainFromConfig(config.ToolchainConfig{Compiler: f.compiler}, f.sourceDir), f.buildDir, runner)

	workDir := b.WorkDir(testFile)
	require.NoError(t, os.MkdirAll(workDir, 0755))
	stale := []string{
		b.BinaryPath(testFile),
		filepath.Join(workDir, "test_math.gcno"),
		filepath.Join(workDir, "math.gcda"),
		filepath.Join(workDir, "coverage.info"),
	}
	for _, path := range stale {
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
	}

	outcome := b.Compile(context.Background(), testFile, "")
	require.False(t, outcome.Success)
	for _, path := range stale {
		assert.NoFileExists(t, path)
	}
}

func TestBuildAndDebugPassesFirstIteration(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "math.cc", mathSource)
	f.writeTest(t, "test_math.cc", "TEST(MathTest, Add) {}\n")

	sink := &memorySink{}
	p := &scriptedProvider{}
	summary, err := f.manager(t, p, managerOptions{coverage: true, sink: sink}).BuildAndDebug(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Files, 1)
	result := summary.Files[0]
	assert.Equal(t, build.StatusPassed, result.Status)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, src, result.SourceFile)
	require.NotNil(t, result.Coverage)
	assert.InDelta(t, 100.0, result.Coverage.LinePercent, 0.001)
	assert.True(t, summary.OK())
	assert.Empty(t, p.requests, "no repair expected")

	args, err := os.ReadFile(filepath.Join(f.buildDir, "test_math", "args"))
	require.NoError(t, err)
	assert.Contains(t, string(args), src, "paired source must be linked")

	assert.Contains(t, sink.logs, "test_math-iter1-build.log")
	assert.Contains(t, sink.logs, "test_math-iter1-test.log")
	assert.Contains(t, sink.logs, "test_math-iter1-coverage.log")
}

func TestBuildAndDebugCoverageCountsOnlySources(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)
	f.writeTest(t, "test_math.cc", "TEST(MathTest, Add) {}\n")

	summary, err := f.manager(t, &scriptedProvider{}, managerOptions{coverage: true}).BuildAndDebug(context.Background())
	require.NoError(t, err)
	require.Equal(t, build.StatusPassed, summary.Files[0].Status)

	workDir := filepath.Join(f.buildDir, "test_math")
	info := filepath.Join(workDir, "coverage.info")
	filters, err := os.ReadFile(filepath.Join(workDir, "filters"))
	require.NoError(t, err)
	assert.Contains(t, string(filters), "--extract "+info+" "+filepath.Join(f.sourceDir, "*")+" --output-file "+info)
	assert.Contains(t, string(filters), "--remove "+info+" "+filepath.Join(f.testsDir, "*")+" --output-file "+info)
}

func TestBuildAndDebugRepairsBuildFailure(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)
	testFile := f.writeTest(t, "test_math.cc", "TEST(MathTest, Add) { BROKEN; }\n")

	fixed := "TEST(MathTest, Add) { EXPECT_EQ(add(1, 2), 3); }"
	p := &scriptedProvider{replies: []string{"```cpp\n" + fixed + "\n```"}}
	summary, err := f.manager(t, p, managerOptions{}).BuildAndDebug(context.Background())
	require.NoError(t, err)

	result := summary.Files[0]
	assert.Equal(t, build.StatusPassed, result.Status)
	assert.Equal(t, 2, result.Iterations)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, llm.TaskRepair, req.Task)
	assert.True(t, strings.HasPrefix(req.User, "TEST(MathTest, Add) { BROKEN; }"))
	assert.Contains(t, req.User, "Build log (compile/link failed):")
	assert.Contains(t, req.User, "BROKEN was not declared")

	content, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, fixed+"\n", string(content))
}

func TestBuildAndDebugRepairsTestFailure(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)
	f.writeTest(t, "test_math.cc", "// FAILING\nTEST(MathTest, Add) {}\n")

	p := &scriptedProvider{replies: []string{"TEST(MathTest, Add) {}"}}
	summary, err := f.manager(t, p, managerOptions{}).BuildAndDebug(context.Background())
	require.NoError(t, err)

	assert.Equal(t, build.StatusPassed, summary.Files[0].Status)
	require.Len(t, p.requests, 1)
	assert.Contains(t, p.requests[0].User, "Test log (test run failed):")
	assert.Contains(t, p.requests[0].User, "[  FAILED  ] MathTest.Add")
}

func TestBuildAndDebugRepairsLowCoverage(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)
	f.writeTest(t, "test_math.cc", "// COVERAGE=40\nTEST(MathTest, Add) {}\n")

	p := &scriptedProvider{replies: []string{"// COVERAGE=90\nTEST(MathTest, Add) {}\nTEST(MathTest, Sub) {}"}}
	summary, err := f.manager(t, p, managerOptions{coverage: true, target: 80}).BuildAndDebug(context.Background())
	require.NoError(t, err)

	result := summary.Files[0]
	assert.Equal(t, build.StatusPassed, result.Status)
	assert.Equal(t, 2, result.Iterations)
	assert.InDelta(t, 90.0, result.Coverage.LinePercent, 0.001)

	require.Len(t, p.requests, 1)
	assert.Contains(t, p.requests[0].User, "Coverage report (coverage step failed or below target):")
	assert.Contains(t, p.requests[0].User, "below the target of 80.0%")
}

func TestBuildAndDebugExhaustsIterations(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)
	f.writeTest(t, "test_math.cc", "BROKEN\n")

	p := &scriptedProvider{replies: []string{"BROKEN again"}}
	summary, err := f.manager(t, p, managerOptions{maxIterations: 2}).BuildAndDebug(context.Background())
	require.NoError(t, err)

	result := summary.Files[0]
	assert.Equal(t, build.StatusExhausted, result.Status)
	assert.Equal(t, build.StageBuild, result.LastStage)
	assert.Equal(t, 2, result.Iterations)
	assert.Len(t, p.requests, 1, "no repair after the last iteration")
	assert.False(t, summary.OK())
	assert.Equal(t, 1, summary.Failed)
}

func TestBuildAndDebugLLMErrorContinues(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)
	f.writeSource(t, "util.cc", "int one() { return 1; }\n")
	f.writeTest(t, "test_math.cc", "BROKEN\n")
	f.writeTest(t, "test_util.cc", "TEST(UtilTest, One) {}\n")

	p := &scriptedProvider{err: errors.New("service unavailable")}
	summary, err := f.manager(t, p, managerOptions{}).BuildAndDebug(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Files, 2)
	assert.Equal(t, build.StatusError, summary.Files[0].Status)
	assert.ErrorContains(t, summary.Files[0].Err, "service unavailable")
	assert.Equal(t, build.StatusPassed, summary.Files[1].Status)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
}

func TestBuildAndDebugUnpairedTest(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)
	f.writeTest(t, "test_orphan.cc", "TEST(OrphanTest, Alone) {}\n")

	summary, err := f.manager(t, &scriptedProvider{}, managerOptions{}).BuildAndDebug(context.Background())
	require.NoError(t, err)

	result := summary.Files[0]
	assert.Equal(t, build.StatusPassed, result.Status)
	assert.Empty(t, result.SourceFile)

	args, err := os.ReadFile(filepath.Join(f.buildDir, "test_orphan", "args"))
	require.NoError(t, err)
	assert.NotContains(t, string(args), "math.cc")
}

func TestBuildAndDebugNoTests(t *testing.T) {
	f := newFixture(t)
	summary, err := f.manager(t, &scriptedProvider{}, managerOptions{}).BuildAndDebug(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Files)
	assert.True(t, summary.OK())
}

func TestBuildAndDebugCancelled(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)
	f.writeTest(t, "test_math.cc", "TEST(MathTest, Add) {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.manager(t, &scriptedProvider{}, managerOptions{}).BuildAndDebug(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateInitialTestsWithMock(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math_utils.cc", mathSource)

	m := f.manager(t, provider.NewMockProvider(), managerOptions{})
	reports, err := m.GenerateInitialTests(context.Background())
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.NoError(t, reports[0].Err)
	assert.Equal(t, filepath.Join(f.testsDir, "test_math_utils.cc"), reports[0].TestFile)

	content, err := os.ReadFile(reports[0].TestFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "#include <gtest/gtest.h>")
	assert.Contains(t, string(content), "TEST(MathUtilsTest, Add)")
	assert.Contains(t, string(content), "TEST(MathUtilsTest, Sub)")
}

func TestGenerateInitialTestsSkipsFailedFiles(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "a.cc", "int a() { return 0; }\n")
	f.writeSource(t, "b.cc", "int b() { return 0; }\n")

	p := &scriptedProvider{replies: []string{"", "TEST(BTest, B) {}"}}
	reports, err := f.manager(t, p, managerOptions{}).GenerateInitialTests(context.Background())
	require.NoError(t, err)

	require.Len(t, reports, 2)
	assert.ErrorIs(t, reports[0].Err, llm.ErrEmptyResponse)
	assert.NoFileExists(t, filepath.Join(f.testsDir, "test_a.cc"))
	assert.NoError(t, reports[1].Err)
	assert.FileExists(t, filepath.Join(f.testsDir, "test_b.cc"))
}

func TestGenerateInitialTestsRejectsStemCollision(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "util.c", "int cfun(void) { return 1; }\n")
	f.writeSource(t, "util.cc", "int ccfun() { return 2; }\n")
	f.writeSource(t, "math.cc", mathSource)

	p := &scriptedProvider{replies: []string{"TEST(MathTest, Add) {}"}}
	m := f.manager(t, p, managerOptions{extensions: []string{".c", ".cc"}})
	reports, err := m.GenerateInitialTests(context.Background())
	require.NoError(t, err)

	require.Len(t, reports, 3)
	byName := map[string]build.FileReport{}
	for _, r := range reports {
		byName[filepath.Base(r.Source)] = r
	}
	for _, name := range []string{"util.c", "util.cc"} {
		err := byName[name].Err
		assert.ErrorIs(t, err, scanner.ErrAmbiguousStem, name)
		assert.ErrorContains(t, err, "util.c, util.cc all map to test_util.cc", name)
	}
	assert.NoError(t, byName["math.cc"].Err)

	require.Len(t, p.requests, 1, "colliding sources must not reach the LLM")
	assert.Equal(t, filepath.Join(f.sourceDir, "math.cc"), p.requests[0].File)
	assert.NoFileExists(t, filepath.Join(f.testsDir, "test_util.cc"))
}

func TestBuildAndDebugRejectsAmbiguousPairing(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "util.c", "int cfun(void) { return 1; }\n")
	f.writeSource(t, "util.cc", "int ccfun() { return 2; }\n")
	f.writeTest(t, "test_util.cc", "TEST(UtilTest, Fun) {}\n")

	p := &scriptedProvider{}
	summary, err := f.manager(t, p, managerOptions{extensions: []string{".c", ".cc"}}).BuildAndDebug(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Files, 1)
	result := summary.Files[0]
	assert.Equal(t, build.StatusError, result.Status)
	assert.ErrorIs(t, result.Err, scanner.ErrAmbiguousStem)
	assert.Empty(t, result.SourceFile)
	assert.Empty(t, p.requests)
	assert.NoDirExists(t, filepath.Join(f.buildDir, "test_util"), "an ambiguous test must not be compiled")
	assert.False(t, summary.OK())
}

func TestGenerateInitialTestsNoSources(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager(t, provider.NewMockProvider(), managerOptions{}).GenerateInitialTests(context.Background())
	assert.ErrorIs(t, err, scanner.ErrNoSourceFiles)
}

func TestRefineTestsRewritesFiles(t *testing.T) {
	f := newFixture(t)
	testFile := f.writeTest(t, "test_math.cc", "TEST(MathTest, Add) {}\n")

	p := &scriptedProvider{replies: []string{"TEST(MathTest, Add) { EXPECT_EQ(add(2, 2), 4); }"}}
	reports, err := f.manager(t, p, managerOptions{}).RefineTests(context.Background())
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.NoError(t, reports[0].Err)
	require.Len(t, p.requests, 1)
	assert.Equal(t, llm.TaskRefine, p.requests[0].Task)
	assert.Equal(t, "TEST(MathTest, Add) {}\n", p.requests[0].User)

	content, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "EXPECT_EQ(add(2, 2), 4)")
}

func TestRunEndToEndWithMock(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "math.cc", mathSource)

	summary, err := f.manager(t, provider.NewMockProvider(), managerOptions{coverage: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, summary.Generated, 1)
	assert.Len(t, summary.Refined, 1)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, build.StatusPassed, summary.Files[0].Status)
	assert.True(t, summary.OK())
}

func TestProcessSource(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "math.cc", mathSource)

	result, err := f.manager(t, provider.NewMockProvider(), managerOptions{}).ProcessSource(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, build.StatusPassed, result.Status)
	assert.Equal(t, filepath.Join(f.testsDir, "test_math.cc"), result.TestFile)
}
