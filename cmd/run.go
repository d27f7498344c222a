/*
Copyright © 2026 ソニーレベル <c7kali3@gmail.com>

*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sony-level/utg/internal/build"
)

// phase is a bit set of pipeline phases
type phase int

const (
	phaseGenerate phase = 1 << iota
	phaseRefine
	phaseBuild

	phaseAll = phaseGenerate | phaseRefine | phaseBuild
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [path|url]",
	Short: "Generate, refine, build and repair unit tests",
	Long: `Scan the project's sources, generate one GoogleTest file per source file,
refine every test file, then compile, run and measure each test, feeding
failures back to the LLM until the tests pass or --max-iterations is reached.

Arguments:
  path    Local project directory (tests are written in place)
  url     GitHub/GitLab repository URL to clone into the workspace

Examples:
  utg run .
  utg run https://github.com/user/repo
  utg run . --source-dir src --tests-dir src/tests
  utg run . --no-coverage --max-iterations 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePhases(cmd, inputArg(args), phaseAll)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// executePhases runs the selected phases in pipeline order
func executePhases(cmd *cobra.Command, input string, phases phase) error {
	ctx, cancel := newSignalContext()
	defer cancel()

	total := 1
	for _, ph := range []phase{phaseGenerate, phaseRefine, phaseBuild} {
		if phases&ph != 0 {
			total++
		}
	}

	p, err := setupPipeline(ctx, cmd, input, setupOptions{build: phases&phaseBuild != 0, phases: total})
	if err != nil {
		return err
	}
	defer p.close()

	n := 1
	if phases&phaseGenerate != 0 {
		n++
		p.console.Phase(n, total, "Generate tests")
		reports, err := p.manager.GenerateInitialTests(ctx)
		if err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}
		p.console.Step("%d of %d test file(s) generated", succeeded(reports), len(reports))
	}

	if phases&phaseRefine != 0 {
		n++
		p.console.Phase(n, total, "Refine tests")
		reports, err := p.manager.RefineTests(ctx)
		if err != nil {
			return fmt.Errorf("refinement failed: %w", err)
		}
		if len(reports) > 0 {
			p.console.Step("%d of %d test file(s) refined", succeeded(reports), len(reports))
		}
	}

	if phases&phaseBuild != 0 {
		n++
		p.console.Phase(n, total, "Build / Test / Coverage")
		if !p.coverage {
			p.console.Step("Coverage stage skipped")
		}
		summary, err := p.manager.BuildAndDebug(ctx)
		if err != nil {
			return fmt.Errorf("build and debug failed: %w", err)
		}
		if !summary.OK() {
			// Stage logs are the only record of why a file failed
			p.ws.SetKeep(true)
		}
		p.printSummary(summary)
		if !summary.OK() {
			return fmt.Errorf("%d of %d test file(s) did not pass: %w", summary.Failed, len(summary.Files), errTestsFailed)
		}
	}

	return nil
}

func succeeded(reports []build.FileReport) int {
	n := 0
	for _, r := range reports {
		if r.Err == nil {
			n++
		}
	}
	return n
}
