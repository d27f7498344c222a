// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Colored phase output and per-file progress bars

package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Console prints user-facing progress. Structured logs go elsewhere.
type Console struct {
	out      io.Writer
	barOut   io.Writer
	showBars bool
}

// NewConsole writes to stdout with progress bars on stderr
func NewConsole() *Console {
	return &Console{out: os.Stdout, barOut: os.Stderr, showBars: true}
}

// NewConsoleTo writes everything to w without progress bars
func NewConsoleTo(w io.Writer) *Console {
	return &Console{out: w, barOut: io.Discard}
}

// Discard returns a console that prints nothing
func Discard() *Console {
	return NewConsoleTo(io.Discard)
}

// SetNoColor disables ANSI colors globally
func SetNoColor(noColor bool) {
	color.NoColor = noColor
}

// Phase prints a numbered phase header: "[2/4] Generate tests"
func (c *Console) Phase(n, total int, title string) {
	fmt.Fprintf(c.out, "\n%s %s\n", color.CyanString("[%d/%d]", n, total), color.New(color.Bold).Sprint(title))
}

// Step prints an indented detail line
func (c *Console) Step(format string, args ...any) {
	fmt.Fprintf(c.out, "  → %s\n", fmt.Sprintf(format, args...))
}

// Success prints a green check line
func (c *Console) Success(format string, args ...any) {
	fmt.Fprintf(c.out, "  %s\n", color.GreenString("✓ "+format, args...))
}

// Warn prints a yellow warning line
func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintf(c.out, "  %s\n", color.YellowString("⚠ "+format, args...))
}

// Failure prints a red cross line
func (c *Console) Failure(format string, args ...any) {
	fmt.Fprintf(c.out, "  %s\n", color.RedString("✗ "+format, args...))
}

// Println prints a plain line
func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

// Progress tracks files processed in a phase
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress starts a progress bar over total items
func (c *Console) NewProgress(total int, description string) *Progress {
	if !c.showBars || total <= 1 {
		return &Progress{}
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(c.barOut),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(c.barOut, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &Progress{bar: bar}
}

// Describe updates the label, typically with the current file
func (p *Progress) Describe(description string) {
	if p.bar != nil {
		p.bar.Describe(color.CyanString(description))
	}
}

// Advance marks one item done
func (p *Progress) Advance() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// Finish completes the bar
func (p *Progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
