package report

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/five82/hevcheck/internal/util"
	"github.com/five82/hevcheck/internal/verify"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu         sync.Mutex
	progress   *progressbar.ProgressBar
	maxPercent float32
	verbose    bool
	cyan       *color.Color
	green      *color.Color
	yellow     *color.Color
	red        *color.Color
	bold       *color.Color
}

// NewTerminalReporter creates a new terminal reporter.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return &TerminalReporter{
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		bold:    color.New(color.Bold),
	}
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
}

func (r *TerminalReporter) SystemInfo(summary SystemSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("SYSTEM")
	r.printLabel(10, "Hostname:", summary.Hostname)
	r.printLabel(10, "Platform:", fmt.Sprintf("%s/%s (%d CPUs)", summary.OS, summary.Arch, summary.NumCPU))
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	fmt.Println()
	_, _ = r.cyan.Println("BATCH")
	fmt.Printf("  Verifying %d files in %s mode\n", info.TotalFiles, r.bold.Sprint(info.Mode))
	for i, name := range info.FileList {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
}

func (r *TerminalReporter) FileStarted(ctx FileContext) {
	fmt.Printf("\nFile %s of %d: %s\n",
		r.bold.Sprint(ctx.CurrentFile),
		ctx.TotalFiles,
		util.GetFilename(ctx.ConvertedFile))
	if ctx.SourceFile != "" {
		fmt.Printf("  Source: %s\n", util.GetFilename(ctx.SourceFile))
	}
}

func (r *TerminalReporter) VerificationComplete(verdict *verify.Verdict) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("VERIFICATION")

	switch verdict.Status {
	case verify.StatusSuccess:
		fmt.Printf("  %s\n", color.New(color.FgGreen, color.Bold).Sprint("All checks passed"))
	case verify.StatusFailed:
		fmt.Printf("  %s\n", r.red.Sprint("Verification failed"))
	default:
		fmt.Printf("  %s\n", r.red.Sprint("Verification error"))
	}

	maxLen := 0
	for _, check := range verdict.Checks {
		if len(check.Name) > maxLen {
			maxLen = len(check.Name)
		}
	}

	for _, check := range verdict.Checks {
		var status string
		if check.Passed {
			status = r.green.Sprint("✓")
		} else {
			status = r.red.Sprint("✗")
		}
		paddedName := fmt.Sprintf("%-*s", maxLen, check.Name)
		fmt.Printf("  - %s: %s (%s)\n", paddedName, status, check.Detail)
	}

	for _, msg := range verdict.Errors {
		fmt.Printf("  %s %s\n", r.red.Sprint("!"), msg)
	}

	if verdict.SourceInfo != nil && verdict.ConvertedInfo != nil {
		fmt.Printf("  %s %s -> %s\n",
			r.bold.Sprint("Size:"),
			util.FormatBytes(verdict.SourceInfo.SizeBytes),
			util.FormatBytes(verdict.ConvertedInfo.SizeBytes))
	}
	fmt.Printf("  %s %s\n", r.bold.Sprint("Time:"), util.FormatDuration(verdict.Elapsed.Seconds()))
}

func (r *TerminalReporter) EncodingStarted(totalFrames uint64) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Converting [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) EncodingProgress(progress ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	clamped := progress.Percent
	if clamped > 100 {
		clamped = 100
	}
	if clamped < 0 {
		clamped = 0
	}

	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}

	desc := fmt.Sprintf("speed %.1fx, fps %.1f, eta %s",
		progress.Speed, progress.FPS, util.FormatDuration(progress.ETA.Seconds()))
	r.progress.Describe(desc)
}

func (r *TerminalReporter) EncodingComplete(outcome EncodeOutcome) {
	r.finishProgress()

	var reduction float64
	if outcome.OriginalSize > 0 {
		reduction = (float64(outcome.OriginalSize) - float64(outcome.EncodedSize)) / float64(outcome.OriginalSize) * 100
	}

	fmt.Println()
	_, _ = r.cyan.Println("RESULTS")
	fmt.Printf("  %s %s\n", r.bold.Sprint("Output:"), r.bold.Sprint(outcome.OutputFile))
	fmt.Printf("  %s %s -> %s\n",
		r.bold.Sprint("Size:"),
		util.FormatBytes(outcome.OriginalSize),
		util.FormatBytes(outcome.EncodedSize))
	fmt.Printf("  %s %s\n", r.bold.Sprint("Reduction:"), r.bold.Sprintf("%.1f%%", reduction))
	fmt.Printf("  %s %s\n", r.bold.Sprint("Time:"), util.FormatDuration(outcome.TotalTime.Seconds()))
	fmt.Printf("  %s %s\n", r.bold.Sprint("Saved to"), r.green.Sprint(outcome.OutputPath))
}

func (r *TerminalReporter) Warning(message string) {
	fmt.Println()
	_, _ = r.yellow.Printf("WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReportError) {
	_, _ = fmt.Fprintln(os.Stderr)
	_, _ = r.red.Fprintf(os.Stderr, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) BatchComplete(summary BatchSummary) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("BATCH SUMMARY")
	fmt.Printf("  %s\n", r.bold.Sprintf("%d of %d passed", summary.PassedCount, summary.TotalFiles))
	fmt.Printf("  Failed: %s, Errors: %s\n",
		r.red.Sprint(summary.FailedCount),
		r.red.Sprint(summary.ErrorCount))
	fmt.Printf("  Time: %s\n", util.FormatDuration(summary.TotalDuration.Seconds()))

	for _, result := range summary.FileResults {
		line := fmt.Sprintf("  - %s: %s", result.Filename, result.Status)
		if result.VMAF != nil {
			line += fmt.Sprintf(" (VMAF %.2f)", *result.VMAF)
		}
		fmt.Println(line)
	}
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	fmt.Printf("  %s\n", color.New(color.Faint).Sprint(message))
}
