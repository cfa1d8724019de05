package processing

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/five82/hevcheck/internal/analysis"
	"github.com/five82/hevcheck/internal/config"
	"github.com/five82/hevcheck/internal/discovery"
	"github.com/five82/hevcheck/internal/ffprobe"
	"github.com/five82/hevcheck/internal/playback"
	"github.com/five82/hevcheck/internal/quality"
	"github.com/five82/hevcheck/internal/report"
	"github.com/five82/hevcheck/internal/runner"
	"github.com/five82/hevcheck/internal/streamhash"
	"github.com/five82/hevcheck/internal/util"
	"github.com/five82/hevcheck/internal/verify"
)

// PairVerifier verifies one source/converted pair.
type PairVerifier interface {
	VerifyPair(ctx context.Context, sourcePath, convertedPath string) *verify.Verdict
}

// NewDefaultEngine builds a verification engine backed by the real
// ffmpeg/ffprobe tools.
func NewDefaultEngine(cfg *config.Config) *verify.Engine {
	run := runner.NewExecRunner(cfg.ToolTimeout)
	return verify.NewEngine(
		ffprobe.NewProber(run),
		streamhash.NewHasher(run),
		quality.NewScorer(run),
		playback.NewProber(run),
		util.GetFileSize,
		cfg,
	)
}

// ProcessVerification runs verification over the resolved pairs in order.
// A per-file failure or error never stops the batch; cancellation does.
func ProcessVerification(
	ctx context.Context,
	cfg *config.Config,
	verifier PairVerifier,
	pairs []discovery.Pair,
	rep report.Reporter,
) ([]verify.Verdict, error) {
	if rep == nil {
		rep = report.NullReporter{}
	}

	sysInfo := util.GetSystemInfo()
	rep.SystemInfo(report.SystemSummary{
		Hostname: sysInfo.Hostname,
		OS:       sysInfo.OS,
		Arch:     sysInfo.Arch,
		NumCPU:   sysInfo.NumCPU,
	})

	var fileNames []string
	for _, p := range pairs {
		fileNames = append(fileNames, util.GetFilename(p.ConvertedPath))
	}
	rep.BatchStarted(report.BatchStartInfo{
		TotalFiles: len(pairs),
		FileList:   fileNames,
		Mode:       cfg.Mode.String(),
	})

	batchStart := time.Now()
	verdicts := make([]verify.Verdict, 0, len(pairs))

	for idx, pair := range pairs {
		if ctx.Err() != nil {
			rep.Warning(fmt.Sprintf("Verification cancelled: %v", ctx.Err()))
			break
		}

		rep.FileStarted(report.FileContext{
			CurrentFile:   idx + 1,
			TotalFiles:    len(pairs),
			ConvertedFile: pair.ConvertedPath,
			SourceFile:    pair.SourcePath,
		})

		verdict := verifier.VerifyPair(ctx, pair.SourcePath, pair.ConvertedPath)
		verdicts = append(verdicts, *verdict)
		rep.VerificationComplete(verdict)
	}

	summary := verify.Summarize(verdicts)
	rep.BatchComplete(report.BatchSummary{
		TotalFiles:    summary.Total,
		PassedCount:   summary.Success,
		FailedCount:   summary.Failed,
		ErrorCount:    summary.Errors,
		TotalDuration: time.Since(batchStart),
		FileResults:   fileOutcomes(verdicts),
	})

	if cfg.GenerateReport {
		if err := writeReports(cfg, verdicts); err != nil {
			rep.Warning(fmt.Sprintf("Report generation failed: %v", err))
		}
	}

	return verdicts, nil
}

func fileOutcomes(verdicts []verify.Verdict) []report.FileOutcome {
	outcomes := make([]report.FileOutcome, 0, len(verdicts))
	for i := range verdicts {
		v := &verdicts[i]
		outcomes = append(outcomes, report.FileOutcome{
			Filename: util.GetFilename(v.ConvertedFile),
			Status:   string(v.Status),
			VMAF:     v.VMAF,
		})
	}
	return outcomes
}

func writeReports(cfg *config.Config, verdicts []verify.Verdict) error {
	if err := util.EnsureDirectory(cfg.ReportDir); err != nil {
		return err
	}

	stamp := time.Now().Format("20060102_150405")
	verdictPath := filepath.Join(cfg.ReportDir, fmt.Sprintf("verification_%s.csv", stamp))
	if err := report.WriteVerdictsCSV(verdictPath, verdicts); err != nil {
		return err
	}

	records := analysis.BuildRecords(verdicts)
	if len(records) == 0 {
		return nil
	}
	qualityPath := filepath.Join(cfg.ReportDir, fmt.Sprintf("quality_%s.csv", stamp))
	return report.WriteQualityCSV(qualityPath, records)
}
