// Package hevcheck provides a Go library for verifying HEVC batch
// transcodes against their sources.
//
// hevcheck wraps ffmpeg and ffprobe to confirm that converted files
// really are faithful HEVC versions of their sources: codec, duration,
// stream digests, a bounded playback probe, and optionally a VMAF
// quality comparison.
//
// Basic usage:
//
//	verifier, err := hevcheck.New("/videos/src", "/videos/out",
//	    hevcheck.WithMode(hevcheck.ModeDeepScan),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := verifier.VerifyBatch(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("%d of %d passed\n", result.PassedCount, result.TotalFiles)
package hevcheck

import (
	"context"

	"github.com/five82/hevcheck/internal/config"
	"github.com/five82/hevcheck/internal/discovery"
	"github.com/five82/hevcheck/internal/processing"
	"github.com/five82/hevcheck/internal/report"
	"github.com/five82/hevcheck/internal/verify"
)

// Re-export verification mode types.
type Mode = config.Mode

const (
	ModeBasic    = config.ModeBasic
	ModeFull     = config.ModeFull
	ModeDeepScan = config.ModeDeepScan
)

// ParseMode converts a mode string to a Mode value.
// Valid values are "basic", "full", and "deepscan" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	return config.ParseMode(s)
}

// Re-export verdict types so callers can consume results without
// importing internal packages.
type (
	Verdict     = verify.Verdict
	CheckResult = verify.CheckResult
	Status      = verify.Status
	Reporter    = report.Reporter
)

const (
	StatusSuccess = verify.StatusSuccess
	StatusFailed  = verify.StatusFailed
	StatusError   = verify.StatusError
)

// Verifier is the main entry point for transcode verification.
type Verifier struct {
	config *config.Config
}

// BatchResult contains the result of a batch verification.
type BatchResult struct {
	Verdicts    []Verdict
	TotalFiles  int
	PassedCount int
	FailedCount int
	ErrorCount  int
}

// Option configures the verifier.
type Option func(*config.Config)

// New creates a new Verifier for the given source and converted directories.
func New(sourceDir, convertedDir string, opts ...Option) (*Verifier, error) {
	cfg := config.NewConfig(sourceDir, convertedDir, ".")

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Verifier{config: cfg}, nil
}

// WithMode selects the verification mode.
func WithMode(m Mode) Option {
	return func(c *config.Config) {
		c.Mode = m
	}
}

// WithVMAFThreshold sets the minimum acceptable VMAF score for DeepScan.
func WithVMAFThreshold(threshold float64) Option {
	return func(c *config.Config) {
		c.VMAFThreshold = threshold
	}
}

// WithDurationTolerance sets the relative duration tolerance (e.g. 0.005).
func WithDurationTolerance(tolerance float64) Option {
	return func(c *config.Config) {
		c.DurationTolerance = tolerance
	}
}

// WithConvertedMarker sets the filename marker identifying converted files.
func WithConvertedMarker(marker string) Option {
	return func(c *config.Config) {
		c.ConvertedMarker = marker
	}
}

// WithVMAFModel points DeepScan at a specific VMAF model file.
func WithVMAFModel(path string) Option {
	return func(c *config.Config) {
		c.VMAFModelPath = path
	}
}

// WithExtendedMetrics also computes PSNR and SSIM during DeepScan.
func WithExtendedMetrics() Option {
	return func(c *config.Config) {
		c.EnablePSNR = true
		c.EnableSSIM = true
	}
}

// VerifyFile verifies a single converted file against its source.
// An empty sourcePath records a missing-source error verdict.
func (v *Verifier) VerifyFile(ctx context.Context, sourcePath, convertedPath string) *Verdict {
	engine := processing.NewDefaultEngine(v.config)
	return engine.VerifyPair(ctx, sourcePath, convertedPath)
}

// VerifyBatch discovers converted files, resolves their sources, and
// verifies every pair in order. A nil reporter disables progress output.
func (v *Verifier) VerifyBatch(ctx context.Context, rep Reporter) (*BatchResult, error) {
	if err := processing.Preflight(v.config); err != nil {
		return nil, err
	}

	pairs, err := discovery.ResolvePairs(v.config.SourceDir, v.config.ConvertedDir, v.config.ConvertedMarker)
	if err != nil {
		return nil, err
	}

	engine := processing.NewDefaultEngine(v.config)
	verdicts, err := processing.ProcessVerification(ctx, v.config, engine, pairs, rep)
	if err != nil {
		return nil, err
	}

	summary := verify.Summarize(verdicts)
	return &BatchResult{
		Verdicts:    verdicts,
		TotalFiles:  summary.Total,
		PassedCount: summary.Success,
		FailedCount: summary.Failed,
		ErrorCount:  summary.Errors,
	}, nil
}

// FindConverted lists the converted files a batch run would verify.
func (v *Verifier) FindConverted() ([]string, error) {
	return discovery.FindConvertedFiles(v.config.ConvertedDir, v.config.ConvertedMarker)
}
