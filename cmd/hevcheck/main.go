// Package main provides the CLI entry point for hevcheck.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/hevcheck/internal/config"
	"github.com/five82/hevcheck/internal/discovery"
	"github.com/five82/hevcheck/internal/logging"
	"github.com/five82/hevcheck/internal/processing"
	"github.com/five82/hevcheck/internal/report"
	"github.com/five82/hevcheck/internal/verify"
)

const (
	appName    = "hevcheck"
	appVersion = "0.3.0"
)

// cliFlags holds flag values shared across subcommands.
type cliFlags struct {
	sourceDir    string
	convertedDir string
	logDir       string
	reportDir    string
	configFile   string

	mode              string
	targetCodec       string
	vmafThreshold     float64
	durationTolerance float64
	frameTolerance    float64
	playbackSeconds   float64
	vmafModel         string
	marker            string
	enablePSNR        bool
	enableSSIM        bool
	generateReport    bool

	crfSD      uint8
	crfHD      uint8
	crfUHD     uint8
	x265Preset string

	jsonOutput bool
	verbose    bool
	noLog      bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Verify HEVC batch transcodes against their sources",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.sourceDir, "source", "s", "", "directory containing source files")
	root.PersistentFlags().StringVarP(&flags.convertedDir, "converted", "c", "", "directory containing converted files")
	root.PersistentFlags().StringVarP(&flags.logDir, "log-dir", "l", "", "log directory (defaults to CONVERTED/logs)")
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flags.marker, "marker", config.DefaultConvertedMarker, "filename marker identifying converted files")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&flags.noLog, "no-log", false, "disable log file creation")
	root.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "emit NDJSON events instead of terminal output")

	root.AddCommand(newVerifyCommand(flags))
	root.AddCommand(newConvertCommand(flags))

	return root
}

func newVerifyCommand(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify converted files against their sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "full", "verification mode (basic, full, deepscan)")
	cmd.Flags().StringVar(&flags.targetCodec, "codec", config.DefaultTargetCodec, "expected video codec")
	cmd.Flags().Float64Var(&flags.vmafThreshold, "vmaf-threshold", config.DefaultVMAFThreshold, "minimum VMAF score for deepscan")
	cmd.Flags().Float64Var(&flags.durationTolerance, "duration-tolerance", config.DefaultDurationTolerance, "relative duration tolerance")
	cmd.Flags().Float64Var(&flags.frameTolerance, "frame-tolerance", config.DefaultFrameTolerance, "relative frame count tolerance")
	cmd.Flags().Float64Var(&flags.playbackSeconds, "playback-seconds", config.DefaultPlaybackSeconds, "seconds to decode in the playback probe")
	cmd.Flags().StringVar(&flags.vmafModel, "vmaf-model", "", "VMAF model file (empty uses the libvmaf built-in)")
	cmd.Flags().BoolVar(&flags.enablePSNR, "psnr", false, "also compute PSNR during deepscan")
	cmd.Flags().BoolVar(&flags.enableSSIM, "ssim", false, "also compute SSIM during deepscan")
	cmd.Flags().BoolVar(&flags.generateReport, "report", false, "write CSV reports after the run")
	cmd.Flags().StringVar(&flags.reportDir, "report-dir", "", "report directory (defaults to CONVERTED/reports)")

	return cmd
}

func newConvertCommand(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert source files to HEVC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, flags)
		},
	}

	cmd.Flags().Uint8Var(&flags.crfSD, "crf-sd", config.DefaultCRFSD, "CRF for SD sources (<1920 width)")
	cmd.Flags().Uint8Var(&flags.crfHD, "crf-hd", config.DefaultCRFHD, "CRF for HD sources (>=1920 width)")
	cmd.Flags().Uint8Var(&flags.crfUHD, "crf-uhd", config.DefaultCRFUHD, "CRF for UHD sources (>=3840 width)")
	cmd.Flags().StringVar(&flags.x265Preset, "preset", config.DefaultX265Preset, "x265 preset")

	return cmd
}

// buildConfig merges defaults, an optional config file, and CLI flags.
// Explicitly set CLI flags win over the config file; the config file wins
// over flag defaults.
func buildConfig(cmd *cobra.Command, flags *cliFlags) (*config.Config, error) {
	cfg := config.NewConfig(flags.sourceDir, flags.convertedDir, flags.logDir)
	cfg.ReportDir = flags.reportDir

	if flags.configFile != "" {
		if err := cfg.ApplyFile(flags.configFile); err != nil {
			return nil, err
		}
	}

	changed := func(name string) bool {
		if f := cmd.Flags().Lookup(name); f != nil {
			return f.Changed
		}
		if f := cmd.InheritedFlags().Lookup(name); f != nil {
			return f.Changed
		}
		return false
	}

	if changed("source") {
		cfg.SourceDir = flags.sourceDir
	}
	if changed("converted") {
		cfg.ConvertedDir = flags.convertedDir
	}
	if changed("log-dir") {
		cfg.LogDir = flags.logDir
	}
	if changed("report-dir") {
		cfg.ReportDir = flags.reportDir
	}
	if changed("marker") {
		cfg.ConvertedMarker = flags.marker
	}
	if changed("mode") {
		mode, err := config.ParseMode(flags.mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	if changed("codec") {
		cfg.TargetCodec = flags.targetCodec
	}
	if changed("vmaf-threshold") {
		cfg.VMAFThreshold = flags.vmafThreshold
	}
	if changed("duration-tolerance") {
		cfg.DurationTolerance = flags.durationTolerance
	}
	if changed("frame-tolerance") {
		cfg.FrameTolerance = flags.frameTolerance
	}
	if changed("playback-seconds") {
		cfg.PlaybackSeconds = flags.playbackSeconds
	}
	if changed("vmaf-model") {
		cfg.VMAFModelPath = flags.vmafModel
	}
	if changed("psnr") {
		cfg.EnablePSNR = flags.enablePSNR
	}
	if changed("ssim") {
		cfg.EnableSSIM = flags.enableSSIM
	}
	if changed("report") {
		cfg.GenerateReport = flags.generateReport
	}
	if changed("crf-sd") {
		cfg.CRFSD = flags.crfSD
	}
	if changed("crf-hd") {
		cfg.CRFHD = flags.crfHD
	}
	if changed("crf-uhd") {
		cfg.CRFUHD = flags.crfUHD
	}
	if changed("preset") {
		cfg.X265Preset = flags.x265Preset
	}

	if cfg.SourceDir == "" {
		return nil, fmt.Errorf("source directory is required (-s/--source)")
	}
	if cfg.ConvertedDir == "" {
		return nil, fmt.Errorf("converted directory is required (-c/--converted)")
	}

	var err error
	if cfg.SourceDir, err = filepath.Abs(cfg.SourceDir); err != nil {
		return nil, fmt.Errorf("invalid source path: %w", err)
	}
	if cfg.ConvertedDir, err = filepath.Abs(cfg.ConvertedDir); err != nil {
		return nil, fmt.Errorf("invalid converted path: %w", err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.ConvertedDir, "logs")
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = filepath.Join(cfg.ConvertedDir, "reports")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newReporter(flags *cliFlags) report.Reporter {
	if flags.jsonOutput {
		return report.NewJSONReporter()
	}
	return report.NewTerminalReporter(flags.verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

func runVerify(cmd *cobra.Command, flags *cliFlags) error {
	cfg, err := buildConfig(cmd, flags)
	if err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.LogDir, flags.verbose, flags.noLog)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer func() { _ = logger.Close() }()

	if err := processing.Preflight(cfg); err != nil {
		return err
	}

	pairs, err := discovery.ResolvePairs(cfg.SourceDir, cfg.ConvertedDir, cfg.ConvertedMarker)
	if err != nil {
		return err
	}

	logger.Info("Discovered %d converted files in %s", len(pairs), cfg.ConvertedDir)
	logger.Info("Verification mode: %s", cfg.Mode)
	for i, p := range pairs {
		logger.Debug("  %d. %s (source: %s)", i+1, p.ConvertedPath, p.SourcePath)
	}

	ctx, cancel := signalContext()
	defer cancel()

	engine := processing.NewDefaultEngine(cfg)
	verdicts, err := processing.ProcessVerification(ctx, cfg, engine, pairs, newReporter(flags))
	if err != nil {
		return err
	}

	summary := verify.Summarize(verdicts)
	logger.Info("Run complete: %d total, %d passed, %d failed, %d errors",
		summary.Total, summary.Success, summary.Failed, summary.Errors)

	if summary.Failed > 0 || summary.Errors > 0 {
		return fmt.Errorf("%d of %d files did not verify", summary.Failed+summary.Errors, summary.Total)
	}
	return nil
}

func runConvert(cmd *cobra.Command, flags *cliFlags) error {
	cfg, err := buildConfig(cmd, flags)
	if err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.LogDir, flags.verbose, flags.noLog)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer func() { _ = logger.Close() }()

	if err := processing.Preflight(cfg); err != nil {
		return err
	}

	files, err := discovery.FindSourceFiles(cfg.SourceDir, cfg.ConvertedMarker)
	if err != nil {
		return err
	}

	logger.Info("Converting %d files from %s", len(files), cfg.SourceDir)
	logger.Info("CRF settings: SD=%d, HD=%d, UHD=%d, preset=%s", cfg.CRFSD, cfg.CRFHD, cfg.CRFUHD, cfg.X265Preset)

	ctx, cancel := signalContext()
	defer cancel()

	results, err := processing.ProcessConversion(ctx, cfg, files, newReporter(flags))
	if err != nil {
		return err
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	logger.Info("Conversion complete: %d of %d succeeded", succeeded, len(files))

	if succeeded < len(files) {
		return fmt.Errorf("%d of %d files failed to convert", len(files)-succeeded, len(files))
	}
	return nil
}
