package processing

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/five82/hevcheck/internal/config"
	"github.com/five82/hevcheck/internal/discovery"
	"github.com/five82/hevcheck/internal/encode"
	"github.com/five82/hevcheck/internal/ffprobe"
	"github.com/five82/hevcheck/internal/report"
	"github.com/five82/hevcheck/internal/runner"
	"github.com/five82/hevcheck/internal/util"
)

// ConvertResult contains the result of a single file conversion.
type ConvertResult struct {
	Filename   string
	OutputPath string
	Duration   time.Duration
	InputSize  uint64
	OutputSize uint64
	Success    bool
}

// ProcessConversion converts the given source files to HEVC in order.
// Existing outputs are skipped, per-file failures do not stop the batch.
func ProcessConversion(
	ctx context.Context,
	cfg *config.Config,
	files []string,
	rep report.Reporter,
) ([]ConvertResult, error) {
	if rep == nil {
		rep = report.NullReporter{}
	}

	if err := util.EnsureDirectory(cfg.ConvertedDir); err != nil {
		return nil, err
	}

	prober := ffprobe.NewProber(runner.NewExecRunner(cfg.ToolTimeout))

	var results []ConvertResult
	for idx, inputPath := range files {
		if ctx.Err() != nil {
			rep.Warning(fmt.Sprintf("Conversion cancelled: %v", ctx.Err()))
			break
		}

		rep.FileStarted(report.FileContext{
			CurrentFile:   idx + 1,
			TotalFiles:    len(files),
			ConvertedFile: inputPath,
		})

		inputFilename := util.GetFilename(inputPath)
		outputPath := filepath.Join(cfg.ConvertedDir, discovery.ConvertedName(inputPath, cfg.ConvertedMarker))

		if util.FileExists(outputPath) {
			rep.Warning(fmt.Sprintf("Output file already exists: %s. Skipping conversion.", outputPath))
			continue
		}

		desc, err := prober.Probe(ctx, inputPath)
		if err != nil {
			rep.Error(report.ReportError{
				Title:      "Analysis Error",
				Message:    fmt.Sprintf("Could not analyze %s: %v", inputFilename, err),
				Context:    fmt.Sprintf("File: %s", inputPath),
				Suggestion: "Check if the file is a valid video format",
			})
			continue
		}

		totalFrames, _ := desc.FrameCountValue()
		crf := cfg.CRFForWidth(desc.Width)

		fileStart := time.Now()
		rep.EncodingStarted(totalFrames)

		result := encode.Run(ctx, encode.Params{
			InputPath:       inputPath,
			OutputPath:      outputPath,
			CRF:             int(crf),
			Preset:          cfg.X265Preset,
			DurationSeconds: desc.DurationSeconds,
			TotalFrames:     totalFrames,
		}, func(progress encode.Progress) {
			rep.EncodingProgress(report.ProgressSnapshot{
				CurrentFrame: progress.CurrentFrame,
				TotalFrames:  progress.TotalFrames,
				Percent:      progress.Percent,
				Speed:        progress.Speed,
				FPS:          progress.FPS,
				ETA:          progress.ETA,
				Bitrate:      progress.Bitrate,
			})
		})

		elapsed := time.Since(fileStart)

		if !result.Success {
			rep.Error(report.ReportError{
				Title:      "Conversion Error",
				Message:    fmt.Sprintf("ffmpeg failed to convert %s: %v", inputFilename, result.Error),
				Context:    fmt.Sprintf("File: %s", inputPath),
				Suggestion: "Check ffmpeg logs for more details",
			})
			results = append(results, ConvertResult{
				Filename:   inputFilename,
				OutputPath: outputPath,
				Duration:   elapsed,
			})
			continue
		}

		inputSize, _ := util.GetFileSize(inputPath)
		outputSize, _ := util.GetFileSize(outputPath)

		results = append(results, ConvertResult{
			Filename:   inputFilename,
			OutputPath: outputPath,
			Duration:   elapsed,
			InputSize:  inputSize,
			OutputSize: outputSize,
			Success:    true,
		})

		rep.EncodingComplete(report.EncodeOutcome{
			InputFile:    inputFilename,
			OutputFile:   util.GetFilename(outputPath),
			OriginalSize: inputSize,
			EncodedSize:  outputSize,
			TotalTime:    elapsed,
			OutputPath:   outputPath,
		})
	}

	return results, nil
}
