// Package encode converts source videos to HEVC with ffmpeg/libx265.
package encode

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/five82/hevcheck/internal/errors"
)

// Params contains parameters for a single HEVC conversion.
type Params struct {
	InputPath  string
	OutputPath string
	CRF        int
	Preset     string
	// DurationSeconds is the source duration, used for progress percent.
	DurationSeconds float64
	// TotalFrames is the source frame count when known, 0 otherwise.
	TotalFrames uint64
}

// Result contains the result of an encode operation.
type Result struct {
	Success bool
	Error   error
	Stderr  string
}

// BuildArgs builds the ffmpeg argument list for an HEVC conversion.
// Audio and subtitle streams are copied unchanged.
func BuildArgs(p Params) []string {
	return []string{
		"-hide_banner",
		"-y",
		"-i", p.InputPath,
		"-map", "0",
		"-c:v", "libx265",
		"-preset", p.Preset,
		"-crf", fmt.Sprintf("%d", p.CRF),
		"-c:a", "copy",
		"-c:s", "copy",
		p.OutputPath,
	}
}

// Run executes an ffmpeg HEVC conversion with progress reporting.
func Run(ctx context.Context, p Params, callback ProgressCallback) Result {
	args := BuildArgs(p)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{
			Success: false,
			Error:   fmt.Errorf("failed to get stderr pipe: %w", err),
		}
	}

	if err := cmd.Start(); err != nil {
		return Result{
			Success: false,
			Error:   errors.NewCommandStartError("ffmpeg", err),
		}
	}

	var stderrBuilder strings.Builder
	parseProgress(stderr, &stderrBuilder, p.DurationSeconds, p.TotalFrames, callback)

	err = cmd.Wait()
	stderrStr := stderrBuilder.String()

	if err != nil {
		if ctx.Err() != nil {
			return Result{
				Success: false,
				Error:   errors.NewCancelledError(),
				Stderr:  stderrStr,
			}
		}
		return Result{
			Success: false,
			Error:   errors.WrapExecError("ffmpeg", err, stderrStr),
			Stderr:  stderrStr,
		}
	}

	return Result{
		Success: true,
		Stderr:  stderrStr,
	}
}
