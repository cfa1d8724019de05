// Package playback provides a bounded-decode smoke test for gross corruption.
package playback

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/five82/hevcheck/internal/errors"
	"github.com/five82/hevcheck/internal/runner"
)

// DefaultProbeSeconds is how much of the file is decoded by default.
const DefaultProbeSeconds = 10.0

// Prober attempts a bounded decode with no persisted output.
type Prober struct {
	run runner.Runner
}

// NewProber creates a Prober backed by the given runner.
func NewProber(run runner.Runner) *Prober {
	return &Prober{run: run}
}

// Check decodes the first seconds of the file into a null sink and reports
// whether the decode exited cleanly. A failed decode is the false result,
// not an error; an error is returned only when the tool could not be
// invoked at all.
func (p *Prober) Check(ctx context.Context, inputPath string, seconds float64) (bool, error) {
	if seconds <= 0 {
		seconds = DefaultProbeSeconds
	}

	_, err := p.run.Run(ctx, "ffmpeg",
		"-v", "error",
		"-i", inputPath,
		"-t", strconv.FormatFloat(seconds, 'f', -1, 64),
		"-f", "null",
		"-",
	)
	if err == nil {
		return true, nil
	}

	// A non-zero exit means the file failed to decode, which is the false
	// result. Only a failure to start the tool propagates as an error.
	var cmdErr *errors.CommandError
	if stderrors.As(err, &cmdErr) && cmdErr.Kind == errors.CommandFailed {
		return false, nil
	}
	return false, err
}
