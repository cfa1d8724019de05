// Package ffprobe extracts structural media information using ffprobe.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/five82/hevcheck/internal/errors"
	"github.com/five82/hevcheck/internal/runner"
)

// Descriptor contains the structural properties of a media file, taken from
// the first video stream plus the container-level duration.
type Descriptor struct {
	CodecName       string
	Width           int64
	Height          int64
	DurationSeconds float64
	// FrameCount is nil when the container does not report nb_frames.
	FrameCount *uint64
	// BitrateBps is nil when the container does not report an overall bit rate.
	BitrateBps *uint64
}

// FrameCountValue returns the frame count and whether it is known.
func (d *Descriptor) FrameCountValue() (uint64, bool) {
	if d.FrameCount == nil {
		return 0, false
	}
	return *d.FrameCount, true
}

// BitrateKbps returns the overall bitrate in kbps and whether it is known.
func (d *Descriptor) BitrateKbps() (float64, bool) {
	if d.BitrateBps == nil {
		return 0, false
	}
	return float64(*d.BitrateBps) / 1000, true
}

// probeOutput represents the JSON output from ffprobe.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int64  `json:"width"`
	Height    int64  `json:"height"`
	NbFrames  string `json:"nb_frames"`
}

// Prober probes media files through the process runner.
type Prober struct {
	run runner.Runner
}

// NewProber creates a Prober backed by the given runner.
func NewProber(run runner.Runner) *Prober {
	return &Prober{run: run}
}

// Probe returns a Descriptor for the first video stream of the file.
// Failures are non-retryable probe errors.
func (p *Prober) Probe(ctx context.Context, inputPath string) (*Descriptor, error) {
	out, err := p.run.Run(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)
	if err != nil {
		return nil, errors.NewProbeError(fmt.Sprintf("ffprobe failed for %s", inputPath), err)
	}

	return parseProbeOutput([]byte(out.Stdout), inputPath)
}

// parseProbeOutput parses ffprobe JSON into a Descriptor.
func parseProbeOutput(data []byte, inputPath string) (*Descriptor, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.NewProbeError(
			fmt.Sprintf("unparsable ffprobe output for %s", inputPath),
			errors.NewJSONParseError("invalid JSON", err),
		)
	}

	if len(probe.Streams) == 0 {
		return nil, errors.NewProbeError(fmt.Sprintf("no streams in %s", inputPath), nil)
	}

	var video *probeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			video = &probe.Streams[i]
			break
		}
	}
	if video == nil {
		return nil, errors.NewProbeError(fmt.Sprintf("no video stream in %s", inputPath), nil)
	}

	if video.Width <= 0 || video.Height <= 0 {
		return nil, errors.NewProbeError(
			fmt.Sprintf("invalid dimensions in %s: %dx%d", inputPath, video.Width, video.Height), nil)
	}

	desc := &Descriptor{
		CodecName: video.CodecName,
		Width:     video.Width,
		Height:    video.Height,
	}

	// Container-level duration. Missing duration is a probe failure since
	// every downstream check depends on it.
	if probe.Format.Duration == "" {
		return nil, errors.NewProbeError(fmt.Sprintf("no duration reported for %s", inputPath), nil)
	}
	d, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil || d < 0 {
		return nil, errors.NewProbeError(fmt.Sprintf("invalid duration %q for %s", probe.Format.Duration, inputPath), nil)
	}
	desc.DurationSeconds = d

	// nb_frames is optional; many containers never report it.
	if video.NbFrames != "" {
		if frames, err := strconv.ParseUint(video.NbFrames, 10, 64); err == nil {
			desc.FrameCount = &frames
		}
	}

	// Overall bit rate is optional as well.
	if probe.Format.BitRate != "" {
		if bps, err := strconv.ParseUint(probe.Format.BitRate, 10, 64); err == nil {
			desc.BitrateBps = &bps
		}
	}

	return desc, nil
}
