// Package streamhash computes content-integrity digests over isolated media streams.
//
// The digest covers the demuxed elementary stream rather than the container
// bytes, so the same stream content in different containers produces the same
// digest.
package streamhash

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/hevcheck/internal/errors"
	"github.com/five82/hevcheck/internal/runner"
)

// StreamType selects which stream of a file to hash.
type StreamType string

const (
	// StreamVideo selects the first video stream.
	StreamVideo StreamType = "video"
	// StreamAudio selects the first audio stream.
	StreamAudio StreamType = "audio"
)

// mapSelector returns the ffmpeg -map selector for the stream type.
func (s StreamType) mapSelector() string {
	if s == StreamAudio {
		return "0:a:0"
	}
	return "0:v:0"
}

// Hasher computes SHA-256 digests of isolated streams via ffmpeg.
type Hasher struct {
	run runner.Runner
}

// NewHasher creates a Hasher backed by the given runner.
func NewHasher(run runner.Runner) *Hasher {
	return &Hasher{run: run}
}

// Hash extracts the selected stream losslessly into ffmpeg's hash muxer and
// returns the hex SHA-256 digest. A file lacking the requested stream type
// returns a no-such-stream error, distinct from generic tool failures.
func (h *Hasher) Hash(ctx context.Context, inputPath string, stream StreamType) (string, error) {
	out, err := h.run.Run(ctx, "ffmpeg",
		"-v", "error",
		"-i", inputPath,
		"-map", stream.mapSelector(),
		"-c", "copy",
		"-f", "hash",
		"-hash", "sha256",
		"-",
	)
	if err != nil {
		if strings.Contains(out.Stderr, "matches no streams") {
			return "", errors.NewNoSuchStreamError(inputPath, string(stream))
		}
		return "", errors.NewHashError(fmt.Sprintf("hashing %s stream of %s", stream, inputPath), err)
	}

	digest, ok := parseHashOutput(out.Stdout)
	if !ok {
		return "", errors.NewHashError(fmt.Sprintf("no digest in ffmpeg output for %s", inputPath), nil)
	}
	return digest, nil
}

// parseHashOutput extracts the hex digest from ffmpeg hash muxer output,
// which has the form "SHA256=<hex>".
func parseHashOutput(stdout string) (string, bool) {
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if rest, found := strings.CutPrefix(line, "SHA256="); found && rest != "" {
			return strings.ToLower(rest), true
		}
	}
	return "", false
}
