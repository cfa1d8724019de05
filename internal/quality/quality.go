// Package quality runs perceptual quality comparisons between a source and
// its converted counterpart using ffmpeg's libvmaf, psnr, and ssim filters.
package quality

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/five82/hevcheck/internal/errors"
	"github.com/five82/hevcheck/internal/runner"
)

// Metrics holds the aggregate scores of a comparison. VMAF is always present
// on success; PSNR and SSIM are nil unless companion metrics were requested.
type Metrics struct {
	VMAF float64
	PSNR *float64
	SSIM *float64
}

// Options control a single scoring invocation.
type Options struct {
	// EnablePSNR and EnableSSIM request the companion metrics.
	EnablePSNR bool
	EnableSSIM bool
	// SegmentSeconds limits the comparison to the first N seconds of both
	// files. Zero compares the full files.
	SegmentSeconds float64
	// ModelPath overrides the libvmaf model. Empty uses the built-in default.
	ModelPath string
}

// Scorer invokes ffmpeg quality filters through the process runner.
type Scorer struct {
	run runner.Runner
}

// NewScorer creates a Scorer backed by the given runner.
func NewScorer(run runner.Runner) *Scorer {
	return &Scorer{run: run}
}

// Score compares converted (distorted) against source (reference) and
// returns the aggregate metrics parsed from the tool's final score lines.
// A tool failure or missing score line is a score error; the caller must
// never substitute a default score for one.
func (s *Scorer) Score(ctx context.Context, sourcePath, convertedPath string, opts Options) (*Metrics, error) {
	logFile, err := os.CreateTemp("", "hevcheck_vmaf_*.log")
	if err != nil {
		return nil, errors.NewIOError("creating VMAF log file", err)
	}
	logPath := logFile.Name()
	_ = logFile.Close()
	defer func() { _ = os.Remove(logPath) }()

	args := buildScoreArgs(sourcePath, convertedPath, logPath, opts)

	out, err := s.run.Run(ctx, "ffmpeg", args...)
	if err != nil {
		return nil, errors.NewScoreError(
			fmt.Sprintf("quality comparison failed for %s", convertedPath), err)
	}

	return ParseMetrics(out.Stderr, opts)
}

// buildScoreArgs assembles the ffmpeg filter invocation. The converted file
// is the first (distorted) input, the source the second (reference), matching
// libvmaf's input convention.
func buildScoreArgs(sourcePath, convertedPath, logPath string, opts Options) []string {
	args := []string{"-v", "info"}

	if opts.SegmentSeconds > 0 {
		seg := strconv.FormatFloat(opts.SegmentSeconds, 'f', -1, 64)
		args = append(args, "-t", seg, "-i", convertedPath, "-t", seg, "-i", sourcePath)
	} else {
		args = append(args, "-i", convertedPath, "-i", sourcePath)
	}

	vmaf := "libvmaf=log_path=" + logPath
	if opts.ModelPath != "" {
		vmaf += ":model=path=" + opts.ModelPath
	}

	args = append(args, "-lavfi", buildFilterGraph(vmaf, opts), "-f", "null", "-")
	return args
}

// buildFilterGraph wires the requested metric filters into one graph. A lone
// libvmaf chain binds the two unlabeled inputs directly; companion metrics
// need each input split so every chain gets its own pad pair, otherwise
// ffmpeg cannot match the extra chains to a stream.
func buildFilterGraph(vmaf string, opts Options) string {
	var companions []string
	if opts.EnablePSNR {
		companions = append(companions, "psnr")
	}
	if opts.EnableSSIM {
		companions = append(companions, "ssim")
	}
	if len(companions) == 0 {
		return vmaf
	}

	n := len(companions) + 1
	distSplit := fmt.Sprintf("[0:v]split=%d", n)
	refSplit := fmt.Sprintf("[1:v]split=%d", n)
	dist := make([]string, n)
	ref := make([]string, n)
	for i := 0; i < n; i++ {
		dist[i] = fmt.Sprintf("[d%d]", i)
		ref[i] = fmt.Sprintf("[r%d]", i)
		distSplit += dist[i]
		refSplit += ref[i]
	}

	chains := []string{distSplit, refSplit, dist[0] + ref[0] + vmaf}
	for i, filter := range companions {
		chains = append(chains, dist[i+1]+ref[i+1]+filter)
	}
	return strings.Join(chains, ";")
}

var (
	vmafRegex = regexp.MustCompile(`VMAF score: ([0-9]+\.?[0-9]*)`)
	psnrRegex = regexp.MustCompile(`PSNR.*average:([0-9]+\.?[0-9]*)`)
	ssimRegex = regexp.MustCompile(`SSIM.*All:([0-9]+\.?[0-9]*)`)
)

// ParseMetrics extracts the final aggregate score line per metric from
// ffmpeg's log output. The last occurrence wins, since ffmpeg may print
// intermediate per-segment lines before the aggregate.
func ParseMetrics(output string, opts Options) (*Metrics, error) {
	vmaf, ok := lastMatch(vmafRegex, output)
	if !ok {
		return nil, errors.NewScoreError("no VMAF score line in tool output", nil)
	}

	m := &Metrics{VMAF: vmaf}

	if opts.EnablePSNR {
		psnr, ok := lastMatch(psnrRegex, output)
		if !ok {
			return nil, errors.NewScoreError("no PSNR score line in tool output", nil)
		}
		m.PSNR = &psnr
	}

	if opts.EnableSSIM {
		ssim, ok := lastMatch(ssimRegex, output)
		if !ok {
			return nil, errors.NewScoreError("no SSIM score line in tool output", nil)
		}
		m.SSIM = &ssim
	}

	return m, nil
}

// lastMatch returns the numeric capture of the last line matching re.
func lastMatch(re *regexp.Regexp, output string) (float64, bool) {
	matches := re.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
