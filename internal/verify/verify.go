package verify

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/five82/hevcheck/internal/config"
	"github.com/five82/hevcheck/internal/ffprobe"
	"github.com/five82/hevcheck/internal/quality"
	"github.com/five82/hevcheck/internal/streamhash"
)

// MediaProber provides structural probing for verification.
type MediaProber interface {
	Probe(ctx context.Context, path string) (*ffprobe.Descriptor, error)
}

// StreamHasher computes stream content digests.
type StreamHasher interface {
	Hash(ctx context.Context, path string, stream streamhash.StreamType) (string, error)
}

// QualityScorer runs perceptual quality comparisons.
type QualityScorer interface {
	Score(ctx context.Context, sourcePath, convertedPath string, opts quality.Options) (*quality.Metrics, error)
}

// PlaybackChecker runs the bounded-decode smoke test.
type PlaybackChecker interface {
	Check(ctx context.Context, path string, seconds float64) (bool, error)
}

// FileSizer reads on-disk file sizes. Split out so tests run without files.
type FileSizer func(path string) (uint64, error)

// Engine sequences the verification checks for one file pair at a time.
// It holds no mutable state across files.
type Engine struct {
	prober   MediaProber
	hasher   StreamHasher
	scorer   QualityScorer
	playback PlaybackChecker
	sizer    FileSizer
	cfg      *config.Config
}

// NewEngine creates a verification engine over the given components.
func NewEngine(prober MediaProber, hasher StreamHasher, scorer QualityScorer, playback PlaybackChecker, sizer FileSizer, cfg *config.Config) *Engine {
	return &Engine{
		prober:   prober,
		hasher:   hasher,
		scorer:   scorer,
		playback: playback,
		sizer:    sizer,
		cfg:      cfg,
	}
}

// VerifyPair runs the mode-appropriate checks for one converted file and its
// resolved source. sourcePath is empty when no source was found. The returned
// Verdict is always complete: unexpected failures become status Error rather
// than propagating, so a batch run covers every discovered file.
func (e *Engine) VerifyPair(ctx context.Context, sourcePath, convertedPath string) (verdict *Verdict) {
	start := time.Now()
	verdict = &Verdict{
		ConvertedFile: convertedPath,
		SourceFile:    sourcePath,
		SourceFound:   sourcePath != "",
		Status:        StatusError,
	}
	defer func() {
		if r := recover(); r != nil {
			verdict.Status = StatusError
			verdict.Passed = false
			verdict.fail(fmt.Sprintf("unexpected failure: %v", r))
		}
		verdict.Elapsed = time.Since(start)
	}()

	if !verdict.SourceFound {
		verdict.fail(fmt.Sprintf("no matching source file for %s", convertedPath))
		return verdict
	}

	// Without both descriptors no check can be evaluated.
	source, err := e.prober.Probe(ctx, sourcePath)
	if err != nil {
		verdict.fail(fmt.Sprintf("probing source: %v", err))
		return verdict
	}
	converted, err := e.prober.Probe(ctx, convertedPath)
	if err != nil {
		verdict.fail(fmt.Sprintf("probing converted: %v", err))
		return verdict
	}
	verdict.SourceInfo = e.fileInfo(sourcePath, source)
	verdict.ConvertedInfo = e.fileInfo(convertedPath, converted)

	codecOK := e.checkCodec(verdict, converted)
	durationOK := e.checkDuration(verdict, source, converted)
	e.checkFrames(verdict, source, converted)

	if e.cfg.Mode.AtLeast(config.ModeFull) {
		e.checkStreamHash(ctx, verdict, CheckAudioHash, streamhash.StreamAudio, sourcePath, convertedPath)
	}

	videoHashOK := true
	if e.cfg.Mode == config.ModeDeepScan {
		videoHashOK = e.checkStreamHash(ctx, verdict, CheckVideoHash, streamhash.StreamVideo, sourcePath, convertedPath)
		if !videoHashOK {
			check, _ := verdict.Check(CheckVideoHash)
			verdict.fail("Video hash mismatch: " + check.Detail)
		}
	}

	playbackOK, err := e.checkPlayback(ctx, verdict, convertedPath)
	if err != nil {
		verdict.fail(fmt.Sprintf("playback probe: %v", err))
		return verdict
	}

	vmafOK := true
	if e.cfg.Mode == config.ModeDeepScan {
		vmafOK = e.checkVMAF(ctx, verdict, sourcePath, convertedPath)
	}

	// Frame count and audio hash are recorded above but never gate the verdict.
	verdict.Passed = codecOK && durationOK && playbackOK
	if e.cfg.Mode == config.ModeDeepScan {
		verdict.Passed = verdict.Passed && vmafOK && videoHashOK
	}

	if verdict.Passed {
		verdict.Status = StatusSuccess
	} else {
		verdict.Status = StatusFailed
	}
	return verdict
}

// fileInfo captures the analysis-relevant details of a probed file.
func (e *Engine) fileInfo(path string, desc *ffprobe.Descriptor) *FileInfo {
	info := &FileInfo{
		Path:            path,
		DurationSeconds: desc.DurationSeconds,
		BitrateBps:      desc.BitrateBps,
	}
	if e.sizer != nil {
		if size, err := e.sizer(path); err == nil {
			info.SizeBytes = size
		}
	}
	return info
}

// checkCodec requires an exact, case-sensitive codec name match.
func (e *Engine) checkCodec(v *Verdict, converted *ffprobe.Descriptor) bool {
	if converted.CodecName == e.cfg.TargetCodec {
		return v.addCheck(CheckCodec, true, fmt.Sprintf("Codec is %s", converted.CodecName))
	}
	message := fmt.Sprintf("Invalid codec: %s", converted.CodecName)
	v.addCheck(CheckCodec, false, message)
	v.fail(message)
	return false
}

// checkDuration applies the relative duration tolerance. A zero source
// duration is indeterminate and fails rather than dividing by zero.
func (e *Engine) checkDuration(v *Verdict, source, converted *ffprobe.Descriptor) bool {
	if source.DurationSeconds == 0 {
		message := "Duration indeterminate: source reports zero duration"
		v.addCheck(CheckDuration, false, message)
		v.fail(message)
		return false
	}

	diff := math.Abs(source.DurationSeconds - converted.DurationSeconds)
	if diff <= e.cfg.DurationTolerance*source.DurationSeconds {
		return v.addCheck(CheckDuration, true,
			fmt.Sprintf("Duration within tolerance: %.3fs vs %.3fs", source.DurationSeconds, converted.DurationSeconds))
	}

	message := fmt.Sprintf("Duration mismatch: Source %.3fs vs Converted %.3fs",
		source.DurationSeconds, converted.DurationSeconds)
	v.addCheck(CheckDuration, false, message)
	v.fail(message)
	return false
}

// checkFrames compares frame counts with the relative frame tolerance.
// When either side lacks a count the check is omitted entirely; it is
// informational and never gates the verdict.
func (e *Engine) checkFrames(v *Verdict, source, converted *ffprobe.Descriptor) {
	srcFrames, srcOK := source.FrameCountValue()
	convFrames, convOK := converted.FrameCountValue()
	if !srcOK || !convOK {
		return
	}

	diff := math.Abs(float64(srcFrames) - float64(convFrames))
	if diff <= e.cfg.FrameTolerance*float64(srcFrames) {
		v.addCheck(CheckFrames, true, fmt.Sprintf("Frame count within tolerance: %d vs %d", srcFrames, convFrames))
		return
	}
	v.addCheck(CheckFrames, false, fmt.Sprintf("Frame count mismatch: Source %d vs Converted %d", srcFrames, convFrames))
}

// checkStreamHash compares stream digests for the given stream type. A
// digest that could not be computed on either side never equals anything,
// including another failed digest.
func (e *Engine) checkStreamHash(ctx context.Context, v *Verdict, name string, stream streamhash.StreamType, sourcePath, convertedPath string) bool {
	srcDigest, srcErr := e.hasher.Hash(ctx, sourcePath, stream)
	convDigest, convErr := e.hasher.Hash(ctx, convertedPath, stream)

	if srcErr != nil || convErr != nil {
		detail := fmt.Sprintf("%s digest unavailable", stream)
		if srcErr != nil {
			detail = fmt.Sprintf("source %s hash failed: %v", stream, srcErr)
		} else if convErr != nil {
			detail = fmt.Sprintf("converted %s hash failed: %v", stream, convErr)
		}
		v.addCheck(name, false, detail)
		return false
	}

	if srcDigest == convDigest {
		return v.addCheck(name, true, fmt.Sprintf("%s stream digests match", stream))
	}
	v.addCheck(name, false, fmt.Sprintf("%s stream digests differ: %s vs %s", stream, srcDigest, convDigest))
	return false
}

// checkPlayback runs the bounded-decode smoke test on the converted file.
// The returned error is non-nil only when the tool could not be invoked.
func (e *Engine) checkPlayback(ctx context.Context, v *Verdict, convertedPath string) (bool, error) {
	ok, err := e.playback.Check(ctx, convertedPath, e.cfg.PlaybackSeconds)
	if err != nil {
		return false, err
	}
	if ok {
		return v.addCheck(CheckPlayback, true, "Bounded decode succeeded"), nil
	}
	message := fmt.Sprintf("Playback probe failed: %s does not decode cleanly", convertedPath)
	v.addCheck(CheckPlayback, false, message)
	v.fail(message)
	return false, nil
}

// checkVMAF scores the pair and applies the configured threshold. A scoring
// failure is recorded as its own failed check, never as a fabricated score.
func (e *Engine) checkVMAF(ctx context.Context, v *Verdict, sourcePath, convertedPath string) bool {
	metrics, err := e.scorer.Score(ctx, sourcePath, convertedPath, quality.Options{
		EnablePSNR: e.cfg.EnablePSNR,
		EnableSSIM: e.cfg.EnableSSIM,
		ModelPath:  e.cfg.VMAFModelPath,
	})
	if err != nil {
		message := fmt.Sprintf("VMAF computation failed: %v", err)
		v.addCheck(CheckVMAF, false, message)
		v.fail(message)
		return false
	}

	v.VMAF = &metrics.VMAF
	v.PSNR = metrics.PSNR
	v.SSIM = metrics.SSIM

	if metrics.VMAF >= e.cfg.VMAFThreshold {
		return v.addScoredCheck(CheckVMAF, true, metrics.VMAF,
			fmt.Sprintf("VMAF %.2f meets threshold %.2f", metrics.VMAF, e.cfg.VMAFThreshold))
	}

	message := fmt.Sprintf("VMAF %.2f below threshold %.2f", metrics.VMAF, e.cfg.VMAFThreshold)
	v.addScoredCheck(CheckVMAF, false, metrics.VMAF, message)
	v.fail(message)
	return false
}
