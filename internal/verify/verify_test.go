package verify

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/five82/hevcheck/internal/config"
	"github.com/five82/hevcheck/internal/errors"
	"github.com/five82/hevcheck/internal/ffprobe"
	"github.com/five82/hevcheck/internal/quality"
	"github.com/five82/hevcheck/internal/streamhash"
)

// mockComponents provides canned component behavior per path.
type mockComponents struct {
	descriptors map[string]*ffprobe.Descriptor
	probeErr    map[string]error

	hashes  map[string]string // key: path + "/" + stream
	hashErr map[string]error

	metrics  *quality.Metrics
	scoreErr error

	playbackOK  bool
	playbackErr error

	hashCalls  int
	scoreCalls int
}

func (m *mockComponents) Probe(ctx context.Context, path string) (*ffprobe.Descriptor, error) {
	if err := m.probeErr[path]; err != nil {
		return nil, err
	}
	return m.descriptors[path], nil
}

func (m *mockComponents) Hash(ctx context.Context, path string, stream streamhash.StreamType) (string, error) {
	m.hashCalls++
	key := path + "/" + string(stream)
	if err := m.hashErr[key]; err != nil {
		return "", err
	}
	return m.hashes[key], nil
}

func (m *mockComponents) Score(ctx context.Context, sourcePath, convertedPath string, opts quality.Options) (*quality.Metrics, error) {
	m.scoreCalls++
	if m.scoreErr != nil {
		return nil, m.scoreErr
	}
	return m.metrics, nil
}

func (m *mockComponents) Check(ctx context.Context, path string, seconds float64) (bool, error) {
	return m.playbackOK, m.playbackErr
}

func uintPtr(v uint64) *uint64 { return &v }

// healthyPair is the baseline of end-to-end scenario 1: 120.000s/1000 frames
// source, 120.100s/995 frames hevc conversion, clean playback.
func healthyPair() *mockComponents {
	return &mockComponents{
		descriptors: map[string]*ffprobe.Descriptor{
			"movie.mkv": {
				CodecName:       "h264",
				Width:           1920,
				Height:          1080,
				DurationSeconds: 120.000,
				FrameCount:      uintPtr(1000),
				BitrateBps:      uintPtr(8_000_000),
			},
			"movie_x265.mkv": {
				CodecName:       "hevc",
				Width:           1920,
				Height:          1080,
				DurationSeconds: 120.100,
				FrameCount:      uintPtr(995),
				BitrateBps:      uintPtr(3_000_000),
			},
		},
		hashes: map[string]string{
			"movie.mkv/audio":      "aud123",
			"movie_x265.mkv/audio": "aud123",
			"movie.mkv/video":      "vid456",
			"movie_x265.mkv/video": "vid456",
		},
		metrics:    &quality.Metrics{VMAF: 95.5},
		playbackOK: true,
	}
}

func newEngine(m *mockComponents, mode config.Mode) *Engine {
	cfg := config.NewConfig("/src", "/conv", "/logs")
	cfg.Mode = mode
	return NewEngine(m, m, m, m, func(string) (uint64, error) { return 1 << 30, nil }, cfg)
}

func TestVerifyPair_BasicModePasses(t *testing.T) {
	m := healthyPair()
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")

	if !v.Passed {
		t.Errorf("Passed = false, want true. Errors: %v", v.Errors)
	}
	if v.Status != StatusSuccess {
		t.Errorf("Status = %v, want Success", v.Status)
	}

	// Duration diff is 0.08%, inside the 0.5% tolerance.
	if c, ok := v.Check(CheckDuration); !ok || !c.Passed {
		t.Error("duration check missing or failed")
	}
	// Frame diff is 0.5%, inside the 1% tolerance, and non-gating anyway.
	if c, ok := v.Check(CheckFrames); !ok || !c.Passed {
		t.Error("frame check missing or failed")
	}
}

func TestVerifyPair_CodecMismatchFails(t *testing.T) {
	m := healthyPair()
	m.descriptors["movie_x265.mkv"].CodecName = "h264"
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")

	if v.Passed {
		t.Error("Passed = true, want false on codec mismatch")
	}
	if c, ok := v.Check(CheckCodec); !ok || c.Passed {
		t.Error("codec check missing or passed")
	}

	found := false
	for _, e := range v.Errors {
		if e == "Invalid codec: h264" {
			found = true
		}
	}
	if !found {
		t.Errorf("Errors = %v, want to contain %q", v.Errors, "Invalid codec: h264")
	}
}

func TestVerifyPair_CodecMatchIsCaseSensitive(t *testing.T) {
	m := healthyPair()
	m.descriptors["movie_x265.mkv"].CodecName = "HEVC"
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	if v.Passed {
		t.Error("Passed = true, want false: codec match must be case-sensitive")
	}
}

func TestVerifyPair_DurationToleranceBoundary(t *testing.T) {
	tests := []struct {
		name      string
		converted float64
		wantPass  bool
	}{
		{"exact match", 120.000, true},
		{"exactly 0.5 percent", 120.600, true},
		{"just over 0.5 percent", 120.601, false},
		{"under by exactly 0.5 percent", 119.400, true},
		{"under by more", 119.399, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := healthyPair()
			m.descriptors["movie_x265.mkv"].DurationSeconds = tt.converted
			e := newEngine(m, config.ModeBasic)

			v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
			c, ok := v.Check(CheckDuration)
			if !ok {
				t.Fatal("duration check not recorded")
			}
			if c.Passed != tt.wantPass {
				t.Errorf("duration check passed = %v, want %v", c.Passed, tt.wantPass)
			}
			if v.Passed != tt.wantPass {
				t.Errorf("Passed = %v, want %v", v.Passed, tt.wantPass)
			}
		})
	}
}

func TestVerifyPair_ZeroSourceDurationFails(t *testing.T) {
	m := healthyPair()
	m.descriptors["movie.mkv"].DurationSeconds = 0
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	if v.Passed {
		t.Error("Passed = true, want false for zero source duration")
	}
	if c, _ := v.Check(CheckDuration); c.Passed {
		t.Error("duration check passed despite zero source duration")
	}
}

func TestVerifyPair_FrameCheckOmittedWhenUnavailable(t *testing.T) {
	for _, side := range []string{"movie.mkv", "movie_x265.mkv"} {
		m := healthyPair()
		m.descriptors[side].FrameCount = nil
		e := newEngine(m, config.ModeBasic)

		v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
		if _, ok := v.Check(CheckFrames); ok {
			t.Errorf("frame check recorded despite missing count on %s", side)
		}
		if !v.Passed {
			t.Errorf("Passed = false, want true when frame check is omitted. Errors: %v", v.Errors)
		}
	}
}

func TestVerifyPair_FrameMismatchIsNonGating(t *testing.T) {
	m := healthyPair()
	m.descriptors["movie_x265.mkv"].FrameCount = uintPtr(900) // 10% off
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	c, ok := v.Check(CheckFrames)
	if !ok || c.Passed {
		t.Error("frame check missing or passed for 10% mismatch")
	}
	if !v.Passed {
		t.Errorf("Passed = false, want true: frame count does not gate. Errors: %v", v.Errors)
	}
}

func TestVerifyPair_BasicModeNeverInvokesHasherOrScorer(t *testing.T) {
	m := healthyPair()
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")

	if m.hashCalls != 0 {
		t.Errorf("hasher invoked %d times in Basic mode, want 0", m.hashCalls)
	}
	if m.scoreCalls != 0 {
		t.Errorf("scorer invoked %d times in Basic mode, want 0", m.scoreCalls)
	}
	if _, ok := v.Check(CheckAudioHash); ok {
		t.Error("audio hash recorded in Basic mode")
	}
	if _, ok := v.Check(CheckVideoHash); ok {
		t.Error("video hash recorded in Basic mode")
	}
	if _, ok := v.Check(CheckVMAF); ok {
		t.Error("VMAF recorded in Basic mode")
	}
}

func TestVerifyPair_FullModeAudioHashNonGating(t *testing.T) {
	// End-to-end scenario 4: the converted file's audio hash computation
	// fails, but audio hash does not gate the verdict.
	m := healthyPair()
	m.hashErr = map[string]error{
		"movie_x265.mkv/audio": errors.NewHashError("corrupt audio stream", nil),
	}
	e := newEngine(m, config.ModeFull)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")

	c, ok := v.Check(CheckAudioHash)
	if !ok || c.Passed {
		t.Error("audio hash check missing or passed despite hash failure")
	}
	if v.Status != StatusSuccess {
		t.Errorf("Status = %v, want Success: audio hash is non-gating", v.Status)
	}
	if !v.Passed {
		t.Errorf("Passed = false, want true. Errors: %v", v.Errors)
	}
}

func TestVerifyPair_HashNeverEqualWhenBothFail(t *testing.T) {
	m := healthyPair()
	m.hashErr = map[string]error{
		"movie.mkv/audio":      errors.NewNoSuchStreamError("movie.mkv", "audio"),
		"movie_x265.mkv/audio": errors.NewNoSuchStreamError("movie_x265.mkv", "audio"),
	}
	e := newEngine(m, config.ModeFull)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	c, ok := v.Check(CheckAudioHash)
	if !ok {
		t.Fatal("audio hash check not recorded")
	}
	if c.Passed {
		t.Error("audio hash passed when both digests were unavailable")
	}
}

func TestVerifyPair_DeepScanGatesOnVideoHash(t *testing.T) {
	m := healthyPair()
	m.hashes["movie_x265.mkv/video"] = "different"
	e := newEngine(m, config.ModeDeepScan)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	if v.Passed {
		t.Error("Passed = true, want false on video hash mismatch in DeepScan")
	}
	if v.Status != StatusFailed {
		t.Errorf("Status = %v, want Failed", v.Status)
	}
}

func TestVerifyPair_DeepScanVMAFBelowThreshold(t *testing.T) {
	// End-to-end scenario 3: VMAF 88 against threshold 90.
	m := healthyPair()
	m.metrics = &quality.Metrics{VMAF: 88}
	e := newEngine(m, config.ModeDeepScan)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")

	if v.Passed {
		t.Error("Passed = true, want false for VMAF below threshold")
	}
	c, ok := v.Check(CheckVMAF)
	if !ok || c.Passed {
		t.Error("VMAF check missing or passed")
	}
	if c.Score == nil || *c.Score != 88 {
		t.Errorf("VMAF score payload = %v, want 88", c.Score)
	}

	found := false
	for _, msg := range v.Errors {
		if strings.Contains(msg, "below threshold") {
			found = true
		}
	}
	if !found {
		t.Errorf("Errors = %v, want a below-threshold message", v.Errors)
	}
}

func TestVerifyPair_DeepScanBoundaryScorePasses(t *testing.T) {
	m := healthyPair()
	m.metrics = &quality.Metrics{VMAF: 90}
	e := newEngine(m, config.ModeDeepScan)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	if !v.Passed {
		t.Errorf("Passed = false, want true for VMAF exactly at threshold. Errors: %v", v.Errors)
	}
}

func TestVerifyPair_ScoreErrorIsDistinctFromLowScore(t *testing.T) {
	m := healthyPair()
	m.scoreErr = errors.NewScoreError("no VMAF score line in tool output", nil)
	e := newEngine(m, config.ModeDeepScan)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")

	if v.Passed {
		t.Error("Passed = true, want false when scoring fails")
	}
	c, ok := v.Check(CheckVMAF)
	if !ok {
		t.Fatal("VMAF check not recorded on scoring failure")
	}
	if c.Score != nil {
		t.Error("a fabricated score was recorded for a scoring failure")
	}
	if !strings.Contains(c.Detail, "VMAF computation failed") {
		t.Errorf("Detail = %q, want computation-failed message", c.Detail)
	}
}

func TestVerifyPair_PlaybackFailureGates(t *testing.T) {
	m := healthyPair()
	m.playbackOK = false
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	if v.Passed {
		t.Error("Passed = true, want false when playback probe fails")
	}
	if v.Status != StatusFailed {
		t.Errorf("Status = %v, want Failed", v.Status)
	}
}

func TestVerifyPair_SourceNotFound(t *testing.T) {
	m := healthyPair()
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "", "orphan_x265.mkv")

	if v.Status != StatusError {
		t.Errorf("Status = %v, want Error", v.Status)
	}
	if v.SourceFound {
		t.Error("SourceFound = true, want false")
	}
	if len(v.Errors) == 0 {
		t.Error("Errors empty, want a missing-source message")
	}
	if len(v.Checks) != 0 {
		t.Errorf("Checks = %v, want none before probing", v.Checks)
	}
}

func TestVerifyPair_ProbeFailureIsError(t *testing.T) {
	m := healthyPair()
	m.probeErr = map[string]error{
		"movie_x265.mkv": errors.NewProbeError("unparsable ffprobe output", nil),
	}
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	if v.Status != StatusError {
		t.Errorf("Status = %v, want Error", v.Status)
	}
	if v.Passed {
		t.Error("Passed = true, want false")
	}
}

func TestVerifyPair_PanicBecomesError(t *testing.T) {
	m := healthyPair()
	// A nil descriptor makes checkCodec dereference nil.
	m.descriptors["movie_x265.mkv"] = nil
	e := newEngine(m, config.ModeBasic)

	v := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	if v.Status != StatusError {
		t.Errorf("Status = %v, want Error after panic", v.Status)
	}
	if len(v.Errors) == 0 {
		t.Error("Errors empty, want the panic message recorded")
	}
}

func TestVerifyPair_Deterministic(t *testing.T) {
	m := healthyPair()
	e := newEngine(m, config.ModeDeepScan)

	first := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")
	second := e.VerifyPair(context.Background(), "movie.mkv", "movie_x265.mkv")

	// Elapsed is wall-clock time; everything else must be identical.
	first.Elapsed = 0
	second.Elapsed = 0
	if !reflect.DeepEqual(first, second) {
		t.Errorf("verdicts differ across identical runs:\n%+v\n%+v", first, second)
	}
}

func TestSummarize(t *testing.T) {
	verdicts := []Verdict{
		{Status: StatusSuccess},
		{Status: StatusSuccess},
		{Status: StatusFailed},
		{Status: StatusError},
	}

	s := Summarize(verdicts)
	if s.Total != 4 || s.Success != 2 || s.Failed != 1 || s.Errors != 1 {
		t.Errorf("Summarize() = %+v, want {4 2 1 1}", s)
	}
}
