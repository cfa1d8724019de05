package processing

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/five82/hevcheck/internal/config"
	"github.com/five82/hevcheck/internal/discovery"
	"github.com/five82/hevcheck/internal/report"
	"github.com/five82/hevcheck/internal/verify"
)

type stubVerifier struct {
	verdicts map[string]*verify.Verdict
	calls    []string
}

func (s *stubVerifier) VerifyPair(_ context.Context, sourcePath, convertedPath string) *verify.Verdict {
	s.calls = append(s.calls, convertedPath)
	if v, ok := s.verdicts[convertedPath]; ok {
		return v
	}
	return &verify.Verdict{
		ConvertedFile: convertedPath,
		SourceFile:    sourcePath,
		Status:        verify.StatusSuccess,
		Passed:        true,
	}
}

type recordingReporter struct {
	report.NullReporter
	started   []report.FileContext
	completed []*verify.Verdict
	summary   *report.BatchSummary
}

func (r *recordingReporter) FileStarted(ctx report.FileContext) {
	r.started = append(r.started, ctx)
}

func (r *recordingReporter) VerificationComplete(v *verify.Verdict) {
	r.completed = append(r.completed, v)
}

func (r *recordingReporter) BatchComplete(s report.BatchSummary) {
	r.summary = &s
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewConfig(filepath.Join(dir, "src"), filepath.Join(dir, "out"), filepath.Join(dir, "log"))
	cfg.ReportDir = filepath.Join(dir, "reports")
	return cfg
}

func TestProcessVerificationOrderAndSummary(t *testing.T) {
	cfg := testConfig(t)
	verifier := &stubVerifier{
		verdicts: map[string]*verify.Verdict{
			"/out/b_x265.mkv": {
				ConvertedFile: "/out/b_x265.mkv",
				Status:        verify.StatusFailed,
				Errors:        []string{"Invalid codec: h264"},
			},
		},
	}
	rep := &recordingReporter{}

	pairs := []discovery.Pair{
		{ConvertedPath: "/out/a_x265.mkv", SourcePath: "/src/a.mkv"},
		{ConvertedPath: "/out/b_x265.mkv", SourcePath: "/src/b.mkv"},
	}

	verdicts, err := ProcessVerification(context.Background(), cfg, verifier, pairs, rep)
	if err != nil {
		t.Fatalf("ProcessVerification() error = %v", err)
	}

	if len(verdicts) != 2 {
		t.Fatalf("verdicts = %d, want 2", len(verdicts))
	}
	// Verdict order matches discovery order.
	if verdicts[0].ConvertedFile != "/out/a_x265.mkv" || verdicts[1].ConvertedFile != "/out/b_x265.mkv" {
		t.Errorf("verdict order = %v", []string{verdicts[0].ConvertedFile, verdicts[1].ConvertedFile})
	}
	if len(verifier.calls) != 2 {
		t.Errorf("verifier calls = %d, want 2", len(verifier.calls))
	}

	if rep.summary == nil {
		t.Fatal("BatchComplete not emitted")
	}
	if rep.summary.PassedCount != 1 || rep.summary.FailedCount != 1 || rep.summary.ErrorCount != 0 {
		t.Errorf("summary = %+v", rep.summary)
	}
	if len(rep.completed) != 2 {
		t.Errorf("VerificationComplete events = %d, want 2", len(rep.completed))
	}
}

func TestProcessVerificationCancelled(t *testing.T) {
	cfg := testConfig(t)
	verifier := &stubVerifier{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	verdicts, err := ProcessVerification(ctx, cfg, verifier, []discovery.Pair{
		{ConvertedPath: "/out/a_x265.mkv"},
	}, nil)
	if err != nil {
		t.Fatalf("ProcessVerification() error = %v", err)
	}
	if len(verdicts) != 0 {
		t.Errorf("verdicts = %d, want 0 after cancellation", len(verdicts))
	}
	if len(verifier.calls) != 0 {
		t.Errorf("verifier invoked after cancellation: %v", verifier.calls)
	}
}

func TestProcessVerificationWritesReports(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenerateReport = true

	_, err := ProcessVerification(context.Background(), cfg, &stubVerifier{}, []discovery.Pair{
		{ConvertedPath: "/out/a_x265.mkv", SourcePath: "/src/a.mkv"},
	}, nil)
	if err != nil {
		t.Fatalf("ProcessVerification() error = %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(cfg.ReportDir, "verification_*.csv"))
	if err != nil || len(matches) != 1 {
		t.Errorf("verification CSV = %v (err %v), want exactly one", matches, err)
	}
}

func TestPreflightMissingTool(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	lookPath = func(name string) (string, error) {
		if name == "ffprobe" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}

	cfg := testConfig(t)
	err := Preflight(cfg)
	if err == nil {
		t.Fatal("Preflight() = nil, want error for missing ffprobe")
	}
}

func TestPreflightMissingVMAFModel(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(string) (string, error) { return "/usr/bin/tool", nil }

	cfg := testConfig(t)
	cfg.Mode = config.ModeDeepScan
	cfg.VMAFModelPath = "/nonexistent/model.json"

	if err := Preflight(cfg); err == nil {
		t.Fatal("Preflight() = nil, want error for missing VMAF model")
	}

	cfg.VMAFModelPath = ""
	if err := Preflight(cfg); err != nil {
		t.Errorf("Preflight() with built-in model = %v, want nil", err)
	}
}
