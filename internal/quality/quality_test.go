package quality

import (
	"context"
	"strings"
	"testing"

	"github.com/five82/hevcheck/internal/errors"
	"github.com/five82/hevcheck/internal/runner"
)

const fullOutput = `ffmpeg version 6.1 Copyright (c) 2000-2023
Input #0, matroska,webm, from 'movie_x265.mkv':
Input #1, matroska,webm, from 'movie.mkv':
[Parsed_psnr_1 @ 0x55] PSNR y:44.123456 u:48.1 v:47.9 average:45.338901 min:40.1 max:52.3
[Parsed_ssim_2 @ 0x55] SSIM Y:0.991 U:0.989 V:0.990 All:0.990512 (20.2)
[libvmaf @ 0x55] VMAF score: 94.532109
`

func TestParseMetrics_AllMetrics(t *testing.T) {
	m, err := ParseMetrics(fullOutput, Options{EnablePSNR: true, EnableSSIM: true})
	if err != nil {
		t.Fatalf("ParseMetrics() error = %v", err)
	}

	if m.VMAF != 94.532109 {
		t.Errorf("VMAF = %f, want 94.532109", m.VMAF)
	}
	if m.PSNR == nil || *m.PSNR != 45.338901 {
		t.Errorf("PSNR = %v, want 45.338901", m.PSNR)
	}
	if m.SSIM == nil || *m.SSIM != 0.990512 {
		t.Errorf("SSIM = %v, want 0.990512", m.SSIM)
	}
}

func TestParseMetrics_VMAFOnly(t *testing.T) {
	m, err := ParseMetrics("[libvmaf @ 0x55] VMAF score: 88.2\n", Options{})
	if err != nil {
		t.Fatalf("ParseMetrics() error = %v", err)
	}
	if m.VMAF != 88.2 {
		t.Errorf("VMAF = %f, want 88.2", m.VMAF)
	}
	if m.PSNR != nil || m.SSIM != nil {
		t.Error("companion metrics populated without being requested")
	}
}

func TestParseMetrics_LastScoreLineWins(t *testing.T) {
	output := "VMAF score: 10.0\nsome noise\nVMAF score: 93.7\n"
	m, err := ParseMetrics(output, Options{})
	if err != nil {
		t.Fatalf("ParseMetrics() error = %v", err)
	}
	if m.VMAF != 93.7 {
		t.Errorf("VMAF = %f, want final aggregate 93.7", m.VMAF)
	}
}

func TestParseMetrics_MissingScoreLines(t *testing.T) {
	tests := []struct {
		name   string
		output string
		opts   Options
	}{
		{"empty output", "", Options{}},
		{"no VMAF line", "frame=100 fps=25 speed=1x\n", Options{}},
		{"VMAF without number", "VMAF score: \n", Options{}},
		{"PSNR requested but absent", "VMAF score: 95.0\n", Options{EnablePSNR: true}},
		{"SSIM requested but absent", "VMAF score: 95.0\n", Options{EnableSSIM: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetrics(tt.output, tt.opts)
			if err == nil {
				t.Fatal("ParseMetrics() error = nil, want score error")
			}
			if !errors.IsKind(err, errors.KindScore) {
				t.Errorf("error kind = %v, want KindScore", err)
			}
		})
	}
}

type cannedRunner struct {
	out     runner.Output
	err     error
	gotArgs []string
}

func (c *cannedRunner) Run(ctx context.Context, name string, args ...string) (runner.Output, error) {
	c.gotArgs = args
	return c.out, c.err
}

func TestScore_ToolFailure(t *testing.T) {
	run := &cannedRunner{err: errors.NewCommandFailedError("ffmpeg", 1, "boom")}
	s := NewScorer(run)

	_, err := s.Score(context.Background(), "src.mkv", "dst.mkv", Options{})
	if err == nil {
		t.Fatal("Score() error = nil, want score error")
	}
	if !errors.IsKind(err, errors.KindScore) {
		t.Errorf("error kind = %v, want KindScore", err)
	}
}

func TestScore_InputOrderAndSegment(t *testing.T) {
	run := &cannedRunner{out: runner.Output{Stderr: "VMAF score: 91.0\n"}}
	s := NewScorer(run)

	m, err := s.Score(context.Background(), "src.mkv", "dst.mkv", Options{SegmentSeconds: 60})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if m.VMAF != 91.0 {
		t.Errorf("VMAF = %f, want 91.0", m.VMAF)
	}

	// Converted file must be the first (distorted) input.
	var inputs []string
	for i, a := range run.gotArgs {
		if a == "-i" && i+1 < len(run.gotArgs) {
			inputs = append(inputs, run.gotArgs[i+1])
		}
	}
	if len(inputs) != 2 || inputs[0] != "dst.mkv" || inputs[1] != "src.mkv" {
		t.Errorf("inputs = %v, want [dst.mkv src.mkv]", inputs)
	}

	joined := strings.Join(run.gotArgs, " ")
	if !strings.Contains(joined, "-t 60") {
		t.Errorf("args missing segment bound: %s", joined)
	}
}

func TestBuildFilterGraph(t *testing.T) {
	const vmaf = "libvmaf=log_path=/tmp/v.log"

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"vmaf only", Options{}, vmaf},
		{
			"with psnr",
			Options{EnablePSNR: true},
			"[0:v]split=2[d0][d1];[1:v]split=2[r0][r1];[d0][r0]" + vmaf + ";[d1][r1]psnr",
		},
		{
			"with ssim",
			Options{EnableSSIM: true},
			"[0:v]split=2[d0][d1];[1:v]split=2[r0][r1];[d0][r0]" + vmaf + ";[d1][r1]ssim",
		},
		{
			"with psnr and ssim",
			Options{EnablePSNR: true, EnableSSIM: true},
			"[0:v]split=3[d0][d1][d2];[1:v]split=3[r0][r1][r2];[d0][r0]" + vmaf + ";[d1][r1]psnr;[d2][r2]ssim",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildFilterGraph(vmaf, tt.opts); got != tt.want {
				t.Errorf("buildFilterGraph() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScore_CompanionMetricsSplitInputs(t *testing.T) {
	run := &cannedRunner{out: runner.Output{Stderr: fullOutput}}
	s := NewScorer(run)

	m, err := s.Score(context.Background(), "src.mkv", "dst.mkv", Options{EnablePSNR: true, EnableSSIM: true})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if m.PSNR == nil || m.SSIM == nil {
		t.Error("companion metrics missing from parsed output")
	}

	var graph string
	for i, a := range run.gotArgs {
		if a == "-lavfi" && i+1 < len(run.gotArgs) {
			graph = run.gotArgs[i+1]
		}
	}
	// Every chain needs its own pad pair; unlabeled companion chains would
	// have no streams left to bind after libvmaf consumed both inputs.
	if !strings.HasPrefix(graph, "[0:v]split=3[d0][d1][d2];[1:v]split=3[r0][r1][r2];[d0][r0]libvmaf=") {
		t.Errorf("filter graph does not split the inputs: %q", graph)
	}
	if !strings.HasSuffix(graph, ";[d1][r1]psnr;[d2][r2]ssim") {
		t.Errorf("filter graph does not label the companion chains: %q", graph)
	}
}
