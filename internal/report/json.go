package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/five82/hevcheck/internal/verify"
)

// JSONReporter outputs NDJSON events, one object per line.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return NewJSONReporterWithWriter(os.Stdout)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) SystemInfo(summary SystemSummary) {
	r.write(map[string]interface{}{
		"type":      "system_info",
		"hostname":  summary.Hostname,
		"os":        summary.OS,
		"arch":      summary.Arch,
		"num_cpu":   summary.NumCPU,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) BatchStarted(info BatchStartInfo) {
	r.write(map[string]interface{}{
		"type":        "batch_started",
		"total_files": info.TotalFiles,
		"file_list":   info.FileList,
		"mode":        info.Mode,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) FileStarted(ctx FileContext) {
	r.write(map[string]interface{}{
		"type":           "file_started",
		"current_file":   ctx.CurrentFile,
		"total_files":    ctx.TotalFiles,
		"converted_file": ctx.ConvertedFile,
		"source_file":    ctx.SourceFile,
		"timestamp":      r.timestamp(),
	})
}

func (r *JSONReporter) VerificationComplete(verdict *verify.Verdict) {
	checks := make([]map[string]interface{}, len(verdict.Checks))
	for i, check := range verdict.Checks {
		entry := map[string]interface{}{
			"check":   check.Name,
			"passed":  check.Passed,
			"details": check.Detail,
		}
		if check.Score != nil {
			entry["score"] = *check.Score
		}
		checks[i] = entry
	}

	event := map[string]interface{}{
		"type":            "verification_complete",
		"converted_file":  verdict.ConvertedFile,
		"source_file":     verdict.SourceFile,
		"status":          string(verdict.Status),
		"passed":          verdict.Passed,
		"checks":          checks,
		"errors":          verdict.Errors,
		"elapsed_seconds": verdict.Elapsed.Seconds(),
		"timestamp":       r.timestamp(),
	}
	if verdict.VMAF != nil {
		event["vmaf"] = *verdict.VMAF
	}
	if verdict.PSNR != nil {
		event["psnr"] = *verdict.PSNR
	}
	if verdict.SSIM != nil {
		event["ssim"] = *verdict.SSIM
	}
	r.write(event)
}

func (r *JSONReporter) EncodingStarted(totalFrames uint64) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":         "encoding_started",
		"total_frames": totalFrames,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) EncodingProgress(progress ProgressSnapshot) {
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent)
	now := time.Now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed || progress.Percent >= 99.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":          "encoding_progress",
		"current_frame": progress.CurrentFrame,
		"total_frames":  progress.TotalFrames,
		"percent":       progress.Percent,
		"speed":         progress.Speed,
		"fps":           progress.FPS,
		"eta_seconds":   int64(progress.ETA.Seconds()),
		"bitrate":       progress.Bitrate,
		"timestamp":     r.timestamp(),
	})
}

func (r *JSONReporter) EncodingComplete(outcome EncodeOutcome) {
	var reduction float64
	if outcome.OriginalSize > 0 {
		reduction = (float64(outcome.OriginalSize) - float64(outcome.EncodedSize)) / float64(outcome.OriginalSize) * 100
	}

	r.write(map[string]interface{}{
		"type":                   "encoding_complete",
		"input_file":             outcome.InputFile,
		"output_file":            outcome.OutputFile,
		"original_size":          outcome.OriginalSize,
		"encoded_size":           outcome.EncodedSize,
		"output_path":            outcome.OutputPath,
		"duration_seconds":       int64(outcome.TotalTime.Seconds()),
		"size_reduction_percent": reduction,
		"timestamp":              r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReportError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) BatchComplete(summary BatchSummary) {
	results := make([]map[string]interface{}, len(summary.FileResults))
	for i, result := range summary.FileResults {
		entry := map[string]interface{}{
			"filename": result.Filename,
			"status":   result.Status,
		}
		if result.VMAF != nil {
			entry["vmaf"] = *result.VMAF
		}
		results[i] = entry
	}

	r.write(map[string]interface{}{
		"type":                   "batch_complete",
		"total_files":            summary.TotalFiles,
		"passed_count":           summary.PassedCount,
		"failed_count":           summary.FailedCount,
		"error_count":            summary.ErrorCount,
		"total_duration_seconds": int64(summary.TotalDuration.Seconds()),
		"file_results":           results,
		"timestamp":              r.timestamp(),
	})
}

func (r *JSONReporter) Verbose(message string) {
	r.write(map[string]interface{}{
		"type":      "verbose",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}
