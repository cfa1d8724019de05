// Package verify implements per-file verification of HEVC conversions.
package verify

import "time"

// Status is the terminal state of one file's verification.
type Status string

const (
	// StatusSuccess means every gated check passed.
	StatusSuccess Status = "Success"
	// StatusFailed means verification completed but a gated check failed.
	StatusFailed Status = "Failed"
	// StatusError means verification could not complete for this file.
	StatusError Status = "Error"
)

// Check names, in the order the engine runs them.
const (
	CheckCodec     = "Video codec"
	CheckDuration  = "Duration"
	CheckFrames    = "Frame count"
	CheckAudioHash = "Audio hash"
	CheckVideoHash = "Video hash"
	CheckPlayback  = "Playback"
	CheckVMAF      = "VMAF score"
)

// CheckResult is one named check outcome within a Verdict.
type CheckResult struct {
	Name   string
	Passed bool
	// Score carries a numeric payload for checks that have one (VMAF).
	Score *float64
	// Detail is a human-readable explanation, set for failures and for
	// informative passes.
	Detail string
}

// Verdict is the aggregated verification outcome for one converted file.
// It is mutated only by the engine while the file is being processed and is
// final once the engine returns.
type Verdict struct {
	// ConvertedFile and SourceFile identify the pair.
	ConvertedFile string
	SourceFile    string
	SourceFound   bool

	// Checks in execution order.
	Checks []CheckResult

	// Passed is derived purely from the gated checks and the mode.
	Passed bool
	Status Status

	// Errors lists gated-check failures and processing errors.
	Errors []string

	Elapsed time.Duration

	// Descriptors and metrics retained for post-hoc analysis. Nil when the
	// corresponding step never ran or failed.
	SourceInfo    *FileInfo
	ConvertedInfo *FileInfo
	VMAF          *float64
	PSNR          *float64
	SSIM          *float64
}

// FileInfo is the analysis-relevant subset of a probe descriptor plus the
// on-disk size.
type FileInfo struct {
	Path            string
	SizeBytes       uint64
	DurationSeconds float64
	BitrateBps      *uint64
}

// addCheck appends a check result and returns whether it passed.
func (v *Verdict) addCheck(name string, passed bool, detail string) bool {
	v.Checks = append(v.Checks, CheckResult{Name: name, Passed: passed, Detail: detail})
	return passed
}

// addScoredCheck appends a check result carrying a numeric payload.
func (v *Verdict) addScoredCheck(name string, passed bool, score float64, detail string) bool {
	v.Checks = append(v.Checks, CheckResult{Name: name, Passed: passed, Score: &score, Detail: detail})
	return passed
}

// fail records a gated-check failure string.
func (v *Verdict) fail(message string) {
	v.Errors = append(v.Errors, message)
}

// Check returns the named check result and whether it was recorded.
func (v *Verdict) Check(name string) (CheckResult, bool) {
	for _, c := range v.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// Summary tallies verdict statuses across a run.
type Summary struct {
	Total   int
	Success int
	Failed  int
	Errors  int
}

// Summarize counts statuses over an ordered verdict list.
func Summarize(verdicts []Verdict) Summary {
	s := Summary{Total: len(verdicts)}
	for _, v := range verdicts {
		switch v.Status {
		case StatusSuccess:
			s.Success++
		case StatusFailed:
			s.Failed++
		default:
			s.Errors++
		}
	}
	return s
}
