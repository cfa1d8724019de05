// Package report provides progress reporting and report emission.
package report

import "time"

// SystemSummary contains host information shown at startup.
type SystemSummary struct {
	Hostname string
	OS       string
	Arch     string
	NumCPU   int
}

// BatchStartInfo contains batch start metadata.
type BatchStartInfo struct {
	TotalFiles int
	FileList   []string
	Mode       string
}

// FileContext contains the current file index within a batch.
type FileContext struct {
	CurrentFile   int
	TotalFiles    int
	ConvertedFile string
	SourceFile    string
}

// ProgressSnapshot contains conversion progress information.
type ProgressSnapshot struct {
	CurrentFrame uint64
	TotalFrames  uint64
	Percent      float32
	Speed        float32
	FPS          float32
	ETA          time.Duration
	Bitrate      string
}

// EncodeOutcome contains final conversion results.
type EncodeOutcome struct {
	InputFile    string
	OutputFile   string
	OriginalSize uint64
	EncodedSize  uint64
	TotalTime    time.Duration
	OutputPath   string
}

// ReportError contains error information.
type ReportError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// FileOutcome contains a per-file batch result line.
type FileOutcome struct {
	Filename string
	Status   string
	VMAF     *float64
}

// BatchSummary contains batch completion information.
type BatchSummary struct {
	TotalFiles    int
	PassedCount   int
	FailedCount   int
	ErrorCount    int
	TotalDuration time.Duration
	FileResults   []FileOutcome
}
