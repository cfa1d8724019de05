package report

import "github.com/five82/hevcheck/internal/verify"

// Reporter defines the interface for progress reporting.
type Reporter interface {
	SystemInfo(summary SystemSummary)
	BatchStarted(info BatchStartInfo)
	FileStarted(ctx FileContext)
	VerificationComplete(verdict *verify.Verdict)
	EncodingStarted(totalFrames uint64)
	EncodingProgress(progress ProgressSnapshot)
	EncodingComplete(outcome EncodeOutcome)
	Warning(message string)
	Error(err ReportError)
	BatchComplete(summary BatchSummary)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) SystemInfo(SystemSummary)              {}
func (NullReporter) BatchStarted(BatchStartInfo)           {}
func (NullReporter) FileStarted(FileContext)               {}
func (NullReporter) VerificationComplete(*verify.Verdict)  {}
func (NullReporter) EncodingStarted(uint64)                {}
func (NullReporter) EncodingProgress(ProgressSnapshot)     {}
func (NullReporter) EncodingComplete(EncodeOutcome)        {}
func (NullReporter) Warning(string)                        {}
func (NullReporter) Error(ReportError)                     {}
func (NullReporter) BatchComplete(BatchSummary)            {}
func (NullReporter) Verbose(string)                        {}
