package report

import "github.com/five82/hevcheck/internal/verify"

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) SystemInfo(summary SystemSummary) {
	for _, r := range c.reporters {
		r.SystemInfo(summary)
	}
}

func (c *CompositeReporter) BatchStarted(info BatchStartInfo) {
	for _, r := range c.reporters {
		r.BatchStarted(info)
	}
}

func (c *CompositeReporter) FileStarted(ctx FileContext) {
	for _, r := range c.reporters {
		r.FileStarted(ctx)
	}
}

func (c *CompositeReporter) VerificationComplete(verdict *verify.Verdict) {
	for _, r := range c.reporters {
		r.VerificationComplete(verdict)
	}
}

func (c *CompositeReporter) EncodingStarted(totalFrames uint64) {
	for _, r := range c.reporters {
		r.EncodingStarted(totalFrames)
	}
}

func (c *CompositeReporter) EncodingProgress(progress ProgressSnapshot) {
	for _, r := range c.reporters {
		r.EncodingProgress(progress)
	}
}

func (c *CompositeReporter) EncodingComplete(outcome EncodeOutcome) {
	for _, r := range c.reporters {
		r.EncodingComplete(outcome)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReportError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) BatchComplete(summary BatchSummary) {
	for _, r := range c.reporters {
		r.BatchComplete(summary)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
