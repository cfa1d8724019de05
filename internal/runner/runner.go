// Package runner provides a narrow interface for invoking external media tools.
//
// Every component that shells out to ffmpeg or ffprobe does so through the
// Runner interface, so the verification pipeline can be exercised in tests
// with canned tool output instead of real binaries.
package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"time"

	"github.com/five82/hevcheck/internal/errors"
)

// Output holds the captured result of a tool invocation.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes an external tool and captures its output.
type Runner interface {
	// Run invokes name with args and blocks until it exits.
	// A non-zero exit returns both the captured Output and a command error.
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecRunner runs tools via os/exec with an optional per-invocation timeout.
type ExecRunner struct {
	// Timeout bounds each invocation. Zero means no timeout.
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner with the given per-invocation timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes the tool, capturing stdout and stderr separately.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			out.ExitCode = exitErr.ExitCode()
		}
		return out, classifyRunError(name, ctx.Err(), err, out)
	}

	return out, nil
}

// classifyRunError maps a failed invocation to an error kind. A deadline is
// the per-invocation timeout expiring, which is a tool failure, not a user
// cancellation.
func classifyRunError(name string, ctxErr, runErr error, out Output) *errors.CoreError {
	if stderrors.Is(ctxErr, context.DeadlineExceeded) {
		return errors.NewOperationFailedError(name+" timed out", ctxErr)
	}
	if ctxErr != nil {
		return errors.NewCancelledError()
	}
	if _, ok := runErr.(*exec.ExitError); ok {
		return errors.NewCommandFailedError(name, out.ExitCode, lastStderrLine(out.Stderr))
	}
	return errors.NewCommandStartError(name, runErr)
}

// lastStderrLine returns the final non-empty stderr line, which for ffmpeg
// tools is usually the actual failure reason.
func lastStderrLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
