// Package errors provides structured error types for hevcheck operations.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindIO represents I/O errors.
	KindIO ErrorKind = iota
	// KindPath represents path-related errors.
	KindPath
	// KindCommand represents external command execution errors.
	KindCommand
	// KindProbe represents structural probe failures (tool exit or unparsable output).
	KindProbe
	// KindJSONParse represents JSON parsing errors.
	KindJSONParse
	// KindHash represents stream hash computation failures.
	KindHash
	// KindNoSuchStream represents a requested stream type missing from the file.
	KindNoSuchStream
	// KindScore represents quality scoring failures.
	KindScore
	// KindSourceNotFound represents a converted file with no matching source.
	KindSourceNotFound
	// KindPrecondition represents environment-setup failures fatal at run start.
	KindPrecondition
	// KindConfig represents configuration validation errors.
	KindConfig
	// KindNoFilesFound represents no suitable video files found.
	KindNoFilesFound
	// KindOperationFailed represents general operation failures.
	KindOperationFailed
	// KindCancelled represents user-cancelled operations.
	KindCancelled
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "I/O error"
	case KindPath:
		return "Path error"
	case KindCommand:
		return "Command error"
	case KindProbe:
		return "Probe error"
	case KindJSONParse:
		return "JSON parse error"
	case KindHash:
		return "Hash error"
	case KindNoSuchStream:
		return "No such stream"
	case KindScore:
		return "Score error"
	case KindSourceNotFound:
		return "Source not found"
	case KindPrecondition:
		return "Precondition error"
	case KindConfig:
		return "Configuration error"
	case KindNoFilesFound:
		return "No files found"
	case KindOperationFailed:
		return "Operation failed"
	case KindCancelled:
		return "Operation cancelled"
	default:
		return "Unknown error"
	}
}

// CommandErrorKind represents the type of command error.
type CommandErrorKind int

const (
	// CommandStart means the command failed to start.
	CommandStart CommandErrorKind = iota
	// CommandWait means waiting for the command failed.
	CommandWait
	// CommandFailed means the command returned non-zero exit status.
	CommandFailed
)

// CommandError represents an error from executing an external command.
type CommandError struct {
	Command    string
	Kind       CommandErrorKind
	ExitCode   int
	Stderr     string
	Underlying error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case CommandStart:
		return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Underlying)
	case CommandWait:
		return fmt.Sprintf("failed to wait for %s: %v", e.Command, e.Underlying)
	case CommandFailed:
		if e.Stderr != "" {
			return fmt.Sprintf("command %s failed with exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("command %s failed with exit code %d", e.Command, e.ExitCode)
	default:
		return fmt.Sprintf("command %s error: %v", e.Command, e.Underlying)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Underlying
}

// CoreError is the main error type for hevcheck operations.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewIOError creates a new I/O error.
func NewIOError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindIO, Message: message, Underlying: underlying}
}

// NewPathError creates a new path-related error.
func NewPathError(message string) *CoreError {
	return &CoreError{Kind: KindPath, Message: message}
}

// NewCommandError creates a new command execution error.
func NewCommandError(cmd string, kind CommandErrorKind, underlying error) *CoreError {
	cmdErr := &CommandError{
		Command:    cmd,
		Kind:       kind,
		Underlying: underlying,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewCommandStartError creates an error for when a command fails to start.
func NewCommandStartError(cmd string, err error) *CoreError {
	return NewCommandError(cmd, CommandStart, err)
}

// NewCommandFailedError creates an error for when a command returns non-zero exit status.
func NewCommandFailedError(cmd string, exitCode int, stderr string) *CoreError {
	cmdErr := &CommandError{
		Command:  cmd,
		Kind:     CommandFailed,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewProbeError creates a new structural probe error.
func NewProbeError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindProbe, Message: message, Underlying: underlying}
}

// NewJSONParseError creates a new JSON parsing error.
func NewJSONParseError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindJSONParse, Message: message, Underlying: underlying}
}

// NewHashError creates a new stream hash error.
func NewHashError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindHash, Message: message, Underlying: underlying}
}

// NewNoSuchStreamError creates an error for a missing stream type.
func NewNoSuchStreamError(path, streamType string) *CoreError {
	return &CoreError{Kind: KindNoSuchStream, Message: fmt.Sprintf("no %s stream in %s", streamType, path)}
}

// NewScoreError creates a new quality scoring error.
func NewScoreError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindScore, Message: message, Underlying: underlying}
}

// NewSourceNotFoundError creates an error for a converted file without a source.
func NewSourceNotFoundError(converted string) *CoreError {
	return &CoreError{Kind: KindSourceNotFound, Message: fmt.Sprintf("no matching source file for %s", converted)}
}

// NewPreconditionError creates an error for a missing environment prerequisite.
func NewPreconditionError(message string) *CoreError {
	return &CoreError{Kind: KindPrecondition, Message: message}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *CoreError {
	return &CoreError{Kind: KindConfig, Message: message}
}

// NewNoFilesFoundError creates an error for when no video files are found.
func NewNoFilesFoundError(dir string) *CoreError {
	return &CoreError{Kind: KindNoFilesFound, Message: fmt.Sprintf("no converted video files found in %s", dir)}
}

// NewOperationFailedError creates a new general operation failure error.
func NewOperationFailedError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindOperationFailed, Message: message, Underlying: underlying}
}

// NewCancelledError creates an error for user-cancelled operations.
func NewCancelledError() *CoreError {
	return &CoreError{Kind: KindCancelled, Message: "operation was cancelled by the user"}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// IsCancelled checks if the error is a cancellation error.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// IsNoSuchStream checks if the error indicates a missing stream type.
func IsNoSuchStream(err error) bool {
	return IsKind(err, KindNoSuchStream)
}

// IsSourceNotFound checks if the error is a missing-source error.
func IsSourceNotFound(err error) bool {
	return IsKind(err, KindSourceNotFound)
}

// IsPrecondition checks if the error is a fatal environment precondition failure.
func IsPrecondition(err error) bool {
	return IsKind(err, KindPrecondition)
}

// WrapExecError classifies the error from waiting on a started command:
// a non-zero exit becomes CommandFailed, anything else CommandWait.
func WrapExecError(cmd string, err error, stderr string) *CoreError {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return NewCommandFailedError(cmd, exitErr.ExitCode(), stderr)
	}
	return NewCommandError(cmd, CommandWait, err)
}
