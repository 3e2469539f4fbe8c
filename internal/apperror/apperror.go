package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the render pipeline. Callers check these with
// errors.Is to tell "your generated code failed" apart from "our
// infrastructure failed".
var (
	// ErrInvalidInput marks a request rejected before any workspace is
	// allocated (missing dataset, missing code fragment, oversized input).
	ErrInvalidInput = errors.New("invalid input")

	// ErrWorkspace marks a filesystem failure while allocating or writing
	// into a job workspace. Fatal to the request, never retried.
	ErrWorkspace = errors.New("workspace error")

	// ErrInterpreter marks a failure to spawn the interpreter process
	// (binary missing or not executable).
	ErrInterpreter = errors.New("interpreter unavailable")

	// ErrExecution marks a non-zero interpreter exit. The captured stderr
	// is attached so the caller can surface actionable detail.
	ErrExecution = errors.New("execution failed")

	// ErrTimeout marks an execution that exceeded the wall-clock limit and
	// had its process tree force-killed.
	ErrTimeout = errors.New("execution timed out")

	// ErrNotFound is returned by the job history store for unknown IDs.
	ErrNotFound = errors.New("not found")
)

// AppError wraps a sentinel with a human-readable message and optional
// diagnostic detail (e.g. the interpreter's stderr capture).
type AppError struct {
	Err     error  // sentinel identifying the failure kind
	Message string // human-readable error message
	Field   string // optional: input field causing the error
	Detail  string // optional: diagnostic text attached to the failure
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func InvalidInput(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

func WorkspaceFailed(op string, err error) *AppError {
	return &AppError{
		Err:     ErrWorkspace,
		Message: fmt.Sprintf("workspace %s failed: %v", op, err),
	}
}

func InterpreterUnavailable(bin string, err error) *AppError {
	return &AppError{
		Err:     ErrInterpreter,
		Message: fmt.Sprintf("interpreter %q unavailable: %v", bin, err),
	}
}

// ExecutionFailed reports a non-zero interpreter exit. stderr is carried in
// Detail so handlers can forward it without parsing the message.
func ExecutionFailed(exitCode int, stderr string) *AppError {
	return &AppError{
		Err:     ErrExecution,
		Message: fmt.Sprintf("interpreter exited with code %d", exitCode),
		Detail:  stderr,
	}
}

func TimedOut(limit string) *AppError {
	return &AppError{
		Err:     ErrTimeout,
		Message: fmt.Sprintf("execution exceeded the %s limit and was killed", limit),
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}
