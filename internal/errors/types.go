package errors

import (
	"fmt"
	"strings"
)

// IOError records a failed filesystem mutation together with the path it
// was applied to.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// IO wraps err as an IOError, or returns nil when err is nil.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is reports ErrIOFailure as matching so callers can test the kind.
func (e *IOError) Is(target error) bool { return target == ErrIOFailure }

// SubprocessError carries the diagnostic output of a failed tool invocation.
type SubprocessError struct {
	Path     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SubprocessError) Error() string {
	msg := fmt.Sprintf("%s: %s (exit code %d)", ErrSubprocessFailure, e.Path, e.ExitCode)
	if diag := strings.TrimSpace(e.Stderr); diag != "" {
		msg += ": " + diag
	}
	return msg
}

func (e *SubprocessError) Unwrap() error { return e.Err }

func (e *SubprocessError) Is(target error) bool { return target == ErrSubprocessFailure }

// FileFailure is the reason a single file of a batch failed.
type FileFailure struct {
	Path string
	Err  error
}

// BatchError summarizes a batch in which at least one file failed.
type BatchError struct {
	Succeeded int
	Failed    int
	Failures  []FileFailure
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed", e.Succeeded, e.Failed)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Path, f.Err)
	}
	return b.String()
}

// Unwrap exposes the batch kind: ErrBatchFailed when nothing succeeded,
// ErrPartialBatchFailure otherwise.
func (e *BatchError) Unwrap() error {
	if e.Succeeded == 0 {
		return ErrBatchFailed
	}
	return ErrPartialBatchFailure
}
