// Package errors provides typed error values for confguard.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This makes
// error handling more robust and refactoring-safe.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Path errors: containment and link resolution (ErrPathEscape, ErrLinkTargetMismatch)
//   - Guard errors: project state issues (ErrAlreadyGuardedConflict, ErrNotYetGuarded)
//   - Metadata errors: guard section problems (ErrCorruptGuardSection)
//   - File errors: file system issues (ErrFileNotFound, ErrNotASymlink, ErrIOFailure)
//   - Encryption errors: external tool and batch outcomes (ErrSubprocessFailure, ErrPartialBatchFailure)
//
// # Typed Errors
//
// Some kinds carry data. IOError, SubprocessError and BatchError match their
// kind with errors.Is while still exposing the details through errors.As:
//
//	var ioErr *errors.IOError
//	if stderrors.As(err, &ioErr) {
//	    fmt.Println(ioErr.Path)
//	}
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("%w: %s is not inside %s", errors.ErrPathEscape, child, ancestor)
//
// Handle errors in the CLI layer:
//
//	result, err := workflows.Guard(ctx, opts)
//	if stderrors.Is(err, cgerrors.ErrAlreadyGuardedConflict) {
//	    // Show user-friendly message
//	}
package errors
