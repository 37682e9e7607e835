package errors

import "errors"

// Path errors indicate a path failed validation or resolution.
var (
	// ErrPathEscape indicates a path is not contained in the directory it must live in.
	ErrPathEscape = errors.New("path escapes its parent directory")

	// ErrLinkTargetMismatch indicates a computed link target does not resolve back to the real target.
	ErrLinkTargetMismatch = errors.New("link target does not resolve to the expected file")
)

// Guard state errors indicate a project is not in a state the operation accepts.
var (
	// ErrAlreadyGuardedConflict indicates the guard section belongs to a different project.
	ErrAlreadyGuardedConflict = errors.New("guard section belongs to a different project")

	// ErrNotYetGuarded indicates the project has no guard section.
	ErrNotYetGuarded = errors.New("project is not guarded")

	// ErrMissingEntryFile indicates the project has no entry file to guard.
	ErrMissingEntryFile = errors.New("entry file not found")

	// ErrSentinelMissing indicates the sentinel directory referenced by a guard section is gone.
	ErrSentinelMissing = errors.New("sentinel directory not found")

	// ErrTargetExists indicates a different file already occupies the destination in the sentinel.
	ErrTargetExists = errors.New("destination already exists in sentinel")
)

// Metadata errors indicate the embedded guard section cannot be trusted.
var (
	// ErrCorruptGuardSection indicates the guard section is missing, malformed or unreadable.
	ErrCorruptGuardSection = errors.New("guard section is missing or corrupt")

	// ErrUnsupportedSectionVersion indicates the guard section was written by a newer format.
	ErrUnsupportedSectionVersion = errors.New("unsupported guard section version")
)

// File errors indicate issues with file discovery or access.
var (
	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrNotASymlink indicates the path is not a symbolic link.
	ErrNotASymlink = errors.New("not a symbolic link")

	// ErrIOFailure indicates a filesystem mutation failed.
	ErrIOFailure = errors.New("filesystem operation failed")

	// ErrAlreadyExists indicates a file that is only ever created already exists.
	ErrAlreadyExists = errors.New("file already exists")

	// ErrNoFilesFound indicates no files matched the configured patterns.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrConfigNotFound indicates the pattern configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)

// Encryption errors indicate failures while driving the external encryption tool.
var (
	// ErrSubprocessFailure indicates the encryption tool exited unsuccessfully.
	ErrSubprocessFailure = errors.New("encryption tool failed")

	// ErrMissingKey indicates no key is configured for the encryption tool.
	ErrMissingKey = errors.New("no gpg key configured")

	// ErrPartialBatchFailure indicates some, but not all, files of a batch failed.
	ErrPartialBatchFailure = errors.New("some files in the batch failed")

	// ErrBatchFailed indicates every file of a batch failed.
	ErrBatchFailed = errors.New("every file in the batch failed")
)

// Input errors indicate invalid user input.
var (
	// ErrInvalidDateFormat indicates a date filter is not in YYYY-MM-DD format.
	ErrInvalidDateFormat = errors.New("invalid date format")
)
