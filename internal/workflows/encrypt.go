package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/confguard/internal/audit"
	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/sops"
)

// BatchOptions configures the sops-enc, sops-dec and sops-clean workflows.
type BatchOptions struct {
	Env

	// Dir is the directory to scan. Empty scans the base directory, and
	// only then is the ignore file kept in sync.
	Dir string
}

// BatchResult contains the outcome of an encrypt or decrypt run.
type BatchResult struct {
	// Dir is the directory that was scanned.
	Dir string

	Outcomes []sops.FileOutcome
}

// Succeeded lists the input files that were processed.
func (r *BatchResult) Succeeded() []string {
	return (&sops.BatchResult{Outcomes: r.Outcomes}).Succeeded()
}

// Encrypt encrypts every file selected by the pattern set below Dir.
//
// Returns ErrConfigNotFound if sops-init was never run, and ErrNoFilesFound
// if nothing matched. When some files fail the result is returned together
// with a *BatchError matching ErrPartialBatchFailure, or ErrBatchFailed when
// none succeeded.
func Encrypt(ctx context.Context, opts BatchOptions) (*BatchResult, error) {
	return runBatch(ctx, opts, "sops-enc", sops.RoleEncrypt)
}

// Decrypt decrypts every file selected by the pattern set below Dir. Errors
// are reported as for Encrypt.
func Decrypt(ctx context.Context, opts BatchOptions) (*BatchResult, error) {
	return runBatch(ctx, opts, "sops-dec", sops.RoleDecrypt)
}

func runBatch(ctx context.Context, opts BatchOptions, op string, role sops.Role) (*BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := opts.scanDir()
	if err != nil {
		return nil, err
	}
	manager, err := opts.manager(opts.Dir == "" && role == sops.RoleEncrypt)
	if err != nil {
		return nil, err
	}

	files, err := manager.CollectFiles(dir, role)
	if err != nil {
		return nil, fmt.Errorf("collecting files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: nothing to %s in %s", cgerrors.ErrNoFilesFound, role, dir)
	}
	opts.Logger.Infof("Found %d files to %s in %s", len(files), role, dir)

	var batch *sops.BatchResult
	if role == sops.RoleEncrypt {
		batch, err = manager.EncryptBatch(ctx, files)
	} else {
		batch, err = manager.DecryptBatch(ctx, files)
	}

	succeeded := batch.Succeeded()
	opts.record(op, func(e *audit.Entry) {
		e.Files = succeeded
		e.Succeeded = len(succeeded)
		e.Failed = len(files) - len(succeeded)
	})
	return &BatchResult{Dir: dir, Outcomes: batch.Outcomes}, err
}

// scanDir returns the directory a batch scans.
func (o BatchOptions) scanDir() (string, error) {
	dir := o.Dir
	if dir == "" {
		settings, err := o.settings()
		if err != nil {
			return "", err
		}
		dir = settings.BaseDir
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: directory %s", cgerrors.ErrFileNotFound, dir)
	}
	return dir, nil
}

// CleanResult contains the outcome of a sops-clean run.
type CleanResult struct {
	Dir     string
	Removed []string

	// Skipped plaintext files have no usable encrypted copy and were kept.
	Skipped []string
}

// Clean removes plaintext files whose encrypted copy exists and is not
// empty. Failures are reported as for Encrypt.
func Clean(ctx context.Context, opts BatchOptions) (*CleanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := opts.scanDir()
	if err != nil {
		return nil, err
	}
	manager, err := opts.manager(false)
	if err != nil {
		return nil, err
	}

	clean, err := manager.CleanPlaintext(ctx, dir)
	if clean == nil {
		return nil, err
	}

	if len(clean.Removed) > 0 {
		opts.record("sops-clean", func(e *audit.Entry) {
			e.Files = clean.Removed
			e.Succeeded = len(clean.Removed)
			e.Failed = len(clean.Failures)
		})
	}
	return &CleanResult{Dir: dir, Removed: clean.Removed, Skipped: clean.Skipped}, err
}
