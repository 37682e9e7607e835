// Package workflows provides high-level orchestration for confguard commands.
//
// Workflows coordinate multiple operations across packages (configs, guard,
// sops, audit) to implement complete user-facing features. Each workflow
// handles a single command's business logic, independent of CLI concerns
// like flag parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Resolves the settings into an Env
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Loading the pattern set
//   - Building the guard engine or the encryption orchestrator
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Guard, Unguard: move a project's .envrc into its sentinel and back
//   - GuardOne: move one more file of a guarded project into its sentinel
//   - Relink, ReplaceLink: repair or dissolve links
//   - Show, Info: report state without changing anything
//   - Init, SopsInit: create .envrc and confguard.toml from templates
//   - Encrypt, Decrypt, Clean: drive sops over the guarded store
//   - Log: read the audit trail
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching:
//
//	result, err := workflows.Encrypt(ctx, opts)
//	if errors.Is(err, cgerrors.ErrPartialBatchFailure) {
//	    // Report the failed files, keep the exit code at zero
//	}
//
// Batch workflows return their result together with the error when only
// some files failed.
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// Cancelling it stops a batch from starting further tool invocations.
package workflows
