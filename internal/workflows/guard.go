package workflows

import (
	"context"

	"github.com/PolarWolf314/confguard/internal/audit"
	"github.com/PolarWolf314/confguard/internal/guard"
	"github.com/PolarWolf314/confguard/internal/pathutil"
)

// GuardOptions configures the guard workflow.
type GuardOptions struct {
	Env

	// ProjectDir is the directory holding the entry file.
	ProjectDir string

	// Absolute writes an absolute link instead of a relative one.
	Absolute bool
}

// Guard relocates the project's .envrc into its sentinel and links it back.
//
// Returns ErrAlreadyGuardedConflict if the guard section belongs to another
// project, ErrMissingEntryFile if there is nothing to guard, and
// ErrCorruptGuardSection if the existing section cannot be trusted.
func Guard(ctx context.Context, opts GuardOptions) (*guard.GuardResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	engine, err := opts.engine()
	if err != nil {
		return nil, err
	}

	result, err := engine.Guard(opts.ProjectDir, opts.Absolute)
	if err != nil {
		return nil, err
	}

	opts.record("guard", func(e *audit.Entry) {
		e.Project = result.ProjectDir
		e.Sentinel = result.SentinelID
		e.Files = []string{result.Link}
	})
	return result, nil
}

// UnguardOptions configures the unguard workflow.
type UnguardOptions struct {
	Env
	ProjectDir string
}

// Unguard turns a guarded project back into a plain one. It is a no-op for
// a project that is not guarded.
func Unguard(ctx context.Context, opts UnguardOptions) (*guard.UnguardResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	engine, err := opts.engine()
	if err != nil {
		return nil, err
	}

	result, err := engine.Unguard(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	if result.Changed {
		opts.record("unguard", func(e *audit.Entry) {
			e.Project = result.ProjectDir
			e.Sentinel = result.SentinelID
			e.Files = result.Restored
		})
	}
	return result, nil
}

// GuardOneOptions configures the guard-one workflow.
type GuardOneOptions struct {
	Env
	ProjectDir string

	// File is the file inside ProjectDir to move into the sentinel.
	File string
}

// GuardOne moves a single file of a guarded project into its sentinel.
//
// Returns ErrPathEscape, without touching anything, if File is not inside
// ProjectDir. Returns ErrNotYetGuarded if the project has no sentinel yet.
func GuardOne(ctx context.Context, opts GuardOneOptions) (*guard.GuardOneResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	engine, err := opts.engine()
	if err != nil {
		return nil, err
	}

	result, err := engine.GuardOne(opts.ProjectDir, opts.File)
	if err != nil {
		return nil, err
	}

	if !result.AlreadyLinked {
		opts.record("guard-one", func(e *audit.Entry) {
			if project, err := pathutil.Canonicalize(opts.ProjectDir); err == nil {
				e.Project = project
			}
			e.Files = []string{result.Source}
		})
	}
	return result, nil
}

// RelinkOptions configures the relink workflow.
type RelinkOptions struct {
	Env

	// RelocatedFile is a dot.envrc inside a sentinel.
	RelocatedFile string
}

// Relink recreates the entry link of the project recorded in RelocatedFile.
func Relink(ctx context.Context, opts RelinkOptions) (*guard.RelinkResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	engine, err := opts.engine()
	if err != nil {
		return nil, err
	}

	result, err := engine.Relink(opts.RelocatedFile)
	if err != nil {
		return nil, err
	}

	opts.record("relink", func(e *audit.Entry) {
		e.Project = result.SourceDir
		e.Files = []string{result.Link}
	})
	return result, nil
}

// ReplaceLinkOptions configures the replace-link workflow.
type ReplaceLinkOptions struct {
	Env
	Link string
}

// ReplaceLinkResult contains the outcome of a replace-link operation.
type ReplaceLinkResult struct {
	Link string

	// Target is the path the link resolved to, now removed.
	Target string
}

// ReplaceLink replaces a link with the file or directory it points at.
//
// Returns ErrNotASymlink, without touching anything, if Link is not a link.
func ReplaceLink(ctx context.Context, opts ReplaceLinkOptions) (*ReplaceLinkResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	engine, err := opts.engine()
	if err != nil {
		return nil, err
	}

	target, err := engine.ReplaceLink(opts.Link)
	if err != nil {
		return nil, err
	}

	opts.record("replace-link", func(e *audit.Entry) {
		e.Files = []string{opts.Link, target}
	})
	return &ReplaceLinkResult{Link: opts.Link, Target: target}, nil
}
