package workflows

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/confguard/internal/audit"
	"github.com/PolarWolf314/confguard/internal/configs"
	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/sentinel"
	"github.com/PolarWolf314/confguard/internal/sops"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	Env
	ProjectDir string

	// Template is copied instead of the built-in .envrc when set.
	Template string
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	// Path is the .envrc that was created.
	Path string

	// Template is empty when the built-in template was used.
	Template string
}

// Init creates a project's .envrc from a template.
//
// Returns ErrAlreadyExists if the project already has one, whether a file
// or a link.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(opts.ProjectDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: project directory %s", cgerrors.ErrFileNotFound, opts.ProjectDir)
	}

	content := configs.DefaultEnvrcTemplate
	if opts.Template != "" {
		content, err = os.ReadFile(opts.Template)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: template %s", cgerrors.ErrFileNotFound, opts.Template)
			}
			return nil, cgerrors.IO("read", opts.Template, err)
		}
	}

	path := filepath.Join(opts.ProjectDir, sentinel.EntryFile)
	// #nosec G306 -- .envrc is read by direnv as the user.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", cgerrors.ErrAlreadyExists, path)
		}
		return nil, cgerrors.IO("create", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return nil, cgerrors.IO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, cgerrors.IO("close", path, err)
	}

	opts.Logger.Debugf("Created %s", path)
	return &InitResult{Path: path, Template: opts.Template}, nil
}

// SopsInitOptions configures the sops-init workflow.
type SopsInitOptions struct {
	Env

	// Template is copied instead of the built-in confguard.toml when set.
	Template string

	// ResetIgnore drops the managed block from the ignore file. The next
	// encryption run writes it again from the current pattern set.
	ResetIgnore bool
}

// SopsInitResult contains the outcome of a sops-init operation.
type SopsInitResult struct {
	ConfigFile string

	// Created is false when ConfigFile already existed.
	Created bool

	// IgnoreReset is set when a managed block was removed.
	IgnoreReset bool
}

// SopsInit writes the pattern set file into the base directory.
//
// Returns ErrAlreadyExists if the file is already there, unless
// ResetIgnore was asked for, in which case only the ignore block is
// dropped.
func SopsInit(ctx context.Context, opts SopsInitOptions) (*SopsInitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	settings, err := opts.settings()
	if err != nil {
		return nil, err
	}

	var template []byte
	if opts.Template != "" {
		template, err = os.ReadFile(opts.Template)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: template %s", cgerrors.ErrFileNotFound, opts.Template)
			}
			return nil, cgerrors.IO("read", opts.Template, err)
		}
	}

	result := &SopsInitResult{ConfigFile: settings.ConfigFile}
	result.Created, err = configs.WritePatternTemplate(settings.ConfigFile, template)
	if err != nil {
		return nil, err
	}

	if opts.ResetIgnore {
		result.IgnoreReset, err = sops.NewGitignore(settings.IgnoreFile).Remove()
		if err != nil {
			return nil, err
		}
	} else if !result.Created {
		return nil, fmt.Errorf("%w: %s", cgerrors.ErrAlreadyExists, settings.ConfigFile)
	}

	opts.record("sops-init", func(e *audit.Entry) {
		e.Files = []string{settings.ConfigFile}
	})
	return result, nil
}
