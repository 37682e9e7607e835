package workflows

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/confguard/internal/configs"
	"github.com/PolarWolf314/confguard/internal/guard"
	"github.com/PolarWolf314/confguard/internal/sentinel"
)

// ShowOptions configures the show workflow.
type ShowOptions struct {
	Env
	ProjectDir string
}

// ShowResult contains the guard state of one project.
type ShowResult struct {
	Status *guard.Status

	// SentinelDir is set when the section names a sentinel that exists.
	SentinelDir string

	// Environments lists the environment files found in the sentinel.
	Environments []string
}

// Show inspects a project without changing anything. A Broken project is
// reported through Status.Reason, not as an error.
func Show(ctx context.Context, opts ShowOptions) (*ShowResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, err := guard.Inspect(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	result := &ShowResult{Status: st}
	if st.Section == nil {
		return result, nil
	}

	store, err := opts.store()
	if err != nil {
		return nil, err
	}
	dir := store.Path(st.Section.Sentinel)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return result, nil
	}
	result.SentinelDir = dir

	for _, name := range sentinel.Environments {
		path := filepath.Join(dir, sentinel.EnvironmentsDir, name+".env")
		if _, err := os.Stat(path); err == nil {
			result.Environments = append(result.Environments, path)
		}
	}
	return result, nil
}

// InfoOptions configures the info workflow.
type InfoOptions struct {
	Env
}

// InfoResult describes the installation: where things live, the pattern
// set and every sentinel in the store.
type InfoResult struct {
	Settings *configs.Settings

	// ConfigSize is -1 when the pattern set file does not exist.
	ConfigSize int64
	Patterns   *configs.PatternSet
	PatternErr error

	// BaseDirEnv is the value of CONFGUARD_BASE_DIR, empty when unset.
	BaseDirEnv string

	Sentinels []sentinel.Entry
}

// Info collects what the info command prints. Problems with the pattern
// set are reported in PatternErr rather than failing.
func Info(ctx context.Context, opts InfoOptions) (*InfoResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	settings, err := opts.settings()
	if err != nil {
		return nil, err
	}

	result := &InfoResult{
		Settings:   settings,
		ConfigSize: -1,
		BaseDirEnv: os.Getenv(configs.BaseDirEnv),
	}

	info, err := os.Stat(settings.ConfigFile)
	switch {
	case err == nil:
		result.ConfigSize = info.Size()
		result.Patterns, result.PatternErr = configs.LoadPatternSet(settings.ConfigFile)
	case !errors.Is(err, fs.ErrNotExist):
		result.PatternErr = err
	}

	result.Sentinels, err = sentinel.New(settings.BaseDir).List()
	if err != nil {
		return nil, err
	}
	return result, nil
}
