package workflows

import (
	"errors"
	"time"

	"github.com/PolarWolf314/confguard/internal/audit"
	"github.com/PolarWolf314/confguard/internal/configs"
	"github.com/PolarWolf314/confguard/internal/guard"
	logger "github.com/PolarWolf314/confguard/internal/logging"
	"github.com/PolarWolf314/confguard/internal/sentinel"
	"github.com/PolarWolf314/confguard/internal/sops"
)

// Env carries what every workflow shares. The CLI resolves it once per
// invocation; workflows never read global state. Settings is required.
type Env struct {
	Settings *configs.Settings
	Logger   logger.Logger

	// Runner replaces the sops executable. Nil runs the real one.
	Runner sops.Runner

	// Now defaults to time.Now.
	Now func() time.Time
}

// ErrNoSettings is returned by every workflow run with an Env whose
// Settings were never resolved.
var ErrNoSettings = errors.New("workflow environment has no settings")

func (e Env) settings() (*configs.Settings, error) {
	if e.Settings == nil {
		return nil, ErrNoSettings
	}
	return e.Settings, nil
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) engine() (*guard.Engine, error) {
	settings, err := e.settings()
	if err != nil {
		return nil, err
	}
	return guard.New(guard.Options{
		Store:  sentinel.New(settings.BaseDir),
		Logger: e.Logger,
		Now:    e.Now,
	}), nil
}

func (e Env) store() (*sentinel.Store, error) {
	settings, err := e.settings()
	if err != nil {
		return nil, err
	}
	return sentinel.New(settings.BaseDir), nil
}

func (e Env) auditLog() *audit.Log {
	settings, err := e.settings()
	if err != nil {
		return nil
	}
	log := audit.New(settings.AuditFile)
	log.Now = e.Now
	return log
}

// record appends entry to the audit log, warning instead of failing.
func (e Env) record(op string, fill func(*audit.Entry)) {
	log := e.auditLog()
	if log == nil {
		return
	}
	entry := log.NewEntry(op)
	if fill != nil {
		fill(&entry)
	}
	if err := log.Record(entry); err != nil {
		e.Logger.Warnf("Could not write audit log %s: %v", log.Path, err)
	}
}

// manager loads the pattern set and builds an orchestrator. The ignore
// file is only kept in sync when the default directory is scanned.
func (e Env) manager(syncIgnore bool) (*sops.Manager, error) {
	settings, err := e.settings()
	if err != nil {
		return nil, err
	}
	patterns, err := configs.LoadPatternSet(settings.ConfigFile)
	if err != nil {
		return nil, err
	}

	var ignore *sops.Gitignore
	if syncIgnore {
		ignore = sops.NewGitignore(settings.IgnoreFile)
		if e.Now != nil {
			ignore.Now = e.Now
		}
	}

	return sops.NewManager(sops.ManagerOptions{
		Patterns: *patterns,
		Runner:   e.Runner,
		Ignore:   ignore,
		Logger:   e.Logger,
	}), nil
}
