package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// BaseDirEnv overrides the default base directory.
	BaseDirEnv = "CONFGUARD_BASE_DIR"

	ConfigFileName = "confguard.toml"
	AuditFileName  = "audit.jsonl"
	IgnoreFileName = ".gitignore"
	GuardedDirName = "guarded"
)

// Settings holds the resolved locations confguard works with.
type Settings struct {
	BaseDir    string
	GuardedDir string
	ConfigFile string
	AuditFile  string
	IgnoreFile string
}

// NewSettings derives every location from baseDir.
func NewSettings(baseDir string) *Settings {
	return &Settings{
		BaseDir:    baseDir,
		GuardedDir: filepath.Join(baseDir, GuardedDirName),
		ConfigFile: filepath.Join(baseDir, ConfigFileName),
		AuditFile:  filepath.Join(baseDir, AuditFileName),
		IgnoreFile: filepath.Join(baseDir, IgnoreFileName),
	}
}

// LoadSettings resolves the base directory. A non-empty override wins over
// the environment.
func LoadSettings(override string) (*Settings, error) {
	baseDir, err := ResolveBaseDir(override)
	if err != nil {
		return nil, err
	}
	return NewSettings(baseDir), nil
}

// ResolveBaseDir returns the absolute base directory.
func ResolveBaseDir(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = os.Getenv(BaseDirEnv)
	}
	if dir == "" {
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("error getting home directory: %w", err)
			}
			dataDir = filepath.Join(homeDir, ".local", "share")
		}
		dir = filepath.Join(dataDir, "confguard")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory %s: %w", dir, err)
	}
	return abs, nil
}
