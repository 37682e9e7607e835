// Package shared contains testing utilities shared between integration tests.
// This file provides common functions for setting up a home directory with a
// project, running the CLI in-process and reading back its state.
package shared

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/confguard/cmd"
	"gopkg.in/yaml.v3"
)

// Environment is a temporary home directory holding one project and the
// base directory used by the CLI.
type Environment struct {
	Home    string
	Project string
	BaseDir string
}

// SetupTestEnvironment creates the directories and points HOME at them.
func SetupTestEnvironment(t *testing.T) Environment {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}
	home := filepath.Join(root, "home")
	t.Setenv("HOME", home)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CONFGUARD_BASE_DIR", "")

	project := filepath.Join(home, "dev", "myproj")
	if err := os.MkdirAll(project, 0755); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	cmd.ResetGlobalState()
	t.Cleanup(cmd.ResetGlobalState)

	return Environment{
		Home:    home,
		Project: project,
		BaseDir: filepath.Join(home, ".local", "share", "confguard"),
	}
}

// Run executes the CLI with args plus --base-dir and returns everything it
// printed.
func (e Environment) Run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd.ResetGlobalState()

	var out bytes.Buffer
	cmd.RootCmd.SetOut(&out)
	cmd.RootCmd.SetErr(&out)
	cmd.RootCmd.SetArgs(append(args, "--base-dir", e.BaseDir))
	err := cmd.RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// MustRun is Run that fails the test on error.
func (e Environment) MustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.Run(t, args...)
	if err != nil {
		t.Fatalf("confguard %v failed: %v\n%s", args, err, out)
	}
	return out
}

// ShowState is the part of `show --yaml` the integration tests look at.
type ShowState struct {
	State       string `yaml:"state"`
	Entry       string `yaml:"entry"`
	Target      string `yaml:"target"`
	SentinelDir string `yaml:"sentinel_dir"`
	Section     *struct {
		Sentinel  string `yaml:"sentinel"`
		SourceDir string `yaml:"source_dir"`
	} `yaml:"section"`
}

// Show runs `show --yaml` for dir and decodes the result.
func (e Environment) Show(t *testing.T, dir string) ShowState {
	t.Helper()
	out := e.MustRun(t, "show", dir, "--yaml")
	var state ShowState
	if err := yaml.Unmarshal([]byte(out), &state); err != nil {
		t.Fatalf("show --yaml is not valid YAML: %v\n%s", err, out)
	}
	return state
}

// WriteTestFile is a helper to write test files with 0644 permissions.
// #nosec G306 -- Test files are temporary and don't contain sensitive data.
func WriteTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306
		t.Fatalf("Failed to create test file: %v", err)
	}
}

// IsSymlink reports whether path is a symbolic link.
func IsSymlink(t *testing.T, path string) bool {
	t.Helper()
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}
