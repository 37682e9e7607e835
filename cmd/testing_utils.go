// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up test environments,
// running the CLI in-process and capturing its output.
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

// testEnvironment is a home directory with one project and a base
// directory below it.
type testEnvironment struct {
	home    string
	project string
	baseDir string
}

// setupTestEnvironment creates the directories, points HOME at them and
// disables colors so output can be matched.
func setupTestEnvironment(t *testing.T) testEnvironment {
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

	ResetGlobalState()
	t.Cleanup(ResetGlobalState)

	return testEnvironment{
		home:    home,
		project: project,
		baseDir: filepath.Join(home, ".local", "share", "confguard"),
	}
}

// run executes the CLI with args plus --base-dir and returns what it
// printed.
func (e testEnvironment) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetGuardCommandState()
	resetShowCommandState()
	resetInitCommandState()
	resetSopsCommandState()
	resetLogCommandState()
	resetFlagState(RootCmd)

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(append(args, "--base-dir", e.baseDir))
	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeTestFile is a helper to write test files with 0644 permissions.
// #nosec G306 -- Test files are temporary and don't contain sensitive data.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306
		t.Fatalf("Failed to create test file: %v", err)
	}
}
