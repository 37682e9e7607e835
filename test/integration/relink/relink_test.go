package relink_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/test/integration/shared"
)

// TestRelinkIntegration contains integration tests for the `confguard relink` command.
func TestRelinkIntegration(t *testing.T) {
	t.Run("RelinkAfterLinkWasDeleted", testRelinkAfterLinkWasDeleted)
	t.Run("RelinkReplacesRegularFile", testRelinkReplacesRegularFile)
	t.Run("RelinkAfterProjectWasMoved", testRelinkAfterProjectWasMoved)
}

func guardProject(t *testing.T, e shared.Environment) string {
	t.Helper()
	shared.WriteTestFile(t, filepath.Join(e.Project, ".envrc"), "export A=1\n")
	e.MustRun(t, "guard", e.Project)

	state := e.Show(t, e.Project)
	if state.State != "guarded" || state.SentinelDir == "" {
		t.Fatalf("Expected a guarded project with a sentinel, got %+v", state)
	}
	return filepath.Join(state.SentinelDir, "dot.envrc")
}

func testRelinkAfterLinkWasDeleted(t *testing.T) {
	e := shared.SetupTestEnvironment(t)
	relocated := guardProject(t, e)
	envrc := filepath.Join(e.Project, ".envrc")

	if err := os.Remove(envrc); err != nil {
		t.Fatalf("Failed to remove link: %v", err)
	}

	out := e.MustRun(t, "relink", relocated)
	if !strings.Contains(out, "Relinked "+e.Project) {
		t.Errorf("Expected relink confirmation, got:\n%s", out)
	}
	if !shared.IsSymlink(t, envrc) {
		t.Fatalf("Expected %s to be a link again", envrc)
	}
	data, err := os.ReadFile(envrc)
	if err != nil || !strings.Contains(string(data), "export A=1") {
		t.Errorf("Expected the link to resolve to the guarded content, got %q (%v)", data, err)
	}
	if state := e.Show(t, e.Project); state.State != "guarded" {
		t.Errorf("Expected guarded after relink, got %s", state.State)
	}
}

func testRelinkReplacesRegularFile(t *testing.T) {
	e := shared.SetupTestEnvironment(t)
	relocated := guardProject(t, e)
	envrc := filepath.Join(e.Project, ".envrc")

	if err := os.Remove(envrc); err != nil {
		t.Fatalf("Failed to remove link: %v", err)
	}
	shared.WriteTestFile(t, envrc, "export STALE=1\n")

	e.MustRun(t, "relink", relocated)
	if !shared.IsSymlink(t, envrc) {
		t.Fatalf("Expected the regular file to be replaced by a link")
	}
	target, err := os.Readlink(envrc)
	if err != nil {
		t.Fatalf("Readlink failed: %v", err)
	}
	if filepath.IsAbs(target) {
		t.Errorf("Expected the relative setting of the section to be kept, got %s", target)
	}
}

func testRelinkAfterProjectWasMoved(t *testing.T) {
	e := shared.SetupTestEnvironment(t)
	relocated := guardProject(t, e)

	moved := filepath.Join(e.Home, "dev", "renamed")
	if err := os.Rename(e.Project, moved); err != nil {
		t.Fatalf("Failed to move project: %v", err)
	}

	_, err := e.Run(t, "relink", relocated)
	if !errors.Is(err, cgerrors.ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound for a missing source directory, got: %v", err)
	}
	if _, err := os.Stat(relocated); err != nil {
		t.Errorf("Expected the guarded file to stay in the sentinel: %v", err)
	}
}
