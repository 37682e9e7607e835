package sentinel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureEnvironments_CreatesAll(t *testing.T) {
	dir := t.TempDir()

	report, err := EnsureEnvironments(dir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(report.Created) != len(Environments) {
		t.Errorf("Expected %d created files, got: %v", len(Environments), report.Created)
	}

	data, err := os.ReadFile(filepath.Join(dir, EnvironmentsDir, "local.env"))
	if err != nil {
		t.Fatalf("Failed to read local.env: %v", err)
	}
	if string(data) != "export RUN_ENV=\"local\"\n" {
		t.Errorf("Unexpected local.env content: %q", data)
	}
}

func TestEnsureEnvironments_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	if _, err := EnsureEnvironments(dir); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	prod := filepath.Join(dir, EnvironmentsDir, "prod.env")
	writeTestFile(t, prod, "export RUN_ENV=\"prod\"\nexport DB=secret\n")

	report, err := EnsureEnvironments(dir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(report.Created) != 0 {
		t.Errorf("Expected nothing created, got: %v", report.Created)
	}
	if len(report.Kept) != len(Environments) {
		t.Errorf("Expected every file kept, got: %v", report.Kept)
	}
	if len(report.Edited) != 1 || report.Edited[0] != prod {
		t.Errorf("Expected prod.env reported as edited, got: %v", report.Edited)
	}

	data, _ := os.ReadFile(prod)
	if string(data) != "export RUN_ENV=\"prod\"\nexport DB=secret\n" {
		t.Errorf("Edited file was overwritten: %q", data)
	}
}
