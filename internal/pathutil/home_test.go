package pathutil

import (
	"path/filepath"
	"testing"
)

func TestHomeBased_RoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name   string
		path   string
		stored string
	}{
		{"below home", filepath.Join(home, "dev", "app"), "$HOME/dev/app"},
		{"home itself", home, "$HOME"},
		{"outside home", "/etc/app", "/etc/app"},
		{"sibling with home prefix", home + "-other/app", home + "-other/app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, err := ToHomeBased(tt.path)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if stored != tt.stored {
				t.Errorf("ToHomeBased(%q) = %q, want %q", tt.path, stored, tt.stored)
			}

			back, err := FromHomeBased(stored)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if back != tt.path {
				t.Errorf("FromHomeBased(%q) = %q, want %q", stored, back, tt.path)
			}
		})
	}
}

func TestToHomeBased_RejectsRelative(t *testing.T) {
	if _, err := ToHomeBased("relative/path"); err == nil {
		t.Errorf("Expected error for relative path")
	}
}
