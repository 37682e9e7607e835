package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		logger    Logger
		wantInfo  bool
		wantDebug bool
	}{
		{"default", Logger{}, false, false},
		{"verbose", Logger{Verbose: true}, true, false},
		{"debug", Logger{Debug: true}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			l := tt.logger
			l.Out = &out
			l.Err = &bytes.Buffer{}

			l.Infof("info %d", 1)
			l.Debugf("debug %d", 2)

			if got := strings.Contains(out.String(), "info 1"); got != tt.wantInfo {
				t.Errorf("info shown = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out.String(), "debug 2"); got != tt.wantDebug {
				t.Errorf("debug shown = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestLogger_QuietSuppressesWarnings(t *testing.T) {
	var errOut bytes.Buffer
	l := Logger{Quiet: true, Err: &errOut}

	l.Warnf("hidden")
	l.Errorf("hidden")
	if errOut.Len() != 0 {
		t.Errorf("Expected no output, got: %q", errOut.String())
	}

	l.WarnfAlways("shown")
	if !strings.Contains(errOut.String(), "shown") {
		t.Errorf("Expected WarnfAlways output, got: %q", errOut.String())
	}
}

func TestLogger_ErrorfAndReturn(t *testing.T) {
	l := Logger{Err: &bytes.Buffer{}}
	err := l.ErrorfAndReturn("failed to guard %s", "proj")
	if err == nil || err.Error() != "failed to guard proj" {
		t.Errorf("Unexpected error: %v", err)
	}
}
