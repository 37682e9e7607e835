package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/confguard/internal/utils"
)

// TimestampLayout is the UTC layout of Entry.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Local user performing the action.
	Operation string `json:"op"`   // Operation name.

	// Optional fields depending on operation.
	Project   string   `json:"project,omitempty"`   // Canonical project dir.
	Sentinel  string   `json:"sentinel,omitempty"`  // Sentinel id.
	Files     []string `json:"files,omitempty"`     // Files touched.
	Succeeded int      `json:"succeeded,omitempty"` // For batches.
	Failed    int      `json:"failed,omitempty"`    // For batches.
}

// Log appends entries to a JSON Lines file.
type Log struct {
	Path string

	// Now and User default to time.Now and the current login name.
	Now  func() time.Time
	User func() string
}

// New returns a Log writing to path.
func New(path string) *Log {
	return &Log{Path: path}
}

// NewEntry returns an entry for op with the user filled in.
func (l *Log) NewEntry(op string) Entry {
	if l.User != nil {
		return Entry{User: l.User(), Operation: op}
	}
	name, err := utils.GetUsername()
	if err != nil {
		name = "unknown"
	}
	return Entry{User: name, Operation: op}
}

// Record appends an entry to the audit log.
// If logging fails, the error is returned for the caller to warn about;
// operations should not fail just because audit logging failed.
func (l *Log) Record(entry Entry) error {
	if l == nil || l.Path == "" {
		return nil
	}

	if entry.Timestamp == "" {
		now := l.Now
		if now == nil {
			now = time.Now
		}
		entry.Timestamp = now().UTC().Format(TimestampLayout)
	}

	if err := os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	// One write per entry keeps concurrent appends line-atomic.
	_, err = f.Write(append(data, '\n'))
	return err
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func (l *Log) ReadEntries() ([]Entry, error) {
	data, err := os.ReadFile(l.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
