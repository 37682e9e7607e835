// Package audit provides an audit trail for confguard operations.
//
// Every mutating operation (guard, unguard, guard-one, relink, encrypt,
// decrypt, clean) is recorded in a log kept in the base directory, next to
// the guarded store. This helps answer which projects were touched, and
// when, after the fact.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	{base_dir}/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Local user name
//   - Operation name
//   - Operation-specific details (project, sentinel, files, batch counts)
//
// # Usage
//
//	log := audit.New(settings.AuditFile)
//	entry := log.NewEntry("guard")
//	entry.Project = result.ProjectDir
//	if err := log.Record(entry); err != nil {
//	    l.Warnf("Could not write audit log: %v", err)
//	}
//
// # Failure Handling
//
// Audit logging is best-effort. Record returns its error so the caller can
// warn, but operations never fail just because audit logging failed.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display. Malformed entries
// are silently skipped to handle partial writes.
package audit
