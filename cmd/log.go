package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/PolarWolf314/confguard/internal/audit"
	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/ui"
	"github.com/PolarWolf314/confguard/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logProject   string
	logOperation string
	logSince     string
	logUntil     string
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logProject, "project", "", "filter by project directory")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logProject = ""
	logOperation = ""
	logSince = ""
	logUntil = ""
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the audit log of guard and encryption operations.

Examples:
  confguard log                              # View full log
  confguard log -n 10                        # Last 10 entries
  confguard log --reverse                    # Most recent first
  confguard log --project ~/dev/myproj       # Filter by project
  confguard log --operation guard,unguard    # Filter by operation
  confguard log --since 2026-01-01           # Filter by date
  confguard log --json                       # JSON output`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")
	w := cmd.OutOrStdout()

	result, err := workflows.Log(context.Background(), workflows.LogOptions{
		Env:        env,
		Limit:      logLimit,
		Reverse:    logReverse,
		Project:    logProject,
		Operations: logOperation,
		Since:      logSince,
		Until:      logUntil,
	})
	if err != nil {
		if errors.Is(err, cgerrors.ErrNoFilesFound) {
			fmt.Fprintln(w, ui.Info.Sprint("ℹ")+" No audit log found. Operations are logged once you guard a project.")
			return nil
		}
		fmt.Fprintln(w, formatError(err))
		return reportedError{err: err}
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			fmt.Fprintln(w, "No audit log entries found.")
		} else {
			fmt.Fprintln(w, "No audit log entries found matching the filters.")
		}
		return nil
	}

	if logJSON {
		return outputLogJSON(w, result.Entries)
	}
	outputLogDefault(w, result.Entries)
	return nil
}

func outputLogJSON(w io.Writer, entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func outputLogDefault(w io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		datetime := workflows.FormatDateTime(e.Timestamp)
		details := workflows.FormatDetails(e)
		fmt.Fprintf(w, "%-19s  %-12s  %-12s  %s\n", datetime, e.User, e.Operation, details)
	}
}
