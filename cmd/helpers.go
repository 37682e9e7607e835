package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/sentinel"
	"github.com/PolarWolf314/confguard/internal/ui"
	"github.com/PolarWolf314/confguard/internal/utils"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// reportedError marks an error whose message was already shown to the
// user. It still makes the process exit non-zero.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already printed by a command.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// startSpinner creates a spinner with the given message and starts it when
// stdout is a terminal and neither verbose nor debug output is on. Returns
// the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The
// cleanup function calls ui.EnsureNewline() on the final message and
// prints it to the command's output.
func startSpinner(cmd *cobra.Command, message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")

	active := !verbose && !debug && utils.IsStdoutTerminal()
	if active {
		s.Start()
		// Ensure log output is discarded while the spinner owns the line.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running: %s", message)
	}

	cleanup := func() {
		if active {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if active {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Fprint(cmd.OutOrStdout(), finalMsg)
		}
	}

	return s, cleanup
}

// projectDirArg returns the project directory named by args, or the
// nearest directory above the working directory that holds an .envrc.
func projectDirArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := utils.FindProjectRoot(wd, sentinel.EntryFile)
	if err != nil {
		return "", err
	}
	if root == "" {
		Logger.Debugf("No %s above %s, using the working directory", sentinel.EntryFile, wd)
		return wd, nil
	}
	return root, nil
}

// fail sets a user-facing message for err and returns err marked as
// reported.
func fail(s *spinner.Spinner, err error) error {
	Logger.Debugf("Command failed: %v", err)
	s.FinalMSG = formatError(err)
	return reportedError{err: err}
}

// formatError turns an error into a message with a hint where one helps.
func formatError(err error) string {
	msg := ui.Error.Sprint("✗") + " " + err.Error()
	hint := func(text string, code string) string {
		return msg + "\n" + ui.Info.Sprint("→") + " " + text + " " + ui.Code.Sprint(code)
	}

	switch {
	case errors.Is(err, cgerrors.ErrMissingEntryFile):
		return hint("Create one with", "confguard init DIR")
	case errors.Is(err, cgerrors.ErrNotYetGuarded):
		return hint("Guard the project first with", "confguard guard DIR")
	case errors.Is(err, cgerrors.ErrAlreadyGuardedConflict):
		return hint("Unguard the other project or recreate its link with", "confguard relink FILE")
	case errors.Is(err, cgerrors.ErrCorruptGuardSection),
		errors.Is(err, cgerrors.ErrSentinelMissing):
		return hint("Inspect the project with", "confguard show DIR")
	case errors.Is(err, cgerrors.ErrConfigNotFound):
		return hint("Create the configuration with", "confguard sops-init")
	case errors.Is(err, cgerrors.ErrMissingKey):
		return hint("Set gpg_key, then run", "confguard sops-enc")
	default:
		return msg
	}
}

// formatBatch renders the outcome of a batch: what succeeded, and one line
// per failed file.
func formatBatch(verb string, succeeded []string, err error) string {
	var b strings.Builder

	if len(succeeded) > 0 {
		b.WriteString(ui.Success.Sprint("✓") + fmt.Sprintf(" %s %d files", verb, len(succeeded)))
		if verbose {
			b.WriteString(":" + strings.TrimSuffix(utils.FormatPaths(succeeded), "\n"))
		}
	}

	for _, e := range splitJoined(err) {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		var batchErr *cgerrors.BatchError
		if !errors.As(e, &batchErr) {
			b.WriteString(ui.Error.Sprint("✗") + " " + e.Error())
			continue
		}
		b.WriteString(ui.Warning.Sprint("⚠") + fmt.Sprintf(" %d files failed:", batchErr.Failed))
		for _, f := range batchErr.Failures {
			b.WriteString("\n  " + ui.Path.Sprint(f.Path) + ": " + f.Err.Error())
		}
	}
	return b.String()
}

// splitJoined returns the errors combined by errors.Join, or err alone.
func splitJoined(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
