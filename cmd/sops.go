package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/ui"
	"github.com/PolarWolf314/confguard/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	sopsDir         string
	sopsTemplate    string
	sopsResetIgnore bool
)

func init() {
	for _, c := range []*cobra.Command{sopsEncCmd, sopsDecCmd, sopsCleanCmd} {
		c.Flags().StringVar(&sopsDir, "dir", "", "directory to scan (default: base directory)")
	}
	sopsInitCmd.Flags().StringVar(&sopsTemplate, "template", "", "copy this file instead of the built-in confguard.toml")
	sopsInitCmd.Flags().BoolVar(&sopsResetIgnore, "reset-ignore", false, "drop the managed block from the ignore file")
}

// resetSopsCommandState resets the sops commands' global state for testing.
func resetSopsCommandState() {
	sopsDir = ""
	sopsTemplate = ""
	sopsResetIgnore = false
}

// batchError decides how a batch ends: a partial failure is a warning and
// exits zero, anything else is reported as an error.
func batchError(err error) error {
	if err == nil || errors.Is(err, cgerrors.ErrPartialBatchFailure) {
		return nil
	}
	return reportedError{err: err}
}

// runBatchCommand runs an encrypt or decrypt workflow and renders it. An
// interrupt stops further sops invocations.
func runBatchCommand(cmd *cobra.Command, message, verb string,
	run func(context.Context, workflows.BatchOptions) (*workflows.BatchResult, error)) error {
	spinner, cleanup := startSpinner(cmd, message)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := run(ctx, workflows.BatchOptions{Env: env, Dir: sopsDir})
	if result == nil {
		return fail(spinner, err)
	}

	Logger.Debugf("Scanned %s: %d files", result.Dir, len(result.Outcomes))
	spinner.FinalMSG = formatBatch(verb, result.Succeeded(), err)
	return batchError(err)
}

var sopsEncCmd = &cobra.Command{
	Use:   "sops-enc",
	Short: "Encrypt the guarded store with sops",
	Long: `Encrypts every file selected by confguard.toml to a sibling with an added
.enc suffix. Files are processed in parallel; a failing file does not stop
the others. When the base directory is scanned, its ignore file is updated
with the plaintext patterns afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting sops-enc command")
		return runBatchCommand(cmd, "Encrypting files...", "Encrypted", workflows.Encrypt)
	},
}

var sopsDecCmd = &cobra.Command{
	Use:   "sops-dec",
	Short: "Decrypt the guarded store with sops",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting sops-dec command")
		return runBatchCommand(cmd, "Decrypting files...", "Decrypted", workflows.Decrypt)
	},
}

var sopsCleanCmd = &cobra.Command{
	Use:   "sops-clean",
	Short: "Remove plaintext files that have an encrypted copy",
	Long: `Removes every plaintext file selected for encryption whose .enc sibling
exists and is not empty. Files without one are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting sops-clean command")
		spinner, cleanup := startSpinner(cmd, "Removing plaintext files...")
		defer cleanup()

		result, err := workflows.Clean(context.Background(), workflows.BatchOptions{Env: env, Dir: sopsDir})
		if result == nil {
			return fail(spinner, err)
		}

		msg := formatBatch("Removed", result.Removed, err)
		if len(result.Removed) == 0 && err == nil {
			msg = ui.Info.Sprint("ℹ") + " Nothing to remove in " + ui.Path.Sprint(result.Dir)
		}
		if len(result.Skipped) > 0 {
			msg += "\n" + ui.Info.Sprint("→") + fmt.Sprintf(" Kept %d files without an encrypted copy", len(result.Skipped))
		}
		spinner.FinalMSG = msg
		return batchError(err)
	},
}

var sopsInitCmd = &cobra.Command{
	Use:   "sops-init",
	Short: "Create confguard.toml in the base directory",
	Long: `Creates confguard.toml from the built-in template, or from --template.
An existing file is never overwritten. With --reset-ignore the managed block
is dropped from the ignore file; the next sops-enc writes it again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting sops-init command")
		spinner, cleanup := startSpinner(cmd, "Creating configuration...")
		defer cleanup()

		result, err := workflows.SopsInit(context.Background(), workflows.SopsInitOptions{
			Env:         env,
			Template:    sopsTemplate,
			ResetIgnore: sopsResetIgnore,
		})
		if err != nil {
			return fail(spinner, err)
		}

		var msg string
		if result.Created {
			msg = ui.Success.Sprint("✓") + " Created " + ui.Path.Sprint(result.ConfigFile) + "\n" +
				ui.Info.Sprint("→") + " Set " + ui.Code.Sprint("gpg_key") + " before running " + ui.Code.Sprint("confguard sops-enc")
		} else {
			msg = ui.Info.Sprint("ℹ") + " Kept existing " + ui.Path.Sprint(result.ConfigFile)
		}
		if sopsResetIgnore {
			if result.IgnoreReset {
				msg += "\n" + ui.Success.Sprint("✓") + " Removed the managed block from the ignore file"
			} else {
				msg += "\n" + ui.Info.Sprint("ℹ") + " The ignore file had no managed block"
			}
		}
		spinner.FinalMSG = msg
		return nil
	},
}
