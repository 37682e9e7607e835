package cmd

import (
	"context"

	"github.com/PolarWolf314/confguard/internal/ui"
	"github.com/PolarWolf314/confguard/internal/workflows"
	"github.com/spf13/cobra"
)

var relinkCmd = &cobra.Command{
	Use:   "relink FILE",
	Short: "Recreate a project's .envrc link from a guarded dot.envrc",
	Long: `Reads the guard section of FILE, a dot.envrc inside a sentinel, and
recreates the .envrc link in the project it records. Whatever is at that
path is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting relink command")
		spinner, cleanup := startSpinner(cmd, "Recreating link...")
		defer cleanup()

		result, err := workflows.Relink(context.Background(), workflows.RelinkOptions{
			Env:           env,
			RelocatedFile: args[0],
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Relinked " + ui.Path.Sprint(result.SourceDir) + "\n" +
			ui.Info.Sprint("→") + " " + ui.LinkArrow(result.Link, result.LinkTarget)
		return nil
	},
}

var replaceLinkCmd = &cobra.Command{
	Use:   "replace-link LINK",
	Short: "Replace a symbolic link with the file or directory it points at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting replace-link command")
		spinner, cleanup := startSpinner(cmd, "Replacing link...")
		defer cleanup()

		result, err := workflows.ReplaceLink(context.Background(), workflows.ReplaceLinkOptions{
			Env:  env,
			Link: args[0],
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Moved " + ui.Path.Sprint(result.Target) +
			" to " + ui.Path.Sprint(result.Link)
		return nil
	},
}
