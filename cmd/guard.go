package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/confguard/internal/ui"
	"github.com/PolarWolf314/confguard/internal/utils"
	"github.com/PolarWolf314/confguard/internal/workflows"
	"github.com/spf13/cobra"
)

var guardAbsolute bool

func init() {
	guardCmd.Flags().BoolVar(&guardAbsolute, "absolute", false, "link with an absolute path instead of a relative one")
}

// resetGuardCommandState resets the guard commands' global state for testing.
func resetGuardCommandState() {
	guardAbsolute = false
}

var guardCmd = &cobra.Command{
	Use:   "guard [DIR]",
	Short: "Move a project's .envrc into the guarded store and link it back",
	Long: `Moves DIR/.envrc into its sentinel directory in the guarded store and
replaces it with a symbolic link. Running it again on a guarded project
refreshes the guard section.

DIR defaults to the nearest directory above the working directory that
holds an .envrc.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting guard command")
		spinner, cleanup := startSpinner(cmd, "Guarding project...")
		defer cleanup()

		dir, err := projectDirArg(args)
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Guard(context.Background(), workflows.GuardOptions{
			Env:        env,
			ProjectDir: dir,
			Absolute:   guardAbsolute,
		})
		if err != nil {
			return fail(spinner, err)
		}

		msg := ui.Success.Sprint("✓") + " Guarded " + ui.Path.Sprint(result.ProjectDir) + "\n" +
			ui.Info.Sprint("→") + " " + ui.LinkArrow(result.Link, result.LinkTarget)
		switch {
		case result.Recovered:
			msg += "\n" + ui.Info.Sprint("→") + " Completed an interrupted guard"
		case result.NewSentinel:
			msg += "\n" + ui.Info.Sprint("→") + " Created sentinel " + ui.Highlight.Sprint(result.SentinelID)
		case !result.Moved:
			msg += "\n" + ui.Info.Sprint("→") + " Sentinel already held this content"
		}
		if len(result.KeptEnvFiles) > 0 {
			msg += "\n" + ui.Warning.Sprint("⚠") + " Kept edited environment files:" +
				utils.FormatPaths(result.KeptEnvFiles)
		}
		spinner.FinalMSG = msg
		return nil
	},
}

var unguardCmd = &cobra.Command{
	Use:   "unguard [DIR]",
	Short: "Restore a guarded project's files in place",
	Long: `Replaces the .envrc link with a regular file holding the guarded content,
minus the guard section, and replaces every other link into the sentinel
with a copy of its target. The sentinel itself is kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting unguard command")
		spinner, cleanup := startSpinner(cmd, "Unguarding project...")
		defer cleanup()

		dir, err := projectDirArg(args)
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Unguard(context.Background(), workflows.UnguardOptions{
			Env:        env,
			ProjectDir: dir,
		})
		if err != nil {
			return fail(spinner, err)
		}

		if !result.Changed {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " " + ui.Path.Sprint(dir) + " is not guarded, nothing to do"
			return nil
		}

		msg := ui.Success.Sprint("✓") + " Unguarded " + ui.Path.Sprint(result.ProjectDir)
		if len(result.Restored) > 0 {
			msg += "\n" + ui.Info.Sprint("→") + fmt.Sprintf(" Restored %d more files:", len(result.Restored)) +
				utils.FormatPaths(result.Restored)
		}
		if len(result.Skipped) > 0 {
			msg += "\n" + ui.Warning.Sprint("⚠") + " Left dangling links in place:" +
				utils.FormatPaths(result.Skipped)
		}
		msg += "\n" + ui.Info.Sprint("→") + " Sentinel kept at " + ui.Path.Sprint(result.SentinelDir)
		spinner.FinalMSG = msg
		return nil
	},
}

var guardOneCmd = &cobra.Command{
	Use:   "guard-one DIR FILE",
	Short: "Move one more file of a guarded project into its sentinel",
	Long: `Moves FILE, which must be inside DIR, to the same relative path inside
the project's sentinel and links it back with an absolute link.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting guard-one command")
		spinner, cleanup := startSpinner(cmd, "Guarding file...")
		defer cleanup()

		result, err := workflows.GuardOne(context.Background(), workflows.GuardOneOptions{
			Env:        env,
			ProjectDir: args[0],
			File:       args[1],
		})
		if err != nil {
			return fail(spinner, err)
		}

		if result.AlreadyLinked {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " " + ui.Path.Sprint(result.Source) + " is already guarded"
			return nil
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Guarded " + ui.Path.Sprint(result.Source) + "\n" +
			ui.Info.Sprint("→") + " " + ui.LinkArrow(result.Source, result.LinkTarget)
		return nil
	},
}
