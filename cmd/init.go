package cmd

import (
	"context"

	"github.com/PolarWolf314/confguard/internal/ui"
	"github.com/PolarWolf314/confguard/internal/workflows"
	"github.com/spf13/cobra"
)

var initTemplate string

func init() {
	initCmd.Flags().StringVar(&initTemplate, "template", "", "copy this file instead of the built-in .envrc")
}

// resetInitCommandState resets the init command's global state for testing.
func resetInitCommandState() {
	initTemplate = ""
}

var initCmd = &cobra.Command{
	Use:   "init DIR",
	Short: "Create an .envrc in a directory",
	Long: `Creates DIR/.envrc from the built-in template, or from --template.
An existing .envrc is never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")
		spinner, cleanup := startSpinner(cmd, "Creating .envrc...")
		defer cleanup()

		result, err := workflows.Init(context.Background(), workflows.InitOptions{
			Env:        env,
			ProjectDir: args[0],
			Template:   initTemplate,
		})
		if err != nil {
			return fail(spinner, err)
		}

		source := "the default template"
		if result.Template != "" {
			source = ui.Path.Sprint(result.Template)
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Created " + ui.Path.Sprint(result.Path) + " from " + source + "\n" +
			ui.Info.Sprint("→") + " Guard it with " + ui.Code.Sprint("confguard guard "+args[0])
		return nil
	},
}
