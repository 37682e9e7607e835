package cmd

import (
	"github.com/PolarWolf314/confguard/internal/configs"
	logger "github.com/PolarWolf314/confguard/internal/logging"
	"github.com/PolarWolf314/confguard/internal/sops"
	"github.com/PolarWolf314/confguard/internal/workflows"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	baseDir string
	Logger  logger.Logger

	// env is resolved once per invocation and handed to every workflow.
	env workflows.Env

	// runner replaces the sops executable in tests.
	runner sops.Runner

	RootCmd = &cobra.Command{
		Use:   "confguard",
		Short: "A security guard for your config files",
		Long: `confguard moves a project's .envrc into a central store outside the
repository and leaves a symbolic link behind. The moved file records where
it came from, so the link can be repaired or the move undone later.

Files in the store can be encrypted with sops, and the store's ignore file
is kept in sync with the plaintext patterns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.Name(), verbose, debug)

			settings, err := configs.LoadSettings(baseDir)
			if err != nil {
				return reportedError{err: Logger.ErrorfAndReturn("failed to resolve base directory: %v", err)}
			}
			Logger.Debugf("Base directory: %s", settings.BaseDir)

			env = workflows.Env{
				Settings: settings,
				Logger:   Logger,
				Runner:   runner,
			}
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "override the base directory (default: $"+configs.BaseDirEnv+" or ~/.local/share/confguard)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(guardCmd)
	RootCmd.AddCommand(unguardCmd)
	RootCmd.AddCommand(guardOneCmd)
	RootCmd.AddCommand(relinkCmd)
	RootCmd.AddCommand(replaceLinkCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(infoCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(sopsEncCmd)
	RootCmd.AddCommand(sopsDecCmd)
	RootCmd.AddCommand(sopsCleanCmd)
	RootCmd.AddCommand(sopsInitCmd)
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// Helper functions for testing

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	baseDir = ""
	runner = nil
	resetGuardCommandState()
	resetShowCommandState()
	resetInitCommandState()
	resetSopsCommandState()
	resetLogCommandState()
	resetFlagState(RootCmd)
}

// resetFlagState clears the Changed mark of every flag below c to prevent
// test pollution.
func resetFlagState(c *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		flag.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlagState(sub)
	}
}

// SetRunner replaces the sops executable for testing.
func SetRunner(r sops.Runner) {
	runner = r
}
