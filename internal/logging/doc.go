// Package logger provides leveled, colored logging for confguard commands.
//
// Verbosity is controlled by the --verbose and --debug flags of the root
// command. Info messages need --verbose, debug messages need --debug,
// warnings and errors are always written to stderr.
//
// # Log Methods
//
//	Logger.Infof()          // Shown with --verbose or --debug
//	Logger.Debugf()         // Shown only with --debug
//	Logger.Warnf()          // Always shown
//	Logger.WarnfAlways()    // Always shown, even when the logger is muted
//	Logger.Errorf()         // Always shown
//	Logger.ErrorfAndReturn() // Logs, then returns the message as an error
//
// Core packages take a Logger by value in their options. The zero value is
// usable and only prints warnings and errors.
package logger
