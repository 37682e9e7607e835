// Package ui provides semantic text formatting for confguard output.
//
// Formatters render content by role (commands, paths, status marks) and
// degrade to plain-text decorations when colors are unavailable.
//
//	ui.Code.Sprint("confguard guard .")        // Commands and code
//	ui.Path.Sprint("~/dev/app/.envrc")          // File paths
//	ui.Success.Sprint("✓")                      // Success indicators
//	ui.Error.Sprint("✗")                        // Error indicators
//	ui.Warning.Sprint("!")                      // Warnings
//	ui.Info.Sprint("→")                         // Informational hints
//	ui.Highlight.Sprint("app-1b9d…")            // Sentinel ids, keys
//	ui.Muted.Sprint("unchanged")               // De-emphasized text
//
// Colors are disabled when NO_COLOR is set or the terminal cannot render
// them. Without colors Code adds `backticks`, Highlight adds 'quotes' and
// Muted adds (parentheses).
package ui
