// Package utils provides shared helpers for confguard.
//
// # Filesystem Utilities
//
//   - FindProjectRoot: walks up directories to find the nearest entry file
//   - FormatPaths: formats file paths for human-readable output
//
// # System Utilities
//
//   - GetUsername: returns the current system username
//   - SanitizeName: normalizes a directory name for use in a sentinel id
//
// # Terminal Utilities
//
//   - IsStdoutTerminal: reports whether spinners can be drawn
package utils
