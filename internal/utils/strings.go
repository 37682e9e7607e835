package utils

import (
	"regexp"
	"strings"

	"github.com/PolarWolf314/confguard/internal/ui"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	repeatedDashes  = regexp.MustCompile(`-+`)
)

// FormatPaths formats a slice of paths into a readable string.
func FormatPaths(paths []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, path := range paths {
		b.WriteString("    - ")
		b.WriteString(ui.Path.Sprint(path))
		b.WriteString("\n")
	}
	return b.String()
}

// SanitizeName turns a directory name into a path-safe identifier.
// The same input always yields the same output.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Replace anything outside [a-zA-Z0-9._-] with a hyphen.
	name = unsafeNameChars.ReplaceAllString(name, "-")
	name = repeatedDashes.ReplaceAllString(name, "-")

	// Leading dots would hide the directory; trim them with stray hyphens.
	name = strings.Trim(name, "-.")

	if name == "" {
		name = "project"
	}
	return name
}
