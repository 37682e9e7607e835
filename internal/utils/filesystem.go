package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindProjectRoot traverses up from start to the nearest directory that
// contains entryName (as a file or a link). Returns an empty string if no
// such directory exists below the user's home directory.
func FindProjectRoot(start, entryName string) (string, error) {
	currentDir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	stopAt := filepath.Dir(homeDir)

	for {
		if currentDir == stopAt {
			return "", nil
		}

		_, err := os.Lstat(filepath.Join(currentDir, entryName))
		if err == nil {
			return currentDir, nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("error checking for %s at %s: %w", entryName, currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}
