package osutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NormalizeFilePath expands a leading "~", environment variables and makes
// the path absolute. An empty path stays empty.
func NormalizeFilePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := homeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}

	path = os.ExpandEnv(path)

	return filepath.Abs(path)
}

// homeDir is where "~" points. $HOME wins when set, on every platform, so
// Windows users running from Git Bash or Cygwin get the directory their
// shell shows them.
func homeDir() (string, error) {
	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding ~: %w", err)
	}
	return home, nil
}
