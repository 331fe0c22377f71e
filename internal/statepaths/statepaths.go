// Package statepaths resolves where durable relay state lives, based on the
// file_state_dir config key.
package statepaths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const defaultStateDir = "~/.vaultrelay"

func FileStateDir() string {
	dir := strings.TrimSpace(viper.GetString("file_state_dir"))
	if dir == "" {
		dir = defaultStateDir
	}
	return ExpandHomePath(dir)
}

// SessionDBPath is the Bolt database holding per-identity session records.
func SessionDBPath() string {
	return filepath.Join(FileStateDir(), "sessions.db")
}

// RuntimeDir holds restart-survivable runtime snapshots (poll offset).
func RuntimeDir() string {
	return filepath.Join(FileStateDir(), "runtime")
}

func ExpandHomePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			if path == "~" {
				return home
			}
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
