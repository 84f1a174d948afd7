package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves the file locations read from config (database.path and
// patterns.stopwords_file). A leading ~ becomes the home directory and $VAR
// references are expanded. When the home directory is unknown the ~ is kept.
func ExpandPath(path string) string {
	return os.ExpandEnv(expandHome(path))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
