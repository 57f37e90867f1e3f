//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(home, ".config")
	}
	return []string{
		filepath.Join(dir, "autostart", "config.yaml"),
		filepath.Join(home, ".autostart.yaml"),
	}
}
