//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	appData := os.Getenv("APPDATA")
	local := os.Getenv("LOCALAPPDATA")
	return []string{
		filepath.Join(appData, "autostart", "config.yaml"),
		filepath.Join(local, "autostart", "config.yaml"),
	}
}
