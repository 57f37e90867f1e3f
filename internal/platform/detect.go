package platform

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
)

// HostInfo identifies the running operating system.
type HostInfo struct {
	OS      string // runtime.GOOS style identifier used to pick an Adapter
	Name    string // e.g. "darwin", "ubuntu", "Microsoft Windows 11 Pro"
	Version string // e.g. "14.2.1", "22.04", "10.0.22631"
}

// Detect queries the host through gopsutil. When the query fails the
// compile-time runtime.GOOS is used and Name/Version are left "unknown".
func Detect(ctx context.Context) HostInfo {
	info := HostInfo{OS: runtime.GOOS, Name: runtime.GOOS, Version: "unknown"}

	stat, err := host.InfoWithContext(ctx)
	if err != nil || stat == nil {
		return info
	}
	if stat.OS != "" {
		info.OS = stat.OS
	}
	if stat.Platform != "" {
		info.Name = stat.Platform
	}
	if stat.PlatformVersion != "" {
		info.Version = stat.PlatformVersion
	}
	return info
}
