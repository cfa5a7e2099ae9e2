// Package version reports build information for the stockroom binaries.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release version, set at build time via ldflags.
	Version = "dev"

	// BuildTime is set at build time via ldflags.
	BuildTime = "unknown"

	// Commit is the git commit SHA, set at build time via ldflags.
	Commit = "unknown"
)

// ShortCommit returns the first eight characters of Commit.
func ShortCommit() string {
	if len(Commit) > 8 {
		return Commit[:8]
	}
	return Commit
}

// Info returns version information as a formatted string.
func Info() string {
	return fmt.Sprintf("stockroom %s (%s) - %s %s/%s",
		Version,
		ShortCommit(),
		BuildTime,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// Map returns version information as a map.
func Map() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"buildTime": BuildTime,
		"goVersion": runtime.Version(),
		"os":        runtime.GOOS,
		"arch":      runtime.GOARCH,
	}
}
