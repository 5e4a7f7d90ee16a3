// Package version holds build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() (string, string, string) {
	version, commit, date := Version, GitCommit, BuildDate
	if commit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					commit = s.Value
				}
			}
		}
	}
	return version, commit, date
}

// String formats the build metadata on one line.
func String() string {
	v, c, d := Info()
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
