package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
)

// Build identity, set via -ldflags. Release builds stamp all three;
// anything unset is resolved from embedded module build info instead.
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

var resolveVersionOnce sync.Once

// resolveVersion backfills unset build variables. VCS metadata comes from
// the toolchain's embedded build info; a .version file beside the
// executable overrides the dev default so packaged binaries report the
// release they shipped with.
func resolveVersion() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "unknown" && setting.Value != "" {
					GitCommit = setting.Value
				}
			case "vcs.time":
				if Build == "unknown" && setting.Value != "" {
					Build = setting.Value
				}
			}
		}
	}

	if Version == "dev" {
		if v := versionFromFile(); v != "" {
			Version = v
		}
	}
}

// versionFromFile reads the .version file next to the executable.
func versionFromFile() string {
	exePath, err := os.Executable()
	if err != nil {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(exePath), ".version"))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

// GetVersion returns the current version string
func GetVersion() string {
	resolveVersionOnce.Do(resolveVersion)
	return Version
}

// GetBuild returns the build timestamp
func GetBuild() string {
	resolveVersionOnce.Do(resolveVersion)
	return Build
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	resolveVersionOnce.Do(resolveVersion)
	return GitCommit
}

// GetFullVersion returns version with build info
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", GetVersion(), GetBuild(), GetGitCommit())
}
