package version

import (
	"fmt"
	"runtime"
)

// These variables are set via ldflags during build.
var (
	Version   = "dev"
	Commit    = "none"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

// Platform returns the GOOS/GOARCH pair the binary was built for.
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// Short returns the version with an abbreviated commit, e.g. "1.2.0 (a1b2c3d)".
func Short() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if Commit == "" || Commit == "none" {
		return v
	}
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s)", v, commit)
}

// Info returns the multi-line text printed by --version.
func Info(program string) string {
	return fmt.Sprintf("%s %s\n  commit: %s\n  built:  %s\n  go:     %s %s",
		program, Short(), Commit, Date, GoVersion, Platform())
}
