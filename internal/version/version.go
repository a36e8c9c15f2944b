package version

import (
	"fmt"
	"runtime"
)

// Set through -ldflags at build time.
var (
	GitVersion    = "dev"
	BuildMetadata = ""
	GitCommit     = ""
	GitTreeState  = ""
)

func GetVersion() string {
	if BuildMetadata != "" {
		return fmt.Sprintf("%s+%s", GitVersion, BuildMetadata)
	}
	return GitVersion
}

// String is the one-line form printed by "macharden version".
func String() string {
	commit := GitCommit
	if commit == "" {
		commit = "unknown"
	}
	if GitTreeState == "dirty" {
		commit += "-dirty"
	}
	return fmt.Sprintf("macharden %s (commit: %s, %s, %s/%s)",
		GetVersion(), commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
