// Package version reports build metadata.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/rickgao/agri-market/internal/version.Version=0.2.0 \
//	                   -X github.com/rickgao/agri-market/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/agri-market/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	         ./cmd/agrimarket
//
// Unstamped builds fall back to the VCS revision recorded by the Go toolchain.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Get returns the build metadata, filling unstamped fields from the
// embedded build info when available.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// String formats the build metadata for the -version flag.
func (i Info) String() string {
	return fmt.Sprintf("agrimarket %s (%s) built %s", i.Version, i.Commit, i.BuildTime)
}

// LogAttrs returns key/value pairs for a startup log line.
func (i Info) LogAttrs() []any {
	return []any{"version", i.Version, "commit", i.Commit}
}
