// Package version carries build metadata stamped in with -ldflags, e.g.
//
//	-X github.com/Wikid82/ballot/backend/internal/version.GitCommit=$(git rev-parse --short HEAD)
package version

// Name is the service name reported by /api/health and notifications.
const Name = "Ballot"

var (
	Version   = "0.4.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// BuildInfo is the build metadata as served to clients.
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

// Info returns the current build metadata.
func Info() BuildInfo {
	return BuildInfo{Service: Name, Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
}

// Stamped reports whether both the commit and build time were set at link time.
func (b BuildInfo) Stamped() bool {
	return b.GitCommit != "unknown" && b.BuildTime != "unknown"
}

// String renders "0.4.0" for dev builds and "0.4.0 (abc1234, 2026-01-01)" for stamped ones.
func (b BuildInfo) String() string {
	if !b.Stamped() {
		return b.Version
	}
	return b.Version + " (" + b.GitCommit + ", " + b.BuildTime + ")"
}
