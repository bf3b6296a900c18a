// Package buildinfo carries version metadata stamped in at link time with
// -ldflags "-X github.com/cleared-dev/tally/internal/buildinfo.Version=...".
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the version line printed by tally --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
