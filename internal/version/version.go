// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

// Set at build time, e.g.
// -ldflags "-X moodtunes/internal/version.Version=v1.2.0 -X moodtunes/internal/version.Commit=abc123"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("moodtunes %s (commit %s, built %s)", Version, Commit, Date)
}
