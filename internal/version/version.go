// Package version holds build-time identification for c9rev2git's
// --version flag.
package version

import "fmt"

// Version, Commit, and Date are overridden at build time via
// -ldflags "-X github.com/bolt-blue/c9rev2git/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Print renders a one-line version banner for prog.
func Print(prog string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", prog, Version, Commit, Date)
}
