package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Overridden via ldflags.
var (
	Version   = "unknown-version"
	GitCommit = "unknown-commit"
	BuildTime = "unknown-buildtime"
	// FormatVersion is the version of the artifact layout written to blob stores.
	FormatVersion = "v1"
)

// BuildInfo describes the binary and the artifact format it writes.
func BuildInfo() string {
	var sb strings.Builder
	fmt.Fprintln(&sb, "Version:\t", Version)
	fmt.Fprintln(&sb, "Format version:\t", FormatVersion)
	fmt.Fprintln(&sb, "Go version:\t", runtime.Version())
	fmt.Fprintln(&sb, "Git commit:\t", GitCommit)
	fmt.Fprintln(&sb, "Built:\t\t", BuildTime)
	fmt.Fprintf(&sb, "OS/Arch:\t %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return sb.String()
}
