package version

import (
	"fmt"
	"runtime"
)

// Name is the program name reported by the CLI, MCP server and HTTP API
const Name = "linecheck"

// These variables are set via ldflags during build
var (
	// Version is the semantic version (e.g., v0.1.0)
	Version = "dev"

	// Commit is the git commit hash
	Commit = "unknown"

	// Date is the build date
	Date = "unknown"
)

// Info returns version information as a formatted string
func Info() string {
	return fmt.Sprintf(
		"%s %s\nCommit: %s\nBuilt: %s\nGo: %s\nOS/Arch: %s/%s",
		Name,
		Version,
		Commit,
		Date,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// Short returns just the version string
func Short() string {
	return Version
}

// UserAgent identifies this build in HTTP responses, e.g. "linecheck/v0.3.0"
func UserAgent() string {
	return Name + "/" + Version
}
