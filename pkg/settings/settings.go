// Package settings holds build metadata and per-invocation settings shared by
// the exprsense commands.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "exprsense"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds the commit hash, semantic version and build timestamp of
// the running binary.
type VersionInfo struct {
	Commit       string `json:"commit" yaml:"commit"`
	BuildVersion string `json:"version" yaml:"version"`
	BuildTime    string `json:"build_time" yaml:"build_time"`
}

// Run holds settings for a single execution of the CLI. Output is the -o
// value of the running subcommand.
type Run struct {
	MinLogLevel int8
	ConfigFile  string
	Output      string
}

// NewCliParams returns the defaults used before flags are parsed.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Output:      "table",
	}
}
