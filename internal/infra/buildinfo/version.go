package buildinfo

import (
	"fmt"
	"runtime"

	"github.com/yndnr/roguesave/pkg/codec"
)

// Build-time variables (set via ldflags).
var (
	// Version is the semantic version.
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info contains build information.
type Info struct {
	Version    string `json:"version" yaml:"version"`
	Commit     string `json:"commit" yaml:"commit"`
	BuildTime  string `json:"build_time" yaml:"build_time"`
	GoVersion  string `json:"go_version" yaml:"go_version"`
	SaveFormat uint32 `json:"save_format" yaml:"save_format"`
	MinFormat  uint32 `json:"min_format" yaml:"min_format"`
}

// Get returns the build information.
func Get() Info {
	return Info{
		Version:    Version,
		Commit:     Commit,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		SaveFormat: codec.CurrentVersion,
		MinFormat:  codec.VersionMin,
	}
}

// String returns a formatted version string.
func String() string {
	return fmt.Sprintf("%s (%s) built at %s, save format v%d (reads v%d+)",
		Version, Commit, BuildTime, codec.CurrentVersion, codec.VersionMin)
}
