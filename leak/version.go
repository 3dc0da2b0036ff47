package leak

import "github.com/kolkov/leaktrack/internal/leak/layout"

// Version is the current version of the tracker runtime.
const Version = "0.1.0"

// Info provides runtime information about the tracker.
type Info struct {
	// Version is the runtime version string.
	Version string

	// SchemaVersion is the object header layout version.
	SchemaVersion string

	// Enabled indicates whether the default tracker records creations.
	Enabled bool
}

// GetInfo returns information about the tracker runtime.
//
// Example:
//
//	info := leak.GetInfo()
//	fmt.Printf("leaktrack %s (header schema %s)\n", info.Version, info.SchemaVersion)
func GetInfo() Info {
	return Info{
		Version:       Version,
		SchemaVersion: layout.SchemaVersion,
		Enabled:       Default().Enabled(),
	}
}
