// Package version holds the build backend version.
package version

// Version is overridden at link time with -ldflags "-X .../version.Version=...".
var Version = "0.1.0"

// Generator is the value of the Generator field of WHEEL records.
func Generator() string {
	return "Wodoo " + Version
}
