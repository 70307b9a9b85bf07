package version

// Version is the current version of the tradeforge library.
// Release builds override it with ldflags:
// -ldflags "-X github.com/tradeforge-lab/tradeforge/internal/version.Version=v1.2.3"
var Version = "v1.0.0"

// GetVersion returns the current version of the library.
func GetVersion() string {
	return Version
}
