// Package version holds build information set at link time.
package version

// Version is overridden with -ldflags "-X github.com/ndewijer/Classroom-Bank-Backend/internal/version.Version=..."
var Version = "dev"
