package version

// Set at build time with
// -ldflags "-X github.com/Emyrk/profreport/internal/version.GitTag=..."
var (
	GitTag    = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
