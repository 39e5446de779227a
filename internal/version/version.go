package version

import (
	"strconv"
	"time"
)

// Version contains the application version information.
// Set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/hxshowcase/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return "hxshowcase " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}

// ServerVersion identifies one run of the server, or one rebuild in dev
// mode. Pages embed it and compare it with the live value to decide
// whether they must refresh.
func ServerVersion(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}
