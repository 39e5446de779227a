package version

import (
	"strings"
	"testing"
	"time"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if !strings.HasPrefix(String(), "hxshowcase "+Version) {
		t.Errorf("unexpected version line %q", String())
	}
}

func TestBuildInfo(t *testing.T) {
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}
	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}

func TestServerVersion(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if got := ServerVersion(at); got != "1700000000123" {
		t.Errorf("ServerVersion = %q", got)
	}
	if ServerVersion(at) == ServerVersion(at.Add(time.Millisecond)) {
		t.Error("versions one millisecond apart must differ")
	}
}
