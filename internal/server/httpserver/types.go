package httpserver

import (
	"io/fs"
	"net/http"

	"git.home.luguber.info/inful/hxshowcase/internal/examples"
	"git.home.luguber.info/inful/hxshowcase/internal/metrics"
	"git.home.luguber.info/inful/hxshowcase/internal/server/handlers"
)

// ReloadHub serves the SSE endpoint and owns the server version.
type ReloadHub interface {
	http.Handler
	Version() string
	Clients() int
	Shutdown()
}

// ChatHub serves the websocket chat.
type ChatHub interface {
	http.Handler
	Sessions() int
	Shutdown()
}

// Options configures the runtime wiring of the server.
type Options struct {
	Renderer *examples.Renderer
	Catalog  []examples.Entry
	Reload   ReloadHub
	// Chat is optional; without it /ws is not routed.
	Chat     ChatHub
	Contacts handlers.ContactStore
	// Styles is served below /styles/.
	Styles fs.FS

	Recorder metrics.Recorder
	// MetricsHandler is mounted at monitoring.metrics.path when metrics
	// are enabled.
	MetricsHandler http.Handler
}
