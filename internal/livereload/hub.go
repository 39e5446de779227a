// Package livereload pushes reload notifications to browsers over
// server-sent events.
//
// Every connected page receives a TriggerReload event on connect and on each
// Broadcast. The event only tells the page to ask the server whether its
// version is stale; the /reload endpoint makes the actual decision.
package livereload

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
	"git.home.luguber.info/inful/hxshowcase/internal/metrics"
)

// EventName is the SSE event type the pages listen for.
const EventName = "TriggerReload"

// DefaultHeartbeat is used when NewHub is given a non-positive interval.
const DefaultHeartbeat = 30 * time.Second

// clientBuffer bounds pending events per client before it counts as slow.
const clientBuffer = 8

// Hub manages SSE clients and the current server version.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*client
	recorder  metrics.Recorder
	heartbeat time.Duration
	closed    bool
	version   string
}

type client struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewHub returns a hub whose current version is version.
func NewHub(version string, heartbeat time.Duration, rec metrics.Recorder) *Hub {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Hub{
		clients:   map[int]*client{},
		recorder:  metrics.OrNoop(rec),
		heartbeat: heartbeat,
		version:   version,
	}
}

// Version returns the version pages should be rendered with.
func (h *Hub) Version() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP implements the SSE endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	c := &client{ch: make(chan string, clientBuffer), done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	c.id = h.nextID
	h.nextID++
	h.clients[c.id] = c
	current := h.version
	n := len(h.clients)
	h.mu.Unlock()
	h.recorder.SetReloadClients(n)
	defer h.removeClient(c.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	send := func(payload string) bool {
		if _, err := bw.WriteString(payload); err != nil {
			slog.Debug("livereload write", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			slog.Debug("livereload flush", logfields.Error(err))
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(FormatEvent(current)) {
		return
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case v := <-c.ch:
			if !send(FormatEvent(v)) {
				return
			}
		}
	}
}

// FormatEvent frames one TriggerReload event carrying version.
func FormatEvent(version string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", EventName, version)
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.done)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.recorder.SetReloadClients(n)
	}
}

// Broadcast records version as current and notifies every client. Clients
// whose buffers are full are dropped; the browser reconnects on its own.
// Empty or unchanged versions are ignored.
func (h *Hub) Broadcast(version string) {
	h.mu.Lock()
	if h.closed || version == "" || version == h.version {
		h.mu.Unlock()
		return
	}
	h.version = version
	snapshot := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- version:
		default:
			dropped++
			h.removeClient(c.id)
			h.recorder.IncReloadDropped()
		}
	}
	h.recorder.IncReloadBroadcast()
	slog.Debug("livereload broadcast", logfields.Version(version),
		slog.Int("clients", len(snapshot)), slog.Int("dropped", dropped))
}

// Shutdown disconnects all clients and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*client{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetReloadClients(0)
}
