package livereload

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/hxshowcase/internal/metrics"
)

type countingRecorder struct {
	metrics.NoopRecorder
	mu         sync.Mutex
	broadcasts int
	dropped    int
	clients    int
}

func (c *countingRecorder) IncReloadBroadcast() { c.mu.Lock(); c.broadcasts++; c.mu.Unlock() }
func (c *countingRecorder) IncReloadDropped()   { c.mu.Lock(); c.dropped++; c.mu.Unlock() }
func (c *countingRecorder) SetReloadClients(n int) {
	c.mu.Lock()
	c.clients = n
	c.mu.Unlock()
}

func connect(t *testing.T, url string) (*bufio.Reader, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		t.Fatalf("connect: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	return bufio.NewReader(resp.Body), func() {
		_ = resp.Body.Close()
		cancel()
	}
}

// readEvent reads lines until a blank line terminates one event.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var sb strings.Builder
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v (got %q)", err, sb.String())
		}
		if line == "\n" {
			return sb.String()
		}
		sb.WriteString(line)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_ConnectSendsTriggerReload(t *testing.T) {
	hub := NewHub("100", time.Minute, nil)
	defer hub.Shutdown()
	server := httptest.NewServer(hub)
	defer server.Close()

	r, done := connect(t, server.URL)
	defer done()

	if got := readEvent(t, r); got != "event: TriggerReload\ndata: 100\n" {
		t.Fatalf("initial event = %q", got)
	}
}

func TestHub_BroadcastSendsEvent(t *testing.T) {
	rec := &countingRecorder{}
	hub := NewHub("100", time.Minute, rec)
	defer hub.Shutdown()
	server := httptest.NewServer(hub)
	defer server.Close()

	r, done := connect(t, server.URL)
	defer done()
	_ = readEvent(t, r)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	hub.Broadcast("200")
	if got := readEvent(t, r); got != "event: TriggerReload\ndata: 200\n" {
		t.Fatalf("broadcast event = %q", got)
	}
	if hub.Version() != "200" {
		t.Fatalf("version = %q", hub.Version())
	}

	// Unchanged and empty versions are not broadcast.
	hub.Broadcast("200")
	hub.Broadcast("")
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.broadcasts != 1 {
		t.Fatalf("broadcasts = %d", rec.broadcasts)
	}
	if rec.clients != 1 {
		t.Fatalf("clients gauge = %d", rec.clients)
	}
}

func TestHub_Heartbeat(t *testing.T) {
	hub := NewHub("1", 20*time.Millisecond, nil)
	defer hub.Shutdown()
	server := httptest.NewServer(hub)
	defer server.Close()

	r, done := connect(t, server.URL)
	defer done()
	_ = readEvent(t, r)
	if got := readEvent(t, r); got != ": ping\n" {
		t.Fatalf("heartbeat = %q", got)
	}
}

func TestHub_DropsSlowClients(t *testing.T) {
	rec := &countingRecorder{}
	hub := NewHub("0", time.Minute, rec)
	c := &client{id: 7, ch: make(chan string, 1), done: make(chan struct{})}
	hub.clients[c.id] = c

	hub.Broadcast("1")
	hub.Broadcast("2")

	if hub.Clients() != 0 {
		t.Fatalf("slow client not dropped")
	}
	select {
	case <-c.done:
	default:
		t.Fatal("dropped client not signalled")
	}
	if rec.dropped != 1 {
		t.Fatalf("dropped = %d", rec.dropped)
	}
}

func TestHub_ShutdownDisconnectsAndRejects(t *testing.T) {
	hub := NewHub("1", time.Minute, nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	r, done := connect(t, server.URL)
	defer done()
	_ = readEvent(t, r)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	hub.Shutdown()
	hub.Shutdown()
	if _, err := r.ReadString('\n'); err == nil {
		t.Fatal("expected stream to end after shutdown")
	}

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status after shutdown = %d", resp.StatusCode)
	}

	hub.Broadcast("2")
	if hub.Version() != "1" {
		t.Fatal("broadcast after shutdown must be ignored")
	}
}
