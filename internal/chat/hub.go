package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
	"git.home.luguber.info/inful/hxshowcase/internal/metrics"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingEvery     = (pongWait * 9) / 10
	maxMessage    = 4096
	sessionBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Relay carries messages between hub instances. The hub publishes every
// message to the relay and delivers only what the relay hands back, so the
// relay must echo messages to the publishing instance too.
type Relay interface {
	Publish(ctx context.Context, m Message) error
	Subscribe(deliver func(Message)) error
	Close() error
}

// Hub tracks websocket sessions and fans messages out to them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
	relay    Relay
	recorder metrics.Recorder
	closed   bool
}

type session struct {
	id   string
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *session) close() { s.once.Do(func() { close(s.done) }) }

// NewHub returns a hub delivering locally until UseRelay is called.
func NewHub(rec metrics.Recorder) *Hub {
	return &Hub{sessions: map[string]*session{}, recorder: metrics.OrNoop(rec)}
}

// UseRelay routes broadcasts through r and delivers what r receives.
func (h *Hub) UseRelay(r Relay) error {
	if err := r.Subscribe(h.deliver); err != nil {
		return derrors.WrapError(err, derrors.CategoryTransport, "subscribe chat relay").Build()
	}
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
	return nil
}

// Sessions returns the number of connected sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ServeHTTP upgrades the request and runs the session until either side
// closes it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "chat shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("chat upgrade failed", logfields.Error(err))
		return
	}
	defer conn.Close()

	s := &session{id: uuid.NewString(), send: make(chan []byte, sessionBuffer), done: make(chan struct{})}
	if !h.register(s) {
		return
	}
	defer h.unregister(s)
	log := slog.With(logfields.SessionID(s.id))
	log.Debug("chat session connected")

	conn.SetReadLimit(maxMessage)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeLoop(conn, s)
		// Unblocks the read loop when the writer gives up first.
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("chat read failed", logfields.Error(err))
			}
			break
		}
		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			log.Warn("Error parsing chat message", logfields.Error(err))
			continue
		}
		if strings.TrimSpace(in.ChatMessage) == "" {
			continue
		}
		if err := h.Broadcast(r.Context(), Message{SessionID: s.id, Text: in.ChatMessage}); err != nil {
			log.Warn("chat broadcast failed", logfields.Error(err))
		}
	}
	s.close()
	<-writerDone
}

func writeLoop(conn *websocket.Conn, s *session) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-s.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(s *session) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.sessions[s.id] = s
	n := len(h.sessions)
	h.mu.Unlock()
	h.recorder.SetChatSessions(n)
	return true
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	n := len(h.sessions)
	h.mu.Unlock()
	s.close()
	if ok {
		h.recorder.SetChatSessions(n)
	}
}

// Broadcast sends m to every session, through the relay when one is set.
func (h *Hub) Broadcast(ctx context.Context, m Message) error {
	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay == nil {
		h.deliver(m)
		return nil
	}
	if err := relay.Publish(ctx, m); err != nil {
		return derrors.WrapError(err, derrors.CategoryTransport, "publish chat message").
			WithContext("session_id", m.SessionID).Build()
	}
	return nil
}

// deliver renders m once and queues it on every local session. A session
// whose queue is full is disconnected.
func (h *Hub) deliver(m Message) {
	payload := Render(m)
	h.mu.RLock()
	var slow []*session
	for _, s := range h.sessions {
		select {
		case s.send <- payload:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()
	for _, s := range slow {
		slog.Warn("dropping slow chat session", logfields.SessionID(s.id))
		s.close()
	}
	h.recorder.IncChatBroadcast()
}

// Shutdown closes every session and the relay.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	sessions := h.sessions
	h.sessions = map[string]*session{}
	relay := h.relay
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	h.recorder.SetChatSessions(0)
	if relay != nil {
		if err := relay.Close(); err != nil {
			slog.Warn("closing chat relay", logfields.Error(err))
		}
	}
}
