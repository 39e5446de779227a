package chat

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func waitSessions(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Sessions() == n }, time.Second, 5*time.Millisecond)
}

func TestRender_EscapesText(t *testing.T) {
	got := string(Render(Message{SessionID: "0123456789abcdef", Text: `<script>alert("x")</script>`}))
	assert.Equal(t,
		"<div hx-swap-oob='beforeend:#messages'><p><b>01234567</b>: &lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;</p></div>"+
			"<div hx-swap-oob='beforeend:#messages2'><p>&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;</p></div>",
		got)
}

func TestUsername(t *testing.T) {
	assert.Equal(t, "abcdefgh", Username("abcdefgh-1234"))
	assert.Equal(t, "abc", Username("abc"))
	assert.Equal(t, "anonymous", Username(""))
}

func TestHub_BroadcastsToAllSessions(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	alice, bob := dial(t, srv), dial(t, srv)
	waitSessions(t, hub, 2)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"chat_message":"   "}`)))
	require.NoError(t, alice.WriteJSON(Inbound{ChatMessage: "hello <b>"}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		got := readText(t, conn)
		assert.Contains(t, got, "beforeend:#messages'")
		assert.Contains(t, got, "hello &lt;b&gt;")
		assert.NotContains(t, got, "not json")
	}
}

func TestHub_SessionsTrackDisconnects(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitSessions(t, hub, 1)
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	waitSessions(t, hub, 0)
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitSessions(t, hub, 1)
	hub.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 503, resp.StatusCode)
}

type memRelay struct {
	mu        sync.Mutex
	deliver   func(Message)
	published []Message
	fail      error
	closed    bool
}

func (m *memRelay) Publish(_ context.Context, msg Message) error {
	m.mu.Lock()
	if m.fail != nil {
		m.mu.Unlock()
		return m.fail
	}
	m.published = append(m.published, msg)
	deliver := m.deliver
	m.mu.Unlock()
	deliver(msg)
	return nil
}

func (m *memRelay) Subscribe(deliver func(Message)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliver = deliver
	return nil
}

func (m *memRelay) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestHub_RelayDeliversRemoteMessages(t *testing.T) {
	relay := &memRelay{}
	hub := NewHub(nil)
	require.NoError(t, hub.UseRelay(relay))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitSessions(t, hub, 1)

	// A message from another instance arrives only through the relay.
	relay.deliver(Message{SessionID: "remote-session", Text: "from afar"})
	assert.Contains(t, readText(t, conn), "<b>remote-s</b>: from afar")

	require.NoError(t, conn.WriteJSON(Inbound{ChatMessage: "local"}))
	assert.Contains(t, readText(t, conn), ": local</p>")

	relay.mu.Lock()
	require.Len(t, relay.published, 1)
	assert.Equal(t, "local", relay.published[0].Text)
	relay.mu.Unlock()

	relay.fail = errors.New("down")
	err := hub.Broadcast(context.Background(), Message{Text: "x"})
	require.Error(t, err)

	hub.Shutdown()
	assert.True(t, relay.closed)
}
