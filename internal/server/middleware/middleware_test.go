package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/metrics"
)

type observed struct {
	route  string
	status int
}

type httpRecorder struct {
	metrics.NoopRecorder
	mu   sync.Mutex
	seen []observed
}

func (h *httpRecorder) ObserveHTTPRequest(route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, observed{route, status})
}

func newChain(t *testing.T, rec metrics.Recorder) (func(http.Handler) http.Handler, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	return Chain(logger, derrors.NewHTTPErrorAdapter(logger), rec), &logs
}

func TestChain_RequestIDAndLogging(t *testing.T) {
	rec := &httpRecorder{}
	chain, logs := newChain(t, rec)

	mux := http.NewServeMux()
	var seenID string
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})
	h := chain(mux)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/items/43", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", seenID)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	rec.mu.Lock()
	assert.Equal(t, []observed{
		{"GET /items/{id}", http.StatusAccepted},
		{"GET /items/{id}", http.StatusAccepted},
		{"unmatched", http.StatusNotFound},
	}, rec.seen)
	rec.mu.Unlock()

	first := strings.SplitN(logs.String(), "\n", 2)[0]
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(first), &entry))
	assert.Equal(t, "HTTP request", entry["msg"])
	assert.Equal(t, "/items/42", entry["path"])
	assert.EqualValues(t, http.StatusAccepted, entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestChain_RecoversPanics(t *testing.T) {
	rec := &httpRecorder{}
	chain, logs := newChain(t, rec)
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/explode", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body derrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)
	assert.Equal(t, string(derrors.CategoryInternal), body.Code)
	assert.Contains(t, logs.String(), "HTTP handler panic")
	assert.Equal(t, http.StatusInternalServerError, rec.seen[0].status)
}

func TestResponseWriter_PassesFlushThrough(t *testing.T) {
	chain, _ := newChain(t, nil)
	var flushed bool
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		_, _ = w.Write([]byte("data"))
		f.Flush()
		flushed = true
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, flushed)
	assert.True(t, w.Flushed)

	_, ok := any(&responseWriter{ResponseWriter: w}).(http.Hijacker)
	assert.True(t, ok)
	_, _, err := (&responseWriter{ResponseWriter: w}).Hijack()
	assert.Error(t, err, "httptest.ResponseRecorder cannot hijack")
}
