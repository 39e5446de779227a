package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveHTTPRequest("/color", 200, 15*time.Millisecond)
	pr.ObserveHTTPRequest("/color", 200, 5*time.Millisecond)
	pr.SetChatSessions(3)
	pr.IncChatBroadcast()
	pr.SetReloadClients(1)
	pr.IncReloadBroadcast()
	pr.IncReloadDropped()
	pr.IncStyleCheck("views", ResultSuccess)
	pr.IncContactsReset()

	if got := testutil.ToFloat64(pr.httpRequests.WithLabelValues("/color", "200")); got != 2 {
		t.Errorf("http_requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pr.chatSessions); got != 3 {
		t.Errorf("chat_sessions = %v, want 3", got)
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncStyleCheck("components", ResultFailed)

	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `hxshowcase_style_checks_total{result="failed",target="components"} 1`) {
		t.Errorf("style check counter missing from exposition:\n%s", rec.Body.String())
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopRecorder); !ok {
		t.Errorf("expected NoopRecorder for nil")
	}
	pr := NewPrometheusRecorder(nil)
	if OrNoop(pr) != Recorder(pr) {
		t.Errorf("expected recorder passthrough")
	}
}
