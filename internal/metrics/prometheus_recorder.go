package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hxshowcase"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	httpRequests    *prom.CounterVec
	httpDuration    *prom.HistogramVec
	chatSessions    prom.Gauge
	chatBroadcasts  prom.Counter
	reloadClients   prom.Gauge
	reloadBroadcast prom.Counter
	reloadDropped   prom.Counter
	styleChecks     *prom.CounterVec
	contactsResets  prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "status"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
		chatSessions: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_sessions",
			Help:      "Connected websocket chat sessions",
		}),
		chatBroadcasts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "chat_broadcasts_total",
			Help:      "Chat messages fanned out to local sessions",
		}),
		reloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "reload_clients",
			Help:      "Connected server-sent-event reload clients",
		}),
		reloadBroadcast: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reload_broadcasts_total",
			Help:      "TriggerReload broadcasts",
		}),
		reloadDropped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reload_dropped_clients_total",
			Help:      "Reload clients dropped because their buffer was full",
		}),
		styleChecks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "style_checks_total",
			Help:      "Build configuration checks by target and result",
		}, []string{"target", "result"}),
		contactsResets: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_resets_total",
			Help:      "Scheduled resets of the demo contacts",
		}),
	}
	reg.MustRegister(pr.httpRequests, pr.httpDuration, pr.chatSessions, pr.chatBroadcasts,
		pr.reloadClients, pr.reloadBroadcast, pr.reloadDropped, pr.styleChecks, pr.contactsResets)
	return pr
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetChatSessions(n int) { p.chatSessions.Set(float64(n)) }
func (p *PrometheusRecorder) IncChatBroadcast()     { p.chatBroadcasts.Inc() }
func (p *PrometheusRecorder) SetReloadClients(n int) {
	p.reloadClients.Set(float64(n))
}
func (p *PrometheusRecorder) IncReloadBroadcast() { p.reloadBroadcast.Inc() }
func (p *PrometheusRecorder) IncReloadDropped()   { p.reloadDropped.Inc() }

func (p *PrometheusRecorder) IncStyleCheck(target string, result ResultLabel) {
	p.styleChecks.WithLabelValues(target, string(result)).Inc()
}

func (p *PrometheusRecorder) IncContactsReset() { p.contactsResets.Inc() }
