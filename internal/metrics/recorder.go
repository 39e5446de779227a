// Package metrics provides the observability hooks for hxshowcase.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check. The Prometheus recorder is
// swapped in when monitoring.metrics.enabled is set.
package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for the showcase server and the style tooling.
type Recorder interface {
	ObserveHTTPRequest(route string, status int, d time.Duration)
	SetChatSessions(n int)
	IncChatBroadcast()
	SetReloadClients(n int)
	IncReloadBroadcast()
	IncReloadDropped()
	IncStyleCheck(target string, result ResultLabel)
	IncContactsReset()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration) {}
func (NoopRecorder) SetChatSessions(int)                           {}
func (NoopRecorder) IncChatBroadcast()                             {}
func (NoopRecorder) SetReloadClients(int)                          {}
func (NoopRecorder) IncReloadBroadcast()                           {}
func (NoopRecorder) IncReloadDropped()                             {}
func (NoopRecorder) IncStyleCheck(string, ResultLabel)             {}
func (NoopRecorder) IncContactsReset()                             {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
