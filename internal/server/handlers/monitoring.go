package handlers

import (
	"log/slog"
	"net/http"
	"time"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/server/responses"
	"git.home.luguber.info/inful/hxshowcase/internal/version"
)

// RuntimeInfo is what the health endpoint reports on.
type RuntimeInfo interface {
	Version() string
	StartTime() time.Time
	Dev() bool
	ChatSessions() int
	ReloadClients() int
}

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	runtime      RuntimeInfo
	errorAdapter *derrors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(runtime RuntimeInfo) *MonitoringHandlers {
	return &MonitoringHandlers{
		runtime:      runtime,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC(),
		Version:       version.Version,
		ServerVersion: h.runtime.Version(),
		Uptime:        time.Since(h.runtime.StartTime()).Seconds(),
		Dev:           h.runtime.Dev(),
		ChatSessions:  h.runtime.ChatSessions(),
		ReloadClients: h.runtime.ReloadClients(),
	}
	if err := writeJSON(w, http.StatusOK, health); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to write health response").Build())
	}
}
