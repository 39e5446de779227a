// Package responses defines JSON response types of the showcase server.
package responses

import "time"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	ServerVersion string    `json:"server_version"`
	Uptime        float64   `json:"uptime"`
	Dev           bool      `json:"dev"`
	ChatSessions  int       `json:"chat_sessions"`
	ReloadClients int       `json:"reload_clients"`
}
