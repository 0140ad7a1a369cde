package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger defines the minimal interface for component health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves health check endpoints. db is nil when the audit
// trail is not configured; the generation service is always checked.
type HealthHandler struct {
	generation Pinger
	db         Pinger
	version    string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(generation, db Pinger, version string) *HealthHandler {
	return &HealthHandler{generation: generation, db: db, version: version}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe. Pings the generation service: 200 if OK,
// 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.generation.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "down",
			Timestamp: time.Now(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Health is the full health check with per-component latency and version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	components := make(map[string]CompStatus)
	overallStatus := "ok"

	check := func(name string, p Pinger) {
		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			components[name] = CompStatus{Status: "down"}
			overallStatus = "down"
			return
		}
		components[name] = CompStatus{
			Status:  "ok",
			Latency: time.Since(start).String(),
		}
	}

	check("generation", h.generation)
	if h.db != nil {
		check("database", h.db)
	}

	status := http.StatusOK
	if overallStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:     overallStatus,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
