package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

func TestHealthHandler_Live(t *testing.T) {
	h := NewHealthHandler(&mockPinger{}, nil, "test")

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	h.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		generation *mockPinger
		wantStatus int
	}{
		{"upstream up", &mockPinger{}, http.StatusOK},
		{"upstream down", &mockPinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.generation, nil, "test")

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			rec := httptest.NewRecorder()
			h.Ready(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHealthHandler_Health_Components(t *testing.T) {
	h := NewHealthHandler(&mockPinger{}, &mockPinger{err: errors.New("down")}, "v1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when a component is down", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Version != "v1.2.3" {
		t.Errorf("version = %q", resp.Version)
	}
	if resp.Components["generation"].Status != "ok" {
		t.Errorf("generation status = %q", resp.Components["generation"].Status)
	}
	if resp.Components["database"].Status != "down" {
		t.Errorf("database status = %q", resp.Components["database"].Status)
	}
}

func TestHealthHandler_Health_NoDatabase(t *testing.T) {
	h := NewHealthHandler(&mockPinger{}, nil, "test")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp.Components["database"]; ok {
		t.Error("database component should be absent when auditing is disabled")
	}
}
