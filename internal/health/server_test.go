package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"companion-bot/internal/observability"
)

func TestRootReturnsAliveText(t *testing.T) {
	s := NewServer(0, "file", nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
	if rr.Body.String() != AliveText {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestHealthzReportsBackend(t *testing.T) {
	s := NewServer(0, "redis", nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["storage_backend"] != "redis" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := observability.NewMetrics("companion")
	m.Replies.WithLabelValues("replied").Inc()
	s := NewServer(0, "memory", m)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `companion_replies_total{outcome="replied"} 1`) {
		t.Fatalf("metric missing from output")
	}
}

func TestUnknownMethodRejected(t *testing.T) {
	s := NewServer(0, "file", nil)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", rr.Code)
	}
}
