package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthzOK(t *testing.T) {
	h := Handler(map[string]HealthFunc{
		"postgres": func(context.Context) error { return nil },
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHealthzReportsFailingCheck(t *testing.T) {
	h := Handler(map[string]HealthFunc{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "redis unhealthy") {
		t.Errorf("expected failing check name in body, got %q", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := Handler(nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
