package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labpulse/internal/config"
)

func newTestServer(t *testing.T) (*Server, *config.AppConfig) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Data.DataDir = t.TempDir()

	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, cfg
}

func TestServerRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	defer s.Close(context.Background())

	cases := []struct {
		target string
		code   int
	}{
		{"/", http.StatusOK},
		{"/api/status", http.StatusOK},
		{"/api/dashboard", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.target, nil))
		if w.Code != tc.code {
			t.Fatalf("%s: status = %d, want %d", tc.target, w.Code, tc.code)
		}
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "labpulse_http_requests_total") {
		t.Fatalf("metrics exposition missing request counter: %d", w.Code)
	}
}

func TestServerCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	defer s.Close(context.Background())

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

func TestServerCloseBacksUp(t *testing.T) {
	s, cfg := newTestServer(t)
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(cfg.Data.DataDir, "backups"))
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("backups = %d, want 1", len(entries))
	}
}

func TestServerInvalidDefaultPeriod(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.DataDir = t.TempDir()
	cfg.Dashboard.DefaultPeriod = "fortnight"

	if _, err := NewServer(cfg); err == nil {
		t.Fatalf("expected error for invalid default period")
	}
}
