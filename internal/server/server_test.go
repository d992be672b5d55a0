package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/slotwise/internal/config"
)

func TestNewWiresRoutes(t *testing.T) {
	cfg := &config.Config{
		Environment:      "test",
		HTTPBind:         "127.0.0.1",
		HTTPPort:         0,
		DBBackend:        config.DatabaseSQLite,
		DBDSN:            filepath.Join(t.TempDir(), "slotwise.db"),
		JWTSigningKey:    "test-secret",
		SlotStep:         15 * time.Minute,
		BusyFetchTimeout: time.Second,
	}

	srv, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer srv.Close()

	if srv.MetricsServer() != nil {
		t.Fatal("metrics server should be disabled without a bind address")
	}

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/api/v1/health", http.StatusOK},
		{"/api/v1/book/h1/events", http.StatusOK},
		{"/api/v1/schedule", http.StatusUnauthorized},
		{"/api/v1/audit", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		rr := httptest.NewRecorder()
		srv.HTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rr.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.path, rr.Code, tc.want, rr.Body.String())
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s: security headers missing", tc.path)
		}
	}
}
