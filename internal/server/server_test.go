package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/quotebook"
	"github.com/alanyoungcy/arbwatch/internal/server/handler"
)

type noopStats struct{}

func (noopStats) Statistics(ctx context.Context, window time.Duration) (domain.Stats, error) {
	return domain.Stats{}, nil
}

func (noopStats) BestOpportunities(ctx context.Context, window time.Duration, limit int) ([]domain.HistoryRecord, error) {
	return nil, nil
}

type noopAlerts struct{}

func (noopAlerts) Alerts() []domain.Alert { return nil }

func newTestServer(apiKey string) *Server {
	log := slog.New(slog.DiscardHandler)
	book := quotebook.New(time.Minute)
	handlers := Handlers{
		Health:        handler.NewHealthHandler("monitor", time.Now(), log),
		Quotes:        handler.NewQuoteHandler(book, nil, nil, log),
		Pools:         handler.NewPoolHandler(nil, log),
		Opportunities: handler.NewOpportunityHandler(&noopStats{}, noopAlerts{}, nil, log),
	}
	return NewServer(Config{Port: 0, APIKey: apiKey}, handlers, nil, log)
}

func TestHealthzBypassesAuth(t *testing.T) {
	srv := newTestServer("secret")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want health exempt from auth", rec.Code)
	}
}

func TestAPIRequiresKey(t *testing.T) {
	srv := newTestServer("secret")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quotes", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/quotes", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/quotes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("bearer status = %d, want 200", rec.Code)
	}
}

func TestAuthDisabledWhenNoKey(t *testing.T) {
	srv := newTestServer("")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pools", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest(http.MethodOptions, "/api/quotes", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Errorf("allow-origin = %q", got)
	}
}
