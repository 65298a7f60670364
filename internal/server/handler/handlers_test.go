package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/quotebook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler("monitor", time.Now().Add(-time.Minute), testLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
		Mode   string `json:"mode"`
		Uptime int64  `json:"uptime_seconds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Mode != "monitor" {
		t.Errorf("body = %+v", body)
	}
	if body.Uptime < 59 {
		t.Errorf("uptime = %d, want about a minute", body.Uptime)
	}
}

func TestGetQuotesSnapshot(t *testing.T) {
	book := quotebook.New(time.Minute)
	book.Set("BTC/USDT", domain.Quote{Venue: "Binance", Bid: 100, Ask: 100.1, Timestamp: time.Now()})
	h := NewQuoteHandler(book, nil, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/BTC-USDT", nil)
	req.SetPathValue("symbol", "BTC-USDT")
	rec := httptest.NewRecorder()
	h.GetQuotes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Symbol string                         `json:"symbol"`
		Venues map[string]quotebook.VenueView `json:"venues"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Symbol != "BTC/USDT" {
		t.Errorf("symbol = %q, want path dash restored to slash", body.Symbol)
	}
	view, ok := body.Venues["Binance"]
	if !ok {
		t.Fatalf("venues = %v", body.Venues)
	}
	if view.Quote.Bid != 100 || view.Stale {
		t.Errorf("view = %+v", view)
	}
}

func TestGetQuotesUnknownSymbol(t *testing.T) {
	h := NewQuoteHandler(quotebook.New(time.Minute), nil, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/ETH-USDT", nil)
	req.SetPathValue("symbol", "ETH-USDT")
	rec := httptest.NewRecorder()
	h.GetQuotes(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

type staticQuoteMirror struct {
	quotes map[string]domain.Quote
	venues []string
}

func (m *staticQuoteMirror) GetQuotes(ctx context.Context, symbol string, venues []string) (map[string]domain.Quote, error) {
	m.venues = venues
	return m.quotes, nil
}

func TestGetQuotesFallsBackToMirror(t *testing.T) {
	mirror := &staticQuoteMirror{quotes: map[string]domain.Quote{
		"Binance": {Venue: "Binance", Bid: 100, Ask: 100.1, Timestamp: time.Now()},
	}}
	h := NewQuoteHandler(quotebook.New(time.Minute), mirror, []string{"Binance", "Kraken"}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/BTC-USDT", nil)
	req.SetPathValue("symbol", "BTC-USDT")
	rec := httptest.NewRecorder()
	h.GetQuotes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(mirror.venues) != 2 {
		t.Errorf("mirror queried venues %v, want the configured pair", mirror.venues)
	}
	var body struct {
		Venues map[string]quotebook.VenueView `json:"venues"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	view, ok := body.Venues["Binance"]
	if !ok || view.Quote.Bid != 100 {
		t.Errorf("venues = %+v", body.Venues)
	}
}

type staticPools struct {
	pools map[string]domain.LiquidityPool
}

func (s staticPools) All() map[string]domain.LiquidityPool { return s.pools }

func TestListPoolsSorted(t *testing.T) {
	h := NewPoolHandler(staticPools{pools: map[string]domain.LiquidityPool{
		"SOL/USDC": {Venue: "Raydium", Symbol: "SOL/USDC", PriceUSD: 145},
		"BONK/SOL": {Venue: "Raydium", Symbol: "BONK/SOL", PriceNative: 0.0000002},
	}}, testLogger())

	rec := httptest.NewRecorder()
	h.ListPools(rec, httptest.NewRequest(http.MethodGet, "/api/pools", nil))

	var body struct {
		Pools []domain.LiquidityPool `json:"pools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Pools) != 2 || body.Pools[0].Symbol != "BONK/SOL" {
		t.Errorf("pools = %+v", body.Pools)
	}
}

func TestListPoolsWithoutDex(t *testing.T) {
	h := NewPoolHandler(nil, testLogger())

	rec := httptest.NewRecorder()
	h.ListPools(rec, httptest.NewRequest(http.MethodGet, "/api/pools", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Pools []domain.LiquidityPool `json:"pools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Pools == nil || len(body.Pools) != 0 {
		t.Errorf("pools = %v, want empty list", body.Pools)
	}
}

type fakeStats struct {
	stats  domain.Stats
	best   []domain.HistoryRecord
	err    error
	window time.Duration
	limit  int
}

func (f *fakeStats) Statistics(ctx context.Context, window time.Duration) (domain.Stats, error) {
	f.window = window
	return f.stats, f.err
}

func (f *fakeStats) BestOpportunities(ctx context.Context, window time.Duration, limit int) ([]domain.HistoryRecord, error) {
	f.window = window
	f.limit = limit
	return f.best, f.err
}

type fakeAlerts struct {
	alerts []domain.Alert
}

func (f fakeAlerts) Alerts() []domain.Alert { return f.alerts }

func TestListRecentParsesQuery(t *testing.T) {
	src := &fakeStats{best: []domain.HistoryRecord{
		{Opportunity: domain.Opportunity{Symbol: "BTC/USDT", NetProfitPct: 0.4}},
	}}
	h := NewOpportunityHandler(src, fakeAlerts{}, nil, testLogger())

	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/recent?limit=5&window=24h", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if src.limit != 5 || src.window != 24*time.Hour {
		t.Errorf("limit = %d, window = %v", src.limit, src.window)
	}
	var body struct {
		Opportunities []domain.HistoryRecord `json:"opportunities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Opportunities) != 1 || body.Opportunities[0].Symbol != "BTC/USDT" {
		t.Errorf("opportunities = %+v", body.Opportunities)
	}
}

type fakeRecent struct {
	recs  []domain.HistoryRecord
	limit int
}

func (f *fakeRecent) ListRecent(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	f.limit = limit
	return f.recs, nil
}

func TestListRecentPrefersMirror(t *testing.T) {
	stats := &fakeStats{}
	mirror := &fakeRecent{recs: []domain.HistoryRecord{
		{Opportunity: domain.Opportunity{Symbol: "ETH/USDT"}},
	}}
	h := NewOpportunityHandler(stats, fakeAlerts{}, mirror, testLogger())

	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/recent?limit=7", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if mirror.limit != 7 {
		t.Errorf("mirror limit = %d, want 7", mirror.limit)
	}
	if stats.limit != 0 {
		t.Error("ranked path used despite the mirror")
	}
	var body struct {
		Opportunities []domain.HistoryRecord `json:"opportunities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Opportunities) != 1 || body.Opportunities[0].Symbol != "ETH/USDT" {
		t.Errorf("opportunities = %+v", body.Opportunities)
	}

	// A window always ranks from the history log; the mirror keeps no
	// window index.
	rec = httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/recent?window=1h", nil))
	if stats.window != time.Hour {
		t.Errorf("window = %v, want the ranked path", stats.window)
	}
}

func TestListRecentCapsLimit(t *testing.T) {
	src := &fakeStats{}
	h := NewOpportunityHandler(src, fakeAlerts{}, nil, testLogger())

	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/recent?limit=9999", nil))

	if src.limit != 200 {
		t.Errorf("limit = %d, want capped at 200", src.limit)
	}
}

func TestGetStatsFailure(t *testing.T) {
	src := &fakeStats{err: errors.New("disk gone")}
	h := NewOpportunityHandler(src, fakeAlerts{}, nil, testLogger())

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestListAlerts(t *testing.T) {
	at := time.Now().UTC()
	h := NewOpportunityHandler(&fakeStats{}, fakeAlerts{alerts: []domain.Alert{
		{Message: "HIGH PROFIT ALERT: 0.480% on BTC/USDT", At: at},
	}}, nil, testLogger())

	rec := httptest.NewRecorder()
	h.ListAlerts(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

	var body struct {
		Alerts []alertView `json:"alerts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Alerts) != 1 || body.Alerts[0].Message != "HIGH PROFIT ALERT: 0.480% on BTC/USDT" {
		t.Errorf("alerts = %+v", body.Alerts)
	}
}
