package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/config"
	"github.com/alanyoungcy/arbwatch/internal/domain"
)

type fakeQuoteCache struct {
	quote domain.Quote
	err   error
}

func (f *fakeQuoteCache) SetQuote(ctx context.Context, symbol string, q domain.Quote) error {
	return nil
}

func (f *fakeQuoteCache) GetQuote(ctx context.Context, symbol, venue string) (domain.Quote, error) {
	return f.quote, f.err
}

func (f *fakeQuoteCache) GetQuotes(ctx context.Context, symbol string, venues []string) (map[string]domain.Quote, error) {
	return map[string]domain.Quote{f.quote.Venue: f.quote}, f.err
}

func newTestApp() *App {
	cfg := config.Defaults()
	return New(&cfg, slog.New(slog.DiscardHandler))
}

func TestCachedQuoteUsedWhenFresh(t *testing.T) {
	a := newTestApp()
	deps := &Dependencies{QuoteCache: &fakeQuoteCache{
		quote: domain.Quote{Venue: "Binance", Bid: 100, Ask: 100.1, Timestamp: time.Now()},
	}}

	q, err := a.cachedQuote(context.Background(), deps, "BTC/USDT", "Binance")
	if err != nil {
		t.Fatal(err)
	}
	if q.Bid != 100 {
		t.Errorf("quote = %+v", q)
	}
}

func TestCachedQuoteRejectsStale(t *testing.T) {
	a := newTestApp()
	deps := &Dependencies{QuoteCache: &fakeQuoteCache{
		quote: domain.Quote{Venue: "Binance", Bid: 100, Ask: 100.1, Timestamp: time.Now().Add(-time.Hour)},
	}}

	if _, err := a.cachedQuote(context.Background(), deps, "BTC/USDT", "Binance"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want stale quote rejected", err)
	}
}

func TestCachedQuoteWithoutCache(t *testing.T) {
	a := newTestApp()

	if _, err := a.cachedQuote(context.Background(), &Dependencies{}, "BTC/USDT", "Binance"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want not found without a cache", err)
	}
}
