package ingest

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/quotebook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// scriptedSource returns canned results per call.
type scriptedSource struct {
	name    string
	calls   atomic.Int64
	results []func() (domain.Quote, error)
}

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	n := int(s.calls.Add(1)) - 1
	if n >= len(s.results) {
		n = len(s.results) - 1
	}
	return s.results[n]()
}

func goodQuote(venue string) func() (domain.Quote, error) {
	return func() (domain.Quote, error) {
		return domain.Quote{Venue: venue, Bid: 100, Ask: 100.1, Timestamp: time.Now()}, nil
	}
}

func failUnavailable() (domain.Quote, error) {
	return domain.Quote{}, domain.ErrVenueUnavailable
}

func TestPollerStoresQuotes(t *testing.T) {
	book := quotebook.New(time.Minute)
	src := &scriptedSource{name: "Binance", results: []func() (domain.Quote, error){goodQuote("Binance")}}
	p := NewPoller(book, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, PollTask{Symbol: "BTC/USDT", Source: src, Interval: 5 * time.Millisecond, MaxRetries: 0}) }()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := book.Get("BTC/USDT", "Binance"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("quote never stored")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run returned %v", err)
	}
	if book.Status("Binance") != domain.VenueStatusOK {
		t.Errorf("status = %v", book.Status("Binance"))
	}
}

func TestPollerAbandonsBlockedVenue(t *testing.T) {
	book := quotebook.New(time.Minute)
	src := &scriptedSource{name: "Binance", results: []func() (domain.Quote, error){
		func() (domain.Quote, error) { return domain.Quote{}, domain.ErrVenueBlocked },
	}}
	p := NewPoller(book, nil, testLogger())

	err := p.Run(context.Background(), PollTask{Symbol: "BTC/USDT", Source: src, Interval: time.Millisecond, MaxRetries: 3})
	if err != nil {
		t.Fatalf("blocked venue should end the task cleanly, got %v", err)
	}
	if book.Status("Binance") != domain.VenueStatusUnavailable {
		t.Errorf("status = %v, want unavailable", book.Status("Binance"))
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("blocked venue retried %d times", got)
	}
}

func TestPollerMarksStaleAfterRetryExhaustion(t *testing.T) {
	book := quotebook.New(time.Minute)
	src := &scriptedSource{name: "Kraken", results: []func() (domain.Quote, error){failUnavailable}}
	p := NewPoller(book, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, PollTask{Symbol: "BTC/USDT", Source: src, Interval: 5 * time.Millisecond, MaxRetries: 1}) }()

	deadline := time.After(2 * time.Second)
	for book.Status("Kraken") != domain.VenueStatusStale {
		select {
		case <-deadline:
			t.Fatal("venue never marked stale")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	// MaxRetries 1 means two attempts in the first cycle.
	if got := src.calls.Load(); got < 2 {
		t.Errorf("fetch called %d times, want at least 2", got)
	}
}
