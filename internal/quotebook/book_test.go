package quotebook

import (
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

func quoteAt(venue string, bid, ask float64, ts time.Time) domain.Quote {
	return domain.Quote{Venue: venue, Bid: bid, Ask: ask, Last: (bid + ask) / 2, Timestamp: ts}
}

func TestSetRejectsInvalidQuote(t *testing.T) {
	b := New(30 * time.Second)
	now := time.Now()

	if err := b.Set("BTC/USDT", quoteAt("Binance", 100, 100.1, now)); err != nil {
		t.Fatalf("valid quote rejected: %v", err)
	}
	if err := b.Set("BTC/USDT", domain.Quote{Venue: "Binance", Bid: 0, Ask: 100.2, Timestamp: now}); err != domain.ErrInvalidQuote {
		t.Fatalf("want ErrInvalidQuote, got %v", err)
	}

	// The last good quote must survive the rejected write.
	q, ok := b.Get("BTC/USDT", "Binance")
	if !ok || q.Bid != 100 {
		t.Errorf("last good quote lost: %+v ok=%v", q, ok)
	}
}

func TestQuotesReturnsCopy(t *testing.T) {
	b := New(0)
	now := time.Now()
	if err := b.Set("ETH/USDT", quoteAt("Kraken", 2000, 2001, now)); err != nil {
		t.Fatal(err)
	}

	m := b.Quotes("ETH/USDT")
	m["Kraken"] = quoteAt("Kraken", 1, 2, now)

	q, _ := b.Get("ETH/USDT", "Kraken")
	if q.Bid != 2000 {
		t.Errorf("mutation through copy leaked into book: %+v", q)
	}
}

func TestSnapshotStaleness(t *testing.T) {
	b := New(30 * time.Second)
	now := time.Now()

	if err := b.Set("BTC/USDT", quoteAt("Binance", 100, 100.1, now.Add(-5*time.Second))); err != nil {
		t.Fatal(err)
	}
	if err := b.Set("BTC/USDT", quoteAt("Kraken", 100.5, 100.6, now.Add(-2*time.Minute))); err != nil {
		t.Fatal(err)
	}

	snap := b.Snapshot("BTC/USDT", now)
	if snap["Binance"].Stale {
		t.Error("fresh quote reported stale")
	}
	if !snap["Kraken"].Stale {
		t.Error("aged quote not reported stale")
	}
	if snap["Kraken"].Status != domain.VenueStatusStale {
		t.Errorf("aged venue status = %v", snap["Kraken"].Status)
	}
}

func TestMarkStatus(t *testing.T) {
	b := New(0)
	if got := b.Status("Coinbase"); got != domain.VenueStatusUnavailable {
		t.Errorf("unknown venue status = %v", got)
	}
	b.MarkStatus("Coinbase", domain.VenueStatusStale)
	if got := b.Status("Coinbase"); got != domain.VenueStatusStale {
		t.Errorf("status = %v", got)
	}
	// A fresh quote flips the venue back to OK.
	if err := b.Set("BTC/USDT", quoteAt("Coinbase", 100, 100.2, time.Now())); err != nil {
		t.Fatal(err)
	}
	if got := b.Status("Coinbase"); got != domain.VenueStatusOK {
		t.Errorf("status after Set = %v", got)
	}
}

func TestConcurrentReadersSingleWriter(t *testing.T) {
	b := New(time.Minute)
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = b.Set("BTC/USDT", quoteAt("Binance", 100+float64(i)*0.01, 100.1+float64(i)*0.01, time.Now()))
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = b.Quotes("BTC/USDT")
					_, _ = b.Get("BTC/USDT", "Binance")
					_ = b.Snapshot("BTC/USDT", time.Now())
				}
			}
		}()
	}
	wg.Wait()
}
