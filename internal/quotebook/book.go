// Package quotebook holds the latest quote per venue per instrument. It is the
// single read model shared by the detector, the HTTP server and the cache
// mirror; the ingestion layer is its only writer.
package quotebook

import (
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Book is a concurrency-safe map of instrument symbol to per-venue quotes.
// Absence of a venue entry means no quote has arrived yet; an entry is only
// ever replaced by a newer valid quote, never partially updated.
type Book struct {
	mu sync.RWMutex
	// quotes[symbol][venue] = latest quote
	quotes map[string]map[string]domain.Quote
	// status[venue] tracks the venue's last known health, set by ingestion.
	status map[string]domain.VenueStatus

	staleAfter time.Duration
}

// New returns an empty Book. Quotes older than staleAfter are reported as
// stale by Snapshot; staleness is advisory and never blocks reads.
func New(staleAfter time.Duration) *Book {
	return &Book{
		quotes:     make(map[string]map[string]domain.Quote),
		status:     make(map[string]domain.VenueStatus),
		staleAfter: staleAfter,
	}
}

// Set stores q as the latest quote for symbol. Invalid quotes are rejected so
// a venue's last good quote survives a bad read.
func (b *Book) Set(symbol string, q domain.Quote) error {
	if !q.Valid() {
		return domain.ErrInvalidQuote
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	byVenue, ok := b.quotes[symbol]
	if !ok {
		byVenue = make(map[string]domain.Quote)
		b.quotes[symbol] = byVenue
	}
	byVenue[q.Venue] = q
	b.status[q.Venue] = domain.VenueStatusOK
	return nil
}

// Get returns the latest quote for symbol on venue.
func (b *Book) Get(symbol, venue string) (domain.Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[symbol][venue]
	return q, ok
}

// Quotes returns a copy of all quotes for symbol, keyed by venue. The copy is
// safe to read while ingestion keeps writing.
func (b *Book) Quotes(symbol string) map[string]domain.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	byVenue := b.quotes[symbol]
	out := make(map[string]domain.Quote, len(byVenue))
	for venue, q := range byVenue {
		out[venue] = q
	}
	return out
}

// Symbols returns the instruments with at least one quote, sorted.
func (b *Book) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.quotes))
	for sym := range b.quotes {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// MarkStatus records a venue health transition reported by ingestion
// (stale after retry exhaustion, unavailable after a permanent block).
func (b *Book) MarkStatus(venue string, st domain.VenueStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status[venue] = st
}

// Status returns the last known health of venue. Unknown venues report
// VenueUnavailable.
func (b *Book) Status(venue string) domain.VenueStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st, ok := b.status[venue]
	if !ok {
		return domain.VenueStatusUnavailable
	}
	return st
}

// VenueView is one venue's entry in a Snapshot.
type VenueView struct {
	Quote  domain.Quote       `json:"quote"`
	Status domain.VenueStatus `json:"status"`
	Stale  bool               `json:"stale"`
	AgeSec float64            `json:"age_sec"`
}

// Snapshot returns the per-venue view of symbol at time now, with staleness
// computed against the configured max age. A venue whose stored status is OK
// but whose quote has aged out is reported stale.
func (b *Book) Snapshot(symbol string, now time.Time) map[string]VenueView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	byVenue := b.quotes[symbol]
	out := make(map[string]VenueView, len(byVenue))
	for venue, q := range byVenue {
		age := q.Age(now)
		st := b.status[venue]
		stale := b.staleAfter > 0 && age > b.staleAfter
		if stale && st == domain.VenueStatusOK {
			st = domain.VenueStatusStale
		}
		out[venue] = VenueView{
			Quote:  q,
			Status: st,
			Stale:  stale,
			AgeSec: age.Seconds(),
		}
	}
	return out
}
