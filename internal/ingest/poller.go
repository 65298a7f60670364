// Package ingest owns the background tasks that keep the quote book and pool
// book current, and the scan loop that turns book state into recorded
// opportunities.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/quotebook"
)

// PollTask is one (instrument, venue) polling assignment.
type PollTask struct {
	Symbol string
	Source domain.QuoteSource
	// Interval is the minimum time between requests for this task. The gate
	// is per task; a global cap would need serialization above this layer.
	Interval time.Duration
	// MaxRetries bounds transient-error retries within one cycle.
	MaxRetries int
}

// Poller runs one goroutine per PollTask, writing into the shared quote book
// and optionally mirroring into the external quote cache.
type Poller struct {
	book  *quotebook.Book
	cache domain.QuoteCache // nil disables mirroring
	log   *slog.Logger
}

// NewPoller creates a Poller writing into book. cache may be nil.
func NewPoller(book *quotebook.Book, cache domain.QuoteCache, log *slog.Logger) *Poller {
	return &Poller{
		book:  book,
		cache: cache,
		log:   log.With(slog.String("component", "poller")),
	}
}

// Run polls the task's venue until ctx is cancelled or the venue signals a
// permanent condition. Transient failures retry with backoff up to
// MaxRetries; after exhaustion the venue is marked stale and the task waits
// for the next cycle. A blocked venue abandons the task entirely.
func (p *Poller) Run(ctx context.Context, task PollTask) error {
	venue := task.Source.Name()
	log := p.log.With(slog.String("venue", venue), slog.String("symbol", task.Symbol))
	interval := task.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		q, err := p.fetchWithRetry(ctx, task, log)
		switch {
		case err == nil:
			p.store(ctx, task.Symbol, q, log)
		case errors.Is(err, domain.ErrVenueBlocked):
			p.book.MarkStatus(venue, domain.VenueStatusUnavailable)
			log.Warn("venue blocked, abandoning task", slog.Any("error", err))
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		default:
			p.book.MarkStatus(venue, domain.VenueStatusStale)
			log.Warn("retries exhausted, venue marked stale", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// fetchWithRetry performs one fetch cycle with bounded backoff. Blocked
// venues and context cancellation short-circuit; other errors retry.
func (p *Poller) fetchWithRetry(ctx context.Context, task PollTask, log *slog.Logger) (domain.Quote, error) {
	backoff := 500 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt <= task.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.Quote{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		q, err := task.Source.FetchQuote(ctx, task.Symbol)
		if err == nil {
			return q, nil
		}
		if errors.Is(err, domain.ErrVenueBlocked) || ctx.Err() != nil {
			return domain.Quote{}, err
		}
		lastErr = err
		log.Debug("fetch failed", slog.Int("attempt", attempt+1), slog.Any("error", err))
	}
	return domain.Quote{}, lastErr
}

func (p *Poller) store(ctx context.Context, symbol string, q domain.Quote, log *slog.Logger) {
	if err := p.book.Set(symbol, q); err != nil {
		log.Debug("dropping quote", slog.Any("error", err))
		return
	}
	if p.cache != nil {
		if err := p.cache.SetQuote(ctx, symbol, q); err != nil {
			log.Debug("cache mirror failed", slog.Any("error", err))
		}
	}
}
