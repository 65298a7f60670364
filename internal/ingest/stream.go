package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/quotebook"
)

// StreamRunner keeps one streaming connection per (instrument, venue) alive,
// writing each update into the quote book. Reconnects with a capped
// exponential backoff; a clean stream end stops the task.
type StreamRunner struct {
	book  *quotebook.Book
	cache domain.QuoteCache // nil disables mirroring
	log   *slog.Logger
}

// NewStreamRunner creates a StreamRunner writing into book. cache may be nil.
func NewStreamRunner(book *quotebook.Book, cache domain.QuoteCache, log *slog.Logger) *StreamRunner {
	return &StreamRunner{
		book:  book,
		cache: cache,
		log:   log.With(slog.String("component", "stream")),
	}
}

// Run streams quotes for symbol from src until ctx is cancelled or the
// stream ends cleanly.
func (r *StreamRunner) Run(ctx context.Context, symbol string, src domain.StreamSource) error {
	venue := src.Name()
	log := r.log.With(slog.String("venue", venue), slog.String("symbol", symbol))

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		err := src.Stream(ctx, symbol, func(q domain.Quote) {
			if setErr := r.book.Set(symbol, q); setErr != nil {
				log.Debug("dropping stream quote", slog.Any("error", setErr))
				return
			}
			if r.cache != nil {
				if cacheErr := r.cache.SetQuote(ctx, symbol, q); cacheErr != nil {
					log.Debug("cache mirror failed", slog.Any("error", cacheErr))
				}
			}
			backoff = time.Second // healthy stream resets the backoff
		})
		if err == nil {
			log.Info("stream ended")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.book.MarkStatus(venue, domain.VenueStatusStale)
		log.Warn("stream disconnected, reconnecting",
			slog.Duration("backoff", backoff),
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
