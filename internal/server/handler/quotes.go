package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/quotebook"
)

// QuoteBook is the read side of the in-process quote book.
type QuoteBook interface {
	Symbols() []string
	Snapshot(symbol string, now time.Time) map[string]quotebook.VenueView
}

// QuoteMirror is the read side of the shared quote cache. It is consulted when
// the in-process book has nothing for a symbol, so a server running in a mode
// that does not ingest can still answer from another process's quotes.
type QuoteMirror interface {
	GetQuotes(ctx context.Context, symbol string, venues []string) (map[string]domain.Quote, error)
}

// QuoteHandler serves the per-instrument quote endpoints.
type QuoteHandler struct {
	book   QuoteBook
	mirror QuoteMirror // nil when the cache is not wired
	venues []string
	logger *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler over the given book, with an optional
// cache mirror queried across the given venue names.
func NewQuoteHandler(book QuoteBook, mirror QuoteMirror, venues []string, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{book: book, mirror: mirror, venues: venues, logger: logger}
}

// ListSymbols returns every instrument the book currently tracks.
// GET /api/quotes
func (h *QuoteHandler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols := h.book.Symbols()
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbols": symbols})
}

// GetQuotes returns the per-venue snapshot for one instrument, with
// staleness computed at request time. When the book is empty the shared cache
// is tried before reporting not found.
// GET /api/quotes/{symbol}  (symbols use "-" in place of "/", e.g. BTC-USDT)
func (h *QuoteHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol")
		return
	}

	now := time.Now().UTC()
	view := h.book.Snapshot(symbol, now)
	if len(view) == 0 && h.mirror != nil {
		view = h.mirrorSnapshot(r.Context(), symbol, now)
	}
	if len(view) == 0 {
		writeError(w, http.StatusNotFound, "no quotes for symbol")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"venues": view,
	})
}

// mirrorSnapshot rebuilds a venue view from the shared cache. Cached quotes
// carry their own timestamps; staleness past the age field is not recomputed
// here.
func (h *QuoteHandler) mirrorSnapshot(ctx context.Context, symbol string, now time.Time) map[string]quotebook.VenueView {
	quotes, err := h.mirror.GetQuotes(ctx, symbol, h.venues)
	if err != nil {
		h.logger.Debug("quote mirror read failed", slog.String("error", err.Error()))
		return nil
	}
	out := make(map[string]quotebook.VenueView, len(quotes))
	for venue, q := range quotes {
		out[venue] = quotebook.VenueView{
			Quote:  q,
			Status: domain.VenueStatusOK,
			AgeSec: q.Age(now).Seconds(),
		}
	}
	return out
}

// pathSymbol reads the {symbol} path value and restores the "/" separator
// that cannot appear in a URL path segment.
func pathSymbol(r *http.Request) string {
	raw := r.PathValue("symbol")
	if raw == "" {
		return ""
	}
	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '-' {
			out[i] = '/'
		} else {
			out[i] = raw[i]
		}
	}
	return string(out)
}
