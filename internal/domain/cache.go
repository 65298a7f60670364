package domain

import "context"

// QuoteCache mirrors the latest per-venue quotes into a shared cache so
// external consumers (dashboards, other processes) can read them without
// touching the in-process QuoteBook.
type QuoteCache interface {
	SetQuote(ctx context.Context, symbol string, q Quote) error
	GetQuote(ctx context.Context, symbol, venue string) (Quote, error)
	GetQuotes(ctx context.Context, symbol string, venues []string) (map[string]Quote, error)
}

// StreamMessage is a single entry read back from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub for live events and a durable stream for
// opportunity records.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	// StreamRecent returns the newest count entries oldest first, so a late
	// consumer can backfill before following live publishes.
	StreamRecent(ctx context.Context, stream string, count int) ([]StreamMessage, error)
}

