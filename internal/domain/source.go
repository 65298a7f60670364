package domain

import "context"

// QuoteSource supplies quotes for an instrument on demand. Implementations
// wrap a single venue's ticker endpoint; the core never calls venue-specific
// endpoints directly.
type QuoteSource interface {
	// Name returns the venue identity used as the QuoteBook key.
	Name() string
	// FetchQuote returns the current quote for the instrument symbol
	// (e.g. "BTC/USDT"). It returns ErrVenueUnavailable (possibly wrapped)
	// when the venue has no data this cycle, and ErrVenueBlocked when the
	// venue should be abandoned entirely.
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
}

// StreamSource supplies quotes as a push stream over a long-lived connection.
type StreamSource interface {
	// Name returns the venue identity used as the QuoteBook key.
	Name() string
	// Stream delivers each ticker update to handle until ctx is cancelled or
	// the connection fails. A nil return means the stream ended cleanly.
	Stream(ctx context.Context, symbol string, handle func(Quote)) error
}

// PoolSource supplies AMM pool state for DEX venues.
type PoolSource interface {
	// FetchPool returns the pool state for a known pool ID, labelled with the
	// given instrument symbol.
	FetchPool(ctx context.Context, poolID, symbol string) (LiquidityPool, error)
}

// ReserveReader fetches raw on-chain account bytes for bonding-curve reads.
// The pricing layer owns decoding; this interface is transport only.
type ReserveReader interface {
	FetchRawReserves(ctx context.Context, address string) ([]byte, error)
}
