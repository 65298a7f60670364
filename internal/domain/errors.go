package domain

import "errors"

var (
	// ErrVenueUnavailable means no quote could be obtained from a venue this
	// cycle. The venue is skipped, not fatal.
	ErrVenueUnavailable = errors.New("venue unavailable")
	// ErrVenueBlocked means the venue signalled a permanent condition
	// (geo-restriction, revoked access). The ingestion task is abandoned.
	ErrVenueBlocked = errors.New("venue access blocked")
	// ErrInvalidQuote means a quote had missing or non-positive price fields.
	ErrInvalidQuote = errors.New("invalid quote")
	// ErrInvalidAccountData means an on-chain account read did not carry the
	// expected discriminator. Treated as ErrVenueUnavailable for that read.
	ErrInvalidAccountData = errors.New("invalid account data")
	// ErrPoolUnusable means a pool has no usable liquidity for sizing.
	ErrPoolUnusable = errors.New("pool liquidity exhausted")
	// ErrNotFound is returned by stores and caches for missing keys.
	ErrNotFound = errors.New("not found")
	// ErrWSDisconnect is returned when a streaming connection drops.
	ErrWSDisconnect = errors.New("websocket disconnected")
)
