package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis hashes. Each quote is
// stored at key "quote:{symbol}:{venue}" with fields "bid", "ask", "last",
// "vol" and "ts" (Unix nanosecond timestamp). The cache mirrors the in-process
// quote book for out-of-process consumers; the book stays authoritative.
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(symbol, venue string) string {
	return "quote:" + symbol + ":" + venue
}

// SetQuote stores the latest quote for symbol on q.Venue.
func (qc *QuoteCache) SetQuote(ctx context.Context, symbol string, q domain.Quote) error {
	key := quoteKey(symbol, q.Venue)
	fields := map[string]interface{}{
		"bid":  strconv.FormatFloat(q.Bid, 'f', -1, 64),
		"ask":  strconv.FormatFloat(q.Ask, 'f', -1, 64),
		"last": strconv.FormatFloat(q.Last, 'f', -1, 64),
		"vol":  strconv.FormatFloat(q.Volume24h, 'f', -1, 64),
		"ts":   strconv.FormatInt(q.Timestamp.UnixNano(), 10),
	}
	if err := qc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s %s: %w", symbol, q.Venue, err)
	}
	return nil
}

// GetQuote retrieves the cached quote for symbol on venue. It returns
// domain.ErrNotFound when the key does not exist.
func (qc *QuoteCache) GetQuote(ctx context.Context, symbol, venue string) (domain.Quote, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(symbol, venue)).Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s %s: %w", symbol, venue, err)
	}
	if len(vals) == 0 {
		return domain.Quote{}, domain.ErrNotFound
	}
	return parseQuote(venue, vals)
}

// GetQuotes retrieves the cached quotes for symbol across venues using a
// pipeline. Venues without a cached quote are silently omitted.
func (qc *QuoteCache) GetQuotes(ctx context.Context, symbol string, venues []string) (map[string]domain.Quote, error) {
	if len(venues) == 0 {
		return map[string]domain.Quote{}, nil
	}

	pipe := qc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(venues))
	for _, venue := range venues {
		cmds[venue] = pipe.HGetAll(ctx, quoteKey(symbol, venue))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get quotes pipeline: %w", err)
	}

	result := make(map[string]domain.Quote, len(venues))
	for venue, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		q, err := parseQuote(venue, vals)
		if err != nil {
			continue
		}
		result[venue] = q
	}
	return result, nil
}

// parseQuote rebuilds a Quote from its hash fields. Bid and ask are required;
// the rest default to zero.
func parseQuote(venue string, vals map[string]string) (domain.Quote, error) {
	bid, err := strconv.ParseFloat(vals["bid"], 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse bid: %w", err)
	}
	ask, err := strconv.ParseFloat(vals["ask"], 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse ask: %w", err)
	}
	q := domain.Quote{Venue: venue, Bid: bid, Ask: ask}
	if v, err := strconv.ParseFloat(vals["last"], 64); err == nil {
		q.Last = v
	}
	if v, err := strconv.ParseFloat(vals["vol"], 64); err == nil {
		q.Volume24h = v
	}
	if ns, err := strconv.ParseInt(vals["ts"], 10, 64); err == nil {
		q.Timestamp = time.Unix(0, ns)
	}
	return q, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
