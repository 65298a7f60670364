package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/pricing"
)

// PoolBook holds the latest state per pool symbol, mirroring what the quote
// book does for CEX quotes. Written by the DEX pollers, read by the scanner
// and the HTTP server.
type PoolBook struct {
	mu    sync.RWMutex
	pools map[string]domain.LiquidityPool
}

// NewPoolBook returns an empty PoolBook.
func NewPoolBook() *PoolBook {
	return &PoolBook{pools: make(map[string]domain.LiquidityPool)}
}

// Set stores the latest state for pool.Symbol.
func (b *PoolBook) Set(pool domain.LiquidityPool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pools[pool.Symbol] = pool
}

// Get returns the latest state for symbol.
func (b *PoolBook) Get(symbol string) (domain.LiquidityPool, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.pools[symbol]
	return p, ok
}

// All returns a copy of every known pool, keyed by symbol.
func (b *PoolBook) All() map[string]domain.LiquidityPool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]domain.LiquidityPool, len(b.pools))
	for sym, p := range b.pools {
		out[sym] = p
	}
	return out
}

// PoolTask is one aggregator pool to poll.
type PoolTask struct {
	Symbol string
	PoolID string
	FeePct float64
}

// CurveTask is one bonding-curve account to poll.
type CurveTask struct {
	Symbol  string
	Address string
}

// DexPoller keeps the pool book current from the aggregator API and, when a
// reserve reader is configured, from raw bonding-curve account reads.
type DexPoller struct {
	book     *PoolBook
	pools    domain.PoolSource
	reserves domain.ReserveReader // nil disables the bonding-curve path
	interval time.Duration
	log      *slog.Logger
}

// NewDexPoller creates a DexPoller. reserves may be nil; the bonding-curve
// capability is decided here at construction, not per call.
func NewDexPoller(book *PoolBook, pools domain.PoolSource, reserves domain.ReserveReader, interval time.Duration, log *slog.Logger) *DexPoller {
	if interval <= 0 {
		interval = time.Second
	}
	return &DexPoller{
		book:     book,
		pools:    pools,
		reserves: reserves,
		interval: interval,
		log:      log.With(slog.String("component", "dex_poller")),
	}
}

// Run polls every configured pool and curve on each tick until ctx is
// cancelled. Individual failures skip that source for the cycle.
func (d *DexPoller) Run(ctx context.Context, pools []PoolTask, curves []CurveTask) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		for _, task := range pools {
			d.pollPool(ctx, task)
		}
		if d.reserves != nil {
			for _, task := range curves {
				d.pollCurve(ctx, task)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *DexPoller) pollPool(ctx context.Context, task PoolTask) {
	pool, err := d.pools.FetchPool(ctx, task.PoolID, task.Symbol)
	if err != nil {
		d.log.Warn("pool fetch failed",
			slog.String("symbol", task.Symbol),
			slog.String("pool", task.PoolID),
			slog.Any("error", err))
		return
	}
	// The aggregator does not report swap fees; overlay the configured one.
	pool.FeePct = task.FeePct
	d.book.Set(pool)
}

// pollCurve reads and decodes one bonding-curve account. Curve pools are
// priced in the chain's native asset; they carry no USD liquidity figure, so
// the cross-venue pass skips them and they surface through the API and logs
// only.
func (d *DexPoller) pollCurve(ctx context.Context, task CurveTask) {
	raw, err := d.reserves.FetchRawReserves(ctx, task.Address)
	if err != nil {
		d.log.Warn("curve read failed",
			slog.String("symbol", task.Symbol),
			slog.String("address", task.Address),
			slog.Any("error", err))
		return
	}
	reserves, err := pricing.DecodeCurveAccount(raw)
	if err != nil {
		// A discriminator mismatch means this read is unusable, same as an
		// unavailable venue.
		d.log.Warn("curve decode failed",
			slog.String("symbol", task.Symbol),
			slog.Any("error", err))
		return
	}
	price, err := pricing.CurvePriceFloat(reserves)
	if err != nil {
		d.log.Warn("curve price undefined",
			slog.String("symbol", task.Symbol),
			slog.Any("error", err))
		return
	}

	d.book.Set(domain.LiquidityPool{
		Venue:       "BondingCurve",
		Symbol:      task.Symbol,
		PoolID:      task.Address,
		PriceNative: price,
		Timestamp:   time.Now().UTC(),
		Reserves:    &reserves,
	})
	d.log.Info("curve price",
		slog.String("symbol", task.Symbol),
		slog.Float64("price_native", price),
		slog.Bool("complete", reserves.Complete))
}
