package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbwatch/internal/config"
	"github.com/alanyoungcy/arbwatch/internal/detector"
	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/ingest"
	"github.com/alanyoungcy/arbwatch/internal/server"
	"github.com/alanyoungcy/arbwatch/internal/server/handler"
	"github.com/alanyoungcy/arbwatch/internal/server/ws"
	"github.com/alanyoungcy/arbwatch/internal/venue/binance"
	"github.com/alanyoungcy/arbwatch/internal/venue/coinbase"
	"github.com/alanyoungcy/arbwatch/internal/venue/dexscreener"
	"github.com/alanyoungcy/arbwatch/internal/venue/kraken"
	"github.com/alanyoungcy/arbwatch/internal/venue/solana"
)

// MonitorMode runs continuous CEX ingestion, the detection loop, and alerting.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startIngest(ctx, g, deps)
	a.startScanner(ctx, g, deps)
	a.startArchiver(ctx, g, deps)
	g.Go(func() error { return a.watchVenues(ctx, deps) })

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// DexMode runs the DEX pollers (aggregator pools and bonding curves) alongside
// CEX ingestion so the cross-venue pass and triangles have data.
func (a *App) DexMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting dex mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startIngest(ctx, g, deps)
	a.startDex(ctx, g, deps)
	a.startScanner(ctx, g, deps)
	a.startArchiver(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// ScanMode fetches one quote per (instrument, venue), runs a single detection
// pass, refreshes the statistics snapshot, and exits. Individual fetch
// failures are logged and skipped.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting one-shot scan")

	g, fetchCtx := errgroup.WithContext(ctx)
	for name, vcfg := range a.cfg.Venues {
		if !vcfg.Enabled {
			continue
		}
		src := venueQuoteSource(name)
		if src == nil {
			a.logger.Warn("unknown venue in config, skipping", slog.String("venue", name))
			continue
		}
		for _, symbol := range a.cfg.Instruments {
			g.Go(func() error {
				q, err := src.FetchQuote(fetchCtx, symbol)
				if err != nil {
					a.logger.Warn("fetch failed",
						slog.String("venue", name),
						slog.String("symbol", symbol),
						slog.Any("error", err))
					q, err = a.cachedQuote(fetchCtx, deps, symbol, name)
					if err != nil {
						return nil
					}
					a.logger.Info("using cached quote",
						slog.String("venue", name),
						slog.String("symbol", symbol))
				}
				if err := deps.Book.Set(symbol, q); err != nil {
					a.logger.Warn("quote rejected",
						slog.String("venue", name),
						slog.String("symbol", symbol),
						slog.Any("error", err))
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	a.newScanner(deps).Scan(ctx)

	if _, err := deps.Analyzer.WriteSnapshot(ctx, a.cfg.History.Dir, 0); err != nil {
		a.logger.Warn("snapshot write failed", slog.Any("error", err))
	}
	return nil
}

// cachedQuote pulls the venue's last mirrored quote so a one-shot scan can
// still cover a venue that refused this run, as long as the quote is fresh.
func (a *App) cachedQuote(ctx context.Context, deps *Dependencies, symbol, venue string) (domain.Quote, error) {
	if deps.QuoteCache == nil {
		return domain.Quote{}, domain.ErrNotFound
	}
	q, err := deps.QuoteCache.GetQuote(ctx, symbol, venue)
	if err != nil {
		return domain.Quote{}, err
	}
	if stale := a.cfg.Arbitrage.StaleAfter.Duration; stale > 0 && q.Age(time.Now()) > stale {
		return domain.Quote{}, domain.ErrNotFound
	}
	return q, nil
}

// StatsMode reports aggregate statistics from the history log, refreshes the
// snapshot artifact, and exits.
func (a *App) StatsMode(ctx context.Context, deps *Dependencies) error {
	stats, err := deps.Analyzer.WriteSnapshot(ctx, a.cfg.History.Dir, 0)
	if err != nil {
		return fmt.Errorf("stats mode: %w", err)
	}

	a.logger.Info("history statistics",
		slog.Int("total_opportunities", stats.TotalOpportunities),
		slog.Float64("mean_net_pct", stats.NetProfit.Mean),
		slog.Float64("median_net_pct", stats.NetProfit.Median),
		slog.Float64("max_net_pct", stats.NetProfit.Max),
		slog.Int("high_value_count", stats.HighValueCount),
	)
	for _, pair := range stats.TopPairs {
		a.logger.Info("top venue pair",
			slog.String("pair", pair.Pair),
			slog.Int("count", pair.Count),
			slog.Float64("avg_profit_pct", pair.AvgProfit),
		)
	}

	best, err := deps.Analyzer.BestOpportunities(ctx, 0, a.cfg.History.TopPairs)
	if err != nil {
		return fmt.Errorf("stats mode: best opportunities: %w", err)
	}
	for _, rec := range best {
		a.logger.Info("best opportunity",
			slog.String("symbol", rec.Symbol),
			slog.String("route", rec.Route()),
			slog.Float64("net_pct", rec.NetProfitPct),
			slog.Time("recorded_at", rec.RecordedAt),
		)
	}
	return nil
}

// FullMode runs every subsystem: CEX ingestion, DEX pollers when enabled,
// detection, archival, and the API server.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startIngest(ctx, g, deps)
	if a.cfg.Dex.Enabled {
		a.startDex(ctx, g, deps)
	}
	a.startScanner(ctx, g, deps)
	a.startArchiver(ctx, g, deps)
	g.Go(func() error { return a.watchVenues(ctx, deps) })

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// startIngest adds one ingestion goroutine per (instrument, venue) pair to
// the group. Venues configured for streaming use their WebSocket ticker;
// everything else polls.
func (a *App) startIngest(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	poller := ingest.NewPoller(deps.Book, deps.QuoteCache, a.logger)
	runner := ingest.NewStreamRunner(deps.Book, deps.QuoteCache, a.logger)

	for name, vcfg := range a.cfg.Venues {
		if !vcfg.Enabled {
			continue
		}

		if vcfg.Stream {
			if src := venueStreamSource(name, a.logger); src != nil {
				for _, symbol := range a.cfg.Instruments {
					g.Go(func() error { return runner.Run(ctx, symbol, src) })
				}
				continue
			}
			a.logger.Warn("venue has no stream support, polling instead", slog.String("venue", name))
		}

		src := venueQuoteSource(name)
		if src == nil {
			a.logger.Warn("unknown venue in config, skipping", slog.String("venue", name))
			continue
		}
		for _, symbol := range a.cfg.Instruments {
			task := ingest.PollTask{
				Symbol:     symbol,
				Source:     src,
				Interval:   vcfg.PollInterval.Duration,
				MaxRetries: vcfg.MaxRetries,
			}
			g.Go(func() error { return poller.Run(ctx, task) })
		}
	}
}

// startDex adds the DEX poller goroutine covering aggregator pools and, when
// a Solana RPC endpoint is configured, bonding-curve account reads.
func (a *App) startDex(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	dex := a.cfg.Dex
	client := dexscreener.NewClient(dex.DexscreenerURL, "")

	var reserves domain.ReserveReader
	if len(dex.Curves) > 0 && dex.SolanaRPC != "" {
		reserves = solana.NewClient(dex.SolanaRPC)
	}

	poolTasks := make([]ingest.PoolTask, 0, len(dex.Pools))
	for _, p := range dex.Pools {
		poolTasks = append(poolTasks, ingest.PoolTask{Symbol: p.Symbol, PoolID: p.PoolID, FeePct: p.FeePct})
	}
	curveTasks := make([]ingest.CurveTask, 0, len(dex.Curves))
	for _, c := range dex.Curves {
		curveTasks = append(curveTasks, ingest.CurveTask{Symbol: c.Symbol, Address: c.Address})
	}

	poller := ingest.NewDexPoller(deps.PoolBook, client, reserves, dex.PollInterval.Duration, a.logger)
	g.Go(func() error { return poller.Run(ctx, poolTasks, curveTasks) })
}

// startScanner adds the periodic detection loop to the group.
func (a *App) startScanner(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	sc := a.newScanner(deps)
	g.Go(func() error { return sc.Run(ctx) })
}

// newScanner builds the scanner from config and wired dependencies.
func (a *App) newScanner(deps *Dependencies) *ingest.Scanner {
	return ingest.NewScanner(ingest.ScannerConfig{
		Book:           deps.Book,
		PoolBook:       deps.PoolBook,
		Detector:       deps.Detector,
		History:        deps.History,
		Bus:            deps.Bus,
		Alerts:         deps.Notifier,
		Triangles:      triangles(a.cfg.Dex.Triangles),
		Symbols:        a.cfg.Instruments,
		Interval:       a.cfg.Arbitrage.ScanInterval.Duration,
		TriangleMinPct: a.cfg.Arbitrage.TriangleMinProfitPct,
	}, a.logger)
}

// startArchiver adds the S3 archival loop when object storage is wired.
func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Archiver == nil {
		return
	}
	interval := a.cfg.S3.ArchiveInterval.Duration
	if interval <= 0 {
		interval = time.Hour
	}
	g.Go(func() error { return deps.Archiver.Run(ctx, interval) })
}

// watchVenues notifies when a venue that has delivered quotes stops
// responding. A venue that never came up is left to the ingest logs.
func (a *App) watchVenues(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Arbitrage.StaleAfter.Duration
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for name, vcfg := range a.cfg.Venues {
				if !vcfg.Enabled {
					continue
				}
				switch deps.Book.Status(name) {
				case domain.VenueStatusOK:
					healthy[name] = true
				case domain.VenueStatusUnavailable:
					if healthy[name] {
						healthy[name] = false
						deps.Notifier.NotifyVenueDown(ctx, name, "venue stopped responding")
					}
				}
			}
		}
	}
}

// startHTTPServer adds the API server goroutines: the WebSocket hub when the
// signal bus is wired, the server itself, and a graceful-shutdown watcher.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	var hub *ws.Hub
	if deps.Bus != nil {
		hub = ws.NewHub(deps.Bus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: time.Now().UTC(),
		})
		g.Go(func() error { return hub.Run(ctx) })
	}

	var pools handler.PoolReader
	if deps.PoolBook != nil {
		pools = deps.PoolBook
	}

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(a.cfg.Mode, time.Now().UTC(), a.logger),
		Quotes:        handler.NewQuoteHandler(deps.Book, deps.QuoteCache, enabledVenues(a.cfg), a.logger),
		Pools:         handler.NewPoolHandler(pools, a.logger),
		Opportunities: handler.NewOpportunityHandler(deps.Analyzer, deps.History, deps.Mirror, a.logger),
	}
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g.Go(func() error { return srv.Start() })
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		return ctx.Err()
	})
}

// enabledVenues lists the venue names the configuration turns on, sorted.
func enabledVenues(cfg *config.Config) []string {
	out := make([]string, 0, len(cfg.Venues))
	for name, v := range cfg.Venues {
		if v.Enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// venueQuoteSource maps a configured venue name to its REST client. Base URLs
// are the public endpoints; tests exercise the clients with httptest servers.
func venueQuoteSource(name string) domain.QuoteSource {
	switch strings.ToLower(name) {
	case "binance":
		return binance.NewClient("")
	case "kraken":
		return kraken.NewClient("")
	case "coinbase":
		return coinbase.NewClient("")
	default:
		return nil
	}
}

// venueStreamSource maps a configured venue name to its WebSocket ticker.
// Only Binance exposes one here.
func venueStreamSource(name string, log *slog.Logger) domain.StreamSource {
	if strings.ToLower(name) == "binance" {
		return binance.NewStream("", log)
	}
	return nil
}

// triangles converts configured cycles into detector inputs.
func triangles(cfgs []config.TriangleConfig) []detector.Triangle {
	out := make([]detector.Triangle, 0, len(cfgs))
	for _, t := range cfgs {
		out = append(out, detector.Triangle{Route: t.Route, Path: t.Path, Start: t.Start})
	}
	return out
}
