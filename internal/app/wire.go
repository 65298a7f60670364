package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/arbwatch/internal/blob/s3"
	"github.com/alanyoungcy/arbwatch/internal/cache/redis"
	"github.com/alanyoungcy/arbwatch/internal/config"
	"github.com/alanyoungcy/arbwatch/internal/detector"
	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/history"
	"github.com/alanyoungcy/arbwatch/internal/ingest"
	"github.com/alanyoungcy/arbwatch/internal/notify"
	"github.com/alanyoungcy/arbwatch/internal/quotebook"
	"github.com/alanyoungcy/arbwatch/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// In-process books
	Book     *quotebook.Book
	PoolBook *ingest.PoolBook // nil unless a DEX mode is active

	// Redis (nil when disabled)
	QuoteCache domain.QuoteCache
	Bus        domain.SignalBus

	// History
	Mirror   domain.OpportunityMirror // nil unless mirror_dsn is set
	History  *history.Store
	Analyzer *history.Analyzer

	// Detection
	Detector *detector.Detector

	// Archival (nil when S3 is disabled)
	Archiver *s3blob.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// needsDex returns true for modes that run the DEX pollers.
func needsDex(cfg *config.Config) bool {
	switch cfg.Mode {
	case "dex":
		return true
	case "full":
		return cfg.Dex.Enabled
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Book: quotebook.New(cfg.Arbitrage.StaleAfter.Duration),
	}
	if needsDex(cfg) {
		deps.PoolBook = ingest.NewPoolBook()
	}

	// --- Redis (optional: quote mirror, pub/sub, durable stream) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MaxRetries:   cfg.Redis.MaxRetries,
			TLSEnabled:   cfg.Redis.TLSEnabled,
			StreamMaxLen: cfg.Redis.StreamMaxLen,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.QuoteCache = redis.NewQuoteCache(redisClient)
		deps.Bus = redis.NewSignalBus(redisClient)
	}

	// --- Postgres mirror (optional; the JSONL log stays source of truth) ---
	var mirror domain.OpportunityMirror
	if cfg.History.MirrorDSN != "" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.History.MirrorDSN,
			MaxConns: cfg.History.MirrorMaxConns,
			MinConns: cfg.History.MirrorMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
		mirror = postgres.NewOpportunityStore(pgClient.Pool())
		deps.Mirror = mirror
	}

	// --- History store and analyzer ---
	store, err := history.Open(cfg.History.Dir, cfg.Arbitrage.AlertThresholdPct, mirror, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: history: %w", err)
	}
	closers = append(closers, func() { _ = store.Close() })
	deps.History = store
	deps.Analyzer = history.NewAnalyzer(store, cfg.Arbitrage.AlertThresholdPct, cfg.History.TopPairs)

	// --- Detector ---
	fees := make(map[string]float64, len(cfg.Venues))
	for name, v := range cfg.Venues {
		if v.Enabled {
			fees[name] = v.FeePct
		}
	}
	deps.Detector = detector.New(detector.Params{
		TradeSizeUSD:   cfg.Arbitrage.TradeSizeUSD,
		MaxSlippagePct: cfg.Arbitrage.MaxSlippagePct,
		MinProfitPct:   cfg.Arbitrage.MinProfitPct,
		VenueFees:      fees,
		DefaultFeePct:  0.1,
	}, logger)

	// --- S3 archival (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), cfg.History.Dir, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
