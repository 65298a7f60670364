package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/cache/redis"
	"github.com/alanyoungcy/arbwatch/internal/detector"
	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/quotebook"
)

// AlertSink receives high-profit alerts drained after each scan pass.
type AlertSink interface {
	NotifyAlert(ctx context.Context, alert domain.Alert)
}

// Scanner runs the detection pass on a fixed interval: read the books, detect
// opportunities, record them, and fan out alerts and live events.
type Scanner struct {
	book      *quotebook.Book
	poolBook  *PoolBook // nil when no DEX sources are configured
	det       *detector.Detector
	history   domain.HistoryStore
	bus       domain.SignalBus // nil disables event publishing
	alerts    AlertSink        // nil disables notifications
	triangles []detector.Triangle

	symbols        []string
	interval       time.Duration
	triangleMinPct float64
	log            *slog.Logger
}

// ScannerConfig bundles the scanner's collaborators and knobs.
type ScannerConfig struct {
	Book           *quotebook.Book
	PoolBook       *PoolBook
	Detector       *detector.Detector
	History        domain.HistoryStore
	Bus            domain.SignalBus
	Alerts         AlertSink
	Triangles      []detector.Triangle
	Symbols        []string
	Interval       time.Duration
	TriangleMinPct float64
}

// NewScanner creates a Scanner.
func NewScanner(cfg ScannerConfig, log *slog.Logger) *Scanner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Scanner{
		book:           cfg.Book,
		poolBook:       cfg.PoolBook,
		det:            cfg.Detector,
		history:        cfg.History,
		bus:            cfg.Bus,
		alerts:         cfg.Alerts,
		triangles:      cfg.Triangles,
		symbols:        cfg.Symbols,
		interval:       interval,
		triangleMinPct: cfg.TriangleMinPct,
		log:            log.With(slog.String("component", "scanner")),
	}
}

// Run executes detection passes until ctx is cancelled. The first pass runs
// after one interval so ingestion has a chance to populate the books.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan performs one full detection pass. Failures inside the pass are logged
// and never abort it; a pass on empty books simply records nothing.
func (s *Scanner) Scan(ctx context.Context) {
	var found int

	for _, symbol := range s.symbols {
		quotes := s.book.Quotes(symbol)
		opps := s.det.Detect(symbol, quotes)

		// Cross venue-type pass: each DEX pool against the CEX quotes for the
		// stable-equivalent instrument.
		if s.poolBook != nil {
			for _, pool := range s.poolBook.All() {
				if detector.StableSymbol(pool.Symbol) != symbol {
					continue
				}
				opps = append(opps, s.det.CompareDexCex(pool, quotes)...)
			}
		}

		for _, opp := range opps {
			found++
			s.record(ctx, opp)
		}
	}

	if s.poolBook != nil && len(s.triangles) > 0 {
		for _, tri := range s.det.EvaluateTriangles(s.triangles, s.poolBook.All(), s.triangleMinPct) {
			s.log.Info("triangular cycle",
				slog.String("route", tri.Route),
				slog.Float64("profit_pct", tri.ProfitPct))
			s.publishTriangle(ctx, tri)
		}
	}

	s.dispatchAlerts(ctx)

	if found > 0 {
		s.log.Info("scan complete", slog.Int("opportunities", found))
	} else {
		s.log.Debug("scan complete, nothing found")
	}
}

func (s *Scanner) record(ctx context.Context, opp domain.Opportunity) {
	s.log.Info("opportunity",
		slog.String("symbol", opp.Symbol),
		slog.String("route", opp.Route()),
		slog.Float64("gross_pct", opp.GrossProfitPct),
		slog.Float64("net_pct", opp.NetProfitPct))

	if err := s.history.Record(ctx, opp); err != nil {
		// Surfaced, not fatal; the alert list is already updated.
		s.log.Error("history write failed", slog.Any("error", err))
	}

	if s.bus != nil {
		payload, err := json.Marshal(opp)
		if err != nil {
			return
		}
		if err := s.bus.Publish(ctx, redis.ChannelOpportunities, payload); err != nil {
			s.log.Debug("publish failed", slog.Any("error", err))
		}
		if err := s.bus.StreamAppend(ctx, redis.StreamOpportunities, payload); err != nil {
			s.log.Debug("stream append failed", slog.Any("error", err))
		}
	}
}

// publishTriangle pushes a triangle cycle onto the live opportunity channel.
// Cycles are session findings only; the history log records two-leg round
// trips.
func (s *Scanner) publishTriangle(ctx context.Context, tri domain.TriangleOpportunity) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(tri)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, redis.ChannelOpportunities, payload); err != nil {
		s.log.Debug("triangle publish failed", slog.Any("error", err))
	}
}

// dispatchAlerts drains the session alert list and fans it out to the
// notifier and the alert channel.
func (s *Scanner) dispatchAlerts(ctx context.Context) {
	for _, alert := range s.history.DrainAlerts() {
		if s.alerts != nil {
			s.alerts.NotifyAlert(ctx, alert)
		}
		if s.bus != nil {
			if payload, err := json.Marshal(alert.Record); err == nil {
				if err := s.bus.Publish(ctx, redis.ChannelAlerts, payload); err != nil {
					s.log.Debug("alert publish failed", slog.Any("error", err))
				}
			}
		}
	}
}
