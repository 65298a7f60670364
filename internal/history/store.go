// Package history persists detected opportunities to an append-only JSONL log
// and derives summary statistics and alerts from it.
package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

const (
	// HistoryFile is the append-only opportunity log, one JSON object per line.
	HistoryFile = "arbitrage_history.jsonl"
	// StatsFile is the regenerable statistics snapshot.
	StatsFile = "arbitrage_stats.json"
)

// Store is a JSONL-backed HistoryStore. Writes are serialized by a mutex so
// record order matches arrival order; the log is the source of truth and is
// never rewritten, only appended to.
type Store struct {
	mu   sync.Mutex
	path string
	file *os.File

	alertThresholdPct float64
	alerts            []domain.Alert

	mirror domain.OpportunityMirror
	log    *slog.Logger
	now    func() time.Time
}

var _ domain.HistoryStore = (*Store)(nil)

// Open creates dir if needed and opens (or creates) the history log inside it
// for appending. mirror may be nil; when set, every record is also inserted
// there on a best-effort basis.
func Open(dir string, alertThresholdPct float64, mirror domain.OpportunityMirror, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	path := filepath.Join(dir, HistoryFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("history: open log: %w", err)
	}
	return &Store{
		path:              path,
		file:              f,
		alertThresholdPct: alertThresholdPct,
		mirror:            mirror,
		log:               log.With(slog.String("component", "history")),
		now:               time.Now,
	}, nil
}

// Close flushes and closes the underlying log file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Path returns the history log location.
func (s *Store) Path() string { return s.path }

// Record appends one opportunity to the log. The alert list is updated even
// when the write fails, so a storage outage does not lose the signal for the
// session. Mirror failures are logged and never fail the call.
func (s *Store) Record(ctx context.Context, opp domain.Opportunity) error {
	rec := domain.HistoryRecord{Opportunity: opp, RecordedAt: s.now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.NetProfitPct >= s.alertThresholdPct {
		alert := domain.NewAlert(rec)
		s.alerts = append(s.alerts, alert)
		s.log.Warn("high profit alert",
			slog.String("symbol", rec.Symbol),
			slog.String("route", rec.Route()),
			slog.Float64("net_profit_pct", rec.NetProfitPct))
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: marshal record: %w", err)
	}
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("history: append record: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.Insert(ctx, rec); err != nil {
			s.log.Warn("mirror insert failed", slog.Any("error", err))
		}
	}
	return nil
}

// Query reads the log oldest-first, skipping any record after since is
// applied. A truncated or malformed line (typically a partial tail from an
// interrupted write) is skipped, never an error.
func (s *Store) Query(ctx context.Context, since time.Time) ([]domain.HistoryRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: open log: %w", err)
	}
	defer f.Close()

	var out []domain.HistoryRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec domain.HistoryRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			s.log.Debug("skipping malformed history line", slog.Any("error", err))
			continue
		}
		if !since.IsZero() && rec.RecordedAt.Before(since) {
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("history: read log: %w", err)
	}
	return out, nil
}

// Alerts returns a copy of the session alert list without clearing it.
func (s *Store) Alerts() []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// DrainAlerts returns the session alerts and clears the list. The history log
// is untouched.
func (s *Store) DrainAlerts() []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.alerts
	s.alerts = nil
	return out
}
