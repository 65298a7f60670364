package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Analyzer derives aggregate statistics from a history store. It only reads;
// the store owns the log.
type Analyzer struct {
	store             domain.HistoryStore
	alertThresholdPct float64
	topPairs          int
}

// NewAnalyzer returns an Analyzer ranking the top n venue pairs by mean
// profit. n below 1 falls back to 5.
func NewAnalyzer(store domain.HistoryStore, alertThresholdPct float64, topPairs int) *Analyzer {
	if topPairs < 1 {
		topPairs = 5
	}
	return &Analyzer{store: store, alertThresholdPct: alertThresholdPct, topPairs: topPairs}
}

// Statistics computes the aggregate snapshot over records newer than the
// window (zero window means all records). The result is a pure function of
// the record set; an empty set yields a zero-valued Stats, never an error.
func (a *Analyzer) Statistics(ctx context.Context, window time.Duration) (domain.Stats, error) {
	var since time.Time
	if window > 0 {
		since = time.Now().Add(-window)
	}
	recs, err := a.store.Query(ctx, since)
	if err != nil {
		return domain.Stats{}, err
	}
	return a.compute(recs, window), nil
}

// compute aggregates an in-memory record set. Split out so tests can feed
// synthetic sets directly.
func (a *Analyzer) compute(recs []domain.HistoryRecord, window time.Duration) domain.Stats {
	stats := domain.Stats{
		TotalOpportunities: len(recs),
		Window:             window,
		WindowHours:        window.Hours(),
	}
	if len(recs) == 0 {
		return stats
	}

	nets := make([]float64, 0, len(recs))
	grosses := make([]float64, 0, len(recs))
	bySymbol := make(map[string][]float64)
	byPair := make(map[string][]float64)

	stats.FirstSeen = recs[0].RecordedAt
	stats.LastSeen = recs[0].RecordedAt
	for _, r := range recs {
		nets = append(nets, r.NetProfitPct)
		grosses = append(grosses, r.GrossProfitPct)
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r.NetProfitPct)
		byPair[r.Route()] = append(byPair[r.Route()], r.NetProfitPct)
		if r.NetProfitPct >= a.alertThresholdPct {
			stats.HighValueCount++
		}
		if r.RecordedAt.Before(stats.FirstSeen) {
			stats.FirstSeen = r.RecordedAt
		}
		if r.RecordedAt.After(stats.LastSeen) {
			stats.LastSeen = r.RecordedAt
		}
	}

	stats.NetProfit = profileOf(nets, true)
	stats.GrossProfit = profileOf(grosses, false)

	total := float64(len(recs))
	stats.BySymbol = make(map[string]domain.SymbolStats, len(bySymbol))
	for sym, vals := range bySymbol {
		stats.BySymbol[sym] = domain.SymbolStats{
			Count:        len(vals),
			AvgProfit:    mean(vals),
			MaxProfit:    maxOf(vals),
			FrequencyPct: float64(len(vals)) / total * 100,
		}
	}

	pairs := make([]domain.PairStats, 0, len(byPair))
	for pair, vals := range byPair {
		pairs = append(pairs, domain.PairStats{
			Pair:      pair,
			Count:     len(vals),
			AvgProfit: mean(vals),
			MaxProfit: maxOf(vals),
		})
	}
	// Rank by mean profit; pair name breaks ties so output is deterministic.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].AvgProfit != pairs[j].AvgProfit {
			return pairs[i].AvgProfit > pairs[j].AvgProfit
		}
		return pairs[i].Pair < pairs[j].Pair
	})
	if len(pairs) > a.topPairs {
		pairs = pairs[:a.topPairs]
	}
	stats.TopPairs = pairs

	return stats
}

// BestOpportunities returns up to limit records from the window, sorted
// descending by net profit. Equal profits keep log order.
func (a *Analyzer) BestOpportunities(ctx context.Context, window time.Duration, limit int) ([]domain.HistoryRecord, error) {
	var since time.Time
	if window > 0 {
		since = time.Now().Add(-window)
	}
	recs, err := a.store.Query(ctx, since)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].NetProfitPct > recs[j].NetProfitPct
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// WriteSnapshot regenerates the statistics artifact next to the history log.
// The snapshot is a cache: it can be deleted and rebuilt from the log at any
// time. The write goes through a temp file and rename so readers never see a
// partial document.
func (a *Analyzer) WriteSnapshot(ctx context.Context, dir string, window time.Duration) (domain.Stats, error) {
	stats, err := a.Statistics(ctx, window)
	if err != nil {
		return domain.Stats{}, err
	}
	body, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return domain.Stats{}, fmt.Errorf("history: marshal stats: %w", err)
	}
	path := filepath.Join(dir, StatsFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return domain.Stats{}, fmt.Errorf("history: write stats: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return domain.Stats{}, fmt.Errorf("history: publish stats: %w", err)
	}
	return stats, nil
}

// profileOf summarizes a non-empty sample. Stdev is the sample standard
// deviation (n-1) and only computed when requested; a single-element sample
// reports 0.
func profileOf(vals []float64, withStdev bool) domain.ProfitStats {
	p := domain.ProfitStats{
		Min:    minOf(vals),
		Max:    maxOf(vals),
		Mean:   mean(vals),
		Median: median(vals),
	}
	if withStdev && len(vals) > 1 {
		m := p.Mean
		var ss float64
		for _, v := range vals {
			d := v - m
			ss += d * d
		}
		p.Stdev = math.Sqrt(ss / float64(len(vals)-1))
	}
	return p
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
