// Package detector enumerates venue pairs from the quote book and computes
// gross and net profit for each direction, plus triangular cycles and
// CEX-versus-DEX comparisons.
package detector

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// Params are the detection knobs shared across all passes.
type Params struct {
	// TradeSizeUSD is the assumed round-trip size for slippage modeling.
	TradeSizeUSD float64
	// MaxSlippagePct excludes AMM trades whose modeled slippage meets or
	// exceeds it, regardless of raw profit.
	MaxSlippagePct float64
	// MinProfitPct is the reporting floor; an opportunity is emitted only
	// when net profit exceeds it.
	MinProfitPct float64
	// VenueFees maps venue name to taker fee per leg, in percent.
	VenueFees map[string]float64
	// DefaultFeePct applies to venues absent from VenueFees.
	DefaultFeePct float64
}

// feeFor returns the per-leg fee for venue in percent.
func (p Params) feeFor(venue string) float64 {
	if f, ok := p.VenueFees[venue]; ok {
		return f
	}
	return p.DefaultFeePct
}

// Detector computes arbitrage opportunities from quote snapshots. It holds no
// mutable state beyond its logger; every pass is a pure function of the quotes
// it is handed.
type Detector struct {
	params Params
	log    *slog.Logger
	now    func() time.Time
}

// New returns a Detector with the given parameters.
func New(params Params, log *slog.Logger) *Detector {
	return &Detector{
		params: params,
		log:    log.With(slog.String("component", "detector")),
		now:    time.Now,
	}
}

// Detect enumerates all unordered venue pairs with valid quotes for symbol and
// evaluates both trade directions. The result is sorted descending by net
// profit; ties keep the first-enumerated pair first. Fewer than two valid
// quotes yields an empty slice, not an error.
func (d *Detector) Detect(symbol string, quotes map[string]domain.Quote) []domain.Opportunity {
	venues := make([]string, 0, len(quotes))
	for venue, q := range quotes {
		if !q.Valid() {
			d.log.Debug("skipping invalid quote", slog.String("symbol", symbol), slog.String("venue", venue))
			continue
		}
		venues = append(venues, venue)
	}
	if len(venues) < 2 {
		return nil
	}
	// Deterministic enumeration order so tie-breaking is stable across runs.
	sort.Strings(venues)

	var opps []domain.Opportunity
	for i := 0; i < len(venues); i++ {
		for j := i + 1; j < len(venues); j++ {
			a, b := venues[i], venues[j]
			if opp, ok := d.evaluate(symbol, a, quotes[a], b, quotes[b]); ok {
				opps = append(opps, opp)
			}
			if opp, ok := d.evaluate(symbol, b, quotes[b], a, quotes[a]); ok {
				opps = append(opps, opp)
			}
		}
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].NetProfitPct > opps[j].NetProfitPct
	})
	return opps
}

// evaluate prices one direction: buy at buyQuote.Ask, sell at sellQuote.Bid.
// Net profit subtracts one fee leg per side.
func (d *Detector) evaluate(symbol, buyVenue string, buyQuote domain.Quote, sellVenue string, sellQuote domain.Quote) (domain.Opportunity, bool) {
	buy := buyQuote.Ask
	sell := sellQuote.Bid
	if buy <= 0 || sell <= 0 {
		return domain.Opportunity{}, false
	}

	gross := (sell - buy) / buy * 100
	net := gross - d.params.feeFor(buyVenue) - d.params.feeFor(sellVenue)
	if net <= d.params.MinProfitPct {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		ID:             uuid.New().String(),
		Symbol:         symbol,
		BuyVenue:       buyVenue,
		SellVenue:      sellVenue,
		BuyPrice:       buy,
		SellPrice:      sell,
		GrossProfitPct: gross,
		NetProfitPct:   net,
		DetectedAt:     d.now().UTC(),
	}, true
}
