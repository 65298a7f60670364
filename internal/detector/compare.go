package detector

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/pricing"
)

// CompareDexCex evaluates both directions between an AMM pool and every CEX
// quote for the matching instrument. Pool prices quoted in USDC are compared
// against the nearest stable-pegged CEX pair (USDC and USDT treated as 1:1).
// Effective prices fold in modeled slippage and per-leg fees; trades whose
// slippage meets the configured ceiling are excluded regardless of raw profit.
func (d *Detector) CompareDexCex(pool domain.LiquidityPool, quotes map[string]domain.Quote) []domain.Opportunity {
	if !pool.Usable() || pool.PriceUSD <= 0 {
		d.log.Debug("pool unusable", slog.String("pool", pool.PoolID), slog.String("symbol", pool.Symbol))
		return nil
	}

	slip := pricing.EstimateSlippagePct(d.params.TradeSizeUSD, pool.LiquidityUSD)
	if slip >= d.params.MaxSlippagePct {
		d.log.Debug("slippage ceiling hit",
			slog.String("pool", pool.PoolID),
			slog.Float64("slippage_pct", slip),
			slog.Float64("ceiling_pct", d.params.MaxSlippagePct))
		return nil
	}

	dexBuy := pricing.EffectiveBuyPrice(pool.PriceUSD, d.params.TradeSizeUSD, pool.LiquidityUSD, pool.FeePct)
	dexSell := pricing.EffectiveSellPrice(pool.PriceUSD, d.params.TradeSizeUSD, pool.LiquidityUSD, pool.FeePct)

	symbol := StableSymbol(pool.Symbol)

	var opps []domain.Opportunity
	for venue, q := range quotes {
		if !q.Valid() {
			continue
		}
		fee := d.params.feeFor(venue) / 100
		cexBuy := q.Ask * (1 + fee)
		cexSell := q.Bid * (1 - fee)

		// Buy on the DEX, sell on the CEX.
		if opp, ok := d.crossVenue(symbol, pool.Venue, pool.PriceUSD, dexBuy, venue, q.Bid, cexSell); ok {
			opps = append(opps, opp)
		}
		// Buy on the CEX, sell on the DEX.
		if opp, ok := d.crossVenue(symbol, venue, q.Ask, cexBuy, pool.Venue, pool.PriceUSD, dexSell); ok {
			opps = append(opps, opp)
		}
	}
	return sortByNet(opps)
}

// crossVenue builds one cross-venue-type opportunity. Gross profit uses the
// raw quoted prices; net profit uses the effective (fee and slippage adjusted)
// prices.
func (d *Detector) crossVenue(symbol, buyVenue string, rawBuy, effBuy float64, sellVenue string, rawSell, effSell float64) (domain.Opportunity, bool) {
	if rawBuy <= 0 || effBuy <= 0 {
		return domain.Opportunity{}, false
	}
	gross := (rawSell - rawBuy) / rawBuy * 100
	net := (effSell - effBuy) / effBuy * 100
	if net <= d.params.MinProfitPct {
		return domain.Opportunity{}, false
	}
	return domain.Opportunity{
		ID:             uuid.New().String(),
		Symbol:         symbol,
		BuyVenue:       buyVenue,
		SellVenue:      sellVenue,
		BuyPrice:       rawBuy,
		SellPrice:      rawSell,
		GrossProfitPct: gross,
		NetProfitPct:   net,
		DetectedAt:     d.now().UTC(),
	}, true
}

// StableSymbol maps a stable-quoted pair onto its nearest USDT-quoted CEX
// equivalent ("SOL/USDC" → "SOL/USDT"). This assumes a 1:1 peg between the
// major stablecoins; depeg risk is accepted.
func StableSymbol(symbol string) string {
	if base, ok := strings.CutSuffix(symbol, "/USDC"); ok {
		return base + "/USDT"
	}
	return symbol
}

func sortByNet(opps []domain.Opportunity) []domain.Opportunity {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].NetProfitPct > opps[j].NetProfitPct
	})
	return opps
}
