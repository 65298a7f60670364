// Package pricing models execution cost against AMM pools and decodes
// on-chain bonding-curve state into spot prices.
package pricing

// EstimateSlippagePct models the price impact, in percent, of a trade of
// tradeSize (USD) against a constant-product pool holding liquidityUSD. The
// model is the half-ratio approximation of a constant-product swap:
//
//	impact = r / (2 * (1 - r)) * 100, where r = tradeSize / liquidityUSD
//
// Trades at or beyond pool size, and pools with no liquidity, report the
// 100% ceiling rather than a negative or unbounded figure.
func EstimateSlippagePct(tradeSize, liquidityUSD float64) float64 {
	if liquidityUSD <= 0 {
		return 100
	}
	r := tradeSize / liquidityUSD
	if r >= 1 {
		return 100
	}
	pct := r / (2 * (1 - r)) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// EffectiveBuyPrice returns the all-in unit cost of buying at basePrice on a
// pool with the given fee, after the modeled slippage for tradeSize.
// Slippage and fee both push the buy price up.
func EffectiveBuyPrice(basePrice, tradeSize, liquidityUSD, feePct float64) float64 {
	s := EstimateSlippagePct(tradeSize, liquidityUSD) / 100
	f := feePct / 100
	return basePrice * (1 + s) * (1 + f)
}

// EffectiveSellPrice returns the all-in unit proceeds of selling at basePrice
// on a pool with the given fee, after the modeled slippage for tradeSize.
// Slippage and fee both push the sell price down.
func EffectiveSellPrice(basePrice, tradeSize, liquidityUSD, feePct float64) float64 {
	s := EstimateSlippagePct(tradeSize, liquidityUSD) / 100
	f := feePct / 100
	return basePrice * (1 - s) * (1 - f)
}
