package domain

import "time"

// LiquidityPool is an AMM venue's pool state for one instrument pair.
type LiquidityPool struct {
	Venue        string    `json:"venue"`
	Symbol       string    `json:"symbol"` // e.g. "SOL/USDC"
	PoolID       string    `json:"pool_id"`
	PriceUSD     float64   `json:"price_usd,omitempty"`
	PriceNative  float64   `json:"price_native,omitempty"`
	LiquidityUSD float64   `json:"liquidity_usd,omitempty"`
	Volume24h    float64   `json:"volume_24h,omitempty"`
	FeePct       float64   `json:"fee_pct"` // swap fee per leg, percent (0.25 = 0.25%)
	Timestamp    time.Time `json:"timestamp"`

	// Reserves is set when the pool state was derived from a raw on-chain
	// bonding-curve account read rather than an aggregator API.
	Reserves *CurveReserves `json:"reserves,omitempty"`
}

// Usable reports whether the pool can absorb any trade at all. A pool with
// non-positive liquidity has infinite slippage.
func (p LiquidityPool) Usable() bool {
	return p.LiquidityUSD > 0
}

// CurveReserves is the decoded state of a bonding-curve account. Reserve
// amounts are raw on-chain integers (lamports / base token units).
type CurveReserves struct {
	VirtualTokenReserves uint64 `json:"virtual_token_reserves"`
	VirtualSolReserves   uint64 `json:"virtual_sol_reserves"`
	RealTokenReserves    uint64 `json:"real_token_reserves"`
	RealSolReserves      uint64 `json:"real_sol_reserves"`
	TokenTotalSupply     uint64 `json:"token_total_supply"`
	Complete             bool   `json:"complete"`
}
