package pricing

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestEstimateSlippagePct(t *testing.T) {
	tests := []struct {
		name      string
		tradeSize float64
		liquidity float64
		want      float64
	}{
		{"zero trade", 0, 10000, 0},
		{"tenth of pool", 1000, 10000, 5.5555555},
		{"whole pool", 10000, 10000, 100},
		{"beyond pool", 20000, 10000, 100},
		{"no liquidity", 1000, 0, 100},
		{"negative liquidity", 1000, -5, 100},
		{"tiny trade", 1, 1_000_000, 0.00005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateSlippagePct(tt.tradeSize, tt.liquidity)
			if !almostEqual(got, tt.want, 1e-4) {
				t.Errorf("EstimateSlippagePct(%g, %g) = %g, want %g", tt.tradeSize, tt.liquidity, got, tt.want)
			}
		})
	}
}

func TestSlippageMonotonicInTradeSize(t *testing.T) {
	const liquidity = 50000.0
	prev := -1.0
	for size := 100.0; size < liquidity; size += 100 {
		got := EstimateSlippagePct(size, liquidity)
		if got < prev {
			t.Fatalf("slippage decreased at size %g: %g < %g", size, got, prev)
		}
		prev = got
	}
}

func TestEffectivePrices(t *testing.T) {
	// 1000 against 10000 gives 5.5..% slippage; fee 0.3%.
	buy := EffectiveBuyPrice(2.0, 1000, 10000, 0.3)
	sell := EffectiveSellPrice(2.0, 1000, 10000, 0.3)

	s := 1.0 / 18.0 // 5.555..% as a fraction
	wantBuy := 2.0 * (1 + s) * 1.003
	wantSell := 2.0 * (1 - s) * 0.997

	if !almostEqual(buy, wantBuy, 1e-9) {
		t.Errorf("buy = %.10f, want %.10f", buy, wantBuy)
	}
	if !almostEqual(sell, wantSell, 1e-9) {
		t.Errorf("sell = %.10f, want %.10f", sell, wantSell)
	}
	if buy <= 2.0 || sell >= 2.0 {
		t.Error("costs must widen around the base price")
	}
}
