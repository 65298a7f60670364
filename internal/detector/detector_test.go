package detector

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestDetector(fees map[string]float64, minProfit float64) *Detector {
	return New(Params{
		TradeSizeUSD:   1000,
		MaxSlippagePct: 5,
		MinProfitPct:   minProfit,
		VenueFees:      fees,
		DefaultFeePct:  0.1,
	}, testLogger())
}

func quote(venue string, bid, ask float64) domain.Quote {
	return domain.Quote{Venue: venue, Bid: bid, Ask: ask, Timestamp: time.Now()}
}

func TestDetectSpreadAcrossTwoVenues(t *testing.T) {
	d := newTestDetector(map[string]float64{"Binance": 0.1, "Kraken": 0.1}, 0)
	quotes := map[string]domain.Quote{
		"Binance": quote("Binance", 100.00, 100.10),
		"Kraken":  quote("Kraken", 100.50, 100.60),
	}

	opps := d.Detect("BTC/USDT", quotes)
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	opp := opps[0]
	if opp.BuyVenue != "Binance" || opp.SellVenue != "Kraken" {
		t.Errorf("direction = %s → %s", opp.BuyVenue, opp.SellVenue)
	}
	if opp.BuyPrice != 100.10 || opp.SellPrice != 100.50 {
		t.Errorf("prices = %g / %g", opp.BuyPrice, opp.SellPrice)
	}
	if math.Abs(opp.GrossProfitPct-0.3996) > 0.001 {
		t.Errorf("gross = %g, want ≈0.3997", opp.GrossProfitPct)
	}
	if math.Abs(opp.NetProfitPct-0.1996) > 0.001 {
		t.Errorf("net = %g, want ≈0.1997", opp.NetProfitPct)
	}
	if opp.ID == "" || opp.DetectedAt.IsZero() {
		t.Error("opportunity missing identity or timestamp")
	}
}

func TestDetectFeesEatTheSpread(t *testing.T) {
	d := newTestDetector(map[string]float64{"Binance": 0.3, "Kraken": 0.3}, 0)
	quotes := map[string]domain.Quote{
		"Binance": quote("Binance", 100.00, 100.10),
		"Kraken":  quote("Kraken", 100.50, 100.60),
	}
	if opps := d.Detect("BTC/USDT", quotes); len(opps) != 0 {
		t.Fatalf("got %d opportunities, want 0 (net ≈ -0.20%%)", len(opps))
	}
}

func TestDetectZeroFeesNetEqualsGross(t *testing.T) {
	d := newTestDetector(map[string]float64{"A": 0, "B": 0}, 0)
	quotes := map[string]domain.Quote{
		"A": quote("A", 99.9, 100.0),
		"B": quote("B", 101.0, 101.1),
	}
	opps := d.Detect("ETH/USDT", quotes)
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	if opps[0].NetProfitPct != opps[0].GrossProfitPct {
		t.Errorf("net %g != gross %g with zero fees", opps[0].NetProfitPct, opps[0].GrossProfitPct)
	}
}

func TestDetectSortedByNetDescending(t *testing.T) {
	d := newTestDetector(map[string]float64{"A": 0, "B": 0, "C": 0}, 0)
	quotes := map[string]domain.Quote{
		"A": quote("A", 100.0, 100.1),
		"B": quote("B", 101.0, 101.1), // A→B strong
		"C": quote("C", 100.5, 100.6), // A→C weaker, C→B weaker still
	}
	opps := d.Detect("BTC/USDT", quotes)
	if len(opps) < 2 {
		t.Fatalf("got %d opportunities", len(opps))
	}
	for i := 1; i < len(opps); i++ {
		if opps[i].NetProfitPct > opps[i-1].NetProfitPct {
			t.Fatalf("not sorted: %g before %g", opps[i-1].NetProfitPct, opps[i].NetProfitPct)
		}
	}
	if opps[0].BuyVenue != "A" || opps[0].SellVenue != "B" {
		t.Errorf("best = %s → %s, want A → B", opps[0].BuyVenue, opps[0].SellVenue)
	}
}

func TestDetectInsufficientVenues(t *testing.T) {
	d := newTestDetector(nil, 0)
	if opps := d.Detect("BTC/USDT", map[string]domain.Quote{"Binance": quote("Binance", 100, 100.1)}); opps != nil {
		t.Errorf("single venue produced %d opportunities", len(opps))
	}
	if opps := d.Detect("BTC/USDT", nil); opps != nil {
		t.Errorf("empty book produced %d opportunities", len(opps))
	}
}

func TestDetectSkipsInvalidQuotes(t *testing.T) {
	d := newTestDetector(map[string]float64{"A": 0, "B": 0, "C": 0}, 0)
	quotes := map[string]domain.Quote{
		"A": quote("A", 100.0, 100.1),
		"B": quote("B", 101.0, 101.1),
		"C": {Venue: "C", Bid: -1, Ask: 0}, // invalid, must not poison the pass
	}
	opps := d.Detect("BTC/USDT", quotes)
	for _, o := range opps {
		if o.BuyVenue == "C" || o.SellVenue == "C" {
			t.Fatalf("invalid venue appeared in %s → %s", o.BuyVenue, o.SellVenue)
		}
	}
	if len(opps) != 1 {
		t.Errorf("got %d opportunities, want 1", len(opps))
	}
}

func TestDetectMinProfitFilter(t *testing.T) {
	quotes := map[string]domain.Quote{
		"Binance": quote("Binance", 100.00, 100.10),
		"Kraken":  quote("Kraken", 100.50, 100.60),
	}
	// Net ≈ 0.1997% with 0.1% fees; a 0.25% floor must suppress it.
	d := newTestDetector(map[string]float64{"Binance": 0.1, "Kraken": 0.1}, 0.25)
	if opps := d.Detect("BTC/USDT", quotes); len(opps) != 0 {
		t.Errorf("floor 0.25%% let through %d opportunities", len(opps))
	}
}

func TestEvaluateTriangles(t *testing.T) {
	d := newTestDetector(nil, 0)
	pools := map[string]domain.LiquidityPool{
		"SOL/USDC": {Venue: "Raydium", Symbol: "SOL/USDC", LiquidityUSD: 1e6, FeePct: 0.25},
		"RAY/USDC": {Venue: "Raydium", Symbol: "RAY/USDC", LiquidityUSD: 5e5, FeePct: 0.25},
		"RAY/SOL":  {Venue: "Raydium", Symbol: "RAY/SOL", LiquidityUSD: 2e5, FeePct: 0.25},
	}
	tri := Triangle{
		Route: "SOL → USDC → RAY → SOL",
		Path:  []string{"SOL/USDC", "RAY/USDC", "RAY/SOL"},
		Start: "SOL",
	}

	// Fee decay alone always nets negative, so the default floor reports none.
	if got := d.EvaluateTriangles([]Triangle{tri}, pools, 0.1); len(got) != 0 {
		t.Errorf("fee-only cycle reported as profitable: %+v", got)
	}

	// Lowering the floor exposes the compounded fee cost: 0.9975^3 - 1.
	got := d.EvaluateTriangles([]Triangle{tri}, pools, -1)
	if len(got) != 1 {
		t.Fatalf("got %d cycles, want 1", len(got))
	}
	want := (math.Pow(1-0.25/100, 3) - 1) * 100
	if math.Abs(got[0].ProfitPct-want) > 1e-9 {
		t.Errorf("profit = %g, want %g", got[0].ProfitPct, want)
	}

	// A missing leg skips the cycle entirely.
	delete(pools, "RAY/SOL")
	if got := d.EvaluateTriangles([]Triangle{tri}, pools, -1); len(got) != 0 {
		t.Errorf("incomplete cycle evaluated: %+v", got)
	}
}
