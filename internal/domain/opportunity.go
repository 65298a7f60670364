package domain

import (
	"fmt"
	"time"
)

// Opportunity is an immutable record of a profitable (or candidate) round
// trip: buy on one venue, sell on another. Profit percentages are not
// clamped; a negative net profit means a loss and is filtered before
// reporting, not here.
type Opportunity struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	BuyVenue       string    `json:"buy_from"`
	SellVenue      string    `json:"sell_to"`
	BuyPrice       float64   `json:"buy_price"`
	SellPrice      float64   `json:"sell_price"`
	GrossProfitPct float64   `json:"gross_profit_pct"`
	NetProfitPct   float64   `json:"net_profit_pct"`
	DetectedAt     time.Time `json:"detected_at"`
}

// Route returns the "buy → sell" venue pair label used by the per-pair
// statistics breakdown.
func (o Opportunity) Route() string {
	return o.BuyVenue + " → " + o.SellVenue
}

// HistoryRecord is an Opportunity as persisted by the history store, with the
// storage timestamp added.
type HistoryRecord struct {
	Opportunity
	RecordedAt time.Time `json:"timestamp"`
}

// Alert is derived when a newly recorded opportunity's net profit meets the
// configured threshold. Alerts live in the session only; they are never
// persisted.
type Alert struct {
	Record  HistoryRecord
	Message string
	At      time.Time
}

// NewAlert builds an Alert for the given record with the standard message.
func NewAlert(rec HistoryRecord) Alert {
	return Alert{
		Record:  rec,
		Message: fmt.Sprintf("HIGH PROFIT ALERT: %.3f%% on %s", rec.NetProfitPct, rec.Symbol),
		At:      rec.RecordedAt,
	}
}

// TriangleOpportunity is a closed three-leg cycle on DEX pools that nets
// positive after per-hop fees.
type TriangleOpportunity struct {
	Route      string   `json:"route"` // e.g. "SOL → USDC → RAY → SOL"
	Path       []string `json:"path"`  // pool symbols, e.g. ["SOL/USDC","RAY/USDC","RAY/SOL"]
	StartAsset string   `json:"start_asset"`
	ProfitPct  float64  `json:"profit_pct"`
}
