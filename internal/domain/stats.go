package domain

import "time"

// ProfitStats summarizes a distribution of profit percentages.
type ProfitStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stdev  float64 `json:"stdev,omitempty"`
}

// SymbolStats is the per-instrument breakdown within a Stats snapshot.
type SymbolStats struct {
	Count        int     `json:"count"`
	AvgProfit    float64 `json:"avg_profit"`
	MaxProfit    float64 `json:"max_profit"`
	FrequencyPct float64 `json:"frequency_pct"`
}

// PairStats is the per-venue-pair breakdown within a Stats snapshot.
type PairStats struct {
	Pair      string  `json:"pair"` // "Binance → Kraken"
	Count     int     `json:"count"`
	AvgProfit float64 `json:"avg_profit"`
	MaxProfit float64 `json:"max_profit"`
}

// Stats is the aggregate statistics artifact derived from the history log.
// It is a pure function of the record set it was computed from and can be
// discarded and rebuilt at any time.
type Stats struct {
	TotalOpportunities int                    `json:"total_opportunities"`
	Window             time.Duration          `json:"-"`
	WindowHours        float64                `json:"time_window_hours,omitempty"`
	FirstSeen          time.Time              `json:"first_seen,omitzero"`
	LastSeen           time.Time              `json:"last_seen,omitzero"`
	NetProfit          ProfitStats            `json:"net_profit"`
	GrossProfit        ProfitStats            `json:"gross_profit"`
	HighValueCount     int                    `json:"high_value_count"`
	BySymbol           map[string]SymbolStats `json:"by_symbol,omitempty"`
	TopPairs           []PairStats            `json:"top_exchange_pairs,omitempty"`
}
