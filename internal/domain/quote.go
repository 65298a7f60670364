package domain

import "time"

// Quote is the latest ticker snapshot for one instrument on one venue. All
// prices are denominated in the instrument's quote currency (USD/USDT/USDC
// treated as interchangeable by the comparison layer).
type Quote struct {
	Venue     string    `json:"venue"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Last      float64   `json:"last,omitempty"`
	Volume24h float64   `json:"volume_24h,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether the quote carries usable prices. Bid and Ask must be
// positive; Last may be zero on venues that only publish top-of-book.
func (q Quote) Valid() bool {
	return q.Venue != "" && q.Bid > 0 && q.Ask > 0
}

// Age returns how old the quote is relative to now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}

// VenueStatus describes the health of a single venue's ingestion task.
type VenueStatus int

const (
	// VenueStatusOK means the venue delivered a quote within the staleness window.
	VenueStatusOK VenueStatus = iota
	// VenueStatusStale means retries were exhausted; the last quote is kept but flagged.
	VenueStatusStale
	// VenueStatusUnavailable means the venue was abandoned (e.g. geo-restricted).
	VenueStatusUnavailable
)

// String returns the lowercase status name.
func (s VenueStatus) String() string {
	switch s {
	case VenueStatusOK:
		return "ok"
	case VenueStatusStale:
		return "stale"
	case VenueStatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string name.
func (s VenueStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
