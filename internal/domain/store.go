package domain

import (
	"context"
	"time"
)

// HistoryStore is the append-only log of detected opportunities. Records are
// never edited or deleted by the core; writes are serialized so arrival order
// is preserved for the analyzer's first/last-seen semantics.
type HistoryStore interface {
	// Record appends one opportunity. A storage failure is returned to the
	// caller but never corrupts already-written records; the in-session alert
	// list is still updated.
	Record(ctx context.Context, opp Opportunity) error
	// Query returns records oldest-first. A zero since means all records.
	// A truncated or malformed trailing record is skipped, not an error.
	Query(ctx context.Context, since time.Time) ([]HistoryRecord, error)
	// Alerts returns the alerts accumulated this session without clearing.
	Alerts() []Alert
	// DrainAlerts returns and clears the session alert list. The underlying
	// history log is untouched.
	DrainAlerts() []Alert
}

// OpportunityMirror is an optional secondary sink for recorded opportunities
// (e.g. a SQL table serving dashboards). The JSONL history log remains the
// source of truth; mirror failures are logged and do not fail Record.
type OpportunityMirror interface {
	Insert(ctx context.Context, rec HistoryRecord) error
	ListRecent(ctx context.Context, limit int) ([]HistoryRecord, error)
}
