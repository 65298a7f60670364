package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// OpportunityStore implements domain.OpportunityMirror on the
// opportunity_history table.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a store backed by the given connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunityCols = `id, symbol, buy_venue, sell_venue, buy_price,
	sell_price, gross_profit_pct, net_profit_pct, detected_at, recorded_at`

// Insert mirrors one history record. Re-inserting an already-mirrored ID is a
// no-op so retried writes stay idempotent.
func (s *OpportunityStore) Insert(ctx context.Context, rec domain.HistoryRecord) error {
	const query = `
		INSERT INTO opportunity_history (
			id, symbol, buy_venue, sell_venue, buy_price,
			sell_price, gross_profit_pct, net_profit_pct, detected_at, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Symbol, rec.BuyVenue, rec.SellVenue, rec.BuyPrice,
		rec.SellPrice, rec.GrossProfitPct, rec.NetProfitPct, rec.DetectedAt, rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recently recorded opportunities, newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunity_history ORDER BY recorded_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var recs []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		if err := rows.Scan(
			&rec.ID, &rec.Symbol, &rec.BuyVenue, &rec.SellVenue, &rec.BuyPrice,
			&rec.SellPrice, &rec.GrossProfitPct, &rec.NetProfitPct, &rec.DetectedAt, &rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.OpportunityMirror = (*OpportunityStore)(nil)
