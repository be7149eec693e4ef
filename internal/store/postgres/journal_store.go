package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// JournalStore implements domain.TradeJournal on PostgreSQL.
type JournalStore struct {
	pool *pgxpool.Pool
}

// NewJournalStore creates a JournalStore backed by the given connection pool.
func NewJournalStore(pool *pgxpool.Pool) *JournalStore {
	return &JournalStore{pool: pool}
}

const recordCols = `id, timestamp, game, market_type, description,
	kalshi_side, poly_side, unit_cost, unit_profit, roi,
	position_size, trade_cost, locked_profit, outcome, both_legs_filled, detail`

func scanRecordRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var out []domain.TradeRecord
	for rows.Next() {
		var r domain.TradeRecord
		if err := rows.Scan(
			&r.ID, &r.Timestamp, &r.Game, &r.MarketType, &r.Description,
			&r.KalshiSide, &r.PolySide, &r.UnitCost, &r.UnitProfit, &r.ROI,
			&r.PositionSize, &r.TradeCost, &r.LockedProfit,
			&r.Outcome, &r.BothLegsFilled, &r.Detail,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Append inserts one trade record. Records are immutable; a duplicate ID is
// an error, never an update.
func (s *JournalStore) Append(ctx context.Context, rec domain.TradeRecord) error {
	const query = `
		INSERT INTO trade_records (
			id, timestamp, game, market_type, description,
			kalshi_side, poly_side, unit_cost, unit_profit, roi,
			position_size, trade_cost, locked_profit,
			outcome, both_legs_filled, detail
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16
		)`
	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Timestamp, rec.Game, rec.MarketType, rec.Description,
		rec.KalshiSide, rec.PolySide, rec.UnitCost, rec.UnitProfit, rec.ROI,
		rec.PositionSize, rec.TradeCost, rec.LockedProfit,
		rec.Outcome, rec.BothLegsFilled, rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("postgres: append trade record: %w", err)
	}
	return nil
}

// Replay streams all records in append (timestamp, id) order.
func (s *JournalStore) Replay(ctx context.Context, fn func(domain.TradeRecord) error) error {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordCols+` FROM trade_records ORDER BY timestamp, id`)
	if err != nil {
		return fmt.Errorf("postgres: replay trade records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecordRows(rows)
	if err != nil {
		return fmt.Errorf("postgres: scan trade records: %w", err)
	}
	for _, rec := range records {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to n most recent records, newest first.
func (s *JournalStore) Recent(ctx context.Context, n int) ([]domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordCols+` FROM trade_records ORDER BY timestamp DESC, id DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent trade records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecordRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trade records: %w", err)
	}
	return records, nil
}

// Close satisfies domain.TradeJournal; pool lifecycle belongs to the Client.
func (s *JournalStore) Close() error { return nil }
