package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/draftdesk/inflation-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Monetary values are stored as NUMERIC for exact decimal precision; the
// projection pool and derived snapshot are stored as JSONB, which preserves
// the snapshot's ordered-pair adjusted-value encoding.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InsertPick(ctx context.Context, p *model.Pick) error {
	positions, err := json.Marshal(p.Player.Positions)
	if err != nil {
		return fmt.Errorf("insert pick %s: %w", p.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO draft_picks (id, session_id, player_id, auction_price, positions, tier, recorded_at)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5, $6, $7)`,
		p.ID, p.SessionID, p.Player.PlayerID,
		p.Player.AuctionPrice.String(), positions, string(p.Player.Tier),
		p.RecordedAt,
	)
	return err
}

func (s *PostgresStore) ListPicks(ctx context.Context, sessionID string) ([]model.Pick, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, player_id, auction_price::TEXT, positions, tier, recorded_at
		 FROM draft_picks WHERE session_id = $1 ORDER BY recorded_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var picks []model.Pick
	for rows.Next() {
		var p model.Pick
		var priceS, tierS string
		var positions []byte

		if err := rows.Scan(&p.ID, &p.SessionID, &p.Player.PlayerID,
			&priceS, &positions, &tierS, &p.RecordedAt); err != nil {
			return nil, err
		}
		p.Player.AuctionPrice, _ = decimal.NewFromString(priceS)
		if err := json.Unmarshal(positions, &p.Player.Positions); err != nil {
			return nil, fmt.Errorf("pick %s positions: %w", p.ID, err)
		}
		p.Player.Tier = model.Tier(tierS)

		picks = append(picks, p)
	}
	return picks, rows.Err()
}

func (s *PostgresStore) DeletePick(ctx context.Context, sessionID, pickID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM draft_picks WHERE session_id = $1 AND id = $2`,
		sessionID, pickID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pick %s: %w", pickID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ReplaceProjections(ctx context.Context, sessionID string, pool []model.Projection) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("replace projections for %s: %w", sessionID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO draft_projections (session_id, pool)
		 VALUES ($1, $2)
		 ON CONFLICT (session_id) DO UPDATE SET pool = EXCLUDED.pool`,
		sessionID, data)
	return err
}

func (s *PostgresStore) GetProjections(ctx context.Context, sessionID string) ([]model.Projection, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT pool FROM draft_projections WHERE session_id = $1`, sessionID).
		Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get projections for %s: %w", sessionID, err)
	}

	var pool []model.Projection
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("decode projections for %s: %w", sessionID, err)
	}
	return pool, nil
}

func (s *PostgresStore) SetBudget(ctx context.Context, sessionID string, b model.BudgetContext) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO draft_budgets (session_id, total_budget, spent, total_roster_spots, slots_remaining)
		 VALUES ($1, $2::NUMERIC, $3::NUMERIC, $4, $5)
		 ON CONFLICT (session_id) DO UPDATE
		 SET total_budget = EXCLUDED.total_budget,
		     spent = EXCLUDED.spent,
		     total_roster_spots = EXCLUDED.total_roster_spots,
		     slots_remaining = EXCLUDED.slots_remaining`,
		sessionID, b.TotalBudget.String(), b.Spent.String(),
		b.TotalRosterSpots, b.SlotsRemaining)
	return err
}

func (s *PostgresStore) GetBudget(ctx context.Context, sessionID string) (*model.BudgetContext, error) {
	var b model.BudgetContext
	var totalS, spentS string

	err := s.pool.QueryRow(ctx,
		`SELECT total_budget::TEXT, spent::TEXT, total_roster_spots, slots_remaining
		 FROM draft_budgets WHERE session_id = $1`, sessionID).
		Scan(&totalS, &spentS, &b.TotalRosterSpots, &b.SlotsRemaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget for %s: %w", sessionID, err)
	}

	b.TotalBudget, _ = decimal.NewFromString(totalS)
	b.Spent, _ = decimal.NewFromString(spentS)
	return &b, nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, sessionID string, snap model.InflationSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", sessionID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO draft_snapshots (session_id, snapshot)
		 VALUES ($1, $2)
		 ON CONFLICT (session_id) DO UPDATE SET snapshot = EXCLUDED.snapshot`,
		sessionID, data)
	return err
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, sessionID string) (*model.InflationSnapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM draft_snapshots WHERE session_id = $1`, sessionID).
		Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot for %s: %w", sessionID, err)
	}

	var snap model.InflationSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A malformed persisted snapshot falls back to the in-memory
		// default rather than failing the load.
		slog.Warn("discarding malformed persisted snapshot",
			"session", sessionID, "err", err)
		return nil, nil
	}
	return &snap, nil
}

func (s *PostgresStore) ClearSession(ctx context.Context, sessionID string) error {
	for _, q := range []string{
		`DELETE FROM draft_picks WHERE session_id = $1`,
		`DELETE FROM draft_projections WHERE session_id = $1`,
		`DELETE FROM draft_budgets WHERE session_id = $1`,
		`DELETE FROM draft_snapshots WHERE session_id = $1`,
	} {
		if _, err := s.pool.Exec(ctx, q, sessionID); err != nil {
			return fmt.Errorf("clear session %s: %w", sessionID, err)
		}
	}
	return nil
}
