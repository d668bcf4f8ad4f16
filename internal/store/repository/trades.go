package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/juno/internal/store"
)

// TradeRepository persists trade evaluations.
type TradeRepository struct {
	db *store.Database
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *store.Database) *TradeRepository {
	return &TradeRepository{db: db}
}

// Save inserts an evaluation and fills in CreatedAt.
func (r *TradeRepository) Save(ctx context.Context, rec *store.TradeEvaluationRecord) error {
	query := `
		INSERT INTO trade_evaluations (
			evaluation_id, league_id, snapshot_id, period,
			team_ids, players_moved, punt, report
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`
	punt := rec.Punt
	if punt == nil {
		punt = []string{}
	}
	err := r.db.DB().QueryRowContext(ctx, query,
		rec.EvaluationID, rec.LeagueID, rec.SnapshotID, rec.Period,
		rec.TeamIDs, rec.PlayersMoved, punt, []byte(rec.Report),
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting trade evaluation: %w", err)
	}
	return nil
}

// Recent returns the latest evaluations, newest first. A positive teamID
// restricts the list to trades involving that team.
func (r *TradeRepository) Recent(ctx context.Context, leagueID string, teamID, limit int) ([]*store.TradeEvaluationRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT evaluation_id, league_id, snapshot_id, period,
			team_ids, players_moved, punt, report, created_at
		FROM trade_evaluations
		WHERE league_id = $1
			AND ($2 <= 0 OR $2 = ANY(team_ids))
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.DB().QueryContext(ctx, query, leagueID, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying trade evaluations: %w", err)
	}
	defer rows.Close()

	var out []*store.TradeEvaluationRecord
	for rows.Next() {
		rec := &store.TradeEvaluationRecord{}
		var report []byte
		if err := rows.Scan(
			&rec.EvaluationID, &rec.LeagueID, &rec.SnapshotID, &rec.Period,
			&rec.TeamIDs, &rec.PlayersMoved, &rec.Punt, &report, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning trade evaluation: %w", err)
		}
		rec.Report = report
		out = append(out, rec)
	}
	return out, rows.Err()
}
