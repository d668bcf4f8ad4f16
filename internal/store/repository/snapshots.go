package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/store"
)

// SnapshotRepository persists league snapshots.
type SnapshotRepository struct {
	db *store.Database
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *store.Database) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save stores a snapshot. Saving the same snapshot id twice is a no-op.
func (r *SnapshotRepository) Save(ctx context.Context, snap *league.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	query := `
		INSERT INTO league_snapshots (
			snapshot_id, league_id, season, period, fetched_at,
			team_count, player_count, payload
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (snapshot_id) DO NOTHING
	`
	_, err = r.db.DB().ExecContext(ctx, query,
		snap.ID, snap.LeagueID, snap.Season, snap.Period.String(), snap.FetchedAt,
		len(snap.Teams), len(snap.Players), payload,
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot of a period, or nil when none exists.
func (r *SnapshotRepository) Latest(ctx context.Context, leagueID string, period league.Period) (*league.Snapshot, error) {
	query := `
		SELECT payload
		FROM league_snapshots
		WHERE league_id = $1 AND period = $2
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	var payload []byte
	err := r.db.DB().QueryRowContext(ctx, query, leagueID, period.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var snap league.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// List returns snapshot metadata newest first, without payloads.
func (r *SnapshotRepository) List(ctx context.Context, leagueID string, limit int) ([]*store.SnapshotRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT snapshot_id, league_id, season, period, fetched_at,
			team_count, player_count, created_at
		FROM league_snapshots
		WHERE league_id = $1
		ORDER BY fetched_at DESC
		LIMIT $2
	`

	rows, err := r.db.DB().QueryContext(ctx, query, leagueID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []*store.SnapshotRecord
	for rows.Next() {
		rec := &store.SnapshotRecord{}
		if err := rows.Scan(
			&rec.SnapshotID, &rec.LeagueID, &rec.Season, &rec.Period, &rec.FetchedAt,
			&rec.TeamCount, &rec.PlayerCount, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep snapshots of each period.
func (r *SnapshotRepository) Prune(ctx context.Context, leagueID string, keep int) (int64, error) {
	query := `
		DELETE FROM league_snapshots
		WHERE snapshot_id IN (
			SELECT snapshot_id FROM (
				SELECT snapshot_id,
					ROW_NUMBER() OVER (PARTITION BY period ORDER BY fetched_at DESC) AS rn
				FROM league_snapshots
				WHERE league_id = $1
			) ranked
			WHERE rn > $2
		)
	`
	res, err := r.db.DB().ExecContext(ctx, query, leagueID, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}
