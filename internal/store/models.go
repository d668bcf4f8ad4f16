package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SnapshotRecord is a row of league_snapshots. Payload holds the JSON
// encoded league.Snapshot.
type SnapshotRecord struct {
	SnapshotID  uuid.UUID       `json:"snapshot_id" db:"snapshot_id"`
	LeagueID    string          `json:"league_id" db:"league_id"`
	Season      int             `json:"season" db:"season"`
	Period      string          `json:"period" db:"period"`
	FetchedAt   time.Time       `json:"fetched_at" db:"fetched_at"`
	TeamCount   int             `json:"team_count" db:"team_count"`
	PlayerCount int             `json:"player_count" db:"player_count"`
	Payload     json.RawMessage `json:"payload" db:"payload"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// TradeEvaluationRecord is a row of trade_evaluations.
type TradeEvaluationRecord struct {
	EvaluationID uuid.UUID       `json:"evaluation_id" db:"evaluation_id"`
	LeagueID     string          `json:"league_id" db:"league_id"`
	SnapshotID   uuid.NullUUID   `json:"snapshot_id" db:"snapshot_id"`
	Period       string          `json:"period" db:"period"`
	TeamIDs      pq.Int64Array   `json:"team_ids" db:"team_ids"`
	PlayersMoved pq.StringArray  `json:"players_moved" db:"players_moved"`
	Punt         pq.StringArray  `json:"punt" db:"punt"`
	Report       json.RawMessage `json:"report" db:"report"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
