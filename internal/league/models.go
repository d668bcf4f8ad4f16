package league

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fortuna/juno/internal/category"
	"github.com/google/uuid"
)

// SlotInjuredReserve is the lineup slot of players stashed on IR.
const SlotInjuredReserve = "IR"

// SlotFreeAgent marks players on no fantasy roster.
const SlotFreeAgent = "FA"

// Team is a fantasy franchise in the league.
type Team struct {
	ID           int    `json:"team_id"`
	Name         string `json:"team_name"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// PlayerStatLine is one rostered player's averages for a period.
type PlayerStatLine struct {
	Name         string   `json:"name"`
	Position     string   `json:"position"`
	TeamID       int      `json:"team_id"`
	TeamName     string   `json:"team_name"`
	LineupSlot   string   `json:"lineup_slot,omitempty"`
	InjuryStatus string   `json:"injury_status,omitempty"`
	Stats        StatLine `json:"stats"`
}

// OnInjuredReserve reports whether the player occupies an IR slot.
func (p PlayerStatLine) OnInjuredReserve() bool {
	return p.LineupSlot == SlotInjuredReserve
}

// TeamBoxScore is a team's matchup totals for one scoring week.
type TeamBoxScore struct {
	Week       int                           `json:"week"`
	TeamID     int                           `json:"team_id"`
	TeamName   string                        `json:"team_name"`
	OpponentID int                           `json:"opponent_id"`
	Totals     map[category.Category]float64 `json:"totals"`
}

// Provider supplies league data. Implementations talk to the upstream
// fantasy platform; the engines never see them.
type Provider interface {
	Teams(ctx context.Context) ([]Team, error)
	PlayerStats(ctx context.Context, period Period) ([]PlayerStatLine, error)
	BoxScore(ctx context.Context, week, teamID int) (*TeamBoxScore, error)
	CurrentWeek(ctx context.Context) (int, error)
}

// ErrUnknownPosition is returned for position filters the provider does not know.
var ErrUnknownPosition = errors.New("unknown position")

// FreeAgentProvider is implemented by providers that can list unrostered
// players. Position filters by eligible slot, e.g. "PG"; empty lists all.
type FreeAgentProvider interface {
	FreeAgents(ctx context.Context, period Period, position string, limit int) ([]PlayerStatLine, error)
}

// Snapshot is one fetched view of the league for a period. Treat it as
// immutable once built: refreshes produce a new Snapshot.
type Snapshot struct {
	ID        uuid.UUID        `json:"snapshot_id"`
	LeagueID  string           `json:"league_id"`
	Season    int              `json:"season"`
	Period    Period           `json:"period"`
	FetchedAt time.Time        `json:"fetched_at"`
	Teams     []Team           `json:"teams"`
	Players   []PlayerStatLine `json:"players"`
}

// NewSnapshot stamps a snapshot with a fresh id and fetch time.
func NewSnapshot(leagueID string, season int, period Period, teams []Team, players []PlayerStatLine) *Snapshot {
	return &Snapshot{
		ID:        uuid.New(),
		LeagueID:  leagueID,
		Season:    season,
		Period:    period,
		FetchedAt: time.Now().UTC(),
		Teams:     append([]Team(nil), teams...),
		Players:   append([]PlayerStatLine(nil), players...),
	}
}

// Filter returns a copy of the player list, optionally without IR players.
func (s *Snapshot) Filter(excludeIR bool) []PlayerStatLine {
	out := make([]PlayerStatLine, 0, len(s.Players))
	for _, p := range s.Players {
		if excludeIR && p.OnInjuredReserve() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Team looks up a team by id.
func (s *Snapshot) Team(id int) (Team, bool) {
	for _, t := range s.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

// TeamName returns the team name, or "Team <id>" for unknown ids.
func (s *Snapshot) TeamName(id int) string {
	if t, ok := s.Team(id); ok {
		return t.Name
	}
	return "Team " + strconv.Itoa(id)
}
