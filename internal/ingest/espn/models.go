package espn

// LeagueResponse is the subset of the ESPN league document we read.
type LeagueResponse struct {
	ID              int           `json:"id"`
	SeasonID        int           `json:"seasonId"`
	ScoringPeriodID int           `json:"scoringPeriodId"`
	Status          LeagueStatus  `json:"status"`
	Teams           []TeamJSON    `json:"teams"`
	Schedule        []MatchupJSON `json:"schedule"`
	// Players is filled by the kona_player_info view.
	Players []PlayerPoolEntryJSON `json:"players"`
}

type LeagueStatus struct {
	CurrentMatchupPeriod int `json:"currentMatchupPeriod"`
	LatestScoringPeriod  int `json:"latestScoringPeriod"`
}

type TeamJSON struct {
	ID       int         `json:"id"`
	Abbrev   string      `json:"abbrev"`
	Name     string      `json:"name"`
	Location string      `json:"location"`
	Nickname string      `json:"nickname"`
	Roster   *RosterJSON `json:"roster,omitempty"`
}

type RosterJSON struct {
	Entries []RosterEntryJSON `json:"entries"`
}

type RosterEntryJSON struct {
	PlayerID        int                 `json:"playerId"`
	LineupSlotID    int                 `json:"lineupSlotId"`
	PlayerPoolEntry PlayerPoolEntryJSON `json:"playerPoolEntry"`
}

type PlayerPoolEntryJSON struct {
	ID       int        `json:"id"`
	OnTeamID int        `json:"onTeamId"`
	Status   string     `json:"status"`
	Player   PlayerJSON `json:"player"`
}

type PlayerJSON struct {
	ID                int           `json:"id"`
	FullName          string        `json:"fullName"`
	DefaultPositionID int           `json:"defaultPositionId"`
	InjuryStatus      string        `json:"injuryStatus"`
	Stats             []StatSetJSON `json:"stats"`
}

// StatSetJSON is one stat split of a player: ID is "<split><season>", e.g.
// "002026" for the 2026 season total.
type StatSetJSON struct {
	ID              string             `json:"id"`
	SeasonID        int                `json:"seasonId"`
	ScoringPeriodID int                `json:"scoringPeriodId"`
	StatSourceID    int                `json:"statSourceId"`
	StatSplitTypeID int                `json:"statSplitTypeId"`
	Stats           map[string]float64 `json:"stats"`
	AverageStats    map[string]float64 `json:"averageStats"`
}

type MatchupJSON struct {
	ID              int              `json:"id"`
	MatchupPeriodID int              `json:"matchupPeriodId"`
	Home            *MatchupTeamJSON `json:"home"`
	Away            *MatchupTeamJSON `json:"away"`
}

type MatchupTeamJSON struct {
	TeamID                 int         `json:"teamId"`
	RosterForMatchupPeriod *RosterJSON `json:"rosterForMatchupPeriod,omitempty"`
	CumulativeScore        *ScoreJSON  `json:"cumulativeScore,omitempty"`
}

type ScoreJSON struct {
	Wins        int                      `json:"wins"`
	Losses      int                      `json:"losses"`
	Ties        int                      `json:"ties"`
	ScoreByStat map[string]StatScoreJSON `json:"scoreByStat"`
}

type StatScoreJSON struct {
	Score  float64 `json:"score"`
	Result string  `json:"result"`
}
