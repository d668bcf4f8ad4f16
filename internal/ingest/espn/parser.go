package espn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
)

// Stat ids used by the fantasy API.
var statKeys = map[string]string{
	"0":  league.KeyPTS,
	"1":  league.KeyBLK,
	"2":  league.KeySTL,
	"3":  league.KeyAST,
	"6":  league.KeyREB,
	"11": league.KeyTO,
	"13": league.KeyFGM,
	"14": league.KeyFGA,
	"15": league.KeyFTM,
	"16": league.KeyFTA,
	"17": league.Key3PM,
	"18": league.Key3PA,
	"19": league.KeyFGP,
	"20": league.KeyFTP,
	"21": league.Key3PTP,
	"37": league.KeyDD,
	"40": league.KeyMIN,
	"42": league.KeyGP,
}

// Stat split prefixes of StatSetJSON.ID.
var splitPrefix = map[league.Window]string{
	league.WindowTotal:     "00",
	league.WindowLast7:     "01",
	league.WindowLast15:    "02",
	league.WindowLast30:    "03",
	league.WindowProjected: "10",
}

var positions = []string{"PG", "SG", "SF", "PF", "C", "G", "F", "SG/SF", "G/F", "PF/C", "F/C", "UT"}

var lineupSlots = map[int]string{
	0:  "PG",
	1:  "SG",
	2:  "SF",
	3:  "PF",
	4:  "C",
	5:  "G",
	6:  "F",
	7:  "SG/SF",
	8:  "G/F",
	9:  "PF/C",
	10: "F/C",
	11: "UT",
	12: "BE",
	13: league.SlotInjuredReserve,
}

// matchupSplitType marks the stat set holding a player's matchup period totals.
const matchupSplitType = 5

// PositionName maps a defaultPositionId to its label.
func PositionName(id int) string {
	if id >= 1 && id <= len(positions) {
		return positions[id-1]
	}
	return "N/A"
}

// SlotName maps a lineupSlotId to its label.
func SlotName(id int) string {
	if s, ok := lineupSlots[id]; ok {
		return s
	}
	return strconv.Itoa(id)
}

// SlotID maps a lineup slot label such as "PG" or "G/F" back to its id.
func SlotID(label string) (int, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for id, name := range lineupSlots {
		if name == label {
			return id, true
		}
	}
	return 0, false
}

// TeamName resolves the display name of a team.
func TeamName(t TeamJSON) string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(t.Location + " " + t.Nickname); name != "" {
		return name
	}
	return fmt.Sprintf("Team %d", t.ID)
}

// ParseTeams converts the teams of a league document.
func ParseTeams(resp *LeagueResponse) []league.Team {
	teams := make([]league.Team, 0, len(resp.Teams))
	for _, t := range resp.Teams {
		teams = append(teams, league.Team{
			ID:           t.ID,
			Name:         TeamName(t),
			Abbreviation: t.Abbrev,
		})
	}
	return teams
}

// ParsePlayerStats flattens rosters into per-player stat lines for a
// period. Players without a stat set for the period are kept with an
// empty line so rosters stay complete.
func ParsePlayerStats(resp *LeagueResponse, period league.Period) []league.PlayerStatLine {
	statID := splitPrefix[period.Window] + strconv.Itoa(period.Season)

	var out []league.PlayerStatLine
	for _, t := range resp.Teams {
		if t.Roster == nil {
			continue
		}
		teamName := TeamName(t)
		for _, e := range t.Roster.Entries {
			p := e.PlayerPoolEntry.Player
			line := league.PlayerStatLine{
				Name:         p.FullName,
				Position:     PositionName(p.DefaultPositionID),
				TeamID:       t.ID,
				TeamName:     teamName,
				LineupSlot:   SlotName(e.LineupSlotID),
				InjuryStatus: p.InjuryStatus,
			}
			for _, set := range p.Stats {
				if set.ID == statID {
					line.Stats = league.FromRaw(convert(averages(set)))
					break
				}
			}
			out = append(out, line)
		}
	}
	return out
}

// ParseFreeAgents converts a kona_player_info response into stat lines for
// a period. Players already on a roster and players without stats for the
// period are dropped.
func ParseFreeAgents(resp *LeagueResponse, period league.Period) []league.PlayerStatLine {
	statID := splitPrefix[period.Window] + strconv.Itoa(period.Season)

	out := make([]league.PlayerStatLine, 0, len(resp.Players))
	for _, entry := range resp.Players {
		if entry.OnTeamID != 0 {
			continue
		}
		p := entry.Player
		for _, set := range p.Stats {
			if set.ID != statID {
				continue
			}
			out = append(out, league.PlayerStatLine{
				Name:         p.FullName,
				Position:     PositionName(p.DefaultPositionID),
				LineupSlot:   league.SlotFreeAgent,
				InjuryStatus: p.InjuryStatus,
				Stats:        league.FromRaw(convert(averages(set))),
			})
			break
		}
	}
	return out
}

// averages prefers per-game values; GP only exists as a total.
func averages(set StatSetJSON) map[string]float64 {
	out := make(map[string]float64, len(set.AverageStats)+1)
	for k, v := range set.AverageStats {
		out[k] = v
	}
	if gp, ok := set.Stats["42"]; ok {
		out["42"] = gp
	}
	return out
}

func convert(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for id, v := range raw {
		if key, ok := statKeys[id]; ok {
			out[key] = v
		}
	}
	return out
}

// matchupStats picks the matchup period totals of a player.
func matchupStats(p PlayerJSON) (map[string]float64, bool) {
	for _, set := range p.Stats {
		if set.StatSourceID == 0 && set.StatSplitTypeID == matchupSplitType {
			return convert(set.Stats), true
		}
	}
	for _, set := range p.Stats {
		if set.StatSourceID == 0 && set.ScoringPeriodID == 0 && len(set.Stats) > 0 {
			return convert(set.Stats), true
		}
	}
	return nil, false
}

var boxScoreSums = []string{
	league.KeyPTS, league.KeyREB, league.KeyAST, league.KeySTL, league.KeyBLK,
	league.Key3PM, league.KeyDD, league.KeyTO,
	league.KeyFGM, league.KeyFGA, league.KeyFTM, league.KeyFTA, league.Key3PA,
}

// ParseBoxScore sums a team's matchup roster for one week. IR players are
// skipped and ratios are recomputed from summed makes and attempts. It
// returns nil when the team has no matchup that week.
func ParseBoxScore(resp *LeagueResponse, week, teamID int) *league.TeamBoxScore {
	var side, opp *MatchupTeamJSON
	for i := range resp.Schedule {
		m := &resp.Schedule[i]
		if m.MatchupPeriodID != week || m.Home == nil {
			continue
		}
		if m.Home.TeamID == teamID {
			side, opp = m.Home, m.Away
			break
		}
		if m.Away != nil && m.Away.TeamID == teamID {
			side, opp = m.Away, m.Home
			break
		}
	}
	if side == nil || side.RosterForMatchupPeriod == nil {
		return nil
	}

	sums := make(map[string]float64)
	for _, e := range side.RosterForMatchupPeriod.Entries {
		if SlotName(e.LineupSlotID) == league.SlotInjuredReserve {
			continue
		}
		stats, ok := matchupStats(e.PlayerPoolEntry.Player)
		if !ok {
			continue
		}
		for _, key := range boxScoreSums {
			sums[key] += stats[key]
		}
	}

	totals := map[category.Category]float64{
		category.Points:       sums[league.KeyPTS],
		category.Rebounds:     sums[league.KeyREB],
		category.Assists:      sums[league.KeyAST],
		category.Steals:       sums[league.KeySTL],
		category.Blocks:       sums[league.KeyBLK],
		category.ThreesMade:   sums[league.Key3PM],
		category.DoubleDouble: sums[league.KeyDD],
		category.Turnovers:    sums[league.KeyTO],
	}
	if fga := sums[league.KeyFGA]; fga > 0 {
		totals[category.FieldGoalPct] = sums[league.KeyFGM] / fga
	}
	if fta := sums[league.KeyFTA]; fta > 0 {
		totals[category.FreeThrowPct] = sums[league.KeyFTM] / fta
	}
	if tpa := sums[league.Key3PA]; tpa > 0 {
		totals[category.ThreePct] = sums[league.Key3PM] / tpa
	}
	if to := sums[league.KeyTO]; to > 0 {
		totals[category.AssistToTO] = sums[league.KeyAST] / to
	}

	box := &league.TeamBoxScore{
		Week:   week,
		TeamID: teamID,
		Totals: totals,
	}
	for _, t := range resp.Teams {
		if t.ID == teamID {
			box.TeamName = TeamName(t)
		}
	}
	if opp != nil {
		box.OpponentID = opp.TeamID
	}
	return box
}
