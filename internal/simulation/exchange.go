package simulation

import (
	"fmt"
	"sort"
	"strings"
)

// Exchange is one team's side of a multi-team trade.
type Exchange struct {
	TeamID  int      `json:"team_id"`
	Give    []string `json:"give"`
	Receive []string `json:"receive"`
}

// ValidationError lists every problem found in a set of exchanges.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid trade: " + strings.Join(e.Problems, "; ")
}

// BilateralExchanges describes a two-team trade as exchanges.
func BilateralExchanges(myTeam, theirTeam int, give, receive []string) []Exchange {
	return []Exchange{
		{TeamID: myTeam, Give: give, Receive: receive},
		{TeamID: theirTeam, Give: receive, Receive: give},
	}
}

// MovesFromExchanges checks that the exchanges form a closed trade and turns
// them into moves. Every given player must be received exactly once, and a
// team may not give and receive the same player.
func MovesFromExchanges(exchanges []Exchange) ([]Move, error) {
	var problems []string

	teamSeen := map[int]bool{}
	for _, ex := range exchanges {
		if teamSeen[ex.TeamID] {
			problems = append(problems, fmt.Sprintf("team %d appears more than once", ex.TeamID))
		}
		teamSeen[ex.TeamID] = true
	}

	givenBy := map[string]int{}
	receivedBy := map[string]int{}
	giveCount := map[string]int{}
	recvCount := map[string]int{}
	for _, ex := range exchanges {
		for _, name := range ex.Give {
			giveCount[name]++
			givenBy[name] = ex.TeamID
		}
		for _, name := range ex.Receive {
			recvCount[name]++
			receivedBy[name] = ex.TeamID
		}
	}

	for _, name := range sortedKeys(giveCount) {
		if giveCount[name] > 1 {
			problems = append(problems, fmt.Sprintf("%s is given more than once", name))
		}
		if recvCount[name] == 0 {
			problems = append(problems, fmt.Sprintf("%s is given but not received", name))
		}
	}
	for _, name := range sortedKeys(recvCount) {
		if recvCount[name] > 1 {
			problems = append(problems, fmt.Sprintf("%s is received more than once", name))
		}
		if giveCount[name] == 0 {
			problems = append(problems, fmt.Sprintf("%s is received but not given", name))
		}
	}

	for _, ex := range exchanges {
		gives := map[string]bool{}
		for _, name := range ex.Give {
			gives[name] = true
		}
		var overlap []string
		for _, name := range ex.Receive {
			if gives[name] {
				overlap = append(overlap, name)
			}
		}
		if len(overlap) > 0 {
			sort.Strings(overlap)
			problems = append(problems, fmt.Sprintf("team %d both gives and receives %s", ex.TeamID, strings.Join(overlap, ", ")))
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	moves := make([]Move, 0, len(givenBy))
	for _, ex := range exchanges {
		for _, name := range ex.Give {
			moves = append(moves, Move{PlayerName: name, FromTeam: ex.TeamID, ToTeam: receivedBy[name]})
		}
	}
	return moves, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
