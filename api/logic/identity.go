/* identity.go
 * Contains the League Identity Matcher, which picks the league team that a side's roster belongs to using the
 * gamertags previously stored for each team and each team's declared player list
 */

package logic

import (
	"sort"
	"strings"

	"hdc-league/api/shared"
)

// MinimumIdentityScore is the roster overlap a team needs before it can be assigned to a side
const MinimumIdentityScore = 1

type IdentityStatus int

const (
	IdentityMatched IdentityStatus = iota
	IdentityUnmatched
	IdentityTied
)

func (s IdentityStatus) String() string {
	switch s {
	case IdentityMatched:
		return "matched"
	case IdentityUnmatched:
		return "unmatched"
	case IdentityTied:
		return "tied"
	default:
		return "unknown"
	}
}

// TeamScore is how many roster gamertags were attributed to a team
type TeamScore struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// IdentityMatch is the result of matching one side's roster
type IdentityMatch struct {
	Status     IdentityStatus
	TeamID     string      // set only when Status is IdentityMatched
	Candidates []TeamScore // teams with a non zero score, best first
}

// TeamHistory maps a team id to the normalized gamertags stored against it in earlier games
type TeamHistory map[string]map[string]bool

// NewTeamHistory builds a TeamHistory from raw team id to gamertag lists
func NewTeamHistory(raw map[string][]string) TeamHistory {
	history := make(TeamHistory, len(raw))
	for teamID, gamertags := range raw {
		set := make(map[string]bool, len(gamertags))
		for _, gt := range gamertags {
			if key := shared.NormalizeGamertag(gt); key != "" {
				set[key] = true
			}
		}
		history[teamID] = set
	}
	return history
}

// MatchTeam picks the league team for one side.
// Preconditions: Receives the side's roster, the division's teams and the stored gamertag history of those teams
// Postconditions: Returns IdentityMatched with the single best scoring team, IdentityTied when two or more teams share
// the best score, or IdentityUnmatched when no team reaches MinimumIdentityScore
func MatchTeam(rosterGamertags []string, teams []shared.Team, history TeamHistory) IdentityMatch {
	var candidates []TeamScore
	for _, team := range teams {
		score := scoreTeam(rosterGamertags, team, history[team.ID])
		if score >= MinimumIdentityScore {
			candidates = append(candidates, TeamScore{TeamID: team.ID, Name: team.Name, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Name < candidates[j].Name
	})

	switch {
	case len(candidates) == 0:
		return IdentityMatch{Status: IdentityUnmatched}
	case len(candidates) > 1 && candidates[0].Score == candidates[1].Score:
		return IdentityMatch{Status: IdentityTied, Candidates: candidates}
	default:
		return IdentityMatch{Status: IdentityMatched, TeamID: candidates[0].TeamID, Candidates: candidates}
	}
}

// scoreTeam counts roster gamertags that were stored for the team before, or that equal, contain or are contained by a
// declared player of the team
func scoreTeam(rosterGamertags []string, team shared.Team, seen map[string]bool) int {
	var declared []string
	for _, p := range team.Players {
		if key := shared.NormalizeGamertag(p); key != "" {
			declared = append(declared, key)
		}
	}

	score := 0
	counted := make(map[string]bool)
	for _, gt := range rosterGamertags {
		key := shared.NormalizeGamertag(gt)
		if key == "" || counted[key] {
			continue
		}
		counted[key] = true
		if seen[key] || matchesDeclared(key, declared) {
			score++
		}
	}
	return score
}

func matchesDeclared(gamertag string, declared []string) bool {
	for _, d := range declared {
		if gamertag == d || strings.Contains(gamertag, d) || strings.Contains(d, gamertag) {
			return true
		}
	}
	return false
}
