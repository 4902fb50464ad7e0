/* standings.go
 * Contains the functions used to build division standings from confirmed matches
 */

package logic

import (
	"sort"

	"hdc-league/api/shared"
)

// Standing is one row of a division table
type Standing struct {
	TeamID   string `json:"team_id"`
	Name     string `json:"name"`
	Division int    `json:"division"`
	Played   int    `json:"played"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	MapsWon  int    `json:"maps_won"`
	MapsLost int    `json:"maps_lost"`
}

// MapDiff is maps won minus maps lost
func (s Standing) MapDiff() int {
	return s.MapsWon - s.MapsLost
}

// ComputeStandings tallies matches into a table.
// Preconditions: Receives the division's teams and its confirmed matches
// Postconditions: Returns one row per team ordered by wins, then map differential, then name. Matches that reference a
// team outside the list are ignored
func ComputeStandings(teams []shared.Team, matches []shared.Match) []Standing {
	rows := make(map[string]*Standing, len(teams))
	table := make([]*Standing, 0, len(teams))
	for _, t := range teams {
		s := &Standing{TeamID: t.ID, Name: t.Name, Division: t.Division}
		rows[t.ID] = s
		table = append(table, s)
	}

	for _, m := range matches {
		t1, ok1 := rows[m.Team1ID]
		t2, ok2 := rows[m.Team2ID]
		if !ok1 || !ok2 {
			continue
		}
		t1.Played++
		t2.Played++
		t1.MapsWon += m.Team1Maps
		t1.MapsLost += m.Team2Maps
		t2.MapsWon += m.Team2Maps
		t2.MapsLost += m.Team1Maps
		switch m.WinnerID() {
		case m.Team1ID:
			t1.Wins++
			t2.Losses++
		case m.Team2ID:
			t2.Wins++
			t1.Losses++
		}
	}

	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.MapDiff() != b.MapDiff() {
			return a.MapDiff() > b.MapDiff()
		}
		return a.Name < b.Name
	})

	out := make([]Standing, len(table))
	for i, s := range table {
		out[i] = *s
	}
	return out
}
