/* identity_test.go
 * Contains unit tests for the League Identity Matcher
 */

package logic

import (
	"fmt"
	"testing"

	"hdc-league/api/shared"

	"github.com/stretchr/testify/assert"
)

func divisionTeams() []shared.Team {
	return []shared.Team{
		{ID: "t-eagle", Division: 1, Name: "Eagles", Players: []string{"Alpha", "Bravo", "Echo"}},
		{ID: "t-cobra", Division: 1, Name: "Cobras", Players: []string{"Charlie", "DeltaForce"}},
		{ID: "t-wolf", Division: 1, Name: "Wolves", Players: []string{"Foxtrot"}},
	}
}

func TestMatchTeam_DeclaredPlayers(t *testing.T) {
	m := MatchTeam([]string{"alpha", "BRAVO", "Zulu"}, divisionTeams(), nil)

	assert.Equal(t, IdentityMatched, m.Status)
	assert.Equal(t, "t-eagle", m.TeamID)
	assert.Equal(t, 2, m.Candidates[0].Score)
}

func TestMatchTeam_ContainsEitherWay(t *testing.T) {
	// "delta" is contained by "deltaforce" and "charlie tv" contains "charlie"
	m := MatchTeam([]string{"Delta", "Charlie TV"}, divisionTeams(), nil)

	assert.Equal(t, IdentityMatched, m.Status)
	assert.Equal(t, "t-cobra", m.TeamID)
	assert.Equal(t, 2, m.Candidates[0].Score)
}

func TestMatchTeam_History(t *testing.T) {
	history := NewTeamHistory(map[string][]string{
		"t-wolf": {"Ringer One", "Ringer Two"},
	})

	m := MatchTeam([]string{"ringer one", "ringer two", "Alpha"}, divisionTeams(), history)

	assert.Equal(t, IdentityMatched, m.Status)
	assert.Equal(t, "t-wolf", m.TeamID)
	assert.Len(t, m.Candidates, 2)
}

func TestMatchTeam_TieIsNotGuessed(t *testing.T) {
	m := MatchTeam([]string{"Alpha", "Charlie"}, divisionTeams(), nil)

	assert.Equal(t, IdentityTied, m.Status)
	assert.Empty(t, m.TeamID)
	assert.Len(t, m.Candidates, 2)
}

func TestMatchTeam_DuplicateGamertagsCountOnce(t *testing.T) {
	m := MatchTeam([]string{"Alpha", "alpha", "Charlie"}, divisionTeams(), nil)
	assert.Equal(t, IdentityTied, m.Status)
}

func TestMatchTeam_UnmatchedForAnyDivisionSize(t *testing.T) {
	roster := []string{"Nobody", "Stranger"}
	for size := 0; size <= 12; size++ {
		var teams []shared.Team
		raw := make(map[string][]string)
		for i := 0; i < size; i++ {
			id := fmt.Sprintf("t%d", i)
			teams = append(teams, shared.Team{ID: id, Name: fmt.Sprintf("Team %d", i), Players: []string{fmt.Sprintf("player%d", i)}})
			raw[id] = []string{fmt.Sprintf("ringer%d", i)}
		}

		m := MatchTeam(roster, teams, NewTeamHistory(raw))

		assert.Equal(t, IdentityUnmatched, m.Status, "division size %d", size)
		assert.Empty(t, m.TeamID)
	}
}

func TestMatchTeam_EmptyDeclaredNamesAreIgnored(t *testing.T) {
	teams := []shared.Team{{ID: "blank", Name: "Blank", Players: []string{"", "  "}}}
	m := MatchTeam([]string{"Anyone"}, teams, nil)
	assert.Equal(t, IdentityUnmatched, m.Status)
}
