/* input_processing_test.go
 * Contains unit tests for input_processing.go functions
 */

package logic

import (
	"testing"

	"hdc-league/api/shared"

	"github.com/stretchr/testify/assert"
)

// TestCheckTeamNames_ExactMatches tests exact team name matching
func TestCheckTeamNames_ExactMatches(t *testing.T) {
	validTeams := []string{"Team A", "Team B", "Team C"}
	inputTeams := []string{"Team A", "Team B", "Team C"}

	formatted, invalid := CheckTeamNames(inputTeams, validTeams)

	assert.Equal(t, []string{"Team A", "Team B", "Team C"}, formatted)
	assert.Empty(t, invalid)
}

// TestCheckTeamNames_CaseInsensitive tests case-insensitive matching
func TestCheckTeamNames_CaseInsensitive(t *testing.T) {
	validTeams := []string{"Spacestation Gaming", "Cloud9", "OpTic Gaming"}
	inputTeams := []string{"spacestation gaming", "CLOUD9", "optic GAMING"}

	formatted, invalid := CheckTeamNames(inputTeams, validTeams)

	assert.Equal(t, []string{"Spacestation Gaming", "Cloud9", "OpTic Gaming"}, formatted)
	assert.Empty(t, invalid)
}

// TestCheckTeamNames_FuzzyMatching tests partial names
func TestCheckTeamNames_FuzzyMatching(t *testing.T) {
	validTeams := []string{"Spacestation Gaming", "Cloud9", "OpTic Gaming"}
	inputTeams := []string{"Spacestation", "C9", "OpTic"}

	formatted, invalid := CheckTeamNames(inputTeams, validTeams)

	assert.Equal(t, []string{"Spacestation Gaming", "Cloud9", "OpTic Gaming"}, formatted)
	assert.Empty(t, invalid)
}

// TestCheckTeamNames_InvalidTeams tests handling of invalid team names
func TestCheckTeamNames_InvalidTeams(t *testing.T) {
	validTeams := []string{"Team A", "Team B", "Team C"}
	inputTeams := []string{"Team A", "InvalidTeam", "Team B", "AnotherInvalid"}

	formatted, invalid := CheckTeamNames(inputTeams, validTeams)

	assert.Equal(t, []string{"Team A", "Team B"}, formatted)
	assert.Equal(t, []string{"InvalidTeam", "AnotherInvalid"}, invalid)
}

// TestCheckTeamNames_MultipleMatches tests that an exact match wins over longer names
func TestCheckTeamNames_MultipleMatches(t *testing.T) {
	validTeams := []string{"Cloud9 Blue", "Cloud9", "Cloud9 White"}

	formatted, invalid := CheckTeamNames([]string{"Cloud9"}, validTeams)

	assert.Equal(t, []string{"Cloud9"}, formatted)
	assert.Empty(t, invalid)
}

// TestCheckTeamNames_ClosestMatch tests that the shortest edit distance wins without an exact match
func TestCheckTeamNames_ClosestMatch(t *testing.T) {
	validTeams := []string{"Cloud9 White", "Cloud9 Blue"}

	formatted, _ := CheckTeamNames([]string{"c9 blue"}, validTeams)

	assert.Equal(t, []string{"Cloud9 Blue"}, formatted)
}

// TestCheckTeamNames_EmptyInput tests behavior with empty inputs
func TestCheckTeamNames_EmptyInput(t *testing.T) {
	formatted, invalid := CheckTeamNames([]string{}, []string{"Team A", "Team B"})

	assert.Empty(t, formatted)
	assert.Empty(t, invalid)

	formatted, invalid = CheckTeamNames([]string{"  "}, []string{"Team A"})
	assert.Empty(t, formatted)
	assert.Equal(t, []string{"  "}, invalid)
}

// TestCheckTeamNames_AllInvalid tests when all teams are invalid
func TestCheckTeamNames_AllInvalid(t *testing.T) {
	validTeams := []string{"Team A", "Team B"}
	inputTeams := []string{"XYZ", "ABC", "DEF"}

	formatted, invalid := CheckTeamNames(inputTeams, validTeams)

	assert.Empty(t, formatted)
	assert.Len(t, invalid, 3)
}

func TestResolveTeams(t *testing.T) {
	teams := []shared.Team{
		{ID: "t1", Name: "Spacestation Gaming"},
		{ID: "t2", Name: "OpTic Gaming"},
	}

	matched, invalid := ResolveTeams([]string{"optic", "Nobody Here", "spacestation"}, teams)

	assert.Len(t, matched, 2)
	assert.Equal(t, "t2", matched[0].ID)
	assert.Equal(t, "t1", matched[1].ID)
	assert.Equal(t, []string{"Nobody Here"}, invalid)
}
