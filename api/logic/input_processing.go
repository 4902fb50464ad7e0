/* input_processing.go
 * Contains the logic for processing user typed team names and validating them against the league's teams
 */

package logic

import (
	"sort"
	"strings"

	"hdc-league/api/shared"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// CheckTeamNames processes team names from user input and checks if they are valid.
// Preconditions: receives two string slices; one containing the names the user typed and another that is a list of valid team names
// Postconditions: returns two string slices, a slice of correctly formatted team names and slice of strings containing the invalid team names
func CheckTeamNames(inputTeams []string, validTeams []string) ([]string, []string) {
	var formattedTeamNames []string
	var invalidTeams []string

	lookup := make(map[string]string)
	var validTeamsLower []string
	for _, name := range validTeams {
		lower := strings.ToLower(name)
		lookup[lower] = name
		validTeamsLower = append(validTeamsLower, lower)
	}

	for _, team := range inputTeams {
		lowerTeam := strings.ToLower(strings.TrimSpace(team))
		if lowerTeam == "" {
			invalidTeams = append(invalidTeams, team)
			continue
		}
		fuzzyResults := fuzzy.RankFind(lowerTeam, validTeamsLower)
		if len(fuzzyResults) == 0 {
			invalidTeams = append(invalidTeams, team)
			continue
		}

		// Prefer an exact match, otherwise the closest ranked one
		sort.Sort(fuzzyResults)
		best := fuzzyResults[0].Target
		for _, r := range fuzzyResults {
			if r.Target == lowerTeam {
				best = r.Target
				break
			}
		}
		formattedTeamNames = append(formattedTeamNames, lookup[best]) // original casing, not the lowercase one
	}
	return formattedTeamNames, invalidTeams
}

// ResolveTeams maps typed names onto league teams.
// Preconditions: receives the typed names and the teams they may refer to
// Postconditions: returns the matched teams in input order and the names that matched nothing
func ResolveTeams(inputTeams []string, teams []shared.Team) ([]shared.Team, []string) {
	byName := make(map[string]shared.Team, len(teams))
	names := make([]string, 0, len(teams))
	for _, t := range teams {
		byName[t.Name] = t
		names = append(names, t.Name)
	}

	var (
		matched []shared.Team
		invalid []string
	)
	for _, input := range inputTeams {
		formatted, bad := CheckTeamNames([]string{input}, names)
		if len(bad) > 0 || len(formatted) == 0 {
			invalid = append(invalid, input)
			continue
		}
		matched = append(matched, byName[formatted[0]])
	}
	return matched, invalid
}
