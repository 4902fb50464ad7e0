/* queries.go
 * Contains the read models used by the bot and the web server
 */

package api

import (
	"context"
	"fmt"

	"hdc-league/api/logic"
	"hdc-league/api/shared"
)

// GetTeams returns the teams of a division, or every team for division 0
func (a *API) GetTeams(ctx context.Context, division int) ([]shared.Team, error) {
	return a.Store.GetTeams(ctx, division)
}

// GetStandings computes the standings of a division from its confirmed matches
func (a *API) GetStandings(ctx context.Context, division int) ([]logic.Standing, error) {
	if division < 1 {
		return nil, invalidRequestf("division must be at least 1")
	}
	teams, err := a.Store.GetTeams(ctx, division)
	if err != nil {
		return nil, err
	}
	matches, err := a.Store.GetMatches(ctx, division)
	if err != nil {
		return nil, err
	}
	return logic.ComputeStandings(teams, matches), nil
}

// GetLeaderboard returns the division's player leaderboard sorted by sortKey
func (a *API) GetLeaderboard(ctx context.Context, division int, sortKey string) ([]logic.PlayerSummary, error) {
	key, err := logic.ParseLeaderboardSort(sortKey)
	if err != nil {
		return nil, invalidRequestf("%v", err)
	}
	stats, err := a.Store.GetPlayerStats(ctx, division)
	if err != nil {
		return nil, err
	}
	return logic.BuildLeaderboard(stats, key)
}

// GetDisputed returns the disputed submissions grouped by fixture, oldest fixture first
func (a *API) GetDisputed(ctx context.Context) ([]DisputedFixture, error) {
	subs, err := a.Store.GetSubmissionsByStatus(ctx, shared.StatusDisputed)
	if err != nil {
		return nil, err
	}

	fixtures := []DisputedFixture{}
	index := make(map[string]int)
	for _, s := range subs {
		i, ok := index[s.MatchKey]
		if !ok {
			i = len(fixtures)
			index[s.MatchKey] = i
			fixtures = append(fixtures, DisputedFixture{MatchKey: s.MatchKey, Division: s.Division, Week: s.Week})
		}
		fixtures[i].Submissions = append(fixtures[i].Submissions, s)
	}
	return fixtures, nil
}

// GetMatchDetail returns a match with its games and each game's player lines
func (a *API) GetMatchDetail(ctx context.Context, id string) (MatchDetail, error) {
	match, err := a.Store.GetMatch(ctx, id)
	if err != nil {
		return MatchDetail{}, err
	}
	games, stats, err := a.Store.GetMatchGames(ctx, id)
	if err != nil {
		return MatchDetail{}, fmt.Errorf("failed to load games for match %s: %w", id, err)
	}

	byGame := make(map[string][]shared.PlayerStat)
	for _, st := range stats {
		byGame[st.GameID] = append(byGame[st.GameID], st)
	}
	detail := MatchDetail{Match: match, Games: make([]GameDetail, 0, len(games))}
	for _, g := range games {
		players := byGame[g.ID]
		if players == nil {
			players = []shared.PlayerStat{}
		}
		detail.Games = append(detail.Games, GameDetail{Game: g, Players: players})
	}
	return detail, nil
}
