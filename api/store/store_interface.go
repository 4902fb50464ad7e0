/* store_interface.go
 * Contains the Store interface for dependency injection and testing
 */

package store

import (
	"context"

	"hdc-league/api/shared"
)

// Interface defines the methods that Store implements.
// This allows for mocking in tests.
type Interface interface {
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error

	// teams
	GetTeams(ctx context.Context, division int) ([]shared.Team, error)
	GetTeam(ctx context.Context, id string) (shared.Team, error)
	UpsertTeam(ctx context.Context, team shared.Team) error
	GetTeamGamertagHistory(ctx context.Context, teamIDs []string) (map[string][]string, error)

	// matches and games
	InsertMatch(ctx context.Context, match shared.Match) error
	GetMatch(ctx context.Context, id string) (shared.Match, error)
	GetMatches(ctx context.Context, division int) ([]shared.Match, error)
	DeleteMatch(ctx context.Context, id string) error
	SaveSeries(ctx context.Context, series SeriesRecord) (shared.Match, error)
	GetMatchGames(ctx context.Context, matchID string) ([]shared.Game, []shared.PlayerStat, error)

	// player stats
	GetPlayerStats(ctx context.Context, division int) ([]shared.PlayerStat, error)

	// submissions
	FindPendingSubmission(ctx context.Context, matchKey string) (*shared.Submission, error)
	InsertSubmission(ctx context.Context, submission shared.Submission) error
	TransitionSubmission(ctx context.Context, id string, from, to shared.SubmissionStatus) error
	GetSubmission(ctx context.Context, id string) (shared.Submission, error)
	GetSubmissionsByStatus(ctx context.Context, status shared.SubmissionStatus) ([]shared.Submission, error)
	ResolveSubmissions(ctx context.Context, matchKey string) (int64, error)
	DeleteSubmission(ctx context.Context, id string) error
}

// Ensure Store implements Interface
var _ Interface = (*Store)(nil)
