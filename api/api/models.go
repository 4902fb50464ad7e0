/* models.go
 * This file contain the structs and errors that are used by api consumers (the bot and the web server)
 */

package api

import (
	"errors"
	"fmt"
	"strings"

	"hdc-league/api/logic"
	"hdc-league/api/shared"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNoGames              = errors.New("no games found")
	ErrSubmissionContention = errors.New("fixture is being updated by another submission, try again")
	ErrUnmatchedTeam        = errors.New("could not match roster to a league team")
	ErrInvalidRequest       = errors.New("invalid request")
)

// UnmatchedTeamError halts ingestion of a series until the caller names the team for the given side
type UnmatchedTeamError struct {
	Side       shared.TeamSide
	Status     logic.IdentityStatus
	Roster     []string
	Candidates []logic.TeamScore
	Reason     string
}

func (e *UnmatchedTeamError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("side %s: %s", e.Side, e.Reason))
	if len(e.Candidates) > 0 {
		sb.WriteString(" (candidates:")
		for _, c := range e.Candidates {
			sb.WriteString(fmt.Sprintf(" %s=%d", c.Name, c.Score))
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *UnmatchedTeamError) Unwrap() error {
	return ErrUnmatchedTeam
}

func invalidRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// IngestRequest asks for a series to be scraped from the stat site. TeamAID and TeamBID are optional manual
// selections used when automatic matching failed
type IngestRequest struct {
	SeriesURL string `json:"series_url"`
	Division  int    `json:"division"`
	Week      int    `json:"week"`
	TeamAID   string `json:"team_a_id,omitempty"`
	TeamBID   string `json:"team_b_id,omitempty"`
}

// UploadRequest is the same as IngestRequest for a file that was uploaded instead of scraped
type UploadRequest struct {
	Filename string
	Data     []byte
	Division int
	Week     int
	TeamAID  string
	TeamBID  string
}

// SkippedGame is a game that could not be fetched or parsed. It does not fail the series
type SkippedGame struct {
	GameID string `json:"game_id"`
	Reason string `json:"reason"`
}

// TeamAssignment is the league team a series side was attributed to
type TeamAssignment struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Manual bool   `json:"manual,omitempty"`
	Wins   int    `json:"wins"`
}

// GameFlag surfaces a side resolution warning for one game
type GameFlag struct {
	Number int    `json:"number"`
	GameID string `json:"game_id"`
	Flag   string `json:"flag"`
}

// GameSummary is one stored game of an ingested series
type GameSummary struct {
	Number   int    `json:"number"`
	Map      string `json:"map"`
	Mode     string `json:"mode"`
	Winner   string `json:"winner"`
	ScoreA   int    `json:"score_a"`
	ScoreB   int    `json:"score_b"`
	Duration string `json:"duration"`
}

// IngestReport describes the outcome of one ingestion
type IngestReport struct {
	SeriesID       string            `json:"series_id"`
	MatchID        string            `json:"match_id"`
	MatchKey       string            `json:"match_key"`
	GamesFound     int               `json:"games_found"`
	GamesProcessed int               `json:"games_processed"`
	Skipped        []SkippedGame     `json:"skipped,omitempty"`
	Notes          []logic.MergeNote `json:"merge_notes,omitempty"`
	Flags          []GameFlag        `json:"flags,omitempty"`
	TeamA          TeamAssignment    `json:"team_a"`
	TeamB          TeamAssignment    `json:"team_b"`
	Games          []GameSummary     `json:"games"`
}

// Summary is the one line progress text shown to users
func (r IngestReport) Summary() string {
	return fmt.Sprintf("%d of %d games processed", r.GamesProcessed, r.GamesFound)
}

// SubmissionRequest is one team's claimed series result. Teams may be given by id or by a name that is resolved
// against the division's teams
type SubmissionRequest struct {
	Division     int    `json:"division"`
	Week         int    `json:"week"`
	TeamID       string `json:"team_id,omitempty"`
	OpponentID   string `json:"opponent_id,omitempty"`
	TeamName     string `json:"team_name,omitempty"`
	OpponentName string `json:"opponent_name,omitempty"`
	TeamMaps     int    `json:"team_maps"`
	OpponentMaps int    `json:"opponent_maps"`
	SubmittedBy  string `json:"submitted_by"`
}

// SubmissionResult is what a submission did to its fixture
type SubmissionResult struct {
	Outcome    logic.Outcome     `json:"-"`
	Status     string            `json:"outcome"`
	Submission shared.Submission `json:"submission"`
	Match      *shared.Match     `json:"match,omitempty"`
}

// Message is the user facing description of the result
func (r SubmissionResult) Message() string {
	switch r.Outcome {
	case logic.OutcomeConfirmed:
		return fmt.Sprintf("Result confirmed: %s %d - %d %s (week %d)",
			r.Submission.Team1ID, r.Submission.Team1Maps, r.Submission.Team2Maps, r.Submission.Team2ID, r.Submission.Week)
	case logic.OutcomeDisputed:
		return "Result disputed: the other team reported a different score. An admin will review it."
	default:
		return "Result submitted, waiting for the other team to confirm."
	}
}

// MatchRequest is an admin created result
type MatchRequest struct {
	Division  int    `json:"division"`
	Week      int    `json:"week"`
	Team1ID   string `json:"team1_id"`
	Team2ID   string `json:"team2_id"`
	Team1Maps int    `json:"team1_maps"`
	Team2Maps int    `json:"team2_maps"`
}

// DisputedFixture groups the conflicting submissions of one fixture
type DisputedFixture struct {
	MatchKey    string              `json:"match_key"`
	Division    int                 `json:"division"`
	Week        int                 `json:"week"`
	Submissions []shared.Submission `json:"submissions"`
}

// GameDetail is a stored game with its player lines
type GameDetail struct {
	shared.Game
	Players []shared.PlayerStat `json:"players"`
}

// MatchDetail is a match with all of its games
type MatchDetail struct {
	Match shared.Match `json:"match"`
	Games []GameDetail `json:"games"`
}
