/* models.go
 * This file contain the interfaces, structs and helper functions that are shared between sub packages
 */

package shared

import (
	"strings"
	"time"
)

// Team is a league team as declared by the league admins
type Team struct {
	ID       string   `bson:"_id" json:"id"`
	Division int      `bson:"division" json:"division"`
	Name     string   `bson:"name" json:"name"`
	Players  []string `bson:"players,omitempty" json:"players,omitempty"` // declared roster gamertags
}

// TeamSide is a series scoped label used before in-game teams are resolved to league teams. Side A is the side that
// won the first game of the series
type TeamSide int

const (
	SideUnknown TeamSide = iota
	SideA
	SideB
)

func (s TeamSide) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "?"
	}
}

// Other returns the opposite side
func (s TeamSide) Other() TeamSide {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideUnknown
	}
}

// SubmissionStatus is the state of one side's claimed result for a fixture
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusDisputed SubmissionStatus = "disputed"
	StatusResolved SubmissionStatus = "resolved"
)

// Valid reports whether s is one of the known statuses
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDisputed, StatusResolved:
		return true
	}
	return false
}

// ParseSubmissionStatus converts user input into a SubmissionStatus
func ParseSubmissionStatus(s string) (SubmissionStatus, bool) {
	status := SubmissionStatus(strings.ToLower(strings.TrimSpace(s)))
	return status, status.Valid()
}

// NormalizeGamertag is the key used whenever gamertags are compared
func NormalizeGamertag(gamertag string) string {
	return strings.ToLower(strings.TrimSpace(gamertag))
}

// Match is a confirmed fixture result. Team1ID is always the lexically lower team id
type Match struct {
	ID            string    `bson:"_id" json:"id"`
	MatchKey      string    `bson:"match_key" json:"match_key"`
	Division      int       `bson:"division" json:"division"`
	Week          int       `bson:"week" json:"week"`
	Team1ID       string    `bson:"team1_id" json:"team1_id"`
	Team2ID       string    `bson:"team2_id" json:"team2_id"`
	Team1Maps     int       `bson:"team1_maps" json:"team1_maps"`
	Team2Maps     int       `bson:"team2_maps" json:"team2_maps"`
	AdminApproved bool      `bson:"admin_approved" json:"admin_approved"`
	SourceSeries  string    `bson:"source_series,omitempty" json:"source_series,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// WinnerID returns the id of the team that won more maps, or "" for a drawn record
func (m Match) WinnerID() string {
	switch {
	case m.Team1Maps > m.Team2Maps:
		return m.Team1ID
	case m.Team2Maps > m.Team1Maps:
		return m.Team2ID
	default:
		return ""
	}
}

// Game is one map of an ingested series. ScoreA belongs to Team1ID of the parent match
type Game struct {
	ID              string `bson:"_id" json:"id"`
	MatchID         string `bson:"match_id" json:"match_id"`
	Number          int    `bson:"number" json:"number"`
	Mode            string `bson:"mode" json:"mode"`
	Map             string `bson:"map" json:"map"`
	ScoreA          int    `bson:"score_a" json:"score_a"`
	ScoreB          int    `bson:"score_b" json:"score_b"`
	WinnerTeamID    string `bson:"winner_team_id" json:"winner_team_id"`
	DurationSeconds int    `bson:"duration_seconds" json:"duration_seconds"`
	SourceGameID    string `bson:"source_game_id" json:"source_game_id"`
}

// PlayerStat is one player's line in one stored game
type PlayerStat struct {
	GameID      string `bson:"game_id" json:"game_id"`
	MatchID     string `bson:"match_id" json:"match_id"`
	TeamID      string `bson:"team_id" json:"team_id"`
	Division    int    `bson:"division" json:"division"`
	Gamertag    string `bson:"gamertag" json:"gamertag"`
	Kills       int    `bson:"kills" json:"kills"`
	Deaths      int    `bson:"deaths" json:"deaths"`
	Assists     int    `bson:"assists" json:"assists"`
	Damage      int    `bson:"damage" json:"damage"`
	DamageTaken int    `bson:"damage_taken" json:"damage_taken"`
	ShotsFired  int    `bson:"shots_fired" json:"shots_fired"`
	ShotsLanded int    `bson:"shots_landed" json:"shots_landed"`
}

// Submission is one side's claimed result for a fixture, stored in canonical orientation
type Submission struct {
	ID               string           `bson:"_id" json:"id"`
	MatchKey         string           `bson:"match_key" json:"match_key"`
	Division         int              `bson:"division" json:"division"`
	Week             int              `bson:"week" json:"week"`
	Team1ID          string           `bson:"team1_id" json:"team1_id"`
	Team2ID          string           `bson:"team2_id" json:"team2_id"`
	Team1Maps        int              `bson:"team1_maps" json:"team1_maps"`
	Team2Maps        int              `bson:"team2_maps" json:"team2_maps"`
	SubmittingTeamID string           `bson:"submitting_team_id" json:"submitting_team_id"`
	SubmittedBy      string           `bson:"submitted_by" json:"submitted_by"`
	Status           SubmissionStatus `bson:"status" json:"status"`
	CreatedAt        time.Time        `bson:"created_at" json:"created_at"`
}
