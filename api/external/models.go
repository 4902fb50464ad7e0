/* models.go
 * This file contains the models used by the external package when fetching and parsing stat exports
 */

package external

import (
	"fmt"
	"hdc-league/api/shared"
)

// ExportFormat identifies the layout of a raw stat export
type ExportFormat int

const (
	FormatDelimited ExportFormat = iota
	FormatSpreadsheet
)

func (f ExportFormat) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatSpreadsheet:
		return "spreadsheet"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// PlayerGameStat is one player's line in one game
type PlayerGameStat struct {
	Gamertag    string
	TeamLabel   string // raw in-game team label, empty when the export has none
	Won         bool
	Kills       int
	Deaths      int
	Assists     int
	DamageDealt int
	DamageTaken int
	ShotsFired  int
	ShotsLanded int
}

// GameRecord is one completed game, or a fragment of one, as read from an export
type GameRecord struct {
	SeriesID         string
	GameID           string
	Map              string
	Mode             string
	DurationSeconds  int
	WinnerScore      int
	LoserScore       int
	WinningGamertags []string
	LosingGamertags  []string
	Players          []PlayerGameStat
}

// TotalKills is the combined kill count of both sides
func (g GameRecord) TotalKills() int {
	total := 0
	for _, p := range g.Players {
		total += p.Kills
	}
	return total
}

// Duration returns the game length as minutes:seconds
func (g GameRecord) Duration() string {
	return FormatDuration(g.DurationSeconds)
}

// IsScoreless reports a 0-0 game
func (g GameRecord) IsScoreless() bool {
	return g.WinnerScore == 0 && g.LoserScore == 0
}

// Clone returns a deep copy so callers never share player slices between records
func (g GameRecord) Clone() GameRecord {
	out := g
	out.WinningGamertags = append([]string(nil), g.WinningGamertags...)
	out.LosingGamertags = append([]string(nil), g.LosingGamertags...)
	out.Players = append([]PlayerGameStat(nil), g.Players...)
	return out
}

// WinningTeamLabel returns the raw label shared by the winning players, or "" when the export has no labels
func (g GameRecord) WinningTeamLabel() string {
	return g.teamLabel(true)
}

// LosingTeamLabel returns the raw label shared by the losing players, or ""
func (g GameRecord) LosingTeamLabel() string {
	return g.teamLabel(false)
}

func (g GameRecord) teamLabel(won bool) string {
	for _, p := range g.Players {
		if p.Won == won && p.TeamLabel != "" {
			return p.TeamLabel
		}
	}
	return ""
}

// HasPlayer reports whether gamertag (case-insensitive) is in the record's rosters
func HasPlayer(gamertags []string, gamertag string) bool {
	key := shared.NormalizeGamertag(gamertag)
	for _, gt := range gamertags {
		if shared.NormalizeGamertag(gt) == key {
			return true
		}
	}
	return false
}

// ParseError is returned when an export cannot be used at all
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// FormatDuration renders seconds as m:ss
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
