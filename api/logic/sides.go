/* sides.go
 * Contains the Team Label Resolver. Every game of a series is put on one A/B axis: side A is the team that won game 1.
 * Raw team labels are used when the export carries them, otherwise sides are inferred from roster overlap
 */

package logic

import (
	"strings"

	"hdc-league/api/external"
	"hdc-league/api/shared"
)

// SideFlag marks a game whose side assignment should be checked by a person
type SideFlag int

const (
	// FlagRosterSwap is set when neither roster of a game shares a player with side A of game 1. The winner was
	// assumed to be side A
	FlagRosterSwap SideFlag = iota + 1
)

func (f SideFlag) String() string {
	switch f {
	case FlagRosterSwap:
		return "roster_swap"
	default:
		return "unknown"
	}
}

// MergedSeriesGame is a final game of a series with its players placed on side A or B
type MergedSeriesGame struct {
	external.GameRecord
	Number      int                        // 1 based position in the series
	TeamAWon    bool
	PlayerSides map[string]shared.TeamSide // keyed by normalized gamertag
	Flags       []SideFlag
}

// SideOf returns the side a gamertag played on in this game
func (g MergedSeriesGame) SideOf(gamertag string) shared.TeamSide {
	return g.PlayerSides[shared.NormalizeGamertag(gamertag)]
}

// Flagged reports whether the game carries f
func (g MergedSeriesGame) Flagged(f SideFlag) bool {
	for _, have := range g.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// SeriesSides is the output of side resolution for one series
type SeriesSides struct {
	Games   []MergedSeriesGame
	RosterA []string // every gamertag seen on side A, in first appearance order
	RosterB []string
	LabelA  string // raw team label of side A when the export carried labels
	LabelB  string
	WinsA   int
	WinsB   int
}

// ResolveSides places every game of a series on the A/B axis.
// Preconditions: Receives the merged games of one series in chronological order
// Postconditions: Returns the games numbered from 1 with TeamAWon and per player sides set, plus the union rosters and
// win counts. Games that could only be resolved by assuming the winner is side A carry FlagRosterSwap
func ResolveSides(games []external.GameRecord) SeriesSides {
	var sides SeriesSides
	if len(games) == 0 {
		return sides
	}

	first := games[0]
	anchor := make(map[string]bool)
	for _, gt := range first.WinningGamertags {
		anchor[shared.NormalizeGamertag(gt)] = true
	}
	sides.LabelA = first.WinningTeamLabel()
	sides.LabelB = first.LosingTeamLabel()
	useLabels := sides.LabelA != "" && sides.LabelB != "" && !strings.EqualFold(sides.LabelA, sides.LabelB)

	rosterA := newRoster()
	rosterB := newRoster()

	for i, g := range games {
		game := MergedSeriesGame{
			GameRecord:  g,
			Number:      i + 1,
			PlayerSides: make(map[string]shared.TeamSide, len(g.Players)),
		}

		aWon, resolved := false, false
		if useLabels {
			aWon, resolved = sideFromLabels(g, sides.LabelA)
		}
		if !resolved {
			switch {
			case overlaps(g.WinningGamertags, anchor):
				aWon = true
			case overlaps(g.LosingGamertags, anchor):
				aWon = false
			default:
				aWon = true
				game.Flags = append(game.Flags, FlagRosterSwap)
			}
		}
		game.TeamAWon = aWon

		winnerSide, loserSide := shared.SideA, shared.SideB
		if !aWon {
			winnerSide, loserSide = shared.SideB, shared.SideA
		}
		for _, gt := range g.WinningGamertags {
			game.PlayerSides[shared.NormalizeGamertag(gt)] = winnerSide
		}
		for _, gt := range g.LosingGamertags {
			game.PlayerSides[shared.NormalizeGamertag(gt)] = loserSide
		}

		if aWon {
			sides.WinsA++
			rosterA.add(g.WinningGamertags...)
			rosterB.add(g.LosingGamertags...)
		} else {
			sides.WinsB++
			rosterA.add(g.LosingGamertags...)
			rosterB.add(g.WinningGamertags...)
		}

		sides.Games = append(sides.Games, game)
	}

	sides.RosterA = rosterA.list
	sides.RosterB = rosterB.list
	return sides
}

// sideFromLabels returns whether side A won, and false when neither label of the game matches side A's label
func sideFromLabels(g external.GameRecord, labelA string) (aWon bool, ok bool) {
	switch {
	case strings.EqualFold(g.WinningTeamLabel(), labelA):
		return true, true
	case strings.EqualFold(g.LosingTeamLabel(), labelA):
		return false, true
	default:
		return false, false
	}
}

// roster is an ordered set of gamertags compared case-insensitively
type roster struct {
	list []string
	seen map[string]bool
}

func newRoster() *roster {
	return &roster{seen: make(map[string]bool)}
}

func (r *roster) add(gamertags ...string) {
	for _, gt := range gamertags {
		key := shared.NormalizeGamertag(gt)
		if key == "" || r.seen[key] {
			continue
		}
		r.seen[key] = true
		r.list = append(r.list, gt)
	}
}
