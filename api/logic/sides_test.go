/* sides_test.go
 * Contains unit tests for the Team Label Resolver
 */

package logic

import (
	"testing"

	"hdc-league/api/external"
	"hdc-league/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSides_InfersFromRosterOverlap(t *testing.T) {
	games := []external.GameRecord{
		rec("g1", "Live Fire", "Slayer", 50, 40, []line{{"Alpha", 30}, {"Bravo", 20}}, []line{{"Charlie", 20}, {"Delta", 20}}),
		rec("g2", "Recharge", "Oddball", 2, 0, []line{{"charlie", 10}, {"Delta", 10}}, []line{{"ALPHA", 5}, {"Bravo", 5}}),
		rec("g3", "Argyle", "CTF", 3, 1, []line{{"Bravo", 10}, {"Echo", 10}}, []line{{"Charlie", 5}, {"Delta", 5}}),
	}

	sides := ResolveSides(games)

	require.Len(t, sides.Games, 3)
	assert.True(t, sides.Games[0].TeamAWon)
	assert.False(t, sides.Games[1].TeamAWon)
	assert.True(t, sides.Games[2].TeamAWon)
	assert.Equal(t, 2, sides.WinsA)
	assert.Equal(t, 1, sides.WinsB)

	assert.Equal(t, []string{"Alpha", "Bravo", "Echo"}, sides.RosterA)
	assert.Equal(t, []string{"Charlie", "Delta"}, sides.RosterB)

	assert.Equal(t, 2, sides.Games[1].Number)
	assert.Equal(t, shared.SideA, sides.Games[1].SideOf("alpha"))
	assert.Equal(t, shared.SideB, sides.Games[1].SideOf("Charlie"))
	assert.Equal(t, shared.SideA, sides.Games[2].SideOf("Echo"))
	for _, g := range sides.Games {
		assert.Empty(t, g.Flags)
	}
}

func TestResolveSides_RosterSwapIsFlagged(t *testing.T) {
	games := []external.GameRecord{
		rec("g1", "Live Fire", "Slayer", 50, 40, []line{{"Alpha", 50}}, []line{{"Charlie", 40}}),
		rec("g2", "Live Fire", "Slayer", 50, 40, []line{{"Xray", 50}}, []line{{"Yankee", 40}}),
	}

	sides := ResolveSides(games)

	require.Len(t, sides.Games, 2)
	assert.True(t, sides.Games[1].TeamAWon)
	assert.True(t, sides.Games[1].Flagged(FlagRosterSwap))
	assert.False(t, sides.Games[0].Flagged(FlagRosterSwap))
	assert.Equal(t, 2, sides.WinsA)
}

func TestResolveSides_UsesTeamLabels(t *testing.T) {
	g1 := rec("g1", "Live Fire", "Slayer", 50, 40, []line{{"Alpha", 50}}, []line{{"Charlie", 40}})
	g2 := rec("g2", "Live Fire", "Slayer", 50, 40, []line{{"Sub", 50}}, []line{{"Other", 40}})
	setLabel(&g1, "Alpha", "Eagle")
	setLabel(&g1, "Charlie", "Cobra")
	// the substitutes share nobody with game 1 but the labels still place them
	setLabel(&g2, "Sub", "cobra")
	setLabel(&g2, "Other", "Eagle")

	sides := ResolveSides([]external.GameRecord{g1, g2})

	assert.Equal(t, "Eagle", sides.LabelA)
	assert.Equal(t, "Cobra", sides.LabelB)
	assert.False(t, sides.Games[1].TeamAWon)
	assert.Empty(t, sides.Games[1].Flags)
	assert.Equal(t, []string{"Alpha", "Other"}, sides.RosterA)
	assert.Equal(t, []string{"Charlie", "Sub"}, sides.RosterB)
}

func TestResolveSides_Empty(t *testing.T) {
	sides := ResolveSides(nil)
	assert.Empty(t, sides.Games)
	assert.Zero(t, sides.WinsA)
}

func setLabel(g *external.GameRecord, gamertag, label string) {
	for i := range g.Players {
		if g.Players[i].Gamertag == gamertag {
			g.Players[i].TeamLabel = label
		}
	}
}
