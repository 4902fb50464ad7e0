/* handlers_test.go
 * Contains unit tests for bot command handlers using mock Discord session
 */

package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"hdc-league/api/api"
	"hdc-league/api/shared"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportHeader = "Map,Category,LengthSeconds,Outcome,TeamScore,Player,Kills,Deaths,Assists,DamageDone,DamageTaken,ShotsFired,ShotsLanded\n"

func testTeams() []shared.Team {
	return []shared.Team{
		{ID: "team-a", Division: 1, Name: "Alpha Squad", Players: []string{"Striker", "Volt"}},
		{ID: "team-b", Division: 1, Name: "Bravo Six", Players: []string{"Ghost", "Onyx"}},
	}
}

// createTestBot creates a Bot instance over an in-memory API
func createTestBot(source *api.MockSource) (*Bot, *api.MockStore) {
	ms := api.NewMockStore(testTeams()...)
	if source == nil {
		source = &api.MockSource{}
	}
	b, err := NewBot("test_token", api.NewTestAPI(ms, source), zerolog.Nop())
	if err != nil {
		panic(err)
	}
	return b, ms
}

// createMockMessage creates a mock Discord message for testing
func createMockMessage(content, userID, username, channelID string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Content:   content,
			ChannelID: channelID,
			Author: &discordgo.User{
				ID:       userID,
				Username: username,
			},
		},
	}
}

func run(b *Bot, content string) *MockDiscordSession {
	session := NewMockDiscordSession()
	b.newMessageHandler(session, createMockMessage(content, "user123", "captain", "channel123"), "bot999")
	return session
}

func TestNewBot_Validation(t *testing.T) {
	_, err := NewBot("", &api.API{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "botToken is required")

	_, err = NewBot("token", nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestHelpMessage(t *testing.T) {
	b, _ := createTestBot(nil)
	session := run(b, "$help")

	require.Len(t, session.SentMessages, 1)
	msg := session.GetLastMessage()
	assert.Equal(t, "channel123", msg.ChannelID)
	assert.Contains(t, msg.Content, "$submit")
	assert.Contains(t, msg.Content, "$ingest")
	assert.Contains(t, msg.Content, "$standings")
}

func TestNewMessageHandler_IgnoresSelfAndUnknown(t *testing.T) {
	b, _ := createTestBot(nil)

	session := NewMockDiscordSession()
	b.newMessageHandler(session, createMockMessage("$help", "bot999", "bot", "channel123"), "bot999")
	assert.Empty(t, session.SentMessages)

	assert.Empty(t, run(b, "hello there").SentMessages)
}

func TestSubmitHandler_PendingThenConfirmed(t *testing.T) {
	b, ms := createTestBot(nil)

	msg := run(b, `$submit 1 2 "Alpha Squad" "Bravo Six" 3 1`).GetLastMessage()
	assert.Contains(t, msg.Content, "waiting for the other team")

	msg = run(b, `$submit 1 2 “bravo” “alpha” 1 3`).GetLastMessage()
	assert.Contains(t, msg.Content, "Result confirmed")
	assert.Len(t, ms.Matches, 1)

	subs := ms.SubmissionsFor("team-a_team-b_w2")
	require.Len(t, subs, 2)
	assert.Equal(t, "captain", subs[0].SubmittedBy)
}

func TestSubmitHandler_Errors(t *testing.T) {
	b, _ := createTestBot(nil)

	tests := []struct {
		content string
		want    string
	}{
		{`$submit 1 2 "Alpha Squad" 3 1`, "Usage"},
		{`$submit one 2 "Alpha Squad" "Bravo Six" 3 1`, "must be numbers"},
		{`$submit 1 2 "Alpha Squad" "Bravo Six" 2 2`, "Submission rejected"},
		{`$submit 1 2 "Alpha Squad" "Zulu Rangers" 3 0`, "unknown team"},
	}
	for _, tt := range tests {
		msg := run(b, tt.content).GetLastMessage()
		assert.Contains(t, msg.Content, tt.want, tt.content)
	}
}

func TestIngestHandler(t *testing.T) {
	export := exportHeader +
		"Live Fire - Ranked,Slayer,605,Win,50,Striker,26,9,4,4200,3100,210,95\n" +
		"Live Fire - Ranked,Slayer,605,Win,50,Volt,24,11,6,3900,3300,190,88\n" +
		"Live Fire - Ranked,Slayer,605,Loss,41,Ghost,21,25,3,3600,4100,220,80\n" +
		"Live Fire - Ranked,Slayer,605,Loss,41,Onyx,20,25,5,3300,3900,205,77\n"
	source := &api.MockSource{
		GameIDs: []string{"g1", "g2"},
		Exports: map[string][]byte{"g1": []byte(export)},
	}
	b, ms := createTestBot(source)

	session := run(b, "$ingest 1 3 https://leafapp.co/scrims/77")
	assert.Equal(t, []string{"channel123"}, session.TypingIn)
	msg := session.GetLastMessage()
	assert.Contains(t, msg.Content, "1 of 2 games processed")
	assert.Contains(t, msg.Content, "**Alpha Squad** 1 - 0 **Bravo Six**")
	assert.Contains(t, msg.Content, "Slayer on Live Fire: Alpha Squad won 50-41 (10:05)")
	assert.Contains(t, msg.Content, "Skipped game g2")
	assert.Len(t, ms.Matches, 1)
}

func TestIngestHandler_UnmatchedPromptsForTeams(t *testing.T) {
	export := exportHeader +
		"Aquarius,Slayer,600,Win,50,Nomad,30,9,4,4200,3100,210,95\n" +
		"Aquarius,Slayer,600,Loss,30,Ghost,30,25,3,3600,4100,220,80\n"
	source := &api.MockSource{GameIDs: []string{"g1"}, Exports: map[string][]byte{"g1": []byte(export)}}
	b, ms := createTestBot(source)

	msg := run(b, "$ingest 1 3 https://leafapp.co/scrims/77").GetLastMessage()
	assert.Contains(t, msg.Content, "side A")
	assert.Contains(t, msg.Content, "Players: Nomad")
	assert.Contains(t, msg.Content, "team ids")
	assert.Empty(t, ms.Matches)

	msg = run(b, "$ingest 1 3 https://leafapp.co/scrims/77 team-a team-b").GetLastMessage()
	assert.Contains(t, msg.Content, "1 of 1 games processed")
	assert.Len(t, ms.Matches, 1)
}

func TestIngestHandler_Usage(t *testing.T) {
	b, _ := createTestBot(nil)
	assert.Contains(t, run(b, "$ingest 1").GetLastMessage().Content, "Usage")
	assert.Contains(t, run(b, "$ingest x 1 https://leafapp.co/scrims/1").GetLastMessage().Content, "must be numbers")
	assert.Contains(t, run(b, "$ingest 1 1 https://leafapp.co/scrims/1").GetLastMessage().Content, "no games found")
}

func TestStandingsHandler(t *testing.T) {
	b, _ := createTestBot(nil)
	run(b, `$submit 1 1 "Alpha Squad" "Bravo Six" 3 2`)
	run(b, `$submit 1 1 "Bravo Six" "Alpha Squad" 2 3`)

	msg := run(b, "$standings 1").GetLastMessage()
	assert.Contains(t, msg.Content, "Division 1 standings")
	assert.Contains(t, msg.Content, "1. Alpha Squad: 1-0 (maps 3-2, +1)")
	assert.Contains(t, msg.Content, "2. Bravo Six: 0-1 (maps 2-3, -1)")

	assert.Contains(t, run(b, "$standings").GetLastMessage().Content, "Usage")
	assert.Contains(t, run(b, "$standings 9").GetLastMessage().Content, "has no teams")
}

func TestLeaderboardHandler(t *testing.T) {
	b, _ := createTestBot(nil)
	assert.Contains(t, run(b, "$leaderboard 1").GetLastMessage().Content, "No player stats")
	assert.Contains(t, run(b, "$leaderboard 1 headshots").GetLastMessage().Content, "unknown leaderboard sort")
	assert.Contains(t, run(b, "$leaderboard").GetLastMessage().Content, "Usage")
}

func TestTeamsHandler(t *testing.T) {
	b, _ := createTestBot(nil)
	msg := run(b, "$teams").GetLastMessage()
	assert.Contains(t, msg.Content, "- Alpha Squad (division 1, id `team-a`)")
	assert.Contains(t, msg.Content, "Bravo Six")

	assert.Contains(t, run(b, "$teams 4").GetLastMessage().Content, "No teams found")
}

func TestDisputesHandler(t *testing.T) {
	b, _ := createTestBot(nil)
	assert.Contains(t, run(b, "$disputes").GetLastMessage().Content, "No disputed results")

	run(b, `$submit 1 1 "Alpha Squad" "Bravo Six" 3 0`)
	run(b, `$submit 1 1 "Bravo Six" "Alpha Squad" 3 1`)

	msg := run(b, "$disputes").GetLastMessage()
	assert.Contains(t, msg.Content, "Division 1 week 1 (team-a_team-b_w1)")
	assert.Equal(t, 2, strings.Count(msg.Content, "captain says"))
}

func TestSendErrorIsLogged(t *testing.T) {
	b, _ := createTestBot(nil)
	session := NewMockDiscordSession()
	session.ErrorToReturn = errors.New("discord down")

	b.helpMessageHandler(session, createMockMessage("$help", "user123", "captain", "channel123"))
	assert.Empty(t, session.SentMessages)
}

func TestLongRepliesAreChunked(t *testing.T) {
	teams := make([]shared.Team, 0, 60)
	for i := 0; i < 60; i++ {
		teams = append(teams, shared.Team{
			ID:       fmt.Sprintf("team-%02d", i),
			Division: 1 + i%3,
			Name:     fmt.Sprintf("Squad Number %02d With A Long Enough Name To Fill Lines", i),
		})
	}
	b, err := NewBot("test_token", api.NewTestAPI(api.NewMockStore(teams...), &api.MockSource{}), zerolog.Nop())
	require.NoError(t, err)

	session := run(b, "$teams")
	require.Greater(t, len(session.SentMessages), 1)
	for _, m := range session.SentMessages {
		assert.LessOrEqual(t, len(m.Content), discordMessageLimit)
	}
	assert.Equal(t, 60, strings.Count(session.Transcript(), "With A Long Enough Name"))
}
