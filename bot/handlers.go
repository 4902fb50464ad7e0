/* handlers.go
 * Contains testable handler methods that accept DiscordSession interface
 */

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"hdc-league/api/api"

	"github.com/bwmarrin/discordgo"
)

// send posts a reply, split into several messages when it is too long
func (b *Bot) send(session DiscordSession, channelID, content string) {
	for _, chunk := range chunkMessage(content) {
		if _, err := session.ChannelMessageSend(channelID, chunk); err != nil {
			b.logger.Error().Err(err).Str("channel_id", channelID).Msg("failed to send message")
			return
		}
	}
}

// helpMessageHandler handles the $help command with a DiscordSession interface
func (b *Bot) helpMessageHandler(session DiscordSession, message *discordgo.MessageCreate) {
	var res strings.Builder
	res.WriteString("HDC League Bot\n")
	res.WriteString("`$submit <division> <week> \"Your Team\" \"Opponent\" <your maps> <their maps>`: reports your series result. The result is confirmed when the other team reports the same score\n")
	res.WriteString("`$ingest <division> <week> <series url> [team A id] [team B id]`: imports the games of a scrim series from the stat site. Team ids are only needed if the bot could not tell who played\n")
	res.WriteString("`$standings <division>`: shows the division table\n")
	res.WriteString("`$leaderboard <division> [kd|kills|damage|avg_kills|accuracy]`: shows the division's best players\n")
	res.WriteString("`$teams [division]`: lists the league teams and their ids\n")
	res.WriteString("`$disputes`: lists fixtures where the two teams reported different scores\n")
	res.WriteString("There is fuzzy matching on team names. Names that contain two or more words need to be encased in \" (e.g. \"Alpha Squad\")\n")
	b.send(session, message.ChannelID, res.String())
}

// submitHandler handles the $submit command with a DiscordSession interface
func (b *Bot) submitHandler(session DiscordSession, message *discordgo.MessageCreate) {
	args, err := tokenize(message.Content)
	if err != nil || len(args) != 7 {
		b.send(session, message.ChannelID, "Usage: `$submit <division> <week> \"Your Team\" \"Opponent\" <your maps> <their maps>`")
		return
	}
	nums, ok := parseInts(args[1], args[2], args[5], args[6])
	if !ok {
		b.send(session, message.ChannelID, "Division, week and map counts must be numbers")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	res, err := b.APIPtr.SubmitResult(ctx, api.SubmissionRequest{
		Division:     nums[0],
		Week:         nums[1],
		TeamName:     args[3],
		OpponentName: args[4],
		TeamMaps:     nums[2],
		OpponentMaps: nums[3],
		SubmittedBy:  message.Author.Username,
	})
	if err != nil {
		b.logger.Warn().Err(err).Str("user", message.Author.Username).Msg("submission failed")
		b.send(session, message.ChannelID, errorReply(err))
		return
	}
	b.send(session, message.ChannelID, res.Message())
}

// ingestHandler handles the $ingest command with a DiscordSession interface
func (b *Bot) ingestHandler(session DiscordSession, message *discordgo.MessageCreate) {
	args, err := tokenize(message.Content)
	if err != nil || (len(args) != 4 && len(args) != 6) {
		b.send(session, message.ChannelID, "Usage: `$ingest <division> <week> <series url> [team A id] [team B id]`")
		return
	}
	nums, ok := parseInts(args[1], args[2])
	if !ok {
		b.send(session, message.ChannelID, "Division and week must be numbers")
		return
	}
	req := api.IngestRequest{Division: nums[0], Week: nums[1], SeriesURL: args[3]}
	if len(args) == 6 {
		req.TeamAID, req.TeamBID = args[4], args[5]
	}

	if err := session.ChannelTyping(message.ChannelID); err != nil {
		b.logger.Debug().Err(err).Msg("failed to show typing indicator")
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	report, err := b.APIPtr.IngestSeries(ctx, req)
	if err != nil {
		b.logger.Warn().Err(err).Str("series_url", req.SeriesURL).Msg("ingest failed")
		b.send(session, message.ChannelID, errorReply(err))
		return
	}
	b.send(session, message.ChannelID, formatIngestReport(report))
}

func formatIngestReport(report *api.IngestReport) string {
	var res strings.Builder
	res.WriteString(fmt.Sprintf("Series %s imported: %s\n", report.SeriesID, report.Summary()))
	res.WriteString(fmt.Sprintf("**%s** %d - %d **%s**\n", report.TeamA.Name, report.TeamA.Wins, report.TeamB.Wins, report.TeamB.Name))
	for _, g := range report.Games {
		res.WriteString(fmt.Sprintf("%d. %s on %s: %s won %d-%d (%s)\n", g.Number, g.Mode, g.Map, g.Winner, g.ScoreA, g.ScoreB, g.Duration))
	}
	for _, s := range report.Skipped {
		res.WriteString(fmt.Sprintf("Skipped game %s: %s\n", s.GameID, s.Reason))
	}
	for _, n := range report.Notes {
		if n.Ambiguous {
			res.WriteString(fmt.Sprintf("Check %s: %s\n", n.Key, n.Reason))
		}
	}
	for _, f := range report.Flags {
		res.WriteString(fmt.Sprintf("Game %d needs review: %s\n", f.Number, f.Flag))
	}
	return res.String()
}

// standingsHandler handles the $standings command with a DiscordSession interface
func (b *Bot) standingsHandler(session DiscordSession, message *discordgo.MessageCreate) {
	division, ok := divisionArg(message.Content, true)
	if !ok {
		b.send(session, message.ChannelID, "Usage: `$standings <division>`")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	table, err := b.APIPtr.GetStandings(ctx, division)
	if err != nil {
		b.logger.Error().Err(err).Int("division", division).Msg("failed to get standings")
		b.send(session, message.ChannelID, "An error occurred getting the standings")
		return
	}
	if len(table) == 0 {
		b.send(session, message.ChannelID, fmt.Sprintf("Division %d has no teams", division))
		return
	}

	var res strings.Builder
	res.WriteString(fmt.Sprintf("Division %d standings:\n", division))
	for i, s := range table {
		res.WriteString(fmt.Sprintf("%d. %s: %d-%d (maps %d-%d, %+d)\n", i+1, s.Name, s.Wins, s.Losses, s.MapsWon, s.MapsLost, s.MapDiff()))
	}
	b.send(session, message.ChannelID, res.String())
}

// leaderboardHandler handles the $leaderboard command with a DiscordSession interface
func (b *Bot) leaderboardHandler(session DiscordSession, message *discordgo.MessageCreate) {
	args, _ := tokenize(message.Content)
	if len(args) < 2 {
		b.send(session, message.ChannelID, "Usage: `$leaderboard <division> [kd|kills|damage|avg_kills|accuracy]`")
		return
	}
	nums, ok := parseInts(args[1])
	if !ok {
		b.send(session, message.ChannelID, "Division must be a number")
		return
	}
	sortKey := ""
	if len(args) > 2 {
		sortKey = args[2]
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	board, err := b.APIPtr.GetLeaderboard(ctx, nums[0], sortKey)
	if err != nil {
		b.send(session, message.ChannelID, errorReply(err))
		return
	}
	if len(board) == 0 {
		b.send(session, message.ChannelID, "No player stats recorded yet")
		return
	}

	const shown = 10
	var res strings.Builder
	res.WriteString(fmt.Sprintf("Division %d leaderboard:\n", nums[0]))
	for i, p := range board {
		if i == shown {
			break
		}
		res.WriteString(fmt.Sprintf("%d. %s: %.2f K/D, %d kills, %.1f avg, %.1f%% accuracy (%d games)\n",
			i+1, p.Gamertag, p.KD, p.Kills, p.AvgKills, p.Accuracy, p.GamesPlayed))
	}
	b.send(session, message.ChannelID, res.String())
}

// teamsHandler handles the $teams command with a DiscordSession interface
func (b *Bot) teamsHandler(session DiscordSession, message *discordgo.MessageCreate) {
	division, ok := divisionArg(message.Content, false)
	if !ok {
		b.send(session, message.ChannelID, "Usage: `$teams [division]`")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	teams, err := b.APIPtr.GetTeams(ctx, division)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to get teams")
		b.send(session, message.ChannelID, "An error occurred getting the teams list")
		return
	}
	if len(teams) == 0 {
		b.send(session, message.ChannelID, "No teams found")
		return
	}

	var res strings.Builder
	res.WriteString("League teams:\n")
	for _, team := range teams {
		res.WriteString(fmt.Sprintf("- %s (division %d, id `%s`)\n", team.Name, team.Division, team.ID))
	}
	b.send(session, message.ChannelID, res.String())
}

// disputesHandler handles the $disputes command with a DiscordSession interface
func (b *Bot) disputesHandler(session DiscordSession, message *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	fixtures, err := b.APIPtr.GetDisputed(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to get disputes")
		b.send(session, message.ChannelID, "An error occurred getting the disputed results")
		return
	}
	if len(fixtures) == 0 {
		b.send(session, message.ChannelID, "No disputed results")
		return
	}

	var res strings.Builder
	res.WriteString("Disputed results:\n")
	for _, f := range fixtures {
		res.WriteString(fmt.Sprintf("Division %d week %d (%s):\n", f.Division, f.Week, f.MatchKey))
		for _, s := range f.Submissions {
			res.WriteString(fmt.Sprintf("  %s says %s %d - %d %s (submission `%s`)\n",
				s.SubmittedBy, s.Team1ID, s.Team1Maps, s.Team2Maps, s.Team2ID, s.ID))
		}
	}
	b.send(session, message.ChannelID, res.String())
}

// newMessageHandler routes messages to appropriate handlers with a DiscordSession interface
// botUserID is the bot's user ID to prevent self-responses
func (b *Bot) newMessageHandler(session DiscordSession, message *discordgo.MessageCreate, botUserID string) {
	if message.Author == nil || message.Author.ID == botUserID {
		return
	}

	switch {
	case startsWith(message.Content, "$help"):
		b.helpMessageHandler(session, message)

	case startsWith(message.Content, "$submit"):
		b.submitHandler(session, message)

	case startsWith(message.Content, "$ingest"):
		b.ingestHandler(session, message)

	case startsWith(message.Content, "$standings"):
		b.standingsHandler(session, message)

	case startsWith(message.Content, "$leaderboard"):
		b.leaderboardHandler(session, message)

	case startsWith(message.Content, "$teams"):
		b.teamsHandler(session, message)

	case startsWith(message.Content, "$disputes"):
		b.disputesHandler(session, message)
	}
}

func parseInts(values ...string) ([]int, bool) {
	out := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

// divisionArg reads the optional division after a command. 0 means every division
func divisionArg(content string, required bool) (int, bool) {
	args, err := tokenize(content)
	if err != nil {
		return 0, false
	}
	if len(args) < 2 {
		return 0, !required
	}
	nums, ok := parseInts(args[1])
	if !ok {
		return 0, false
	}
	return nums[0], true
}
