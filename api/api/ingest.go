/* ingest.go
 * Contains the ingestion pipeline. A series is discovered, its games are fetched and parsed by a bounded pool of
 * workers, and once every game is in the fragments are merged, sides are resolved, both sides are matched to league
 * teams and the result is persisted
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hdc-league/api/external"
	"hdc-league/api/logic"
	"hdc-league/api/shared"
	"hdc-league/api/store"

	"golang.org/x/sync/errgroup"
)

// seriesInput is what both entry points hand to the shared half of the pipeline
type seriesInput struct {
	seriesID string
	division int
	week     int
	teamAID  string
	teamBID  string
}

// IngestSeries scrapes a series from the stat site and stores it
// Preconditions: Receives a series URL, division and week. Manual team ids are optional
// Postconditions: Returns the ingest report, or an error if the series as a whole could not be ingested. Games that
// fail individually are listed in the report and do not fail the call
func (a *API) IngestSeries(ctx context.Context, req IngestRequest) (*IngestReport, error) {
	if err := validateFixture(req.Division, req.Week); err != nil {
		return nil, err
	}
	seriesID, err := external.SeriesID(req.SeriesURL)
	if err != nil {
		return nil, invalidRequestf("%v", err)
	}

	log := a.logger.With().Str("series_id", seriesID).Logger()

	ids, err := a.Source.ListGameIdentifiers(ctx, req.SeriesURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for series %s: %w", seriesID, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("series %s: %w", seriesID, ErrNoGames)
	}
	log.Info().Int("games", len(ids)).Msg("discovered series games")

	records, skipped, err := a.fetchGames(ctx, seriesID, ids)
	if err != nil {
		return nil, err
	}

	report := &IngestReport{
		SeriesID:       seriesID,
		GamesFound:     len(ids),
		GamesProcessed: len(ids) - len(skipped),
		Skipped:        skipped,
	}
	if len(skipped) > 0 {
		log.Warn().Int("skipped", len(skipped)).Int("found", len(ids)).Msg("some games could not be processed")
	}
	if len(records) == 0 {
		return report, fmt.Errorf("series %s: none of %d games could be parsed: %w", seriesID, len(ids), ErrNoGames)
	}

	in := seriesInput{seriesID: seriesID, division: req.Division, week: req.Week, teamAID: req.TeamAID, teamBID: req.TeamBID}
	if err := a.processSeries(ctx, in, records, report); err != nil {
		return report, err
	}
	return report, nil
}

// IngestUpload stores a series from an uploaded export instead of scraping it
func (a *API) IngestUpload(ctx context.Context, req UploadRequest) (*IngestReport, error) {
	if err := validateFixture(req.Division, req.Week); err != nil {
		return nil, err
	}
	if len(req.Data) == 0 {
		return nil, invalidRequestf("upload is empty")
	}

	seriesID := "upload:" + strings.TrimSpace(req.Filename)
	format := external.DetectFormat(req.Filename)
	records, err := a.Parser.Parse(req.Data, format, external.ParseOptions{SeriesID: seriesID, GameID: req.Filename})
	if err != nil {
		return nil, err
	}

	report := &IngestReport{
		SeriesID:       seriesID,
		GamesFound:     len(records),
		GamesProcessed: len(records),
	}
	in := seriesInput{seriesID: seriesID, division: req.Division, week: req.Week, teamAID: req.TeamAID, teamBID: req.TeamBID}
	if err := a.processSeries(ctx, in, records, report); err != nil {
		return report, err
	}
	return report, nil
}

// fetchGames fetches and parses every game concurrently. Records come back in discovery order
func (a *API) fetchGames(ctx context.Context, seriesID string, ids []string) ([]external.GameRecord, []SkippedGame, error) {
	results := make([][]external.GameRecord, len(ids))
	failures := make([]string, len(ids))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, id := range ids {
		g.Go(func() error {
			data, err := a.Source.FetchExport(ctx, id)
			if err != nil {
				failures[i] = err.Error()
				a.logger.Warn().Err(err).Str("game_id", id).Msg("skipping game, fetch failed")
				return nil
			}
			records, err := a.Parser.Parse(data, external.FormatDelimited, external.ParseOptions{SeriesID: seriesID, GameID: id})
			if err != nil {
				failures[i] = err.Error()
				a.logger.Warn().Err(err).Str("game_id", id).Msg("skipping game, parse failed")
				return nil
			}
			results[i] = records
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("series %s: %w", seriesID, err)
	}

	var records []external.GameRecord
	var skipped []SkippedGame
	for i, id := range ids {
		if failures[i] != "" {
			skipped = append(skipped, SkippedGame{GameID: id, Reason: failures[i]})
			continue
		}
		records = append(records, results[i]...)
	}
	return records, skipped, nil
}

// processSeries runs the aggregation half of the pipeline once all games are parsed
func (a *API) processSeries(ctx context.Context, in seriesInput, records []external.GameRecord, report *IngestReport) error {
	log := a.logger.With().Str("series_id", in.seriesID).Logger()

	merged, notes := logic.MergeFragments(records)
	report.Notes = notes
	for _, n := range notes {
		if n.Ambiguous {
			log.Warn().Str("key", n.Key).Str("decision", n.Decision.String()).Strs("games", n.GameIDs).
				Str("reason", n.Reason).Msg("ambiguous merge")
		}
	}
	if len(merged) == 0 {
		return fmt.Errorf("series %s: no valid games after merging: %w", in.seriesID, ErrNoGames)
	}

	sides := logic.ResolveSides(merged)
	for _, g := range sides.Games {
		for _, f := range g.Flags {
			report.Flags = append(report.Flags, GameFlag{Number: g.Number, GameID: g.GameID, Flag: f.String()})
			log.Warn().Int("game", g.Number).Str("game_id", g.GameID).Str("flag", f.String()).Msg("side resolution fallback")
		}
	}

	teamA, teamB, err := a.assignTeams(ctx, in, sides)
	if err != nil {
		return err
	}
	teamA.Wins, teamB.Wins = sides.WinsA, sides.WinsB
	report.TeamA, report.TeamB = teamA, teamB

	if logic.ValidateSeriesScore(sides.WinsA, sides.WinsB) != nil {
		log.Warn().Int("wins_a", sides.WinsA).Int("wins_b", sides.WinsB).Msg("series score is not a best of five result")
	}

	series := buildSeriesRecord(in, sides, teamA.TeamID, teamB.TeamID)
	stored, err := a.Store.SaveSeries(ctx, series)
	if errors.Is(err, store.ErrDuplicateFixture) {
		log.Warn().Str("match_key", series.Match.MatchKey).Msg("fixture already has a recorded result, series not saved")
		return fmt.Errorf("series %s: division %d week %d %s vs %s already has a recorded result: %w",
			in.seriesID, in.division, in.week, teamA.Name, teamB.Name, err)
	}
	if err != nil {
		return fmt.Errorf("failed to save series %s: %w", in.seriesID, err)
	}
	report.MatchID = stored.ID
	report.MatchKey = stored.MatchKey
	report.Games = summarizeGames(sides, teamA, teamB)

	log.Info().Str("match_id", stored.ID).Str("team_a", teamA.Name).Str("team_b", teamB.Name).
		Int("wins_a", sides.WinsA).Int("wins_b", sides.WinsB).Msg("series ingested")
	return nil
}

// assignTeams matches both sides to league teams, honouring manual selections
func (a *API) assignTeams(ctx context.Context, in seriesInput, sides logic.SeriesSides) (TeamAssignment, TeamAssignment, error) {
	teams, err := a.Store.GetTeams(ctx, in.division)
	if err != nil {
		return TeamAssignment{}, TeamAssignment{}, fmt.Errorf("failed to load division %d teams: %w", in.division, err)
	}
	if len(teams) == 0 {
		return TeamAssignment{}, TeamAssignment{}, invalidRequestf("division %d has no teams", in.division)
	}

	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	raw, err := a.Store.GetTeamGamertagHistory(ctx, ids)
	if err != nil {
		return TeamAssignment{}, TeamAssignment{}, fmt.Errorf("failed to load gamertag history: %w", err)
	}
	history := logic.NewTeamHistory(raw)

	teamA, err := assignSide(shared.SideA, in.teamAID, sides.RosterA, teams, history)
	if err != nil {
		return TeamAssignment{}, TeamAssignment{}, err
	}
	teamB, err := assignSide(shared.SideB, in.teamBID, sides.RosterB, teams, history)
	if err != nil {
		return TeamAssignment{}, TeamAssignment{}, err
	}
	if teamA.TeamID == teamB.TeamID {
		return TeamAssignment{}, TeamAssignment{}, &UnmatchedTeamError{
			Side:   shared.SideB,
			Status: logic.IdentityTied,
			Roster: sides.RosterB,
			Reason: fmt.Sprintf("both sides matched %s", teamA.Name),
		}
	}
	return teamA, teamB, nil
}

func assignSide(side shared.TeamSide, manualID string, roster []string, teams []shared.Team, history logic.TeamHistory) (TeamAssignment, error) {
	if manualID != "" {
		for _, t := range teams {
			if t.ID == manualID {
				return TeamAssignment{TeamID: t.ID, Name: t.Name, Manual: true}, nil
			}
		}
		return TeamAssignment{}, invalidRequestf("team %s is not in this division", manualID)
	}

	m := logic.MatchTeam(roster, teams, history)
	switch m.Status {
	case logic.IdentityMatched:
		for _, t := range teams {
			if t.ID == m.TeamID {
				return TeamAssignment{TeamID: t.ID, Name: t.Name, Score: m.Candidates[0].Score}, nil
			}
		}
	case logic.IdentityTied:
		return TeamAssignment{}, &UnmatchedTeamError{Side: side, Status: m.Status, Roster: roster, Candidates: m.Candidates,
			Reason: "roster matches more than one team equally"}
	}
	return TeamAssignment{}, &UnmatchedTeamError{Side: side, Status: logic.IdentityUnmatched, Roster: roster,
		Candidates: m.Candidates, Reason: "roster matches no team in the division"}
}

// buildSeriesRecord orients the series so Team1 is the lower team id
func buildSeriesRecord(in seriesInput, sides logic.SeriesSides, teamAID, teamBID string) store.SeriesRecord {
	aIsTeam1 := teamAID < teamBID
	team1, team2 := teamAID, teamBID
	maps1, maps2 := sides.WinsA, sides.WinsB
	if !aIsTeam1 {
		team1, team2 = teamBID, teamAID
		maps1, maps2 = sides.WinsB, sides.WinsA
	}

	series := store.SeriesRecord{
		Match: shared.Match{
			MatchKey:     logic.MatchKey(teamAID, teamBID, in.week),
			Division:     in.division,
			Week:         in.week,
			Team1ID:      team1,
			Team2ID:      team2,
			Team1Maps:    maps1,
			Team2Maps:    maps2,
			SourceSeries: in.seriesID,
		},
	}

	for _, g := range sides.Games {
		scoreA, scoreB := g.WinnerScore, g.LoserScore // side A's and side B's
		winner := teamAID
		if !g.TeamAWon {
			scoreA, scoreB = g.LoserScore, g.WinnerScore
			winner = teamBID
		}
		if !aIsTeam1 {
			scoreA, scoreB = scoreB, scoreA
		}
		series.Games = append(series.Games, shared.Game{
			Number:          g.Number,
			Mode:            g.Mode,
			Map:             g.Map,
			ScoreA:          scoreA,
			ScoreB:          scoreB,
			WinnerTeamID:    winner,
			DurationSeconds: g.DurationSeconds,
			SourceGameID:    g.GameID,
		})

		for _, p := range g.Players {
			teamID := teamAID
			if g.SideOf(p.Gamertag) == shared.SideB {
				teamID = teamBID
			}
			series.Stats = append(series.Stats, shared.PlayerStat{
				GameID:      g.GameID,
				TeamID:      teamID,
				Division:    in.division,
				Gamertag:    p.Gamertag,
				Kills:       p.Kills,
				Deaths:      p.Deaths,
				Assists:     p.Assists,
				Damage:      p.DamageDealt,
				DamageTaken: p.DamageTaken,
				ShotsFired:  p.ShotsFired,
				ShotsLanded: p.ShotsLanded,
			})
		}
	}
	return series
}

func summarizeGames(sides logic.SeriesSides, teamA, teamB TeamAssignment) []GameSummary {
	games := make([]GameSummary, 0, len(sides.Games))
	for _, g := range sides.Games {
		s := GameSummary{Number: g.Number, Map: g.Map, Mode: g.Mode, Duration: g.Duration()}
		if g.TeamAWon {
			s.Winner, s.ScoreA, s.ScoreB = teamA.Name, g.WinnerScore, g.LoserScore
		} else {
			s.Winner, s.ScoreA, s.ScoreB = teamB.Name, g.LoserScore, g.WinnerScore
		}
		games = append(games, s)
	}
	return games
}

func validateFixture(division, week int) error {
	if division < 1 {
		return invalidRequestf("division must be at least 1")
	}
	if week < 1 {
		return invalidRequestf("week must be at least 1")
	}
	return nil
}

// IsUnmatchedTeam reports whether err asks the caller for a manual team selection
func IsUnmatchedTeam(err error) (*UnmatchedTeamError, bool) {
	var ute *UnmatchedTeamError
	if errors.As(err, &ute) {
		return ute, true
	}
	return nil, false
}
