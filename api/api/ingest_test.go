/* ingest_test.go
 * Contains unit tests for the ingestion pipeline
 */

package api

import (
	"context"
	"errors"
	"testing"

	"hdc-league/api/external"
	"hdc-league/api/logic"
	"hdc-league/api/shared"
	"hdc-league/api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seriesURL = "https://leafapp.co/scrims/4821"

func leagueTeams() []shared.Team {
	return []shared.Team{
		{ID: "team-a", Division: 1, Name: "Alpha Squad", Players: []string{"Striker", "Volt"}},
		{ID: "team-b", Division: 1, Name: "Bravo Six", Players: []string{"Ghost", "Onyx"}},
		{ID: "team-c", Division: 2, Name: "Charlie Co", Players: []string{"Rook"}},
	}
}

var (
	alpha = map[string]int{"Striker": 25, "Volt": 25}
	bravo = map[string]int{"Ghost": 21, "Onyx": 20}
)

// threeGameSeries is Alpha 2-1 over Bravo plus one game that fails to download
func threeGameSeries() *MockSource {
	return &MockSource{
		GameIDs: []string{"g1", "g2", "g3", "g4"},
		Exports: map[string][]byte{
			"g1": leafCSV("Live Fire", "Slayer", 50, 41, alpha, bravo),
			"g2": leafCSV("Recharge", "Oddball", 2, 1, bravo, alpha),
			"g3": leafCSV("Streets", "Strongholds", 250, 180, alpha, bravo),
		},
		Failures: map[string]error{"g4": errors.New("connection reset")},
	}
}

func TestIngestSeries_StoresSeries(t *testing.T) {
	ms := NewMockStore(leagueTeams()...)
	src := threeGameSeries()
	a := NewTestAPI(ms, src)

	report, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 3})
	require.NoError(t, err)

	assert.Equal(t, "4821", report.SeriesID)
	assert.Equal(t, "3 of 4 games processed", report.Summary())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "g4", report.Skipped[0].GameID)
	assert.Contains(t, report.Skipped[0].Reason, "connection reset")
	assert.ElementsMatch(t, []string{"g1", "g2", "g3", "g4"}, src.Fetched)

	assert.Equal(t, "team-a", report.TeamA.TeamID)
	assert.Equal(t, 2, report.TeamA.Score)
	assert.Equal(t, 2, report.TeamA.Wins)
	assert.Equal(t, "team-b", report.TeamB.TeamID)
	assert.Equal(t, 1, report.TeamB.Wins)
	assert.Equal(t, "team-a_team-b_w3", report.MatchKey)
	assert.Empty(t, report.Flags)

	require.Len(t, report.Games, 3)
	assert.Equal(t, "Bravo Six", report.Games[1].Winner)
	assert.Equal(t, 1, report.Games[1].ScoreA)
	assert.Equal(t, 2, report.Games[1].ScoreB)

	match, err := ms.GetMatch(context.Background(), report.MatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, match.Team1Maps)
	assert.Equal(t, 1, match.Team2Maps)
	assert.Equal(t, "4821", match.SourceSeries)

	games, stats, err := ms.GetMatchGames(context.Background(), report.MatchID)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "team-b", games[1].WinnerTeamID)
	assert.Len(t, stats, 12)
	for _, st := range stats {
		switch st.Gamertag {
		case "Striker", "Volt":
			assert.Equal(t, "team-a", st.TeamID)
		default:
			assert.Equal(t, "team-b", st.TeamID)
		}
		assert.Equal(t, 1, st.Division)
		assert.NotEmpty(t, st.GameID)
	}
}

func TestIngestSeries_OrientsScoresByTeamID(t *testing.T) {
	// Bravo wins game one so it is side A, but team-a is still Team1 of the stored match
	ms := NewMockStore(leagueTeams()...)
	src := &MockSource{
		GameIDs: []string{"g1", "g2"},
		Exports: map[string][]byte{
			"g1": leafCSV("Live Fire", "Slayer", 50, 30, bravo, alpha),
			"g2": leafCSV("Aquarius", "Slayer", 50, 44, bravo, alpha),
		},
	}
	a := NewTestAPI(ms, src)

	report, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 1})
	require.NoError(t, err)
	assert.Equal(t, "team-b", report.TeamA.TeamID)

	require.Len(t, ms.Saved, 1)
	saved := ms.Saved[0]
	assert.Equal(t, "team-a", saved.Match.Team1ID)
	assert.Equal(t, 0, saved.Match.Team1Maps)
	assert.Equal(t, 2, saved.Match.Team2Maps)
	assert.Equal(t, 30, saved.Games[0].ScoreA)
	assert.Equal(t, 50, saved.Games[0].ScoreB)
}

func TestIngestSeries_ReingestKeepsMatch(t *testing.T) {
	ms := NewMockStore(leagueTeams()...)
	a := NewTestAPI(ms, threeGameSeries())

	first, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 3})
	require.NoError(t, err)
	second, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 3})
	require.NoError(t, err)

	assert.Equal(t, first.MatchID, second.MatchID)
	assert.Len(t, ms.Matches, 1)
	games, _, _ := ms.GetMatchGames(context.Background(), first.MatchID)
	assert.Len(t, games, 3)
}

func TestIngestSeries_UnmatchedRosterHaltsUntilManualSelection(t *testing.T) {
	ms := NewMockStore(leagueTeams()...)
	strangers := map[string]int{"Nomad": 30, "Wraith": 20}
	src := &MockSource{
		GameIDs: []string{"g1"},
		Exports: map[string][]byte{"g1": leafCSV("Live Fire", "Slayer", 50, 41, strangers, bravo)},
	}
	a := NewTestAPI(ms, src)

	_, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnmatchedTeam)
	ute, ok := IsUnmatchedTeam(err)
	require.True(t, ok)
	assert.Equal(t, shared.SideA, ute.Side)
	assert.Equal(t, logic.IdentityUnmatched, ute.Status)
	assert.Equal(t, []string{"Nomad", "Wraith"}, ute.Roster)
	assert.Empty(t, ms.Saved)

	report, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 2, TeamAID: "team-a"})
	require.NoError(t, err)
	assert.True(t, report.TeamA.Manual)
	assert.Equal(t, "team-a", report.TeamA.TeamID)
	assert.False(t, report.TeamB.Manual)
	assert.Len(t, ms.Saved, 1)
}

func TestIngestSeries_TiedRosterIsNotGuessed(t *testing.T) {
	ms := NewMockStore(leagueTeams()...)
	mixed := map[string]int{"Striker": 30, "Ghost": 20}
	others := map[string]int{"Nomad": 20, "Wraith": 21}
	src := &MockSource{
		GameIDs: []string{"g1"},
		Exports: map[string][]byte{"g1": leafCSV("Live Fire", "Slayer", 50, 41, mixed, others)},
	}
	a := NewTestAPI(ms, src)

	_, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 2})
	ute, ok := IsUnmatchedTeam(err)
	require.True(t, ok)
	assert.Equal(t, logic.IdentityTied, ute.Status)
	assert.Len(t, ute.Candidates, 2)
}

func TestIngestSeries_BothSidesSameTeam(t *testing.T) {
	ms := NewMockStore(leagueTeams()...)
	a := NewTestAPI(ms, threeGameSeries())

	_, err := a.IngestSeries(context.Background(), IngestRequest{
		SeriesURL: seriesURL, Division: 1, Week: 3, TeamAID: "team-b", TeamBID: "team-b",
	})
	assert.ErrorIs(t, err, ErrUnmatchedTeam)
	assert.Empty(t, ms.Saved)
}

func TestIngestSeries_ManualTeamMustBeInDivision(t *testing.T) {
	a := NewTestAPI(NewMockStore(leagueTeams()...), threeGameSeries())
	_, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 3, TeamAID: "team-c"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestIngestSeries_Failures(t *testing.T) {
	tests := []struct {
		name string
		req  IngestRequest
		src  *MockSource
		want error
	}{
		{
			name: "bad url",
			req:  IngestRequest{SeriesURL: "https://example.com/nothing", Division: 1, Week: 1},
			src:  &MockSource{},
			want: ErrInvalidRequest,
		},
		{
			name: "bad week",
			req:  IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 0},
			src:  &MockSource{},
			want: ErrInvalidRequest,
		},
		{
			name: "no games listed",
			req:  IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 1},
			src:  &MockSource{},
			want: ErrNoGames,
		},
		{
			name: "every game fails",
			req:  IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 1},
			src:  &MockSource{GameIDs: []string{"g1", "g2"}, Exports: map[string][]byte{"g2": []byte("not,a,leaf,export\n")}},
			want: ErrNoGames,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := NewMockStore(leagueTeams()...)
			a := NewTestAPI(ms, tt.src)
			_, err := a.IngestSeries(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, ms.Saved)
		})
	}
}

func TestIngestSeries_ListFailure(t *testing.T) {
	src := &MockSource{ListErr: &external.NetworkError{URL: seriesURL, Status: 503}}
	a := NewTestAPI(NewMockStore(leagueTeams()...), src)

	_, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 1})
	var netErr *external.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestIngestSeries_CancelledContext(t *testing.T) {
	a := NewTestAPI(NewMockStore(leagueTeams()...), threeGameSeries())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.IngestSeries(ctx, IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestUpload(t *testing.T) {
	ms := NewMockStore(leagueTeams()...)
	a := NewTestAPI(ms, &MockSource{})

	report, err := a.IngestUpload(context.Background(), UploadRequest{
		Filename: "week2.csv",
		Data:     leafCSV("Live Fire", "Slayer", 50, 41, alpha, bravo),
		Division: 1,
		Week:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, "1 of 1 games processed", report.Summary())
	assert.Equal(t, "team-a", report.TeamA.TeamID)
	assert.Equal(t, "upload:week2.csv", report.SeriesID)
	assert.Len(t, ms.Saved, 1)
}

func TestIngestUpload_ParseError(t *testing.T) {
	a := NewTestAPI(NewMockStore(leagueTeams()...), &MockSource{})

	_, err := a.IngestUpload(context.Background(), UploadRequest{
		Filename: "week2.csv",
		Data:     []byte("Map,Category\nLive Fire,Slayer\n"),
		Division: 1,
		Week:     2,
	})
	var parseErr *external.ParseError
	assert.ErrorAs(t, err, &parseErr)

	_, err = a.IngestUpload(context.Background(), UploadRequest{Filename: "empty.csv", Division: 1, Week: 2})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestUnmatchedTeamError_Message(t *testing.T) {
	err := &UnmatchedTeamError{
		Side:       shared.SideB,
		Reason:     "roster matches more than one team equally",
		Candidates: []logic.TeamScore{{Name: "Alpha Squad", Score: 1}, {Name: "Bravo Six", Score: 1}},
	}
	assert.Equal(t, "side B: roster matches more than one team equally (candidates: Alpha Squad=1 Bravo Six=1)", err.Error())
}

func TestIngestSeries_LeavesRecordedResultsAlone(t *testing.T) {
	tests := []struct {
		name   string
		record func(t *testing.T, a *API)
		maps   [2]int
		admin  bool
	}{
		{
			name: "admin added match",
			record: func(t *testing.T, a *API) {
				_, err := a.AddMatch(context.Background(), "secret",
					MatchRequest{Division: 1, Week: 3, Team1ID: "team-a", Team2ID: "team-b", Team1Maps: 3, Team2Maps: 0})
				require.NoError(t, err)
			},
			maps:  [2]int{3, 0},
			admin: true,
		},
		{
			name: "confirmed by both teams",
			record: func(t *testing.T, a *API) {
				for _, req := range []SubmissionRequest{
					{Division: 1, Week: 3, TeamID: "team-a", OpponentID: "team-b", TeamMaps: 3, OpponentMaps: 1},
					{Division: 1, Week: 3, TeamID: "team-b", OpponentID: "team-a", TeamMaps: 1, OpponentMaps: 3},
				} {
					_, err := a.SubmitResult(context.Background(), req)
					require.NoError(t, err)
				}
			},
			maps: [2]int{3, 1},
		},
		{
			name: "ingested from another series",
			record: func(t *testing.T, a *API) {
				_, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: "https://leafapp.co/scrims/77", Division: 1, Week: 3})
				require.NoError(t, err)
			},
			maps: [2]int{2, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := NewMockStore(leagueTeams()...)
			a := NewTestAPI(ms, threeGameSeries())
			tt.record(t, a)
			require.Len(t, ms.Matches, 1)

			_, err := a.IngestSeries(context.Background(), IngestRequest{SeriesURL: seriesURL, Division: 1, Week: 3})
			require.ErrorIs(t, err, store.ErrDuplicateFixture)
			assert.Contains(t, err.Error(), "already has a recorded result")

			require.Len(t, ms.Matches, 1)
			for _, m := range ms.Matches {
				assert.Equal(t, tt.maps, [2]int{m.Team1Maps, m.Team2Maps})
				assert.Equal(t, tt.admin, m.AdminApproved)
			}
		})
	}
}
