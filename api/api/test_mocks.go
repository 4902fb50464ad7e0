/* test_mocks.go
 * Contains mock structures for testing the API package
 */

package api

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hdc-league/api/external"
	"hdc-league/api/shared"
	"hdc-league/api/store"
	"hdc-league/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MockStore implements store.Interface in memory. It enforces the same constraints as the Mongo indexes: one pending
// submission per fixture and one match per fixture
type MockStore struct {
	mu sync.Mutex

	Teams       []shared.Team
	History     map[string][]string
	Matches     map[string]shared.Match
	Games       map[string][]shared.Game
	Stats       map[string][]shared.PlayerStat
	Submissions map[string]shared.Submission
	order       []string

	// Error injection for testing error paths
	GetTeamsError       error
	InsertMatchError    error
	SaveSeriesError     error
	FindPendingError    error
	InsertSubmissionErr error

	// OnFindPending runs after FindPendingSubmission has read the pending submission, used to simulate a concurrent
	// writer changing the fixture between read and write
	OnFindPending func(m *MockStore)

	Saved []store.SeriesRecord
}

var _ store.Interface = (*MockStore)(nil)

// NewMockStore creates a MockStore holding the given teams
func NewMockStore(teams ...shared.Team) *MockStore {
	return &MockStore{
		Teams:       teams,
		History:     make(map[string][]string),
		Matches:     make(map[string]shared.Match),
		Games:       make(map[string][]shared.Game),
		Stats:       make(map[string][]shared.PlayerStat),
		Submissions: make(map[string]shared.Submission),
	}
}

func (m *MockStore) EnsureIndexes(ctx context.Context) error { return nil }
func (m *MockStore) Close(ctx context.Context) error         { return nil }

func (m *MockStore) GetTeams(ctx context.Context, division int) ([]shared.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTeamsError != nil {
		return nil, m.GetTeamsError
	}
	teams := []shared.Team{}
	for _, t := range m.Teams {
		if division == 0 || t.Division == division {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

func (m *MockStore) GetTeam(ctx context.Context, id string) (shared.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Teams {
		if t.ID == id {
			return t, nil
		}
	}
	return shared.Team{}, store.ErrNotFound
}

func (m *MockStore) UpsertTeam(ctx context.Context, team shared.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.Teams {
		if t.ID == team.ID {
			m.Teams[i] = team
			return nil
		}
	}
	m.Teams = append(m.Teams, team)
	return nil
}

func (m *MockStore) GetTeamGamertagHistory(ctx context.Context, teamIDs []string) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]string)
	for _, id := range teamIDs {
		if tags, ok := m.History[id]; ok {
			out[id] = tags
		}
	}
	return out, nil
}

func (m *MockStore) InsertMatch(ctx context.Context, match shared.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertMatchError != nil {
		return m.InsertMatchError
	}
	for _, existing := range m.Matches {
		if existing.MatchKey == match.MatchKey {
			return store.ErrDuplicateFixture
		}
	}
	m.Matches[match.ID] = match
	return nil
}

func (m *MockStore) GetMatch(ctx context.Context, id string) (shared.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.Matches[id]
	if !ok {
		return shared.Match{}, store.ErrNotFound
	}
	return match, nil
}

func (m *MockStore) GetMatches(ctx context.Context, division int) ([]shared.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := []shared.Match{}
	for _, match := range m.Matches {
		if division == 0 || match.Division == division {
			matches = append(matches, match)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].MatchKey < matches[j].MatchKey })
	return matches, nil
}

func (m *MockStore) DeleteMatch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Matches[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.Matches, id)
	delete(m.Games, id)
	delete(m.Stats, id)
	return nil
}

func (m *MockStore) SaveSeries(ctx context.Context, series store.SeriesRecord) (shared.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveSeriesError != nil {
		return shared.Match{}, m.SaveSeriesError
	}
	match := series.Match
	for id, existing := range m.Matches {
		if existing.MatchKey != match.MatchKey {
			continue
		}
		if existing.AdminApproved || existing.SourceSeries != match.SourceSeries {
			return shared.Match{}, store.ErrDuplicateFixture
		}
		match.ID = id
		match.CreatedAt = existing.CreatedAt
	}
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	m.Matches[match.ID] = match

	gameIDs := make(map[string]string)
	games := make([]shared.Game, 0, len(series.Games))
	for _, g := range series.Games {
		g.ID = uuid.NewString()
		g.MatchID = match.ID
		gameIDs[g.SourceGameID] = g.ID
		games = append(games, g)
	}
	stats := make([]shared.PlayerStat, 0, len(series.Stats))
	for _, st := range series.Stats {
		st.GameID = gameIDs[st.GameID]
		st.MatchID = match.ID
		stats = append(stats, st)
	}
	m.Games[match.ID] = games
	m.Stats[match.ID] = stats
	m.Saved = append(m.Saved, series)
	return match, nil
}

func (m *MockStore) GetMatchGames(ctx context.Context, matchID string) ([]shared.Game, []shared.PlayerStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Games[matchID], m.Stats[matchID], nil
}

func (m *MockStore) GetPlayerStats(ctx context.Context, division int) ([]shared.PlayerStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := []shared.PlayerStat{}
	for _, lines := range m.Stats {
		for _, st := range lines {
			if division == 0 || st.Division == division {
				stats = append(stats, st)
			}
		}
	}
	return stats, nil
}

func (m *MockStore) FindPendingSubmission(ctx context.Context, matchKey string) (*shared.Submission, error) {
	m.mu.Lock()
	if m.FindPendingError != nil {
		m.mu.Unlock()
		return nil, m.FindPendingError
	}
	var found *shared.Submission
	for _, id := range m.order {
		s := m.Submissions[id]
		if s.MatchKey == matchKey && s.Status == shared.StatusPending {
			found = &s
			break
		}
	}
	hook := m.OnFindPending
	m.mu.Unlock()

	if hook != nil {
		hook(m)
	}
	return found, nil
}

func (m *MockStore) InsertSubmission(ctx context.Context, submission shared.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertSubmissionErr != nil {
		return m.InsertSubmissionErr
	}
	if submission.Status == shared.StatusPending {
		for _, s := range m.Submissions {
			if s.MatchKey == submission.MatchKey && s.Status == shared.StatusPending {
				return store.ErrPendingExists
			}
		}
	}
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	m.Submissions[submission.ID] = submission
	m.order = append(m.order, submission.ID)
	return nil
}

func (m *MockStore) TransitionSubmission(ctx context.Context, id string, from, to shared.SubmissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Submissions[id]
	if !ok || s.Status != from {
		return store.ErrStaleSubmission
	}
	s.Status = to
	m.Submissions[id] = s
	return nil
}

func (m *MockStore) GetSubmission(ctx context.Context, id string) (shared.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Submissions[id]
	if !ok {
		return shared.Submission{}, store.ErrNotFound
	}
	return s, nil
}

func (m *MockStore) GetSubmissionsByStatus(ctx context.Context, status shared.SubmissionStatus) ([]shared.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := []shared.Submission{}
	for _, id := range m.order {
		if s, ok := m.Submissions[id]; ok && s.Status == status {
			subs = append(subs, s)
		}
	}
	return subs, nil
}

func (m *MockStore) ResolveSubmissions(ctx context.Context, matchKey string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.Submissions {
		if s.MatchKey == matchKey && (s.Status == shared.StatusPending || s.Status == shared.StatusDisputed) {
			s.Status = shared.StatusResolved
			m.Submissions[id] = s
			n++
		}
	}
	return n, nil
}

func (m *MockStore) DeleteSubmission(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Submissions[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.Submissions, id)
	return nil
}

// SubmissionsFor returns the stored submissions of a fixture in insertion order
func (m *MockStore) SubmissionsFor(matchKey string) []shared.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	var subs []shared.Submission
	for _, id := range m.order {
		if s, ok := m.Submissions[id]; ok && s.MatchKey == matchKey {
			subs = append(subs, s)
		}
	}
	return subs
}

// MockSource implements external.Source from canned exports
type MockSource struct {
	mu       sync.Mutex
	GameIDs  []string
	Exports  map[string][]byte
	Failures map[string]error
	ListErr  error
	Fetched  []string
}

var _ external.Source = (*MockSource)(nil)

func (s *MockSource) ListGameIdentifiers(ctx context.Context, seriesURL string) ([]string, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.GameIDs, nil
}

func (s *MockSource) FetchExport(ctx context.Context, gameID string) ([]byte, error) {
	s.mu.Lock()
	s.Fetched = append(s.Fetched, gameID)
	s.mu.Unlock()

	if err, ok := s.Failures[gameID]; ok {
		return nil, err
	}
	data, ok := s.Exports[gameID]
	if !ok {
		return nil, &external.NetworkError{URL: gameID, Status: 404}
	}
	return data, nil
}

// NewTestAPI builds an API over mocks with admin key "secret"
func NewTestAPI(s store.Interface, source external.Source) *API {
	cfg := &config.Config{AdminKey: "secret", FetchWorkers: 2}
	return New(s, source, cfg, zerolog.Nop())
}

// leafCSV builds a single game export in the stat site's column layout
func leafCSV(mapName, mode string, winScore, loseScore int, winners, losers map[string]int) []byte {
	csv := "Map,Category,LengthSeconds,Outcome,TeamScore,Player,Kills,Deaths,Assists,DamageDone,DamageTaken,ShotsFired,ShotsLanded\n"
	for _, side := range []struct {
		outcome string
		score   int
		players map[string]int
	}{{"Win", winScore, winners}, {"Loss", loseScore, losers}} {
		names := make([]string, 0, len(side.players))
		for name := range side.players {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			csv += fmt.Sprintf("%s,%s,600,%s,%d,%s,%d,10,2,3000,2500,200,90\n",
				mapName, mode, side.outcome, side.score, name, side.players[name])
		}
	}
	return []byte(csv)
}
