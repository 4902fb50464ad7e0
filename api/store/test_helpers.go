/* test_helpers.go
 * Contains test helper functions and sample data for store package tests
 */

package store

import (
	"context"
	"time"

	"hdc-league/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewMockStore binds every collection of a Store to a single collection. Used with the mtest mock client, where
// responses are consumed in order regardless of which collection issued the command
func NewMockStore(client *mongo.Client, coll *mongo.Collection) *Store {
	return &Store{
		Client:   client,
		Database: coll.Database(),
		Collections: Collections{
			Teams:       coll,
			Matches:     coll,
			Games:       coll,
			PlayerStats: coll,
			Submissions: coll,
		},
	}
}

// CreateTestStore creates a Store connected to a test database.
// Returns the store and a cleanup function that drops the database.
func CreateTestStore(ctx context.Context, mongoURI string) (*Store, func(), error) {
	store, err := NewStore(ctx, "test_hdc_league", mongoURI)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if store.Client != nil {
			store.Database.Drop(context.TODO())
			store.Client.Disconnect(context.TODO())
		}
	}
	return store, cleanup, nil
}

// CreateSampleTeams creates two teams in division 1 for testing.
func CreateSampleTeams() []shared.Team {
	return []shared.Team{
		{ID: "team-a", Division: 1, Name: "Alpha Squad", Players: []string{"Striker", "Volt"}},
		{ID: "team-b", Division: 1, Name: "Bravo Six", Players: []string{"Ghost", "Onyx"}},
	}
}

// CreateSampleSubmission creates a pending submission from team-a claiming a 3-1 win in week 2.
func CreateSampleSubmission() shared.Submission {
	return shared.Submission{
		ID:               "sub-1",
		MatchKey:         "team-a_team-b_w2",
		Division:         1,
		Week:             2,
		Team1ID:          "team-a",
		Team2ID:          "team-b",
		Team1Maps:        3,
		Team2Maps:        1,
		SubmittingTeamID: "team-a",
		SubmittedBy:      "captain#0001",
		Status:           shared.StatusPending,
		CreatedAt:        time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC),
	}
}

// submissionDoc is the bson form of a submission as the mock server returns it
func submissionDoc(s shared.Submission) bson.D {
	return bson.D{
		{Key: "_id", Value: s.ID},
		{Key: "match_key", Value: s.MatchKey},
		{Key: "division", Value: s.Division},
		{Key: "week", Value: s.Week},
		{Key: "team1_id", Value: s.Team1ID},
		{Key: "team2_id", Value: s.Team2ID},
		{Key: "team1_maps", Value: s.Team1Maps},
		{Key: "team2_maps", Value: s.Team2Maps},
		{Key: "submitting_team_id", Value: s.SubmittingTeamID},
		{Key: "submitted_by", Value: s.SubmittedBy},
		{Key: "status", Value: string(s.Status)},
		{Key: "created_at", Value: s.CreatedAt},
	}
}
