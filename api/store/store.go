/* store.go
 * Contains the store struct and NewStore function. The methods for this package are split by collection: teams,
 * matches (with their games), player_stats and match_submissions
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPendingExists    = errors.New("a pending submission already exists for this fixture")
	ErrStaleSubmission  = errors.New("submission changed status before the update")
	ErrDuplicateFixture = errors.New("a match already exists for this fixture")
)

// Collection names
const (
	TeamsCollection       = "teams"
	MatchesCollection     = "matches"
	GamesCollection       = "games"
	PlayerStatsCollection = "player_stats"
	SubmissionsCollection = "match_submissions"
)

type Collections struct {
	Teams       *mongo.Collection
	Matches     *mongo.Collection
	Games       *mongo.Collection
	PlayerStats *mongo.Collection
	Submissions *mongo.Collection
}

type Store struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Collections Collections
}

// NewStore connects to Mongo and binds the league collections
// Preconditions: Receives the database name and connection uri
// Postconditions: Returns pointer to the Store object, or error if the connection could not be made
func NewStore(ctx context.Context, dbName string, mongoURI string) (*Store, error) {
	if dbName == "" {
		return nil, fmt.Errorf("database name cannot be empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	return newStoreFromDatabase(client, client.Database(dbName)), nil
}

func newStoreFromDatabase(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Client:   client,
		Database: db,
		Collections: Collections{
			Teams:       db.Collection(TeamsCollection),
			Matches:     db.Collection(MatchesCollection),
			Games:       db.Collection(GamesCollection),
			PlayerStats: db.Collection(PlayerStatsCollection),
			Submissions: db.Collection(SubmissionsCollection),
		},
	}
}

// EnsureIndexes creates the indexes the store relies on. The partial unique index on match_submissions is what makes
// "at most one pending submission per fixture" hold under concurrent submits
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.Collections.Teams, []mongo.IndexModel{
			{Keys: bson.D{{Key: "division", Value: 1}, {Key: "name", Value: 1}}},
		}},
		{s.Collections.Matches, []mongo.IndexModel{
			{Keys: bson.D{{Key: "match_key", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "division", Value: 1}, {Key: "week", Value: 1}}},
		}},
		{s.Collections.Games, []mongo.IndexModel{
			{Keys: bson.D{{Key: "match_id", Value: 1}, {Key: "number", Value: 1}}},
		}},
		{s.Collections.PlayerStats, []mongo.IndexModel{
			{Keys: bson.D{{Key: "match_id", Value: 1}}},
			{Keys: bson.D{{Key: "division", Value: 1}}},
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "gamertag", Value: 1}}},
		}},
		{s.Collections.Submissions, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "match_key", Value: 1}},
				Options: options.Index().
					SetName("one_pending_per_fixture").
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "status", Value: "pending"}}),
			},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
