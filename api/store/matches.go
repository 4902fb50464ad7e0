/* matches.go
 * Contains the methods for the matches collection and the games and player stats stored beneath each match
 */

package store

import (
	"context"
	"fmt"
	"time"

	"hdc-league/api/shared"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertMatch stores a new match. A second match for the same fixture returns ErrDuplicateFixture
func (s *Store) InsertMatch(ctx context.Context, match shared.Match) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}
	if _, err := s.Collections.Matches.InsertOne(ctx, match); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateFixture
		}
		return fmt.Errorf("failed to insert match %s: %w", match.MatchKey, err)
	}
	return nil
}

// GetMatch returns a match by id, or ErrNotFound
func (s *Store) GetMatch(ctx context.Context, id string) (shared.Match, error) {
	var match shared.Match
	if err := s.Collections.Matches.FindOne(ctx, bson.M{"_id": id}).Decode(&match); err != nil {
		return shared.Match{}, notFoundOr(err, "failed to find match %s", id)
	}
	return match, nil
}

// GetMatches returns the matches of a division ordered by week. A division of 0 returns every match
func (s *Store) GetMatches(ctx context.Context, division int) ([]shared.Match, error) {
	filter := bson.M{}
	if division > 0 {
		filter["division"] = division
	}
	opts := options.Find().SetSort(bson.D{{Key: "week", Value: 1}, {Key: "created_at", Value: 1}})

	cursor, err := s.Collections.Matches.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer cursor.Close(ctx)

	matches := []shared.Match{}
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}
	return matches, nil
}

// DeleteMatch removes a match along with its games and player stats
func (s *Store) DeleteMatch(ctx context.Context, id string) error {
	res, err := s.Collections.Matches.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	if err := s.deleteChildren(ctx, id); err != nil {
		return err
	}
	return nil
}

func (s *Store) deleteChildren(ctx context.Context, matchID string) error {
	if _, err := s.Collections.Games.DeleteMany(ctx, bson.M{"match_id": matchID}); err != nil {
		return fmt.Errorf("failed to delete games for match %s: %w", matchID, err)
	}
	if _, err := s.Collections.PlayerStats.DeleteMany(ctx, bson.M{"match_id": matchID}); err != nil {
		return fmt.Errorf("failed to delete player stats for match %s: %w", matchID, err)
	}
	return nil
}

// SaveSeries persists an ingested series. The match is upserted on its fixture key so re-ingesting the same series
// keeps the match id, and the games and stats stored beneath it are replaced. A fixture whose match was confirmed by
// submissions, approved by an admin or ingested from another series is left untouched
// Preconditions: Receives a SeriesRecord whose Match carries a match key. Game and stat ids may be empty
// Postconditions: Returns the stored match (with its id), ErrDuplicateFixture if the fixture already has a result
// from elsewhere, or error if any write fails
func (s *Store) SaveSeries(ctx context.Context, series SeriesRecord) (shared.Match, error) {
	m := series.Match
	if m.MatchKey == "" {
		return shared.Match{}, fmt.Errorf("series match key cannot be empty")
	}
	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	update := bson.M{
		"$set": bson.M{
			"division":       m.Division,
			"week":           m.Week,
			"team1_id":       m.Team1ID,
			"team2_id":       m.Team2ID,
			"team1_maps":     m.Team1Maps,
			"team2_maps":     m.Team2Maps,
			"admin_approved": m.AdminApproved,
			"source_series":  m.SourceSeries,
		},
		"$setOnInsert": bson.M{
			"_id":        id,
			"created_at": created,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored shared.Match
	// only a match ingested from the same series matches the filter. Any other match on the key makes the upsert
	// collide with the unique match_key index
	filter := bson.M{
		"match_key":      m.MatchKey,
		"source_series":  m.SourceSeries,
		"admin_approved": false,
	}
	err := s.Collections.Matches.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return shared.Match{}, ErrDuplicateFixture
		}
		return shared.Match{}, fmt.Errorf("failed to upsert match %s: %w", m.MatchKey, err)
	}

	if err := s.deleteChildren(ctx, stored.ID); err != nil {
		return shared.Match{}, err
	}

	gameIDs := make(map[string]string, len(series.Games))
	if len(series.Games) > 0 {
		docs := make([]interface{}, 0, len(series.Games))
		for _, g := range series.Games {
			sourceID := g.SourceGameID
			g.ID = uuid.NewString()
			g.MatchID = stored.ID
			gameIDs[sourceID] = g.ID
			docs = append(docs, g)
		}
		if _, err := s.Collections.Games.InsertMany(ctx, docs); err != nil {
			return shared.Match{}, fmt.Errorf("failed to insert games for match %s: %w", stored.ID, err)
		}
	}

	if len(series.Stats) > 0 {
		docs := make([]interface{}, 0, len(series.Stats))
		for _, st := range series.Stats {
			// stats arrive keyed by source game id and are re-pointed at the stored game
			if id, ok := gameIDs[st.GameID]; ok {
				st.GameID = id
			}
			st.MatchID = stored.ID
			st.Division = stored.Division
			docs = append(docs, st)
		}
		if _, err := s.Collections.PlayerStats.InsertMany(ctx, docs); err != nil {
			return shared.Match{}, fmt.Errorf("failed to insert player stats for match %s: %w", stored.ID, err)
		}
	}

	return stored, nil
}

// GetMatchGames returns the games of a match in play order and every player line recorded against them
func (s *Store) GetMatchGames(ctx context.Context, matchID string) ([]shared.Game, []shared.PlayerStat, error) {
	cursor, err := s.Collections.Games.Find(ctx, bson.M{"match_id": matchID},
		options.Find().SetSort(bson.D{{Key: "number", Value: 1}}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query games for match %s: %w", matchID, err)
	}
	games := []shared.Game{}
	err = cursor.All(ctx, &games)
	cursor.Close(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode games: %w", err)
	}

	cursor, err = s.Collections.PlayerStats.Find(ctx, bson.M{"match_id": matchID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query player stats for match %s: %w", matchID, err)
	}
	defer cursor.Close(ctx)
	stats := []shared.PlayerStat{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, nil, fmt.Errorf("failed to decode player stats: %w", err)
	}
	return games, stats, nil
}
