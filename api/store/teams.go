/* teams.go
 * Contains the methods for the teams collection and the gamertag history used for team identity matching
 */

package store

import (
	"context"
	"fmt"

	"hdc-league/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetTeams returns the teams of a division ordered by name. A division of 0 returns every team
func (s *Store) GetTeams(ctx context.Context, division int) ([]shared.Team, error) {
	filter := bson.M{}
	if division > 0 {
		filter["division"] = division
	}
	opts := options.Find().SetSort(bson.D{{Key: "division", Value: 1}, {Key: "name", Value: 1}})

	cursor, err := s.Collections.Teams.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer cursor.Close(ctx)

	teams := []shared.Team{}
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %w", err)
	}
	return teams, nil
}

// GetTeam returns a single team by id, or ErrNotFound
func (s *Store) GetTeam(ctx context.Context, id string) (shared.Team, error) {
	var team shared.Team
	err := s.Collections.Teams.FindOne(ctx, bson.M{"_id": id}).Decode(&team)
	if err != nil {
		return shared.Team{}, notFoundOr(err, "failed to find team %s", id)
	}
	return team, nil
}

// UpsertTeam inserts or replaces a team by id
func (s *Store) UpsertTeam(ctx context.Context, team shared.Team) error {
	if team.ID == "" {
		return fmt.Errorf("team id cannot be empty")
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.Collections.Teams.ReplaceOne(ctx, bson.M{"_id": team.ID}, team, opts); err != nil {
		return fmt.Errorf("failed to upsert team %s: %w", team.ID, err)
	}
	return nil
}

// GetTeamGamertagHistory returns every gamertag that has previously been stored against each of the given teams
// Preconditions: Receives the candidate team ids
// Postconditions: Returns team id -> distinct gamertags. Teams with no stored stats are absent from the map
func (s *Store) GetTeamGamertagHistory(ctx context.Context, teamIDs []string) (map[string][]string, error) {
	history := make(map[string][]string)
	if len(teamIDs) == 0 {
		return history, nil
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{"team_id": bson.M{"$in": teamIDs}}},
		bson.M{"$group": bson.M{"_id": "$team_id", "gamertags": bson.M{"$addToSet": "$gamertag"}}},
	}
	cursor, err := s.Collections.PlayerStats.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate gamertag history: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []teamHistoryRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode gamertag history: %w", err)
	}
	for _, row := range rows {
		history[row.TeamID] = row.Gamertags
	}
	return history, nil
}
