/* player_stats.go
 * Contains the methods for the player_stats collection
 */

package store

import (
	"context"
	"fmt"

	"hdc-league/api/shared"

	"go.mongodb.org/mongo-driver/bson"
)

// GetPlayerStats returns every stored player line for a division. A division of 0 returns every line
func (s *Store) GetPlayerStats(ctx context.Context, division int) ([]shared.PlayerStat, error) {
	filter := bson.M{}
	if division > 0 {
		filter["division"] = division
	}
	cursor, err := s.Collections.PlayerStats.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query player stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := []shared.PlayerStat{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode player stats: %w", err)
	}
	return stats, nil
}
