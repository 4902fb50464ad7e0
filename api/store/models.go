/* models.go
 * Contains the structs used by the store that are not shared with other packages
 */

package store

import "hdc-league/api/shared"

// SeriesRecord is everything persisted for one ingested series. Games and Stats are replaced as a whole when the same
// fixture is ingested again
type SeriesRecord struct {
	Match shared.Match
	Games []shared.Game
	Stats []shared.PlayerStat
}

// teamHistoryRow is one row of the gamertag history aggregation
type teamHistoryRow struct {
	TeamID    string   `bson:"_id"`
	Gamertags []string `bson:"gamertags"`
}
