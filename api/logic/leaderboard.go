/* leaderboard.go
 * Contains the functions used to build the division player leaderboard from stored per game stats
 */

package logic

import (
	"fmt"
	"sort"
	"strings"

	"hdc-league/api/shared"
)

// Leaderboard sort keys
const (
	SortKD       = "kd"
	SortKills    = "kills"
	SortDamage   = "damage"
	SortAvgKills = "avg_kills"
	SortAccuracy = "accuracy"
)

// PlayerSummary is one player's totals across every stored game
type PlayerSummary struct {
	Gamertag    string  `json:"gamertag"`
	TeamID      string  `json:"team_id"`
	GamesPlayed int     `json:"games_played"`
	Kills       int     `json:"total_kills"`
	Deaths      int     `json:"total_deaths"`
	Assists     int     `json:"total_assists"`
	Damage      int     `json:"total_damage"`
	ShotsFired  int     `json:"shots_fired"`
	ShotsLanded int     `json:"shots_landed"`
	KD          float64 `json:"overall_kd"`
	AvgKills    float64 `json:"avg_kills_per_game"`
	Accuracy    float64 `json:"overall_accuracy"` // percent of shots landed
}

// ParseLeaderboardSort validates a sort key. An empty key sorts by K/D
func ParseLeaderboardSort(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	switch key {
	case "":
		return SortKD, nil
	case SortKD, SortKills, SortDamage, SortAvgKills, SortAccuracy:
		return key, nil
	default:
		return "", fmt.Errorf("unknown leaderboard sort %q", key)
	}
}

// BuildLeaderboard aggregates stat lines per gamertag.
// Preconditions: Receives stat lines and a key accepted by ParseLeaderboardSort
// Postconditions: Returns one summary per player, best first by the key and then by gamertag. A player's team is the
// team of their most recent line
func BuildLeaderboard(stats []shared.PlayerStat, sortKey string) ([]PlayerSummary, error) {
	sortKey, err := ParseLeaderboardSort(sortKey)
	if err != nil {
		return nil, err
	}

	byPlayer := make(map[string]*PlayerSummary)
	var order []string
	for _, s := range stats {
		key := shared.NormalizeGamertag(s.Gamertag)
		if key == "" {
			continue
		}
		p, ok := byPlayer[key]
		if !ok {
			p = &PlayerSummary{Gamertag: s.Gamertag}
			byPlayer[key] = p
			order = append(order, key)
		}
		p.TeamID = s.TeamID
		p.GamesPlayed++
		p.Kills += s.Kills
		p.Deaths += s.Deaths
		p.Assists += s.Assists
		p.Damage += s.Damage
		p.ShotsFired += s.ShotsFired
		p.ShotsLanded += s.ShotsLanded
	}

	out := make([]PlayerSummary, 0, len(order))
	for _, key := range order {
		p := byPlayer[key]
		p.KD = float64(p.Kills)
		if p.Deaths > 0 {
			p.KD = float64(p.Kills) / float64(p.Deaths)
		}
		p.AvgKills = float64(p.Kills) / float64(p.GamesPlayed)
		if p.ShotsFired > 0 {
			p.Accuracy = float64(p.ShotsLanded) / float64(p.ShotsFired) * 100
		}
		out = append(out, *p)
	}

	metric := leaderboardMetric(sortKey)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := metric(out[i]), metric(out[j])
		if a != b {
			return a > b
		}
		return strings.ToLower(out[i].Gamertag) < strings.ToLower(out[j].Gamertag)
	})
	return out, nil
}

func leaderboardMetric(key string) func(PlayerSummary) float64 {
	switch key {
	case SortKills:
		return func(p PlayerSummary) float64 { return float64(p.Kills) }
	case SortDamage:
		return func(p PlayerSummary) float64 { return float64(p.Damage) }
	case SortAvgKills:
		return func(p PlayerSummary) float64 { return p.AvgKills }
	case SortAccuracy:
		return func(p PlayerSummary) float64 { return p.Accuracy }
	default:
		return func(p PlayerSummary) float64 { return p.KD }
	}
}
