/* merge.go
 * Contains the Fragment Merger. The stat site sometimes splits one played game into several records when a player's
 * session drops. Records sharing a map and mode inside one series are inspected and either kept, merged or dropped
 */

package logic

import (
	"fmt"
	"sort"
	"strings"

	"hdc-league/api/external"
	"hdc-league/api/shared"
)

// Product thresholds for deciding whether a record is a whole game
const (
	SlayerCompleteKills        = 45  // combined kills at which a slayer record is a whole game
	SlayerMergeMaxKills        = 110 // upper bound of combined kills across fragments that still looks like one game
	OddballRoundsToWin         = 2
	ObjectiveTruncatedAvgKills = 30 // average combined kills below which two objective records look truncated
)

// MergedIDSeparator joins the source ids of a merged record
const MergedIDSeparator = "_merged_"

type MergeDecision int

const (
	DecisionKept      MergeDecision = iota // record is a whole game
	DecisionMerged                         // records were summed into one game
	DecisionDiscarded                      // incomplete record dropped next to a whole game
	DecisionVoid                           // scoreless record dropped
)

func (d MergeDecision) String() string {
	switch d {
	case DecisionKept:
		return "kept"
	case DecisionMerged:
		return "merged"
	case DecisionDiscarded:
		return "discarded"
	case DecisionVoid:
		return "void"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// MergeNote records what happened to a set of records. Ambiguous notes are data quality warnings: the default policy
// was applied but the evidence did not clearly support it
type MergeNote struct {
	Key       string        `json:"key"`
	Decision  MergeDecision `json:"decision"`
	GameIDs   []string      `json:"game_ids"`
	Ambiguous bool          `json:"ambiguous,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

type modeFamily int

const (
	familyObjective modeFamily = iota
	familySlayer
	familyOddball
)

func familyOf(mode string) modeFamily {
	m := strings.ToLower(mode)
	switch {
	case strings.Contains(m, "slayer"):
		return familySlayer
	case strings.Contains(m, "oddball"):
		return familyOddball
	default:
		return familyObjective
	}
}

// fragment is a record plus its position in the upload, used to restore chronological order after grouping
type fragment struct {
	index  int
	record external.GameRecord
}

type fragmentGroup struct {
	key       string
	fragments []fragment
}

// outputGame is a resolved game keyed by the upload position of its first source record
type outputGame struct {
	index  int
	record external.GameRecord
}

// MergeFragments reduces the raw records of one series to its real games.
// Preconditions: Receives every record of one series in upload order
// Postconditions: Returns the resulting games in chronological order and one note per decision taken. Input records are
// not modified
func MergeFragments(records []external.GameRecord) ([]external.GameRecord, []MergeNote) {
	var groups []*fragmentGroup
	byKey := make(map[string]*fragmentGroup)
	for i, r := range records {
		key := MergeKey(r.Map, r.Mode)
		g, ok := byKey[key]
		if !ok {
			g = &fragmentGroup{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.fragments = append(g.fragments, fragment{index: i, record: r.Clone()})
	}

	var (
		out   []outputGame
		notes []MergeNote
	)
	for _, g := range groups {
		games, groupNotes := resolveGroup(g)
		out = append(out, games...)
		notes = append(notes, groupNotes...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].index < out[j].index })

	result := make([]external.GameRecord, 0, len(out))
	for _, o := range out {
		if o.record.IsScoreless() && o.record.TotalKills() == 0 {
			notes = append(notes, MergeNote{
				Key:      MergeKey(o.record.Map, o.record.Mode),
				Decision: DecisionVoid,
				GameIDs:  []string{o.record.GameID},
				Reason:   "0-0 with no kills",
			})
			continue
		}
		result = append(result, o.record)
	}
	return result, notes
}

// MergeKey groups records that could be fragments of the same game
func MergeKey(mapName, mode string) string {
	return strings.ToLower(strings.TrimSpace(mapName)) + "_" + strings.ToLower(strings.TrimSpace(mode))
}

func resolveGroup(g *fragmentGroup) ([]outputGame, []MergeNote) {
	if len(g.fragments) == 1 {
		f := g.fragments[0]
		return []outputGame{{index: f.index, record: f.record}}, []MergeNote{keptNote(g.key, g.fragments, false, "")}
	}

	switch familyOf(g.fragments[0].record.Mode) {
	case familySlayer:
		return resolveSlayer(g)
	case familyOddball:
		return resolveOddball(g)
	default:
		return resolveObjective(g)
	}
}

func resolveSlayer(g *fragmentGroup) ([]outputGame, []MergeNote) {
	var complete, partial []fragment
	total := 0
	for _, f := range g.fragments {
		kills := f.record.TotalKills()
		total += kills
		if kills >= SlayerCompleteKills {
			complete = append(complete, f)
		} else {
			partial = append(partial, f)
		}
	}

	if len(complete) > 0 {
		notes := []MergeNote{keptNote(g.key, complete, false, "")}
		if len(partial) > 0 {
			notes = append(notes, MergeNote{
				Key:      g.key,
				Decision: DecisionDiscarded,
				GameIDs:  fragmentIDs(partial),
				Reason:   fmt.Sprintf("below %d kills next to a complete game", SlayerCompleteKills),
			})
		}
		return keepAll(complete), notes
	}

	if total >= SlayerCompleteKills && total <= SlayerMergeMaxKills {
		merged := mergeRecords(g.fragments)
		return []outputGame{merged}, []MergeNote{mergedNote(g.key, g.fragments, false,
			fmt.Sprintf("%d combined kills across fragments", total))}
	}

	return keepAll(g.fragments), []MergeNote{keptNote(g.key, g.fragments, true,
		fmt.Sprintf("%d combined kills is outside the merge range", total))}
}

func resolveOddball(g *fragmentGroup) ([]outputGame, []MergeNote) {
	var complete, incomplete, empty []fragment
	for _, f := range g.fragments {
		r := f.record
		switch {
		case r.WinnerScore >= OddballRoundsToWin || r.LoserScore >= OddballRoundsToWin:
			complete = append(complete, f)
		case r.WinnerScore > 0 || r.LoserScore > 0:
			incomplete = append(incomplete, f)
		default:
			empty = append(empty, f)
		}
	}

	out := keepAll(complete)
	var notes []MergeNote
	if len(complete) > 0 {
		notes = append(notes, keptNote(g.key, complete, false, ""))
	}

	switch {
	case len(incomplete) == 2:
		out = append(out, mergeRecords(incomplete))
		notes = append(notes, mergedNote(g.key, incomplete, false, "two incomplete rounds"))
	case len(incomplete) > 2:
		out = append(out, mergeRecords(incomplete))
		notes = append(notes, mergedNote(g.key, incomplete, true,
			fmt.Sprintf("%d incomplete fragments merged into one game", len(incomplete))))
	case len(incomplete) == 1:
		out = append(out, keepAll(incomplete)...)
		notes = append(notes, keptNote(g.key, incomplete, false, "single short game"))
	}

	if len(empty) > 0 {
		notes = append(notes, MergeNote{Key: g.key, Decision: DecisionVoid, GameIDs: fragmentIDs(empty), Reason: "0-0 restart"})
	}
	return out, notes
}

func resolveObjective(g *fragmentGroup) ([]outputGame, []MergeNote) {
	var scored, restarts []fragment
	totalKills := 0
	for _, f := range g.fragments {
		if f.record.IsScoreless() {
			restarts = append(restarts, f)
			continue
		}
		scored = append(scored, f)
		totalKills += f.record.TotalKills()
	}

	var (
		out   []outputGame
		notes []MergeNote
	)
	if len(restarts) > 0 {
		notes = append(notes, MergeNote{Key: g.key, Decision: DecisionVoid, GameIDs: fragmentIDs(restarts), Reason: "0-0 restart"})
	}

	switch {
	case len(scored) == 0:
	case len(scored) == 2 && float64(totalKills)/2 < ObjectiveTruncatedAvgKills:
		out = append(out, mergeRecords(scored))
		notes = append(notes, mergedNote(g.key, scored, false,
			fmt.Sprintf("average of %.1f kills looks truncated", float64(totalKills)/2)))
	default:
		out = append(out, keepAll(scored)...)
		notes = append(notes, keptNote(g.key, scored, false, ""))
	}
	return out, notes
}

// mergeRecords sums fragments into one game. Sides are anchored on the first fragment's winning roster; a fragment
// whose winners share no player with that roster is counted from the other side
func mergeRecords(fragments []fragment) outputGame {
	first := fragments[0].record
	anchor := make(map[string]bool)
	for _, gt := range first.WinningGamertags {
		anchor[shared.NormalizeGamertag(gt)] = true
	}

	type sidedStat struct {
		stat      external.PlayerGameStat
		firstSide bool // true when the player is on the first fragment's winning side
	}

	var order []string
	players := make(map[string]*sidedStat)
	var scoreFirst, scoreOther, killsFirst, killsOther, duration int
	var ids []string
	minIndex := fragments[0].index

	for _, f := range fragments {
		r := f.record
		ids = append(ids, r.GameID)
		duration += r.DurationSeconds
		if f.index < minIndex {
			minIndex = f.index
		}

		winnersAreFirst := overlaps(r.WinningGamertags, anchor) || !overlaps(r.LosingGamertags, anchor)
		if winnersAreFirst {
			scoreFirst += r.WinnerScore
			scoreOther += r.LoserScore
		} else {
			scoreFirst += r.LoserScore
			scoreOther += r.WinnerScore
		}

		for _, p := range r.Players {
			key := shared.NormalizeGamertag(p.Gamertag)
			onFirst := p.Won == winnersAreFirst
			acc, ok := players[key]
			if !ok {
				acc = &sidedStat{stat: external.PlayerGameStat{Gamertag: p.Gamertag, TeamLabel: p.TeamLabel}, firstSide: onFirst}
				players[key] = acc
				order = append(order, key)
			}
			acc.stat.Kills += p.Kills
			acc.stat.Deaths += p.Deaths
			acc.stat.Assists += p.Assists
			acc.stat.DamageDealt += p.DamageDealt
			acc.stat.DamageTaken += p.DamageTaken
			acc.stat.ShotsFired += p.ShotsFired
			acc.stat.ShotsLanded += p.ShotsLanded
			if onFirst {
				killsFirst += p.Kills
			} else {
				killsOther += p.Kills
			}
		}
	}

	// Decide which side won the merged game
	var firstWins bool
	var winScore, loseScore int
	if familyOf(first.Mode) == familySlayer {
		firstWins = killsFirst >= killsOther
		winScore, loseScore = killsFirst, killsOther
	} else {
		switch {
		case scoreFirst != scoreOther:
			firstWins = scoreFirst > scoreOther
		case killsFirst != killsOther:
			firstWins = killsFirst > killsOther
		default:
			firstWins = true
		}
		winScore, loseScore = scoreFirst, scoreOther
	}
	if !firstWins {
		winScore, loseScore = loseScore, winScore
	}

	merged := external.GameRecord{
		SeriesID:        first.SeriesID,
		GameID:          strings.Join(ids, MergedIDSeparator),
		Map:             first.Map,
		Mode:            first.Mode,
		DurationSeconds: duration,
		WinnerScore:     winScore,
		LoserScore:      loseScore,
	}
	for _, key := range order {
		acc := players[key]
		acc.stat.Won = acc.firstSide == firstWins
		merged.Players = append(merged.Players, acc.stat)
		if acc.stat.Won {
			merged.WinningGamertags = append(merged.WinningGamertags, acc.stat.Gamertag)
		} else {
			merged.LosingGamertags = append(merged.LosingGamertags, acc.stat.Gamertag)
		}
	}

	return outputGame{index: minIndex, record: merged}
}

func overlaps(gamertags []string, set map[string]bool) bool {
	for _, gt := range gamertags {
		if set[shared.NormalizeGamertag(gt)] {
			return true
		}
	}
	return false
}

func keepAll(fragments []fragment) []outputGame {
	out := make([]outputGame, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, outputGame{index: f.index, record: f.record})
	}
	return out
}

func fragmentIDs(fragments []fragment) []string {
	ids := make([]string, 0, len(fragments))
	for _, f := range fragments {
		ids = append(ids, f.record.GameID)
	}
	return ids
}

func keptNote(key string, fragments []fragment, ambiguous bool, reason string) MergeNote {
	return MergeNote{Key: key, Decision: DecisionKept, GameIDs: fragmentIDs(fragments), Ambiguous: ambiguous, Reason: reason}
}

func mergedNote(key string, fragments []fragment, ambiguous bool, reason string) MergeNote {
	return MergeNote{Key: key, Decision: DecisionMerged, GameIDs: fragmentIDs(fragments), Ambiguous: ambiguous, Reason: reason}
}
