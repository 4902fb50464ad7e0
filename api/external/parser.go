/* parser.go
 * Contains the Record Parser. Raw stat exports (delimited text or spreadsheets) are turned into a header and a list of
 * rows, then grouped into one GameRecord per game identifier
 */

package external

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-andiamo/splitter"
	"github.com/rs/zerolog"
)

// Canonical column names. Every alias in columnAliases maps onto one of these
const (
	colMap         = "map"
	colMode        = "mode"
	colDuration    = "duration"
	colOutcome     = "outcome"
	colScore       = "score"
	colPlayer      = "player"
	colKills       = "kills"
	colDeaths      = "deaths"
	colAssists     = "assists"
	colDamage      = "damage"
	colDamageTaken = "damagetaken"
	colShotsFired  = "shotsfired"
	colShotsLanded = "shotslanded"
	colGameID      = "gameid"
	colTeam        = "team"
)

// rankedSuffix is appended to map names by the stat service for matchmade playlists
const rankedSuffix = " - Ranked"

// commaSplitter keeps quoted commas inside a field
var commaSplitter = splitter.MustCreateSplitter(',', splitter.DoubleQuotes)

var requiredColumns = []string{
	colMap, colMode, colDuration, colOutcome, colScore, colPlayer, colKills, colDeaths, colAssists, colDamage,
}

var columnAliases = map[string]string{
	"map":           colMap,
	"category":      colMode,
	"mode":          colMode,
	"variant":       colMode,
	"gametype":      colMode,
	"lengthseconds": colDuration,
	"duration":      colDuration,
	"length":        colDuration,
	"outcome":       colOutcome,
	"result":        colOutcome,
	"teamscore":     colScore,
	"score":         colScore,
	"player":        colPlayer,
	"gamertag":      colPlayer,
	"kills":         colKills,
	"deaths":        colDeaths,
	"assists":       colAssists,
	"damagedone":    colDamage,
	"damage":        colDamage,
	"damagedealt":   colDamage,
	"damagetaken":   colDamageTaken,
	"shotsfired":    colShotsFired,
	"shotslanded":   colShotsLanded,
	"shotshit":      colShotsLanded,
	"matchid":       colGameID,
	"gameid":        colGameID,
	"game":          colGameID,
	"team":          colTeam,
	"teamname":      colTeam,
}

// ParseOptions carries the identifiers that an export may not contain itself
type ParseOptions struct {
	SeriesID string
	GameID   string // used for every row when the export has no game id column
}

// Parser turns raw exports into GameRecords
type Parser struct {
	logger zerolog.Logger
}

func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// DetectFormat picks the export format from an uploaded file name
func DetectFormat(filename string) ExportFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xls":
		return FormatSpreadsheet
	default:
		return FormatDelimited
	}
}

// Parse reads one raw export.
// Preconditions: Receives the raw bytes, the format hint and the identifiers to stamp onto each record
// Postconditions: Returns one GameRecord per distinct game identifier in file order, or a *ParseError when the export
// has no data rows or is missing a required column. Games without both a winning and a losing player are dropped
func (p *Parser) Parse(data []byte, format ExportFormat, opts ParseOptions) ([]GameRecord, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatSpreadsheet:
		rows, err = p.readSpreadsheet(data)
	default:
		rows = p.readDelimited(data)
	}
	if err != nil {
		return nil, err
	}
	return p.buildRecords(rows, opts)
}

// readDelimited splits comma separated text into rows of trimmed, unquoted fields. Rows that cannot be split (an
// unterminated quote) are skipped
func (p *Parser) readDelimited(data []byte) [][]string {
	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var rows [][]string
	skipped := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields, err := commaSplitter.Split(line)
		if err != nil {
			skipped++
			continue
		}
		for i := range fields {
			fields[i] = unquoteField(fields[i])
		}
		rows = append(rows, fields)
	}
	if skipped > 0 {
		p.logger.Warn().Int("rows", skipped).Msg("skipped malformed delimited rows")
	}
	return rows
}

// unquoteField removes the surrounding quotes from a field and collapses doubled quotes inside it
func unquoteField(field string) string {
	field = strings.TrimSpace(field)
	if len(field) >= 2 && strings.HasPrefix(field, `"`) && strings.HasSuffix(field, `"`) {
		field = field[1 : len(field)-1]
		field = strings.ReplaceAll(field, `""`, `"`)
	}
	return strings.TrimSpace(field)
}

// normalizeHeader lower cases a header and strips spaces, underscores and dashes so "Damage Done" matches "DamageDone"
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "", `"`, "").Replace(h)
}

// columnIndex maps canonical column names to their position in the header row. The first matching header wins
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		canonical, ok := columnAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := idx[canonical]; !seen {
			idx[canonical] = i
		}
	}
	return idx
}

type rowReader struct {
	row []string
	idx map[string]int
}

func (r rowReader) str(col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

// num reads a non-negative integer cell. Missing, blank and non-numeric cells read as zero
func (r rowReader) num(col string) int {
	return parseCount(r.str(col))
}

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

// ParseDuration reads a duration cell. Plain numbers are seconds; "m:ss" and "h:mm:ss" are also accepted
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ":") {
		return parseCount(s)
	}
	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

type outcome int

const (
	outcomeOther outcome = iota
	outcomeWin
	outcomeLoss
)

func parseOutcome(s string) outcome {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "won", "victory", "w":
		return outcomeWin
	case "loss", "lose", "lost", "defeat", "l":
		return outcomeLoss
	default:
		return outcomeOther
	}
}

type gameRows struct {
	id   string
	rows []rowReader
}

// buildRecords groups data rows by game identifier and turns each group into a GameRecord
func (p *Parser) buildRecords(rows [][]string, opts ParseOptions) ([]GameRecord, error) {
	if len(rows) < 2 {
		return nil, parseErrorf("export has no data rows")
	}

	idx := columnIndex(rows[0])
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, parseErrorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	// Group rows by game id, keeping first appearance order
	var groups []*gameRows
	byID := make(map[string]*gameRows)
	for _, row := range rows[1:] {
		r := rowReader{row: row, idx: idx}
		id := r.str(colGameID)
		if id == "" {
			id = opts.GameID
		}
		g, ok := byID[id]
		if !ok {
			g = &gameRows{id: id}
			byID[id] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, r)
	}

	var records []GameRecord
	dropped := 0
	for _, g := range groups {
		record, ok := buildRecord(g, opts.SeriesID)
		if !ok {
			dropped++
			continue
		}
		records = append(records, record)
	}
	if dropped > 0 {
		p.logger.Warn().Int("games", dropped).Str("series_id", opts.SeriesID).
			Msg("dropped games without both a winning and a losing side")
	}
	return records, nil
}

// buildRecord returns false when either side of the game is empty
func buildRecord(g *gameRows, seriesID string) (GameRecord, bool) {
	first := g.rows[0]
	record := GameRecord{
		SeriesID:        seriesID,
		GameID:          g.id,
		Map:             strings.TrimSpace(strings.TrimSuffix(first.str(colMap), rankedSuffix)),
		Mode:            first.str(colMode),
		DurationSeconds: ParseDuration(first.str(colDuration)),
	}
	if record.Map == "" {
		record.Map = "Unknown"
	}
	if record.Mode == "" {
		record.Mode = "Unknown"
	}

	seen := make(map[string]bool)
	winnerScoreSet, loserScoreSet := false, false
	for _, r := range g.rows {
		gamertag := r.str(colPlayer)
		if gamertag == "" {
			continue
		}
		result := parseOutcome(r.str(colOutcome))
		if result == outcomeOther {
			continue
		}
		key := strings.ToLower(gamertag)
		if seen[key] {
			continue
		}
		seen[key] = true

		won := result == outcomeWin
		record.Players = append(record.Players, PlayerGameStat{
			Gamertag:    gamertag,
			TeamLabel:   r.str(colTeam),
			Won:         won,
			Kills:       r.num(colKills),
			Deaths:      r.num(colDeaths),
			Assists:     r.num(colAssists),
			DamageDealt: r.num(colDamage),
			DamageTaken: r.num(colDamageTaken),
			ShotsFired:  r.num(colShotsFired),
			ShotsLanded: r.num(colShotsLanded),
		})
		if won {
			record.WinningGamertags = append(record.WinningGamertags, gamertag)
			if !winnerScoreSet {
				record.WinnerScore = r.num(colScore)
				winnerScoreSet = true
			}
		} else {
			record.LosingGamertags = append(record.LosingGamertags, gamertag)
			if !loserScoreSet {
				record.LoserScore = r.num(colScore)
				loserScoreSet = true
			}
		}
	}

	if len(record.WinningGamertags) == 0 || len(record.LosingGamertags) == 0 {
		return GameRecord{}, false
	}
	return record, true
}
