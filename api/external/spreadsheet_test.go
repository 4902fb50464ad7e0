/* spreadsheet_test.go
 * Contains unit tests for spreadsheet exports. Workbooks are built in memory with excelize
 */

package external

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		require.NoError(t, err)
		cells := make([]interface{}, len(row))
		for i, val := range row {
			cells[i] = val
		}
		require.NoError(t, f.SetSheetRow(sheet, axis, &cells))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func TestParse_Spreadsheet(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"Game", "Team", "Map", "Mode", "Duration", "Outcome", "Score", "Gamertag", "Kills", "Deaths", "Assists", "Damage"},
		{"1", "Eagle", "Live Fire", "CTF", "8:05", "Win", "3", "Alpha", "12", "8", "4", "3000"},
		{"1", "Cobra", "Live Fire", "CTF", "8:05", "Loss", "1", "Charlie", "8", "12", "2", "2500"},
		{},
		{"2", "Cobra", "Recharge", "Strongholds", "600", "Win", "250", "Charlie", "20", "15", "5", "5000"},
		{"2", "Eagle", "Recharge", "Strongholds", "600", "Loss", "180", "Alpha", "15", "20", "3", "4200"},
	})

	games, err := newTestParser().Parse(data, FormatSpreadsheet, ParseOptions{SeriesID: "upload"})
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "1", games[0].GameID)
	assert.Equal(t, "CTF", games[0].Mode)
	assert.Equal(t, 485, games[0].DurationSeconds)
	assert.Equal(t, "Eagle", games[0].WinningTeamLabel())
	assert.Equal(t, "Cobra", games[0].LosingTeamLabel())

	assert.Equal(t, "2", games[1].GameID)
	assert.Equal(t, 250, games[1].WinnerScore)
	assert.Equal(t, []string{"Charlie"}, games[1].WinningGamertags)
	assert.Equal(t, "Cobra", games[1].WinningTeamLabel())
}

func TestParse_SpreadsheetMissingColumns(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"Map", "Gamertag"},
		{"Live Fire", "Alpha"},
	})

	_, err := newTestParser().Parse(data, FormatSpreadsheet, ParseOptions{})
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Reason, "missing required columns")
}

func TestParse_SpreadsheetNotAWorkbook(t *testing.T) {
	_, err := newTestParser().Parse([]byte(leafHeader), FormatSpreadsheet, ParseOptions{})
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Reason, "failed to open spreadsheet")
}
