/* spreadsheet.go
 * Contains the tabular half of the Record Parser. Spreadsheet exports are read from their first sheet and handed to the
 * same row grouping used for delimited text
 */

package external

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readSpreadsheet returns the non-empty rows of the first sheet, header first
func (p *Parser) readSpreadsheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, parseErrorf("failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseErrorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, parseErrorf("failed to read sheet %q: %v", sheets[0], err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		out = append(out, row)
	}
	p.logger.Debug().Str("sheet", sheets[0]).Int("rows", len(out)).Msg("read spreadsheet export")
	return out, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
