// Package csvimport parses uploaded warehouse mapping sheets.
//
// The sheets come from spreadsheet exports that never quote fields, so
// values are split on plain commas rather than run through a full CSV
// reader. A quoted cell containing a comma would be split apart; the
// export pipeline guarantees this does not happen.
package csvimport

import (
	"bytes"
	"strings"

	"github.com/skubridge/backend/internal/domain/mapping"
)

// Required header columns, matched case-insensitively.
const (
	columnSKU       = "sku"
	columnWarehouse = "warehouse"
	columnLocation  = "location"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Stats reports what happened to the data rows of a sheet.
type Stats struct {
	TotalRows   int // data rows seen, blank lines excluded
	DroppedRows int // rows dropped for missing cells
}

// ParseMappingRows parses a mapping sheet into rows. Rows with an empty
// SKU, warehouse or location cell are dropped silently and counted in
// Stats; a malformed row must never block the rest of an upload.
func ParseMappingRows(data []byte) ([]mapping.Row, Stats, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	lines := splitLines(string(data))
	if len(lines) == 0 {
		return nil, Stats{}, ErrEmptyFile
	}

	skuIdx, whIdx, locIdx, err := parseHeader(lines[0])
	if err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	rows := make([]mapping.Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		stats.TotalRows++
		cells := splitCells(line)
		sku := cellAt(cells, skuIdx)
		warehouse := cellAt(cells, whIdx)
		location := cellAt(cells, locIdx)
		if sku == "" || warehouse == "" || location == "" {
			stats.DroppedRows++
			continue
		}
		rows = append(rows, mapping.Row{
			SKU:       sku,
			Warehouse: warehouse,
			Location:  location,
		})
	}

	return rows, stats, nil
}

// parseHeader locates the required columns in the header row. Column
// order is free; names match case-insensitively but must be exact
// otherwise.
func parseHeader(line string) (skuIdx, whIdx, locIdx int, err error) {
	skuIdx, whIdx, locIdx = -1, -1, -1
	for i, cell := range splitCells(line) {
		switch strings.ToLower(cell) {
		case columnSKU:
			if skuIdx == -1 {
				skuIdx = i
			}
		case columnWarehouse:
			if whIdx == -1 {
				whIdx = i
			}
		case columnLocation:
			if locIdx == -1 {
				locIdx = i
			}
		}
	}
	switch {
	case skuIdx == -1:
		return 0, 0, 0, &MissingColumnError{Column: columnSKU}
	case whIdx == -1:
		return 0, 0, 0, &MissingColumnError{Column: columnWarehouse}
	case locIdx == -1:
		return 0, 0, 0, &MissingColumnError{Column: columnLocation}
	}
	return skuIdx, whIdx, locIdx, nil
}

// splitLines splits on newlines, tolerating CRLF, and drops lines that
// are blank after trimming.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitCells(line string) []string {
	cells := strings.Split(strings.TrimRight(line, "\r"), ",")
	for i, cell := range cells {
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}
