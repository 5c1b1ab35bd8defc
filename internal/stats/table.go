package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatTable lays out headers and rows in space separated columns sized by
// display width. Columns listed in rightAlign are padded on the left.
func formatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	widths := columnWidths(headers, rows)
	if len(widths) == 0 {
		return nil
	}
	all := rows
	if len(headers) > 0 {
		all = append([][]string{headers}, rows...)
	}
	lines := make([]string, len(all))
	cells := make([]string, len(widths))
	for n, row := range all {
		for i, w := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			if rightAlign[i] {
				cells[i] = runewidth.FillLeft(cell, w)
			} else {
				cells[i] = runewidth.FillRight(cell, w)
			}
		}
		lines[n] = strings.TrimRight(strings.Join(cells, " "), " ")
	}
	return lines
}

func columnWidths(headers []string, rows [][]string) []int {
	var widths []int
	grow := func(row []string) {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	grow(headers)
	for _, row := range rows {
		grow(row)
	}
	return widths
}
