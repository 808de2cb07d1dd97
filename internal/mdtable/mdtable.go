// Package mdtable renders rows of cells as a GitHub-flavored Markdown table.
// All structured formats share its rules: the first row is the header, every
// row is padded to the widest row, and cell content is kept single-line.
package mdtable

import "strings"

// MaxColumns bounds table width; columns past this are dropped.
const MaxColumns = 100

// Escape makes a cell value safe for a single Markdown table cell. Newlines
// become <br> so multi-paragraph cells survive, pipes are escaped.
func Escape(cell string) string {
	cell = strings.ReplaceAll(cell, "\r\n", "\n")
	cell = strings.ReplaceAll(cell, "\n", "<br>")
	cell = strings.ReplaceAll(cell, "|", "\\|")
	return strings.TrimSpace(cell)
}

// Render emits the table, or the empty string when there are no rows. Cells
// must already be escaped.
func Render(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return ""
	}
	if width > MaxColumns {
		width = MaxColumns
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		sb.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(rows[0])
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return strings.TrimRight(sb.String(), "\n")
}
