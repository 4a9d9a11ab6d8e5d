// Package formatter renders run summaries as markdown with display-width aligned tables.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatMarkdown aligns every pipe table in content. Other lines pass through.
func FormatMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	var table []string

	flush := func() {
		if len(table) > 0 {
			out = append(out, alignTable(table)...)
			table = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			table = append(table, line)
			continue
		}

		flush()
		out = append(out, line)
	}

	flush()

	return strings.Join(out, "\n")
}

// splitRow returns the trimmed cells of a pipe table row.
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")

	parts := strings.Split(row, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	return parts
}

func isSeparator(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}

	return true
}

// alignTable pads cells to the widest display width per column. Wide CJK
// characters count as two columns. A table needs a header and a separator row.
func alignTable(rows []string) []string {
	if len(rows) < 2 {
		return rows
	}

	cells := make([][]string, len(rows))
	cols := 0

	for i, r := range rows {
		cells[i] = splitRow(r)
		cols = max(cols, len(cells[i]))
	}

	sep := -1
	if isSeparator(cells[1]) {
		sep = 1
	}

	widths := make([]int, cols)
	for i := range widths {
		widths[i] = 3
	}

	for i, row := range cells {
		if i == sep {
			continue
		}

		for j, c := range row {
			widths[j] = max(widths[j], runewidth.StringWidth(c))
		}
	}

	result := make([]string, len(cells))

	for i, row := range cells {
		var sb strings.Builder

		sb.WriteString("|")

		for j := 0; j < cols; j++ {
			sb.WriteString(" ")

			if i == sep {
				sb.WriteString(strings.Repeat("-", widths[j]))
			} else {
				c := ""
				if j < len(row) {
					c = row[j]
				}
				sb.WriteString(runewidth.FillRight(c, widths[j]))
			}

			sb.WriteString(" |")
		}

		result[i] = sb.String()
	}

	return result
}
