package domain

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// GridPadding is added to every column's content width.
const GridPadding = 2

// FormatGrid renders a bordered fixed-width table:
//
//	+------+--------+
//	| ID   | Name   |
//	+------+--------+
//	| 1    | Amy    |
//	+------+--------+
//
// Rows shorter than columns are padded with empty cells; extra cells are
// ignored.
func FormatGrid(columns []string, rows [][]string) string {
	widths := ColumnWidths(columns, rows)

	var rule strings.Builder
	rule.WriteString("+-")
	for i, w := range widths {
		if i > 0 {
			rule.WriteString("-+-")
		}
		rule.WriteString(strings.Repeat("-", w))
	}
	rule.WriteString("-+\n")
	sep := rule.String()

	var b strings.Builder
	b.WriteString(sep)
	writeGridRow(&b, columns, widths)
	b.WriteString(sep)
	for _, row := range rows {
		writeGridRow(&b, row, widths)
	}
	b.WriteString(sep)
	return b.String()
}

// ColumnWidths returns max(header width, widest cell) + GridPadding per column.
func ColumnWidths(columns []string, rows [][]string) []int {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range rows {
		for i := 0; i < len(columns) && i < len(row); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		widths[i] += GridPadding
	}
	return widths
}

func writeGridRow(b *strings.Builder, cells []string, widths []int) {
	b.WriteString("| ")
	for i, w := range widths {
		if i > 0 {
			b.WriteString(" | ")
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		b.WriteString(runewidth.FillRight(cell, w))
	}
	b.WriteString(" |\n")
}

// RecordGrid formats a schema and its records.
func RecordGrid(schema *TableSchema, records []Record) string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Strings()
	}
	return FormatGrid(schema.ColumnNames(), rows)
}
