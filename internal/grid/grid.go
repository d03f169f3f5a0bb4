package grid

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// MaxGridWidth is the line length from which rows are printed one column per line.
const MaxGridWidth = 180

const colorColumn = "_color"

type column struct {
	name  string
	index int
	width int
}

// Render formats rows (rows[0] holding the column names) as a grid, or as blocks of
// one column per line when the grid would be MaxGridWidth or wider.
//
// Columns whose name starts with "_" are hidden. A "_color" column holding "red" or
// "green" colours its row. Numbers are right aligned, nil renders as an empty cell.
func Render(rows [][]any, styles Styles) string {
	if len(rows) == 0 {
		return ""
	}
	colorIdx := -1
	cols := make([]*column, 0, len(rows[0]))
	for i, h := range rows[0] {
		name := fmt.Sprint(h)
		if name == colorColumn {
			colorIdx = i
		}
		if strings.HasPrefix(name, "_") {
			continue
		}
		cols = append(cols, &column{name: name, index: i, width: runewidth.StringWidth(name)})
	}
	maxNameWidth := 0
	for _, c := range cols {
		maxNameWidth = max(maxNameWidth, c.width)
		for _, row := range rows[1:] {
			c.width = max(c.width, runewidth.StringWidth(cell(value(row, c.index))))
		}
	}
	lineLength := 2 * len(cols)
	for _, c := range cols {
		lineLength += c.width
	}

	lines := []string{""}
	if lineLength < MaxGridWidth {
		var sb strings.Builder
		for _, c := range cols {
			sb.WriteString(" " + runewidth.FillRight(c.name, c.width) + " ")
		}
		lines = append(lines, styles.Header.Render(sb.String()), strings.Repeat("-", lineLength))
		for _, row := range rows[1:] {
			sb.Reset()
			for _, c := range cols {
				v := value(row, c.index)
				if isNumber(v) {
					sb.WriteString(" " + runewidth.FillLeft(cell(v), c.width) + " ")
				} else {
					sb.WriteString(" " + runewidth.FillRight(cell(v), c.width) + " ")
				}
			}
			lines = append(lines, colorize(sb.String(), value(row, colorIdx), styles))
		}
	} else {
		for i, row := range rows[1:] {
			if i > 0 {
				lines = append(lines, "")
			}
			for _, c := range cols {
				s := cell(value(row, c.index))
				if s == "" {
					continue
				}
				line := runewidth.FillRight(c.name, maxNameWidth) + "  " + s
				lines = append(lines, colorize(line, value(row, colorIdx), styles))
			}
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// Print writes the rendered rows to w.
func Print(w io.Writer, rows [][]any, styles Styles) error {
	_, err := io.WriteString(w, Render(rows, styles))
	return err
}

func value(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func cell(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(tv)
	case fmt.Stringer:
		return tv.String()
	}
	return fmt.Sprint(v)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return true
	}
	return false
}

func colorize(line string, color any, styles Styles) string {
	switch cell(color) {
	case "red":
		return styles.Red.Render(line)
	case "green":
		return styles.Green.Render(line)
	}
	return line
}
