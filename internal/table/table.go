// Package table renders simple ASCII tables with optional per-column
// alignment. Cell content may contain ANSI color codes; widths are
// computed on the stripped text so colored cells align correctly.
package table

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Alignment controls how cell content is padded within a column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// Table accumulates rows and renders them to a writer.
type Table struct {
	writer          io.Writer
	header          []string
	rows            [][]string
	columnAlignment []Alignment
	headerAlignment []Alignment
}

// NewTable returns a Table that renders to the given writer.
func NewTable(writer io.Writer) *Table {
	return &Table{writer: writer}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(alignment []Alignment) *Table {
	t.columnAlignment = alignment
	return t
}

func (t *Table) WithHeaderAlignment(alignment []Alignment) *Table {
	t.headerAlignment = alignment
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = rows
	return t
}

// Append adds one row to the table.
func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

func (t *Table) columnCount() int {
	count := len(t.header)
	for _, row := range t.rows {
		if len(row) > count {
			count = len(row)
		}
	}
	return count
}

func (t *Table) columnWidths(count int) []int {
	widths := make([]int, count)
	measure := func(row []string) {
		for i, cell := range row {
			if w := len(stripAnsi(cell)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func alignCell(content string, width int, alignment Alignment) string {
	pad := width - len(stripAnsi(content))
	if pad < 0 {
		pad = 0
	}
	switch alignment {
	case AlignRight:
		return strings.Repeat(" ", pad) + content
	case AlignCenter:
		left := pad / 2
		return strings.Repeat(" ", left) + content + strings.Repeat(" ", pad-left)
	default:
		return content + strings.Repeat(" ", pad)
	}
}

func (t *Table) alignmentFor(alignments []Alignment, column int) Alignment {
	if column < len(alignments) {
		return alignments[column]
	}
	return AlignLeft
}

func (t *Table) writeRow(row []string, widths []int, alignments []Alignment) {
	cells := make([]string, len(widths))
	for i := range widths {
		content := ""
		if i < len(row) {
			content = row[i]
		}
		cells[i] = alignCell(content, widths[i], t.alignmentFor(alignments, i))
	}
	fmt.Fprintf(t.writer, "| %s |\n", strings.Join(cells, " | "))
}

func (t *Table) writeSeparator(widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	fmt.Fprintf(t.writer, "+%s+\n", strings.Join(parts, "+"))
}

// Render writes the table to the writer.
func (t *Table) Render() {
	count := t.columnCount()
	if count == 0 {
		return
	}
	widths := t.columnWidths(count)
	t.writeSeparator(widths)
	if len(t.header) > 0 {
		t.writeRow(t.header, widths, t.headerAlignment)
		t.writeSeparator(widths)
	}
	for _, row := range t.rows {
		t.writeRow(row, widths, t.columnAlignment)
	}
	t.writeSeparator(widths)
}
