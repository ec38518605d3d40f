// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// =============================================================================
// TABLE
// =============================================================================

// Column is one table column. Width is in terminal columns.
type Column struct {
	Title string
	Width int
}

// Table renders fixed-width rows. Cells are plain text; CellStyle may wrap
// a padded cell in color after layout so escape codes never skew widths.
type Table struct {
	Columns   []Column
	Rows      [][]string
	Selected  int // -1 for none
	Offset    int // first visible row
	Height    int // visible rows; 0 shows all
	CellStyle func(row, col int, padded string) string
}

// NewTable creates a table with no selection.
func NewTable(cols []Column) Table {
	return Table{Columns: cols, Selected: -1}
}

// VisibleRange returns the half-open row range that Render draws.
func (t Table) VisibleRange() (start, end int) {
	start = t.Offset
	if start < 0 {
		start = 0
	}
	if start > len(t.Rows) {
		start = len(t.Rows)
	}
	end = len(t.Rows)
	if t.Height > 0 && start+t.Height < end {
		end = start + t.Height
	}
	return start, end
}

// ScrollTo adjusts Offset so row is visible.
func (t *Table) ScrollTo(row int) {
	if t.Height <= 0 {
		return
	}
	if row < t.Offset {
		t.Offset = row
	}
	if row >= t.Offset+t.Height {
		t.Offset = row - t.Height + 1
	}
	if t.Offset < 0 {
		t.Offset = 0
	}
}

// Render draws the header and the visible rows.
func (t Table) Render(theme *styles.Theme) string {
	var b strings.Builder

	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = util.PadWidth(col.Title, col.Width)
	}
	b.WriteString(theme.TableHeader.Render(strings.Join(header, " ")))

	start, end := t.VisibleRange()
	for r := start; r < end; r++ {
		b.WriteString("\n")
		cells := make([]string, len(t.Columns))
		for c, col := range t.Columns {
			var text string
			if c < len(t.Rows[r]) {
				text = t.Rows[r][c]
			}
			padded := util.PadWidth(text, col.Width)
			if t.CellStyle != nil && r != t.Selected {
				padded = t.CellStyle(r, c, padded)
			}
			cells[c] = padded
		}
		line := strings.Join(cells, " ")
		if r == t.Selected {
			b.WriteString(theme.TableRowSelected.Render(line))
		} else {
			b.WriteString(theme.TableRow.Render(line))
		}
	}
	return b.String()
}

// =============================================================================
// BARS
// =============================================================================

// Bar draws a horizontal bar of value scaled against max over width cells.
// Non-zero values always get at least one cell.
func Bar(value, max, width int) string {
	if value <= 0 || max <= 0 || width <= 0 {
		return ""
	}
	n := value * width / max
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n)
}
