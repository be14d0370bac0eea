package layout

import (
	"strings"

	"github.com/rivo/uniseg"

	"lectern/content"
)

// tableLine pairs a rendered line with the anchors its cells contained.
type tableLine struct {
	line    StyledLine
	anchors []string
}

// renderTable lays a table out at the given width: column widths are
// allocated from measured content, each cell wraps independently in its
// column, row lines are padded to the tallest cell, header rows come out
// bold and a rule follows the leading header run. A table with no rows or no
// cells produces nothing.
func renderTable(table content.Table, width int) []tableLine {
	if width < 1 {
		width = 1
	}
	if len(table.Rows) == 0 {
		return nil
	}
	cols := 0
	for _, row := range table.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return nil
	}

	sep := tableSeparator(width, cols)
	available := width - len(sep)*(cols-1)
	if available < 0 {
		available = 0
	}
	colWidths := computeColumnWidths(tableMaxWidths(table.Rows, cols), available)

	headerEnd := tableHeaderEnd(table.Rows)
	var out []tableLine

	for rowIdx, row := range table.Rows {
		rowHasHeader := false
		for _, cell := range row {
			if cell.Header {
				rowHasHeader = true
				break
			}
		}
		wrapped := make([]WrappedLines, cols)
		rowHeight := 1
		for col := range cols {
			var text string
			if col < len(row) {
				text = strings.TrimSpace(row[col].Text)
			}
			w := colWidths[col]
			if w < 1 {
				w = 1
			}
			wrapped[col] = WrapStyled(text, w)
			if n := len(wrapped[col].Lines); n > rowHeight {
				rowHeight = n
			}
		}

		for lineIdx := range rowHeight {
			var (
				segments    []Segment
				lineAnchors []string
			)
			for col := range cols {
				var segs []Segment
				if lineIdx < len(wrapped[col].Lines) {
					segs = append([]Segment(nil), wrapped[col].Lines[lineIdx].Segments...)
				}
				if rowHasHeader {
					for i := range segs {
						segs[i].Style.Bold = true
					}
				}
				if pad := colWidths[col] - (StyledLine{Segments: segs}).Width(); pad > 0 {
					segs = append(segs, Segment{Text: strings.Repeat(" ", pad)})
				}
				segments = append(segments, segs...)
				if col+1 < cols && sep != "" {
					segments = append(segments, Segment{Text: sep})
				}
				if lineIdx < len(wrapped[col].Anchors) {
					lineAnchors = append(lineAnchors, wrapped[col].Anchors[lineIdx]...)
				}
			}
			out = append(out, tableLine{line: StyledLine{Segments: segments}, anchors: lineAnchors})
		}

		if headerEnd == rowIdx {
			out = append(out, tableLine{line: tableRuleLine(colWidths, sep)})
		}
	}
	return out
}

// tableSeparator picks the widest column separator the viewport allows.
func tableSeparator(width, cols int) string {
	switch {
	case cols <= 1:
		return ""
	case width >= cols+(cols-1)*3:
		return " | "
	case width >= cols+(cols-1):
		return " "
	default:
		return ""
	}
}

// tableHeaderEnd returns the index of the last row in the contiguous leading
// run of header rows, or -1 when the table has no header.
func tableHeaderEnd(rows [][]content.TableCell) int {
	last := -1
	for idx, row := range rows {
		isHeader := false
		for _, cell := range row {
			if cell.Header {
				isHeader = true
				break
			}
		}
		if isHeader {
			last = idx
		} else if last >= 0 {
			break
		}
	}
	return last
}

func tableRuleLine(widths []int, sep string) StyledLine {
	if len(widths) == 0 {
		return PlainLine("")
	}
	ruleSep := sep
	if sep == " | " {
		ruleSep = "-+-"
	}
	var out strings.Builder
	for idx, width := range widths {
		if width < 1 {
			width = 1
		}
		out.WriteString(strings.Repeat("-", width))
		if idx+1 < len(widths) {
			out.WriteString(ruleSep)
		}
	}
	return PlainLine(out.String())
}

// tableMaxWidths measures the widest line of any cell per column, markup
// stripped.
func tableMaxWidths(rows [][]content.TableCell, cols int) []int {
	widths := make([]int, cols)
	for _, row := range rows {
		for idx, cell := range row {
			if idx >= cols {
				continue
			}
			for _, line := range strings.Split(content.StripMarkup(cell.Text), "\n") {
				if w := uniseg.GraphemeClusterCount(line); w > widths[idx] {
					widths[idx] = w
				}
			}
		}
	}
	return widths
}

// computeColumnWidths starts every column at a minimum and grants one cell
// at a time to the column with the most unmet content, until the available
// width is spent.
func computeColumnWidths(maxWidths []int, available int) []int {
	cols := len(maxWidths)
	if cols == 0 {
		return nil
	}
	minWidth := 1
	if available >= cols*3 {
		minWidth = 3
	}
	widths := make([]int, cols)
	capacity := make([]int, cols)
	for i, w := range maxWidths {
		widths[i] = minWidth
		if w > minWidth {
			capacity[i] = w - minWidth
		}
	}
	remaining := available - minWidth*cols
	for remaining > 0 {
		best := -1
		bestCap := 0
		for idx, left := range capacity {
			if left > bestCap {
				bestCap = left
				best = idx
			}
		}
		if best < 0 {
			break
		}
		widths[best]++
		capacity[best]--
		remaining--
	}
	return widths
}
