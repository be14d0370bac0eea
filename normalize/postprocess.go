package normalize

import (
	"strings"

	"lectern/content"
)

// Postprocess smooths whitespace inside blocks that were built outside the
// HTML path, for example assembled programmatically or read from extracted
// text. Paragraphs, quotes and table cells keep their internal newlines;
// headings and image labels collapse to a single line.
func Postprocess(blocks []content.Block) []content.Block {
	for i, b := range blocks {
		switch b := b.(type) {
		case content.Paragraph:
			b.Text = cleanText(b.Text, true)
			blocks[i] = b
		case content.Heading:
			b.Text = cleanText(b.Text, false)
			blocks[i] = b
		case content.Quote:
			b.Text = cleanText(b.Text, true)
			blocks[i] = b
		case content.Image:
			b.Caption = cleanText(b.Caption, false)
			b.Alt = cleanText(b.Alt, false)
			blocks[i] = b
		case content.Table:
			for r, row := range b.Rows {
				for c := range row {
					b.Rows[r][c].Text = cleanText(row[c].Text, true)
				}
			}
		}
	}
	return blocks
}

func cleanText(s string, preserveNewlines bool) string {
	s = invisibleReplacer.Replace(s)
	if preserveNewlines {
		return normalizeLines(s)
	}
	return normalizeLine(strings.ReplaceAll(s, "\n", " "))
}
