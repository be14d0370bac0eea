package content

import (
	"fmt"

	"lectern/utils/debug"
)

// Dump returns a readable tree of the block list. It exists solely for
// manual inspection of normalizer output; marker characters come out escaped
// so inline markup stays visible.
func Dump(blocks []Block) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Document: %d block(s)", len(blocks))
	for i, b := range blocks {
		switch b := b.(type) {
		case Paragraph:
			tw.TextBlock(1, fmt.Sprintf("[%d] Paragraph", i), b.Text)
		case Heading:
			tw.TextBlock(1, fmt.Sprintf("[%d] Heading h%d", i, b.Level), b.Text)
		case List:
			tw.Line(1, "[%d] List: %d item(s)", i, len(b.Items))
			for _, item := range b.Items {
				tw.TextBlock(2, "item", item)
			}
		case Quote:
			tw.TextBlock(1, fmt.Sprintf("[%d] Quote", i), b.Text)
		case Code:
			lang := b.Lang
			if lang == "" {
				lang = "plain"
			}
			tw.TextBlock(1, fmt.Sprintf("[%d] Code (%s)", i, lang), b.Text)
		case Table:
			tw.Line(1, "[%d] Table: %d row(s)", i, len(b.Rows))
			for j, row := range b.Rows {
				tw.Line(2, "row %d", j)
				for _, cell := range row {
					kind := "td"
					if cell.Header {
						kind = "th"
					}
					tw.TextBlock(3, kind, cell.Text)
				}
			}
		case Image:
			tw.Line(1, "[%d] Image[%q] %dx%d, %d byte(s)", i, b.ID, b.Width, b.Height, len(b.Data))
			if b.Alt != "" {
				tw.TextBlock(2, "alt", b.Alt)
			}
			if b.Caption != "" {
				tw.TextBlock(2, "caption", b.Caption)
			}
		default:
			tw.Line(1, "[%d] %T", i, b)
		}
	}
	return tw.String()
}
