package layout

import (
	"fmt"
	"math"
	"strings"

	"lectern/content"
	"lectern/highlight"
)

// chapterSeparatorGlyph is the content convention marking a chapter break: a
// paragraph holding exactly these three glyphs, with an empty paragraph on
// both sides. Documents using any other convention simply get no chapter
// index past page 0.
const chapterSeparatorGlyph = "───"

// Paginate lays blocks out into pages without justification.
func Paginate(blocks []content.Block, size Size) []Page {
	return PaginateWithJustify(blocks, size, false).Pages
}

// PaginateWithJustify lays blocks out into pages of size.Height lines, each
// at most size.Width cells wide, and records chapter starts and anchor
// positions along the way. Zero or negative dimensions are clamped to one
// cell so the pass always makes progress. The call is total: any block list,
// including a malformed one, produces a valid Pagination.
func PaginateWithJustify(blocks []content.Block, size Size, justify bool) Pagination {
	if size.Width < 1 {
		size.Width = 1
	}
	if size.Height < 1 {
		size.Height = 1
	}
	p := paginator{
		size:    size,
		justify: justify,
		anchors: make(map[string]int),
	}

	// The first content implicitly starts chapter 0 on page 0.
	pendingChapter := true
	for idx, block := range blocks {
		// A queued chapter start binds to the next content block; the empty
		// paragraphs flanking a separator are spacing, not content.
		if pendingChapter && (idx == 0 || !isEmptyParagraph(block)) {
			p.markChapterStart()
			pendingChapter = false
		}
		if isChapterSeparator(blocks, idx) {
			// The chapter begins wherever the following content lands.
			pendingChapter = true
		}
		switch b := block.(type) {
		case content.Paragraph:
			p.paragraph(b.Text)
		case content.Heading:
			p.heading(b.Text)
		case content.List:
			p.list(b.Items)
		case content.Quote:
			p.quote(b.Text)
		case content.Code:
			p.code(b.Lang, b.Text)
		case content.Table:
			p.table(b)
		case content.Image:
			p.image(b)
		}
		// One blank line closes every block, except right before a chapter
		// separator where the separator supplies its own spacing.
		if !isChapterSeparator(blocks, idx+1) {
			p.pushLine(PlainLine(""), nil)
		}
	}
	p.flush()
	return Pagination{
		Pages:         p.pages,
		ChapterStarts: p.chapterStarts,
		Anchors:       p.anchors,
	}
}

// isChapterSeparator reports whether blocks[idx] is the separator glyph
// paragraph flanked by empty paragraphs.
func isChapterSeparator(blocks []content.Block, idx int) bool {
	if idx < 0 || idx >= len(blocks) {
		return false
	}
	par, ok := blocks[idx].(content.Paragraph)
	if !ok || strings.TrimSpace(content.StripMarkup(par.Text)) != chapterSeparatorGlyph {
		return false
	}
	return idx > 0 && isEmptyParagraph(blocks[idx-1]) &&
		idx+1 < len(blocks) && isEmptyParagraph(blocks[idx+1])
}

func isEmptyParagraph(block content.Block) bool {
	p, ok := block.(content.Paragraph)
	return ok && strings.TrimSpace(content.StripMarkup(p.Text)) == ""
}

// paginator is the single-pass accumulator: the growing page list, the page
// under construction and the two indexes collected along the way.
type paginator struct {
	size    Size
	justify bool

	pages         []Page
	current       Page
	pageIndex     int
	chapterStarts []int
	anchors       map[string]int
}

// pushLine appends one line to the page under construction, records its
// anchors against the current page and flushes the page when it is full.
func (p *paginator) pushLine(line StyledLine, anchors []string) {
	for _, anchor := range anchors {
		if _, seen := p.anchors[anchor]; !seen {
			p.anchors[anchor] = p.pageIndex
		}
	}
	p.current.Lines = append(p.current.Lines, line)
	if len(p.current.Lines) >= p.size.Height {
		p.pages = append(p.pages, p.current)
		p.current = Page{}
		p.pageIndex++
	}
}

// flush closes a non-empty in-progress page at end of input.
func (p *paginator) flush() {
	if len(p.current.Lines) > 0 {
		p.pages = append(p.pages, p.current)
	}
}

// markChapterStart records the current page as a chapter start, keeping the
// list strictly increasing when several separators land on one page.
func (p *paginator) markChapterStart() {
	if n := len(p.chapterStarts); n > 0 && p.chapterStarts[n-1] >= p.pageIndex {
		return
	}
	p.chapterStarts = append(p.chapterStarts, p.pageIndex)
}

func (p *paginator) wrapJustified(text string) {
	wrapped := WrapStyled(text, p.size.Width)
	for i, line := range wrapped.Lines {
		if p.justify && i+1 < len(wrapped.Lines) {
			line = JustifyLine(line, p.size.Width)
		}
		p.pushLine(line, wrapped.Anchors[i])
	}
}

func (p *paginator) paragraph(text string) {
	p.wrapJustified(text)
}

func (p *paginator) heading(text string) {
	wrapped := WrapStyled(text, p.size.Width)
	for i, line := range wrapped.Lines {
		upperASCIISegments(line.Segments)
		p.pushLine(line, wrapped.Anchors[i])
	}
}

func (p *paginator) list(items []string) {
	for _, item := range items {
		p.wrapJustified("• " + item)
	}
}

// quote keeps the author's line breaks and clips overlong lines instead of
// wrapping, like preformatted text. A vertical rule marks the block when the
// viewport has room for it.
func (p *paginator) quote(text string) {
	prefix := "  "
	if p.size.Width >= 16 {
		prefix = "│ "
	}
	maxWidth := p.size.Width
	if maxWidth < 4 {
		maxWidth = 4
	}
	for _, raw := range strings.Split(text, "\n") {
		segs, lineAnchors := SegmentsFromText(raw)
		prefixed := append([]Segment{{Text: prefix}}, segs...)
		p.pushLine(clipSegments(prefixed, maxWidth), lineAnchors)
	}
}

func (p *paginator) code(lang, text string) {
	prefix := "  "
	if p.size.Width >= 12 {
		prefix = "│ "
	}
	maxWidth := p.size.Width
	if maxWidth < 4 {
		maxWidth = 4
	}
	for _, line := range highlight.Code(lang, text) {
		segs := []Segment{{Text: prefix}}
		for _, span := range line.Spans {
			segs = append(segs, Segment{
				Text: span.Text,
				FG:   toRGB(span.FG),
				BG:   toRGB(span.BG),
			})
		}
		p.pushLine(clipSegments(segs, maxWidth), nil)
	}
}

func toRGB(c *highlight.Color) *RGB {
	if c == nil {
		return nil
	}
	return &RGB{R: c.R, G: c.G, B: c.B}
}

func (p *paginator) table(t content.Table) {
	for _, tl := range renderTable(t, p.size.Width) {
		p.pushLine(tl.line, tl.anchors)
	}
}

// image reserves a block of blank rows sized by the picture's aspect ratio
// and tags the first row with the placement the renderer paints into. Images
// without data degrade to a text fallback.
func (p *paginator) image(img content.Image) {
	if len(img.Data) > 0 {
		cols := p.size.Width
		rows := imageRows(img.Width, img.Height, cols, p.size.Height)
		blank := strings.Repeat(" ", cols)
		for row := range rows {
			line := PlainLine(blank)
			if row == 0 {
				line.Image = &ImagePlacement{ID: img.ID, Cols: cols, Rows: rows}
			}
			p.pushLine(line, nil)
		}
		if caption := imageCaption(img); caption != "" {
			p.wrapLines(caption)
		}
		return
	}

	var fallback string
	switch {
	case img.Alt != "":
		fallback = "Image: " + content.StripMarkup(img.Alt)
	case img.Width > 0 && img.Height > 0:
		fallback = fmt.Sprintf("Image (%dx%d)", img.Width, img.Height)
	default:
		fallback = "Image"
	}
	p.wrapLines(fallback)
	if img.Caption != "" {
		p.wrapLines(img.Caption)
	}
}

func (p *paginator) wrapLines(text string) {
	wrapped := WrapStyled(text, p.size.Width)
	for i, line := range wrapped.Lines {
		p.pushLine(line, wrapped.Anchors[i])
	}
}

func imageCaption(img content.Image) string {
	if img.Caption != "" {
		return img.Caption
	}
	return img.Alt
}

// imageRows converts pixel dimensions into terminal rows: the height/width
// ratio scaled by the column count, clamped between 3 and two rows short of
// the viewport. Unknown dimensions default to 6 rows.
func imageRows(pxWidth, pxHeight, cols, viewportHeight int) int {
	if cols < 1 {
		cols = 1
	}
	rows := 6
	if pxWidth > 0 && pxHeight > 0 {
		rows = int(math.Ceil(float64(pxHeight) / float64(pxWidth) * float64(cols)))
	}
	if rows < 3 {
		rows = 3
	}
	maxRows := viewportHeight - 2
	if maxRows < 3 {
		maxRows = 3
	}
	if rows > maxRows {
		rows = maxRows
	}
	return rows
}
