// Package layout turns a normalized block list into fixed-size pages of
// styled text for a character-cell display. Pagination is a pure function of
// (blocks, size, justify): no state survives between calls and no input,
// however malformed, makes it fail. Widths are measured in grapheme clusters,
// one cell each.
package layout

import (
	"github.com/rivo/uniseg"
)

// Size is the viewport in character cells.
type Size struct {
	Width  int
	Height int
}

// RGB is a 24-bit terminal color.
type RGB struct {
	R, G, B uint8
}

// TextStyle is a set of independent display attributes. Attributes combine
// freely; the decoder keeps a per-attribute open count so nested identical
// spans resolve correctly.
type TextStyle struct {
	Bold      bool
	Italic    bool
	Underline bool
	Dim       bool
	Reverse   bool
	Strike    bool
	SmallCaps bool
}

// Segment is a maximal run of text sharing one style, color and link target.
type Segment struct {
	Text  string
	FG    *RGB
	BG    *RGB
	Style TextStyle
	Link  string // link target, empty when not a link
}

// mergeable reports whether text with the given attributes can be appended
// to s without losing styling information. Colored segments never merge.
func (s *Segment) mergeable(style TextStyle, link string) bool {
	return s.Style == style && s.FG == nil && s.BG == nil && s.Link == link
}

// ImagePlacement tells the renderer to paint image ID in a cols×rows cell
// box whose top-left is the start of the line carrying the placement.
type ImagePlacement struct {
	ID   string
	Cols int
	Rows int
}

// StyledLine is one rendered line: ordered segments plus, for the line
// anchoring an image's top row, the image placement.
type StyledLine struct {
	Segments []Segment
	Image    *ImagePlacement
}

// PlainLine wraps text in a single unstyled segment.
func PlainLine(text string) StyledLine {
	return StyledLine{Segments: []Segment{{Text: text}}}
}

// Width returns the line width in grapheme clusters.
func (l StyledLine) Width() int {
	var w int
	for _, seg := range l.Segments {
		w += uniseg.GraphemeClusterCount(seg.Text)
	}
	return w
}

// Page is a height-bounded ordered list of lines.
type Page struct {
	Lines []StyledLine
}

// Pagination is the complete layout result. ChapterStarts is strictly
// increasing and begins with page 0; Anchors maps every anchor name to the
// page of its first occurrence.
type Pagination struct {
	Pages         []Page
	ChapterStarts []int
	Anchors       map[string]int
}

// ClampScroll keeps a page index from a previous layout valid for this one.
func (p *Pagination) ClampScroll(page int) int {
	if page < 0 {
		return 0
	}
	if last := len(p.Pages) - 1; page > last {
		if last < 0 {
			return 0
		}
		return last
	}
	return page
}
