package content

import "strings"

// Inline formatting travels inside block text as flat spans delimited by
// private non-printable code points. This keeps the normalizer output and the
// layout input a plain string: no DOM, a single linear scan on both sides.
//
// Wire format:
//
//	StyleStart <code>          opens one style, StyleEnd <code> closes one.
//	                           Styles are reference counted by the decoder,
//	                           so overlapping identical spans compose.
//	LinkStart <target> LinkEnd opens a link around the following text; an
//	                           empty target closes the current link.
//	AnchorStart <name> AnchorEnd names a zero-width position.
const (
	StyleStart  = '\x1e'
	StyleEnd    = '\x1f'
	LinkStart   = '\x1c'
	LinkEnd     = '\x1d'
	AnchorStart = '\x18'
	AnchorEnd   = '\x17'

	// LineBreak marks an explicit break inside inline text while the
	// normalizer is still collapsing whitespace. Post-processing rewrites it
	// to a real newline before blocks are published.
	LineBreak = '\x1a'
)

// Style codes following StyleStart/StyleEnd.
const (
	StyleBold      = 'b'
	StyleItalic    = 'i'
	StyleUnderline = 'u'
	StyleCode      = 'c'
	StyleStrike    = 'x'
	StyleSmallCaps = 's'
)

// ValidStyleCode reports whether c is one of the six recognized style codes.
func ValidStyleCode(c rune) bool {
	switch c {
	case StyleBold, StyleItalic, StyleUnderline, StyleCode, StyleStrike, StyleSmallCaps:
		return true
	}
	return false
}

// OpenStyle appends a style-start marker for code to b.
func OpenStyle(b *strings.Builder, code rune) {
	b.WriteRune(StyleStart)
	b.WriteRune(code)
}

// CloseStyle appends a style-end marker for code to b.
func CloseStyle(b *strings.Builder, code rune) {
	b.WriteRune(StyleEnd)
	b.WriteRune(code)
}

// OpenLink appends a link-open marker targeting target. An empty target is
// the close marker, use CloseLink for clarity.
func OpenLink(b *strings.Builder, target string) {
	b.WriteRune(LinkStart)
	b.WriteString(target)
	b.WriteRune(LinkEnd)
}

// CloseLink appends the marker closing the currently open link.
func CloseLink(b *strings.Builder) {
	b.WriteRune(LinkStart)
	b.WriteRune(LinkEnd)
}

// WriteAnchor appends a zero-width named anchor event.
func WriteAnchor(b *strings.Builder, name string) {
	b.WriteRune(AnchorStart)
	b.WriteString(name)
	b.WriteRune(AnchorEnd)
}

// HasMarkers reports whether s contains any markup markers.
func HasMarkers(s string) bool {
	return strings.ContainsRune(s, StyleStart) ||
		strings.ContainsRune(s, StyleEnd) ||
		strings.ContainsRune(s, LinkStart) ||
		strings.ContainsRune(s, AnchorStart)
}

// StripMarkup removes all markers from s, keeping visible text only: style
// markers drop together with their code, link targets and anchor names are
// dropped whole, link label text stays. Used for measurement and for the
// word extractor, where formatting is irrelevant.
func StripMarkup(s string) string {
	if !HasMarkers(s) {
		return s
	}
	var out strings.Builder
	out.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case StyleStart, StyleEnd:
			i++ // swallow the style code as well
		case LinkStart:
			for i++; i < len(runes) && runes[i] != LinkEnd; i++ {
			}
		case AnchorStart:
			for i++; i < len(runes) && runes[i] != AnchorEnd; i++ {
			}
		default:
			out.WriteRune(runes[i])
		}
	}
	return out.String()
}
