package layout

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"lectern/content"
)

// Inline decoding: marker-encoded block text is parsed in one linear scan
// into styled spans and anchor events, then tokenized grapheme by grapheme
// into words, spaces and explicit newlines for the wrapper. Unrecognized or
// unterminated marker sequences fall out as literal text, the decoder never
// drops input.

type inlineSpan struct {
	text  string
	style TextStyle
	link  string
}

type inlinePiece struct {
	span   inlineSpan
	anchor string
	event  bool // true: anchor event, false: span
}

// styleCounts keeps an open count per style attribute so overlapping
// identical spans nest; closes saturate at zero.
type styleCounts struct {
	bold      uint16
	italic    uint16
	underline uint16
	code      uint16
	strike    uint16
	smallCaps uint16
}

func (c *styleCounts) apply(code rune, open bool) bool {
	var target *uint16
	switch code {
	case content.StyleBold:
		target = &c.bold
	case content.StyleItalic:
		target = &c.italic
	case content.StyleUnderline:
		target = &c.underline
	case content.StyleCode:
		target = &c.code
	case content.StyleStrike:
		target = &c.strike
	case content.StyleSmallCaps:
		target = &c.smallCaps
	default:
		return false
	}
	if open {
		if *target < ^uint16(0) {
			*target++
		}
	} else if *target > 0 {
		*target--
	}
	return true
}

func (c *styleCounts) style() TextStyle {
	return TextStyle{
		Bold:      c.bold > 0,
		Italic:    c.italic > 0,
		Underline: c.underline > 0,
		Dim:       c.code > 0,
		Reverse:   c.code > 0,
		Strike:    c.strike > 0,
		SmallCaps: c.smallCaps > 0,
	}
}

func parseInline(text string) []inlinePiece {
	var (
		pieces  []inlinePiece
		current strings.Builder
		counts  styleCounts
		link    string
	)
	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, inlinePiece{span: inlineSpan{
				text:  current.String(),
				style: counts.style(),
				link:  link,
			}})
			current.Reset()
		}
	}
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch ch {
		case content.StyleStart, content.StyleEnd:
			if i+1 >= len(runes) {
				// Dangling marker at end of input, keep it literal.
				current.WriteRune(ch)
				continue
			}
			i++
			code := runes[i]
			if content.ValidStyleCode(code) {
				flush()
				counts.apply(code, ch == content.StyleStart)
				continue
			}
			current.WriteRune(ch)
			current.WriteRune(code)
		case content.LinkStart:
			target, next, ok := scanUntil(runes, i+1, content.LinkEnd)
			if !ok {
				// No closer before end of input, emit everything verbatim.
				current.WriteRune(ch)
				current.WriteString(target)
				i = next
				continue
			}
			flush()
			link = target // empty target closes the link
			i = next
		case content.AnchorStart:
			target, next, ok := scanUntil(runes, i+1, content.AnchorEnd)
			if !ok {
				current.WriteRune(ch)
				current.WriteString(target)
				i = next
				continue
			}
			flush()
			if name := strings.TrimSpace(target); name != "" {
				pieces = append(pieces, inlinePiece{anchor: name, event: true})
			}
			i = next
		default:
			current.WriteRune(ch)
		}
	}
	flush()
	return pieces
}

// scanUntil collects runes from start up to the first occurrence of end.
// It returns the collected text, the index of the end rune (or the last
// consumed index when end was never found) and whether end was found.
func scanUntil(runes []rune, start int, end rune) (string, int, bool) {
	for i := start; i < len(runes); i++ {
		if runes[i] == end {
			return string(runes[start:i]), i, true
		}
	}
	return string(runes[start:]), len(runes) - 1, false
}

// SegmentsFromText decodes marker-encoded text into a flat segment list plus
// the anchor names it contains, without any wrapping. Compatible adjacent
// spans are merged.
func SegmentsFromText(text string) ([]Segment, []string) {
	var (
		segments []Segment
		anchors  []string
	)
	for _, piece := range parseInline(text) {
		if piece.event {
			if piece.anchor != "" {
				anchors = append(anchors, piece.anchor)
			}
			continue
		}
		if piece.span.text == "" {
			continue
		}
		if n := len(segments); n > 0 && segments[n-1].mergeable(piece.span.style, piece.span.link) {
			segments[n-1].Text += piece.span.text
			continue
		}
		segments = append(segments, Segment{
			Text:  piece.span.text,
			Style: piece.span.style,
			Link:  piece.span.link,
		})
	}
	return segments, anchors
}

// Wrap tokens.

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenSpace
	tokenNewline
	tokenAnchor
)

type inlineWord struct {
	segments []Segment
	width    int
}

type inlineToken struct {
	kind   tokenKind
	word   inlineWord
	style  TextStyle // space context
	link   string    // space context
	anchor string
}

func tokenize(pieces []inlinePiece) []inlineToken {
	var (
		tokens  []inlineToken
		current inlineWord
	)
	flushWord := func() {
		if len(current.segments) > 0 {
			tokens = append(tokens, inlineToken{kind: tokenWord, word: current})
			current = inlineWord{}
		}
	}
	for _, piece := range pieces {
		if piece.event {
			flushWord()
			tokens = append(tokens, inlineToken{kind: tokenAnchor, anchor: piece.anchor})
			continue
		}
		style, link := piece.span.style, piece.span.link
		gr := uniseg.NewGraphemes(piece.span.text)
		for gr.Next() {
			g := gr.Str()
			if g == "\n" {
				flushWord()
				tokens = append(tokens, inlineToken{kind: tokenNewline})
				continue
			}
			if isWhitespace(g) {
				flushWord()
				// Consecutive whitespace collapses to one space token.
				if n := len(tokens); n == 0 || (tokens[n-1].kind != tokenSpace && tokens[n-1].kind != tokenNewline) {
					tokens = append(tokens, inlineToken{kind: tokenSpace, style: style, link: link})
				}
				continue
			}
			appendGrapheme(&current.segments, g, style, link, nil, nil)
			current.width++
		}
	}
	flushWord()
	return tokens
}

func isWhitespace(g string) bool {
	for _, r := range g {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// appendGrapheme grows the last segment when compatible, otherwise starts a
// new one.
func appendGrapheme(segments *[]Segment, g string, style TextStyle, link string, fg, bg *RGB) {
	if n := len(*segments); n > 0 && fg == nil && bg == nil && (*segments)[n-1].mergeable(style, link) {
		(*segments)[n-1].Text += g
		return
	}
	*segments = append(*segments, Segment{Text: g, FG: fg, BG: bg, Style: style, Link: link})
}

// WrappedLines is the wrapper output: lines plus, per line, the anchors
// reached while building it.
type WrappedLines struct {
	Lines   []StyledLine
	Anchors [][]string
}

// WrapStyled decodes marker-encoded text and greedily wraps it to width.
// Width is clamped to at least one cell. Words wider than the full width are
// force-split at grapheme boundaries; explicit newlines always flush, even
// when the current line is empty.
func WrapStyled(text string, width int) WrappedLines {
	if width < 1 {
		width = 1
	}
	return wrapTokens(tokenize(parseInline(text)), width)
}

func wrapTokens(tokens []inlineToken, width int) WrappedLines {
	var (
		out            WrappedLines
		current        []Segment
		currentAnchors []string
		lineWidth      int
		pendingSpace   bool
		spaceStyle     TextStyle
		spaceLink      string
	)
	flushLine := func() {
		out.Lines = append(out.Lines, StyledLine{Segments: current})
		out.Anchors = append(out.Anchors, currentAnchors)
		current = nil
		currentAnchors = nil
		lineWidth = 0
	}
	for _, token := range tokens {
		switch token.kind {
		case tokenSpace:
			pendingSpace = true
			spaceStyle, spaceLink = token.style, token.link
		case tokenAnchor:
			if token.anchor != "" {
				currentAnchors = append(currentAnchors, token.anchor)
			}
		case tokenNewline:
			pendingSpace = false
			flushLine()
		case tokenWord:
			spaceWidth := 0
			if pendingSpace && len(current) > 0 {
				spaceWidth = 1
			}
			if lineWidth+spaceWidth+token.word.width <= width {
				if spaceWidth > 0 {
					current = append(current, Segment{Text: " ", Style: spaceStyle, Link: spaceLink})
					lineWidth++
				}
				current = append(current, token.word.segments...)
				lineWidth += token.word.width
			} else {
				if len(current) > 0 {
					flushLine()
				}
				if token.word.width > width {
					parts := splitWordSegments(token.word.segments, width)
					for i, part := range parts {
						if i+1 == len(parts) {
							current = part.segments
							lineWidth = part.width
						} else {
							out.Lines = append(out.Lines, StyledLine{Segments: part.segments})
							out.Anchors = append(out.Anchors, nil)
						}
					}
				} else {
					current = token.word.segments
					lineWidth = token.word.width
				}
			}
			pendingSpace = false
		}
	}
	if len(current) > 0 || len(out.Lines) == 0 || len(currentAnchors) > 0 {
		flushLine()
	}
	return out
}

// splitWordSegments chops an overlong word into width-sized chunks at
// grapheme boundaries, keeping per-grapheme style and link.
func splitWordSegments(segments []Segment, width int) []inlineWord {
	var (
		parts   []inlineWord
		current []Segment
		used    int
	)
	for _, seg := range segments {
		gr := uniseg.NewGraphemes(seg.Text)
		for gr.Next() {
			if used >= width && len(current) > 0 {
				parts = append(parts, inlineWord{segments: current, width: used})
				current, used = nil, 0
			}
			appendGrapheme(&current, gr.Str(), seg.Style, seg.Link, seg.FG, seg.BG)
			used++
			if used == width {
				parts = append(parts, inlineWord{segments: current, width: used})
				current, used = nil, 0
			}
		}
	}
	if len(current) > 0 {
		parts = append(parts, inlineWord{segments: current, width: used})
	}
	if len(parts) == 0 {
		parts = append(parts, inlineWord{})
	}
	return parts
}

// JustifyLine pads a wrapped line with extra inter-word spaces so it fills
// width exactly. Lines that are already full, less than 70% full, or have
// fewer than three gaps are returned unchanged. Earlier gaps receive the
// remainder, so no gap grows more than one space past a later one.
func JustifyLine(line StyledLine, width int) StyledLine {
	current := line.Width()
	if current >= width {
		return line
	}
	if current*10 < width*7 {
		return line
	}
	var gaps []int
	for i, seg := range line.Segments {
		if isSpaceSegment(seg) {
			gaps = append(gaps, i)
		}
	}
	if len(gaps) < 3 {
		return line
	}
	extra := width - current
	out := StyledLine{Segments: append([]Segment(nil), line.Segments...), Image: line.Image}
	base := extra / len(gaps)
	remainder := extra % len(gaps)
	for _, idx := range gaps {
		add := base
		if remainder > 0 {
			add++
			remainder--
		}
		if add > 0 {
			out.Segments[idx].Text += strings.Repeat(" ", add)
		}
	}
	return out
}

func isSpaceSegment(seg Segment) bool {
	if seg.Text == "" {
		return false
	}
	for _, r := range seg.Text {
		if r != ' ' {
			return false
		}
	}
	return true
}

// clipSegments hard-truncates segments to width grapheme cells, marking the
// cut with an ellipsis in the style of the clipped segment.
func clipSegments(segments []Segment, width int) StyledLine {
	var (
		out  []Segment
		used int
	)
	for _, seg := range segments {
		if used >= width {
			break
		}
		var buf strings.Builder
		gr := uniseg.NewGraphemes(seg.Text)
		for gr.Next() {
			if used >= width {
				break
			}
			buf.WriteString(gr.Str())
			used++
		}
		if buf.Len() > 0 {
			out = append(out, Segment{Text: buf.String(), FG: seg.FG, BG: seg.BG, Style: seg.Style, Link: seg.Link})
		}
		if used >= width {
			out = append(out, Segment{Text: "…", FG: seg.FG, BG: seg.BG, Style: seg.Style, Link: seg.Link})
			break
		}
	}
	return StyledLine{Segments: out}
}

// upperASCIISegments uppercases ASCII letters in place. Headings keep
// non-ASCII text as-is, terminals render it fine and case mapping outside
// ASCII is locale business the engine stays out of.
func upperASCIISegments(segments []Segment) {
	for i, seg := range segments {
		if seg.Text == "" {
			continue
		}
		segments[i].Text = strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' {
				return r - ('a' - 'A')
			}
			return r
		}, seg.Text)
	}
}
