// Package highlight colors source code for the layout engine. The lexer
// registry and theme are process-wide, built lazily on first use and
// immutable afterwards. Highlighting never fails: unknown languages and
// tokenizer errors degrade to plain uncolored text.
package highlight

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Color is a 24-bit color. The engine maps it onto its own color type so the
// two packages stay independent.
type Color struct {
	R, G, B uint8
}

// Span is a colored run of text within one line.
type Span struct {
	Text string
	FG   *Color
	BG   *Color
}

// Line is one line of highlighted code.
type Line struct {
	Spans []Span
}

const themeName = "github"

var theme = sync.OnceValue(func() *chroma.Style {
	if s := styles.Get(themeName); s != nil {
		return s
	}
	return styles.Fallback
})

// Code highlights text for the given language token ("" for unknown) and
// returns it split into lines. The result always has at least one line, even
// for empty input; a trailing newline does not produce an extra empty line.
func Code(lang, text string) []Line {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return plainLines(text)
	}

	style := theme()
	var (
		out     []Line
		current []Span
	)
	for token := it(); token != chroma.EOF; token = it() {
		entry := style.Get(token.Type)
		fg := toColor(entry.Colour)
		bg := toColor(entry.Background)
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				out = append(out, Line{Spans: current})
				current = nil
			}
			if part != "" {
				current = append(current, Span{Text: part, FG: fg, BG: bg})
			}
		}
	}
	if len(current) > 0 || len(out) == 0 {
		out = append(out, Line{Spans: current})
	}
	return out
}

func plainLines(text string) []Line {
	var out []Line
	for _, line := range strings.Split(text, "\n") {
		out = append(out, Line{Spans: []Span{{Text: line}}})
	}
	if len(out) > 1 && len(out[len(out)-1].Spans) == 1 && out[len(out)-1].Spans[0].Text == "" {
		out = out[:len(out)-1] // trailing newline
	}
	return out
}

func toColor(c chroma.Colour) *Color {
	if !c.IsSet() {
		return nil
	}
	return &Color{R: c.Red(), G: c.Green(), B: c.Blue()}
}
