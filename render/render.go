// Package render turns laid-out pages into terminal output. Segments map to
// ANSI SGR attributes, small-caps text is uppercased for display, and image
// placements are painted with half-block cells when enabled. The package sits
// strictly downstream of the layout engine: pages come in, bytes go out.
package render

import (
	"image"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lectern/content"
	"lectern/layout"
)

type Options struct {
	Color  bool // emit SGR attributes and truecolor
	Images bool // paint image placements with half-block cells
}

// Renderer writes pages to a terminal-like destination. It keeps the image
// data harvested from content blocks so placements can be painted later.
type Renderer struct {
	opts    Options
	log     *zap.Logger
	assets  map[string][]byte
	decoded map[string]image.Image
}

func New(opts Options, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		opts:    opts,
		log:     log.Named("render"),
		assets:  make(map[string][]byte),
		decoded: make(map[string]image.Image),
	}
}

// AddImages remembers image data carried by blocks, keyed by image ID.
// First data wins, matching the paginator's first-seen anchor rule.
func (r *Renderer) AddImages(blocks []content.Block) {
	for _, b := range blocks {
		img, ok := b.(content.Image)
		if !ok || len(img.Data) == 0 {
			continue
		}
		if _, exists := r.assets[img.ID]; !exists {
			r.assets[img.ID] = img.Data
		}
	}
}

// WritePage renders one page, line by line. Lines reserved for an image are
// replaced by painted cells when painting is possible, otherwise they stay
// blank and the caption below still identifies the image.
func (r *Renderer) WritePage(w io.Writer, page layout.Page) error {
	skip := 0
	for i, line := range page.Lines {
		if skip > 0 {
			skip--
			continue
		}
		if p := line.Image; p != nil && r.opts.Images && r.opts.Color {
			painted, err := r.paintImage(w, p, len(page.Lines)-i)
			if err != nil {
				return err
			}
			if painted > 0 {
				skip = painted - 1
				continue
			}
		}
		if err := r.writeLine(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) writeLine(w io.Writer, line layout.StyledLine) error {
	var b strings.Builder
	for _, seg := range line.Segments {
		text := displayText(seg)
		if !r.opts.Color {
			b.WriteString(text)
			continue
		}
		if attrs := sgr(seg); attrs != "" {
			b.WriteString(attrs)
			b.WriteString(text)
			b.WriteString("\x1b[0m")
		} else {
			b.WriteString(text)
		}
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// displayText applies the small-caps transform, which has no SGR attribute
// and must be faked with uppercasing.
func displayText(seg layout.Segment) string {
	if !seg.Style.SmallCaps {
		return seg.Text
	}
	// cases.Caser is stateful and not safe to share
	return cases.Upper(language.Und).String(seg.Text)
}

func sgr(seg layout.Segment) string {
	var codes []string
	if seg.Style.Bold {
		codes = append(codes, "1")
	}
	if seg.Style.Dim {
		codes = append(codes, "2")
	}
	if seg.Style.Italic {
		codes = append(codes, "3")
	}
	if seg.Style.Underline || seg.Link != "" {
		codes = append(codes, "4")
	}
	if seg.Style.Reverse {
		codes = append(codes, "7")
	}
	if seg.Style.Strike {
		codes = append(codes, "9")
	}
	if seg.FG != nil {
		codes = append(codes, "38", "2",
			strconv.Itoa(int(seg.FG.R)), strconv.Itoa(int(seg.FG.G)), strconv.Itoa(int(seg.FG.B)))
	}
	if seg.BG != nil {
		codes = append(codes, "48", "2",
			strconv.Itoa(int(seg.BG.R)), strconv.Itoa(int(seg.BG.G)), strconv.Itoa(int(seg.BG.B)))
	}
	if len(codes) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}
