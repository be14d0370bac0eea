package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"lectern/content"
	"lectern/layout"
)

func pageOf(lines ...layout.StyledLine) layout.Page {
	return layout.Page{Lines: lines}
}

func textLine(segs ...layout.Segment) layout.StyledLine {
	return layout.StyledLine{Segments: segs}
}

func TestWritePage(t *testing.T) {
	t.Run("plain output without color", func(t *testing.T) {
		r := New(Options{}, zaptest.NewLogger(t))
		var buf bytes.Buffer
		page := pageOf(textLine(layout.Segment{Text: "hello ", Style: layout.TextStyle{Bold: true}}, layout.Segment{Text: "world"}))
		if err := r.WritePage(&buf, page); err != nil {
			t.Fatal(err)
		}
		if got := buf.String(); got != "hello world\n" {
			t.Errorf("expected plain text, got %q", got)
		}
	})

	t.Run("bold maps to SGR 1", func(t *testing.T) {
		r := New(Options{Color: true}, zaptest.NewLogger(t))
		var buf bytes.Buffer
		page := pageOf(textLine(layout.Segment{Text: "loud", Style: layout.TextStyle{Bold: true}}))
		if err := r.WritePage(&buf, page); err != nil {
			t.Fatal(err)
		}
		got := buf.String()
		if !strings.Contains(got, "\x1b[1m") || !strings.Contains(got, "\x1b[0m") {
			t.Errorf("expected bold SGR with reset, got %q", got)
		}
	})

	t.Run("links render underlined", func(t *testing.T) {
		r := New(Options{Color: true}, zaptest.NewLogger(t))
		var buf bytes.Buffer
		page := pageOf(textLine(layout.Segment{Text: "note", Link: "ch2#note"}))
		if err := r.WritePage(&buf, page); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\x1b[4m") {
			t.Errorf("expected underline SGR, got %q", buf.String())
		}
	})

	t.Run("truecolor foreground", func(t *testing.T) {
		r := New(Options{Color: true}, zaptest.NewLogger(t))
		var buf bytes.Buffer
		page := pageOf(textLine(layout.Segment{Text: "x", FG: &layout.RGB{R: 1, G: 2, B: 3}}))
		if err := r.WritePage(&buf, page); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\x1b[38;2;1;2;3m") {
			t.Errorf("expected truecolor SGR, got %q", buf.String())
		}
	})

	t.Run("small caps uppercased even without color", func(t *testing.T) {
		r := New(Options{}, zaptest.NewLogger(t))
		var buf bytes.Buffer
		page := pageOf(textLine(layout.Segment{Text: "name", Style: layout.TextStyle{SmallCaps: true}}))
		if err := r.WritePage(&buf, page); err != nil {
			t.Fatal(err)
		}
		if got := buf.String(); got != "NAME\n" {
			t.Errorf("expected uppercased text, got %q", got)
		}
	})
}

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{R: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestPaintImages(t *testing.T) {
	t.Run("half blocks painted at placement", func(t *testing.T) {
		r := New(Options{Color: true, Images: true}, zaptest.NewLogger(t))
		r.AddImages([]content.Block{content.Image{ID: "pic", Data: encodeTestPNG(t)}})
		var buf bytes.Buffer
		page := pageOf(layout.StyledLine{
			Segments: []layout.Segment{{Text: "  "}},
			Image:    &layout.ImagePlacement{ID: "pic", Cols: 2, Rows: 1},
		})
		if err := r.WritePage(&buf, page); err != nil {
			t.Fatal(err)
		}
		got := buf.String()
		if n := strings.Count(got, "▀"); n != 2 {
			t.Errorf("expected 2 half-block cells, got %d in %q", n, got)
		}
		if !strings.Contains(got, "\x1b[38;2;") || !strings.Contains(got, "\x1b[48;2;") {
			t.Errorf("expected truecolor pair per cell, got %q", got)
		}
	})

	t.Run("reserved lines consumed by painting", func(t *testing.T) {
		r := New(Options{Color: true, Images: true}, zaptest.NewLogger(t))
		r.AddImages([]content.Block{content.Image{ID: "pic", Data: encodeTestPNG(t)}})
		var buf bytes.Buffer
		blank := textLine(layout.Segment{Text: "    "})
		page := pageOf(
			layout.StyledLine{Segments: blank.Segments, Image: &layout.ImagePlacement{ID: "pic", Cols: 4, Rows: 3}},
			blank, blank,
			textLine(layout.Segment{Text: "caption"}),
		)
		if err := r.WritePage(&buf, page); err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected 3 painted rows plus caption, got %d lines: %q", len(lines), lines)
		}
		if !strings.Contains(lines[3], "caption") {
			t.Errorf("caption line lost: %q", lines[3])
		}
	})

	t.Run("unknown image leaves blanks", func(t *testing.T) {
		r := New(Options{Color: true, Images: true}, zaptest.NewLogger(t))
		var buf bytes.Buffer
		page := pageOf(layout.StyledLine{
			Segments: []layout.Segment{{Text: "  "}},
			Image:    &layout.ImagePlacement{ID: "missing", Cols: 2, Rows: 1},
		})
		if err := r.WritePage(&buf, page); err != nil {
			t.Fatal(err)
		}
		if got := buf.String(); got != "  \n" {
			t.Errorf("expected blank placeholder, got %q", got)
		}
	})

	t.Run("images off prints reserved blanks", func(t *testing.T) {
		r := New(Options{Color: true}, zaptest.NewLogger(t))
		r.AddImages([]content.Block{content.Image{ID: "pic", Data: encodeTestPNG(t)}})
		var buf bytes.Buffer
		page := pageOf(layout.StyledLine{
			Segments: []layout.Segment{{Text: "  "}},
			Image:    &layout.ImagePlacement{ID: "pic", Cols: 2, Rows: 1},
		})
		if err := r.WritePage(&buf, page); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(buf.String(), "▀") {
			t.Errorf("expected no painting, got %q", buf.String())
		}
	})
}
