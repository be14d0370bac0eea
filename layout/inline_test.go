package layout

import (
	"strings"
	"testing"

	"lectern/content"
)

func lineText(l StyledLine) string {
	var b strings.Builder
	for _, seg := range l.Segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}

func lineTexts(w WrappedLines) []string {
	out := make([]string, 0, len(w.Lines))
	for _, l := range w.Lines {
		out = append(out, lineText(l))
	}
	return out
}

func bold(text string) string {
	var b strings.Builder
	content.OpenStyle(&b, content.StyleBold)
	b.WriteString(text)
	content.CloseStyle(&b, content.StyleBold)
	return b.String()
}

func TestWrapStyled(t *testing.T) {
	t.Run("greedy fill", func(t *testing.T) {
		got := lineTexts(WrapStyled("The quick brown fox jumps.", 10))
		want := []string{"The quick", "brown fox", "jumps."}
		if len(got) != len(want) {
			t.Fatalf("expected %d lines, got %v", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
			}
		}
	})

	t.Run("width bound holds", func(t *testing.T) {
		const width = 7
		wrapped := WrapStyled("several words of differing lengths follow here now", width)
		for i, line := range wrapped.Lines {
			if w := line.Width(); w > width {
				t.Errorf("line %d is %d cells wide, limit %d: %q", i, w, width, lineText(line))
			}
		}
	})

	t.Run("overlong word force split", func(t *testing.T) {
		wrapped := WrapStyled("abcdefghij", 4)
		got := lineTexts(wrapped)
		want := []string{"abcd", "efgh", "ij"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
			}
		}
	})

	t.Run("style survives forced split", func(t *testing.T) {
		wrapped := WrapStyled(bold("abcdef"), 3)
		if len(wrapped.Lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(wrapped.Lines))
		}
		for i, line := range wrapped.Lines {
			for _, seg := range line.Segments {
				if !seg.Style.Bold {
					t.Errorf("line %d: segment %q lost bold", i, seg.Text)
				}
			}
		}
	})

	t.Run("width zero clamps to one", func(t *testing.T) {
		wrapped := WrapStyled("ab", 0)
		got := lineTexts(wrapped)
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("expected [a b], got %v", got)
		}
	})

	t.Run("newline flushes even empty lines", func(t *testing.T) {
		got := lineTexts(WrapStyled("a\n\nb", 10))
		want := []string{"a", "", "b"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
			}
		}
	})

	t.Run("consecutive spaces collapse", func(t *testing.T) {
		got := lineTexts(WrapStyled("a    b", 10))
		if len(got) != 1 || got[0] != "a b" {
			t.Errorf("expected [a b], got %v", got)
		}
	})

	t.Run("anchors attach to their line", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("first second ")
		content.WriteAnchor(&b, "mark")
		b.WriteString("third")
		wrapped := WrapStyled(b.String(), 6)
		found := -1
		for i, anchors := range wrapped.Anchors {
			for _, a := range anchors {
				if a == "mark" {
					found = i
				}
			}
		}
		if found < 0 {
			t.Fatal("anchor lost during wrapping")
		}
		// The anchor arrives while the "second" line is still being built,
		// so it travels with that line.
		if !strings.Contains(lineText(wrapped.Lines[found]), "second") {
			t.Errorf("anchor attached to %q, expected the line holding \"second\"", lineText(wrapped.Lines[found]))
		}
	})

	t.Run("link carries across wrap", func(t *testing.T) {
		var b strings.Builder
		content.OpenLink(&b, "ch2.xhtml#n1")
		b.WriteString("linked words here")
		content.CloseLink(&b)
		wrapped := WrapStyled(b.String(), 7)
		for i, line := range wrapped.Lines {
			for _, seg := range line.Segments {
				if strings.TrimSpace(seg.Text) == "" {
					continue
				}
				if seg.Link != "ch2.xhtml#n1" {
					t.Errorf("line %d: segment %q lost its link", i, seg.Text)
				}
			}
		}
	})

	t.Run("round trip stripping", func(t *testing.T) {
		src := bold("Some") + " mixed " + bold("styled") + " text that wraps"
		wrapped := WrapStyled(src, 9)
		var joined []string
		for _, line := range wrapped.Lines {
			joined = append(joined, lineText(line))
		}
		got := strings.Join(strings.Fields(strings.Join(joined, " ")), " ")
		want := strings.Join(strings.Fields(content.StripMarkup(src)), " ")
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestParseInlineMalformed(t *testing.T) {
	t.Run("invalid style code stays literal", func(t *testing.T) {
		in := "a" + string(rune(content.StyleStart)) + "zb"
		segs, _ := SegmentsFromText(in)
		if len(segs) != 1 || segs[0].Text != in {
			t.Errorf("expected verbatim %q, got %+v", in, segs)
		}
	})

	t.Run("dangling style marker stays literal", func(t *testing.T) {
		in := "ab" + string(rune(content.StyleStart))
		segs, _ := SegmentsFromText(in)
		if len(segs) != 1 || segs[0].Text != in {
			t.Errorf("expected verbatim %q, got %+v", in, segs)
		}
	})

	t.Run("unterminated anchor stays literal", func(t *testing.T) {
		in := "ab " + string(rune(content.AnchorStart)) + "name"
		segs, _ := SegmentsFromText(in)
		if len(segs) != 1 || segs[0].Text != in {
			t.Errorf("expected verbatim %q, got %+v", in, segs)
		}
	})

	t.Run("unmatched close saturates", func(t *testing.T) {
		var b strings.Builder
		content.CloseStyle(&b, content.StyleBold) // close without open
		b.WriteString("plain")
		segs, _ := SegmentsFromText(b.String())
		if len(segs) != 1 || segs[0].Style.Bold {
			t.Errorf("saturating close leaked style: %+v", segs)
		}
	})

	t.Run("nested identical styles compose", func(t *testing.T) {
		var b strings.Builder
		content.OpenStyle(&b, content.StyleBold)
		content.OpenStyle(&b, content.StyleBold)
		b.WriteString("in")
		content.CloseStyle(&b, content.StyleBold)
		b.WriteString("still")
		content.CloseStyle(&b, content.StyleBold)
		b.WriteString("out")
		segs, _ := SegmentsFromText(b.String())
		if len(segs) != 2 {
			t.Fatalf("expected 2 segments, got %+v", segs)
		}
		if segs[0].Text != "instill" || !segs[0].Style.Bold {
			t.Errorf("expected bold \"instill\", got %+v", segs[0])
		}
		if segs[1].Text != "out" || segs[1].Style.Bold {
			t.Errorf("expected plain \"out\", got %+v", segs[1])
		}
	})

	t.Run("code style is dim and reverse", func(t *testing.T) {
		var b strings.Builder
		content.OpenStyle(&b, content.StyleCode)
		b.WriteString("x")
		content.CloseStyle(&b, content.StyleCode)
		segs, _ := SegmentsFromText(b.String())
		if len(segs) != 1 || !segs[0].Style.Dim || !segs[0].Style.Reverse {
			t.Errorf("code span should be dim+reverse, got %+v", segs)
		}
	})
}

func TestJustifyLine(t *testing.T) {
	wrap1 := func(text string, width int) StyledLine {
		return WrapStyled(text, width).Lines[0]
	}

	t.Run("fills exactly to width", func(t *testing.T) {
		line := wrap1("one two three four", 18) // 18 cells, fits in one line
		justified := JustifyLine(line, 24)
		if w := justified.Width(); w != 24 {
			t.Errorf("expected width 24, got %d: %q", w, lineText(justified))
		}
	})

	t.Run("earlier gaps grow first", func(t *testing.T) {
		line := wrap1("aa bb cc dd", 11)
		justified := JustifyLine(line, 13) // 2 extra over 3 gaps
		if got := lineText(justified); got != "aa  bb  cc dd" {
			t.Errorf("expected %q, got %q", "aa  bb  cc dd", got)
		}
	})

	t.Run("skips full lines", func(t *testing.T) {
		line := wrap1("exactly nine", 12)
		if got := JustifyLine(line, 12); lineText(got) != lineText(line) {
			t.Errorf("full line changed: %q", lineText(got))
		}
	})

	t.Run("skips lines under 70 percent", func(t *testing.T) {
		line := wrap1("a b c d", 7) // 7 cells
		if got := JustifyLine(line, 20); lineText(got) != "a b c d" {
			t.Errorf("short line was padded: %q", lineText(got))
		}
	})

	t.Run("skips lines with fewer than three gaps", func(t *testing.T) {
		line := wrap1("oneword twoword", 15)
		if got := JustifyLine(line, 17); lineText(got) != "oneword twoword" {
			t.Errorf("two-word line was padded: %q", lineText(got))
		}
	})
}

func TestClipSegments(t *testing.T) {
	segs, _ := SegmentsFromText("abcdefgh")
	clipped := clipSegments(segs, 5)
	if got := lineText(clipped); got != "abcde…" {
		t.Errorf("expected %q, got %q", "abcde…", got)
	}

	short, _ := SegmentsFromText("abc")
	kept := clipSegments(short, 5)
	if got := lineText(kept); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
}
