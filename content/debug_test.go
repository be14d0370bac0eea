package content

import (
	"strings"
	"testing"
)

func TestDump(t *testing.T) {
	blocks := []Block{
		Heading{Text: "Title", Level: 1},
		Paragraph{Text: "with " + string(StyleStart) + string(StyleBold) + "bold" + string(StyleEnd) + string(StyleBold) + " text"},
		List{Items: []string{"one", "two"}},
		Table{Rows: [][]TableCell{{{Text: "Name", Header: true}}, {{Text: "value"}}}},
		Image{ID: "cover", Width: 120, Height: 80, Alt: "Cover art"},
	}

	out := Dump(blocks)

	for _, want := range []string{
		"Document: 5 block(s)",
		"[0] Heading h1",
		"[1] Paragraph",
		"List: 2 item(s)",
		"Table: 2 row(s)",
		`th: "Name"`,
		`Image["cover"] 120x80`,
		`alt: "Cover art"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump is missing %q:\n%s", want, out)
		}
	}

	// marker bytes must come out escaped, not raw
	if strings.ContainsRune(out, StyleStart) {
		t.Errorf("dump leaked raw marker characters:\n%s", out)
	}
	if !strings.Contains(out, `\x1e`) {
		t.Errorf("expected escaped markers in dump:\n%s", out)
	}
}
