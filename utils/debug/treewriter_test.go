package debug

import (
	"testing"
)

func TestTreeWriter(t *testing.T) {
	t.Run("line indentation", func(t *testing.T) {
		tw := NewTreeWriter()
		tw.Line(0, "root")
		tw.Line(1, "child %d", 1)
		tw.Line(2, "grandchild")
		want := "root\n  child 1\n    grandchild\n"
		if got := tw.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	})

	t.Run("text block quotes the value", func(t *testing.T) {
		tw := NewTreeWriter()
		tw.TextBlock(1, "text", "a\x1eb\nc")
		want := "  text: \"a\\x1eb\\nc\"\n"
		if got := tw.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	})

	t.Run("empty value stays empty", func(t *testing.T) {
		tw := NewTreeWriter()
		tw.TextBlock(0, "text", "")
		if got := tw.String(); got != "text: \n" {
			t.Errorf("String() = %q", got)
		}
	})
}
