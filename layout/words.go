package layout

import (
	"strings"

	"lectern/content"
)

// WordToken is one playable unit for word-at-a-time reading. Chapter is the
// running count of chapter separators seen before the word, zero for front
// matter.
type WordToken struct {
	Text        string
	SentenceEnd bool
	Comma       bool
	Chapter     int
}

// ExtractWords flattens blocks into a plain word stream for the speed
// reader: markup is stripped, code blocks and image placeholders are
// skipped, and chapter separators advance the chapter counter instead of
// emitting words.
func ExtractWords(blocks []content.Block) []WordToken {
	var (
		words   []WordToken
		chapter int
	)
	emit := func(text string) {
		for _, word := range strings.Fields(content.StripMarkup(text)) {
			words = append(words, newWordToken(word, chapter))
		}
	}
	for idx, block := range blocks {
		switch b := block.(type) {
		case content.Code:
			continue
		case content.Paragraph:
			cleaned := strings.TrimSpace(content.StripMarkup(b.Text))
			if cleaned == chapterSeparatorGlyph {
				if isChapterSeparator(blocks, idx) {
					chapter++
				}
				continue
			}
			if cleaned == "[image]" {
				continue
			}
			emit(b.Text)
		case content.Heading:
			emit(b.Text)
		case content.List:
			for _, item := range b.Items {
				emit(item)
			}
		case content.Quote:
			emit(b.Text)
		case content.Image:
			if b.Caption != "" {
				emit(b.Caption)
			} else if b.Alt != "" {
				emit(b.Alt)
			}
		case content.Table:
			for _, row := range b.Rows {
				for _, cell := range row {
					emit(cell.Text)
				}
			}
		}
	}
	return words
}

func newWordToken(text string, chapter int) WordToken {
	return WordToken{
		Text:        text,
		SentenceEnd: hasSentenceEndPunct(text),
		Comma:       hasCommaPunct(text),
		Chapter:     chapter,
	}
}

// Trailing closers do not hide the pause-relevant punctuation before them.
func trimClosers(text string) string {
	return strings.TrimRight(text, `)]"'`)
}

func hasSentenceEndPunct(text string) bool {
	trimmed := trimClosers(text)
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?") ||
		strings.HasSuffix(trimmed, ":") ||
		strings.HasSuffix(trimmed, ";")
}

func hasCommaPunct(text string) bool {
	trimmed := trimClosers(text)
	return strings.HasSuffix(trimmed, ",") ||
		strings.HasSuffix(trimmed, "-") ||
		strings.HasSuffix(trimmed, ")")
}
