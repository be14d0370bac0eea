// Package normalize converts HTML markup into the flat block model the
// layout engine consumes. Block-level elements become typed blocks, inline
// formatting is folded into the block text as marker-delimited spans (see
// package content), and whitespace is collapsed the way a renderer would.
package normalize

import (
	"strings"

	"golang.org/x/net/html"

	"lectern/content"
)

// chapterBreakGlyph is the paragraph text recognized downstream as a
// chapter separator when flanked by empty paragraphs.
const chapterBreakGlyph = "───"

// ImageResolver maps an image src reference to a stable asset ID and its
// raw bytes. Returning ok=false leaves the reference unresolved; the block
// then carries the src itself as ID and no data.
type ImageResolver func(src string) (id string, data []byte, ok bool)

// LinkResolver maps an internal href to an anchor target understood by the
// paginator. Returning ok=false drops the link and keeps its label text.
type LinkResolver func(href string) (target string, ok bool)

// Blocks parses HTML and returns its content blocks. Links stay as plain
// text and image references stay unresolved.
func Blocks(src string) []content.Block {
	return BlocksWithAssets(src, "", nil, nil)
}

// BlocksWithAssets parses HTML with asset resolution. anchorPrefix
// namespaces anchor targets so identical IDs from different source files
// stay distinct.
func BlocksWithAssets(src, anchorPrefix string, images ImageResolver, links LinkResolver) []content.Block {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		// html.Parse recovers from malformed markup on its own; an error
		// surfaces only when the underlying reader fails.
		return nil
	}
	ctx := &inlineContext{links: links, anchorPrefix: anchorPrefix}
	var blocks []content.Block
	collect(doc, &blocks, ctx, images)
	if len(blocks) == 0 {
		// No recognizable structure at all. Keep whatever text there is.
		if text := normalizeInlineText(textContent(doc)); text != "" {
			blocks = append(blocks, content.Paragraph{Text: text})
		}
	}
	return blocks
}

// collect walks siblings under n, turning block elements into blocks and
// accumulating loose inline content into synthetic paragraphs.
func collect(n *html.Node, out *[]content.Block, ctx *inlineContext, images ImageResolver) {
	var pending strings.Builder
	flush := func() {
		raw := pending.String()
		pending.Reset()
		if strings.TrimSpace(raw) == "" {
			return
		}
		if text := normalizeInlineText(raw); text != "" {
			*out = append(*out, content.Paragraph{Text: text})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			pending.WriteString(c.Data)
			continue
		case html.ElementNode:
		default:
			continue
		}
		tag := strings.ToLower(c.Data)
		if tag == "hr" {
			flush()
			*out = append(*out,
				content.Paragraph{},
				content.Paragraph{Text: chapterBreakGlyph},
				content.Paragraph{})
			continue
		}
		if block, ok := extractBlock(c, ctx, images); ok {
			flush()
			*out = append(*out, block)
			continue
		}
		if skippableTag(tag) {
			continue
		}
		if inlineTag(tag) {
			appendInline(c, &pending, ctx, false)
			continue
		}
		flush()
		collect(c, out, ctx, images)
	}
	flush()
}

func extractBlock(n *html.Node, ctx *inlineContext, images ImageResolver) (content.Block, bool) {
	tag := strings.ToLower(n.Data)
	if lvl := headingLevel(tag); lvl > 0 {
		text := inlineText(n, ctx)
		if text == "" {
			return nil, false
		}
		return content.Heading{Text: text, Level: lvl}, true
	}
	switch tag {
	case "p":
		text := inlineText(n, ctx)
		if text == "" {
			return nil, false
		}
		return content.Paragraph{Text: text}, true
	case "blockquote", "aside":
		text := inlineText(n, ctx)
		if text == "" {
			return nil, false
		}
		return content.Quote{Text: text}, true
	case "ul", "ol":
		var items []string
		for li := n.FirstChild; li != nil; li = li.NextSibling {
			if li.Type == html.ElementNode && strings.ToLower(li.Data) == "li" {
				if text := listItemText(li, ctx); text != "" {
					items = append(items, text)
				}
			}
		}
		if len(items) == 0 {
			return nil, false
		}
		return content.List{Items: items}, true
	case "pre":
		var lang, text string
		if code := findFirst(n, "code"); code != nil {
			lang = codeLang(attrValue(code, "class"))
			text = textContent(code)
		} else {
			text = textContent(n)
		}
		return content.Code{Lang: lang, Text: text}, true
	case "img":
		return imageBlock(n, images)
	case "figure":
		return figureBlock(n, ctx, images)
	case "table":
		return tableBlock(n, ctx)
	case "dl":
		return definitionListBlock(n, ctx)
	case "math":
		return content.Paragraph{Text: "[math]"}, true
	case "svg":
		return content.Paragraph{Text: "[svg]"}, true
	}
	return nil, false
}

func headingLevel(tag string) int {
	if len(tag) != 2 || tag[0] != 'h' || tag[1] < '1' || tag[1] > '9' {
		return 0
	}
	return min(int(tag[1]-'0'), 6)
}

// codeLang extracts a highlighter language from a <code> class attribute,
// honoring the common language-* and lang-* conventions.
func codeLang(class string) string {
	for _, token := range strings.Fields(class) {
		token = strings.ToLower(token)
		if lang, ok := strings.CutPrefix(token, "language-"); ok {
			return lang
		}
		if lang, ok := strings.CutPrefix(token, "lang-"); ok {
			return lang
		}
	}
	if fields := strings.Fields(class); len(fields) == 1 {
		return strings.ToLower(fields[0])
	}
	return ""
}

func skippableTag(tag string) bool {
	switch tag {
	case "head", "meta", "link", "script", "style", "noscript":
		return true
	}
	return false
}

func inlineTag(tag string) bool {
	switch tag {
	case "a", "abbr", "b", "br", "cite", "code", "del", "em", "i", "kbd",
		"mark", "q", "s", "samp", "small", "span", "strike", "strong",
		"sub", "sup", "u":
		return true
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.ToLower(a.Key) == key {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && strings.ToLower(c.Data) == tag {
			return c
		}
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
