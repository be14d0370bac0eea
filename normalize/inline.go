package normalize

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"

	"lectern/content"
)

type inlineContext struct {
	links        LinkResolver
	anchorPrefix string
}

// inlineText flattens the inline content of n into a normalized string
// with formatting markers embedded.
func inlineText(n *html.Node, ctx *inlineContext) string {
	var b strings.Builder
	appendInline(n, &b, ctx, false)
	return normalizeInlineText(b.String())
}

// listItemText is inlineText minus nested lists, which render as their own
// items and would otherwise duplicate into the parent item.
func listItemText(n *html.Node, ctx *inlineContext) string {
	var b strings.Builder
	appendInline(n, &b, ctx, true)
	return normalizeInlineText(b.String())
}

func appendInline(n *html.Node, out *strings.Builder, ctx *inlineContext, skipLists bool) {
	switch n.Type {
	case html.TextNode:
		out.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		appendChildren(n, out, ctx, skipLists)
		return
	}
	if anchor := anchorID(n); anchor != "" {
		writeAnchorTarget(out, anchor, ctx.anchorPrefix)
	}
	tag := strings.ToLower(n.Data)
	if skipLists && (tag == "ul" || tag == "ol") {
		return
	}
	switch tag {
	case "br":
		out.WriteRune(content.LineBreak)
	case "a":
		appendLink(n, out, ctx, skipLists)
	case "img":
		out.WriteString(imageInlineText(n))
	case "em", "i":
		appendStyled(n, out, ctx, skipLists, content.StyleItalic)
	case "strong", "b":
		appendStyled(n, out, ctx, skipLists, content.StyleBold)
	case "code", "kbd", "samp":
		appendStyled(n, out, ctx, skipLists, content.StyleCode)
	case "del", "s", "strike":
		appendStyled(n, out, ctx, skipLists, content.StyleStrike)
	case "u":
		appendStyled(n, out, ctx, skipLists, content.StyleUnderline)
	case "span":
		if codes := spanStyleCodes(n); len(codes) > 0 {
			appendStyled(n, out, ctx, skipLists, codes...)
		} else {
			appendChildren(n, out, ctx, skipLists)
		}
	case "sup":
		appendBracketed(n, out, ctx, skipLists, "^{", "}")
	case "sub":
		appendBracketed(n, out, ctx, skipLists, "_{", "}")
	case "abbr":
		appendAbbr(n, out, ctx, skipLists)
	case "math":
		appendPlaceholder(n, out, ctx, skipLists, "[math]")
	case "svg":
		appendPlaceholder(n, out, ctx, skipLists, "[svg]")
	default:
		appendChildren(n, out, ctx, skipLists)
	}
}

func appendChildren(n *html.Node, out *strings.Builder, ctx *inlineContext, skipLists bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendInline(c, out, ctx, skipLists)
	}
}

func collectChildren(n *html.Node, ctx *inlineContext, skipLists bool) string {
	var b strings.Builder
	appendChildren(n, &b, ctx, skipLists)
	return normalizeInlineText(b.String())
}

func appendStyled(n *html.Node, out *strings.Builder, ctx *inlineContext, skipLists bool, codes ...rune) {
	label := collectChildren(n, ctx, skipLists)
	if label == "" {
		return
	}
	for _, code := range codes {
		content.OpenStyle(out, code)
	}
	out.WriteString(label)
	for i := len(codes) - 1; i >= 0; i-- {
		content.CloseStyle(out, codes[i])
	}
}

func appendBracketed(n *html.Node, out *strings.Builder, ctx *inlineContext, skipLists bool, prefix, suffix string) {
	label := collectChildren(n, ctx, skipLists)
	if label == "" {
		return
	}
	out.WriteString(prefix)
	out.WriteString(label)
	out.WriteString(suffix)
}

func appendPlaceholder(n *html.Node, out *strings.Builder, ctx *inlineContext, skipLists bool, placeholder string) {
	if label := collectChildren(n, ctx, skipLists); label != "" {
		out.WriteString(label)
		return
	}
	out.WriteString(placeholder)
}

// appendLink wraps the label in link markers when the href resolves to an
// internal target. External links keep the label and append the URL so it
// stays reachable on paper-like output.
func appendLink(n *html.Node, out *strings.Builder, ctx *inlineContext, skipLists bool) {
	label := collectChildren(n, ctx, skipLists)
	href := attrValue(n, "href")
	if label == "" {
		out.WriteString(href)
		return
	}
	if href != "" {
		if !externalHref(href) && ctx.links != nil {
			if target, ok := ctx.links(strings.TrimSpace(href)); ok {
				if target = strings.TrimSpace(target); target != "" {
					content.OpenLink(out, target)
					out.WriteString(label)
					content.CloseLink(out)
					return
				}
			}
		}
		if externalHref(href) && !strings.Contains(label, href) {
			out.WriteString(label)
			out.WriteString(" (")
			out.WriteString(href)
			out.WriteString(")")
			return
		}
	}
	out.WriteString(label)
}

func appendAbbr(n *html.Node, out *strings.Builder, ctx *inlineContext, skipLists bool) {
	label := collectChildren(n, ctx, skipLists)
	if label == "" {
		return
	}
	out.WriteString(label)
	if title := normalizeInlineText(attrValue(n, "title")); title != "" && !strings.Contains(label, title) {
		out.WriteString(" (")
		out.WriteString(title)
		out.WriteString(")")
	}
}

func anchorID(n *html.Node) string {
	for _, key := range []string{"id", "name", "xml:id"} {
		if v := strings.TrimSpace(attrValue(n, key)); v != "" {
			return v
		}
	}
	return ""
}

func writeAnchorTarget(out *strings.Builder, anchor, prefix string) {
	anchor = strings.TrimSpace(strings.TrimPrefix(anchor, "#"))
	if anchor == "" {
		return
	}
	content.WriteAnchor(out, prefix+"#"+anchor)
}

func externalHref(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:")
}

// spanStyleCodes derives style codes from a span's style and class
// attributes. Only the handful of properties that survive a terminal
// rendering are honored.
func spanStyleCodes(n *html.Node) []rune {
	var codes []rune
	add := func(code rune) {
		if !slices.Contains(codes, code) {
			codes = append(codes, code)
		}
	}
	if style := attrValue(n, "style"); style != "" {
		decls := styleDeclarations(style)
		if strings.Contains(decls["font-style"], "italic") {
			add(content.StyleItalic)
		}
		if boldWeight(decls["font-weight"]) {
			add(content.StyleBold)
		}
		if strings.Contains(decls["text-decoration"], "underline") ||
			strings.Contains(decls["text-decoration-line"], "underline") {
			add(content.StyleUnderline)
		}
		if strings.Contains(decls["font-variant"], "small-caps") ||
			strings.Contains(decls["font-variant-caps"], "small-caps") {
			add(content.StyleSmallCaps)
		}
	}
	if class := strings.ToLower(attrValue(n, "class")); class != "" {
		if strings.Contains(class, "small-caps") ||
			strings.Contains(class, "smallcaps") ||
			strings.Contains(class, "small_caps") ||
			strings.Contains(class, "smcap") {
			add(content.StyleSmallCaps)
		}
	}
	return codes
}

// styleDeclarations tokenizes an inline style attribute into a
// property/value map. Properties and values come back lowercased.
func styleDeclarations(style string) map[string]string {
	decls := make(map[string]string)
	parser := css.NewParser(parse.NewInput(strings.NewReader(style)), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return decls
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			var val strings.Builder
			for _, tok := range parser.Values() {
				val.Write(tok.Data)
			}
			decls[strings.ToLower(string(data))] = strings.ToLower(strings.TrimSpace(val.String()))
		}
	}
}

func boldWeight(val string) bool {
	switch strings.TrimSpace(val) {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

var invisibleReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\r", "",
	"\u200b", "", "\u200c", "", "\u200d", "", "\u200e", "", "\u200f", "",
	"\u2028", " ", "\u2029", " ",
	"\ufeff", "",
)

// normalizeInlineText collapses whitespace in accumulated inline text and
// rewrites explicit break markers into real newlines.
func normalizeInlineText(s string) string {
	s = invisibleReplacer.Replace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, string(content.LineBreak), "\n")
	return normalizeLines(s)
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = normalizeLine(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// normalizeLine collapses runs of whitespace, drops soft hyphens, pulls
// closing punctuation back onto the preceding word, and rejoins words the
// source hyphenated across line breaks.
func normalizeLine(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	lastSpace := false
	for _, ch := range s {
		switch {
		case ch == '\u00ad': // soft hyphen
		case unicode.IsSpace(ch):
			if !lastSpace {
				out.WriteRune(' ')
			}
			lastSpace = true
		default:
			out.WriteRune(ch)
			lastSpace = false
		}
	}
	cleaned := stripSpaceBeforePunct(out.String())
	return strings.TrimSpace(dehyphenate(cleaned))
}

func stripSpaceBeforePunct(s string) string {
	var out []rune
	prevSpace := false
	for _, ch := range s {
		switch {
		case strings.ContainsRune(",.;:!?)]\u201d", ch):
			if prevSpace {
				out = out[:len(out)-1]
			}
			out = append(out, ch)
			prevSpace = false
		case unicode.IsSpace(ch):
			if !prevSpace {
				out = append(out, ' ')
				prevSpace = true
			}
		default:
			out = append(out, ch)
			prevSpace = false
		}
	}
	return string(out)
}

// dehyphenate joins "some- thing" back into "something" when the
// continuation starts lowercase, undoing hard line-break hyphenation.
func dehyphenate(s string) string {
	tokens := strings.Split(s, " ")
	if len(tokens) < 2 {
		return s
	}
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if strings.HasSuffix(tok, "-") && i+1 < len(tokens) {
			next := tokens[i+1]
			if r, _ := utf8.DecodeRuneInString(next); unicode.IsLower(r) {
				out = append(out, strings.TrimRight(tok, "-")+next)
				i++
				continue
			}
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}
