package normalize

import (
	"strings"

	"golang.org/x/net/html"

	"lectern/content"
)

// tableBlock builds a table from tr/td/th structure. Rows with no visible
// text are dropped; a table with no usable rows degrades to a paragraph of
// its inline text.
func tableBlock(n *html.Node, ctx *inlineContext) (content.Block, bool) {
	var rows [][]content.TableCell
	for _, tr := range findAll(n, "tr") {
		var cells []content.TableCell
		hasText := false
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			tag := strings.ToLower(c.Data)
			if tag != "td" && tag != "th" {
				continue
			}
			text := inlineText(c, ctx)
			if strings.TrimSpace(text) != "" {
				hasText = true
			}
			cells = append(cells, content.TableCell{Text: text, Header: tag == "th"})
		}
		if len(cells) > 0 && hasText {
			rows = append(rows, cells)
		}
	}
	if len(rows) == 0 {
		fallback := inlineText(n, ctx)
		if fallback == "" {
			return nil, false
		}
		return content.Paragraph{Text: fallback}, true
	}
	return content.Table{Rows: rows}, true
}

// definitionListBlock flattens a dl into list items of "term: definition".
func definitionListBlock(n *html.Node, ctx *inlineContext) (content.Block, bool) {
	var items []string
	var term string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch strings.ToLower(c.Data) {
		case "dt":
			if t := inlineText(c, ctx); t != "" {
				term = t
			}
		case "dd":
			def := inlineText(c, ctx)
			if def == "" {
				continue
			}
			if term != "" {
				items = append(items, term+": "+def)
				term = ""
			} else {
				items = append(items, def)
			}
		}
	}
	if len(items) == 0 {
		return nil, false
	}
	return content.List{Items: items}, true
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && strings.ToLower(c.Data) == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}
