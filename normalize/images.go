package normalize

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"lectern/content"
	"lectern/utils/images"
)

func imageBlock(n *html.Node, images ImageResolver) (content.Block, bool) {
	src := imageSrc(n)
	alt := imageLabel(n)
	w, h := imageDims(n)
	if src == "" {
		text := imageFallbackText(alt, w, h)
		return content.Paragraph{Text: text}, text != ""
	}
	id, data := resolveImage(images, src)
	w, h = probeDims(data, w, h)
	return content.Image{ID: id, Data: data, Alt: alt, Width: w, Height: h}, true
}

// figureBlock pairs the figure's first image with its figcaption. A figure
// without an image degrades to a caption paragraph.
func figureBlock(n *html.Node, ctx *inlineContext, images ImageResolver) (content.Block, bool) {
	var src, alt string
	var w, h int
	if img := findFirst(n, "img"); img != nil {
		src = imageSrc(img)
		alt = imageLabel(img)
		w, h = imageDims(img)
	}
	var caption string
	if fc := findFirst(n, "figcaption"); fc != nil {
		caption = inlineText(fc, ctx)
	}
	if src == "" {
		text := caption
		if text == "" {
			text = alt
		}
		if text == "" {
			text = imageFallbackText("", w, h)
		}
		return content.Paragraph{Text: text}, strings.TrimSpace(text) != ""
	}
	id, data := resolveImage(images, src)
	w, h = probeDims(data, w, h)
	return content.Image{ID: id, Data: data, Alt: alt, Caption: caption, Width: w, Height: h}, true
}

// probeDims fills in missing pixel dimensions from the image data itself.
// Markup attributes, when present, win over the encoded header.
func probeDims(data []byte, w, h int) (int, int) {
	if w > 0 && h > 0 || len(data) == 0 {
		return w, h
	}
	pw, ph, err := images.Dimensions(data)
	if err != nil {
		return w, h
	}
	if w <= 0 {
		w = pw
	}
	if h <= 0 {
		h = ph
	}
	return w, h
}

func resolveImage(images ImageResolver, src string) (string, []byte) {
	if images != nil {
		if id, data, ok := images(src); ok {
			return id, data
		}
	}
	return src, nil
}

// imageSrc returns the image reference with any fragment or query stripped.
func imageSrc(n *html.Node) string {
	var raw string
	for _, key := range []string{"src", "data-src", "data-original"} {
		if raw = strings.TrimSpace(attrValue(n, key)); raw != "" {
			break
		}
	}
	if i := strings.IndexAny(raw, "#?"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

func imageLabel(n *html.Node) string {
	for _, key := range []string{"alt", "title", "aria-label"} {
		if v := normalizeInlineText(attrValue(n, key)); v != "" {
			return v
		}
	}
	return ""
}

func imageDims(n *html.Node) (int, int) {
	return parseDimension(attrValue(n, "width")), parseDimension(attrValue(n, "height"))
}

// parseDimension reads the leading digits of a width/height attribute,
// tolerating suffixes like "480px".
func parseDimension(value string) int {
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n := 0
	for _, c := range value[:end] {
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 0
		}
	}
	return n
}

func imageFallbackText(alt string, w, h int) string {
	if alt = strings.TrimSpace(alt); alt != "" {
		return "Image: " + alt
	}
	if w > 0 && h > 0 {
		return fmt.Sprintf("Image (%dx%d)", w, h)
	}
	return "Image"
}

// imageInlineText stands in for an image that appears mid-sentence, where
// no block can be emitted.
func imageInlineText(n *html.Node) string {
	if label := imageLabel(n); label != "" {
		return label
	}
	if w, h := imageDims(n); w > 0 && h > 0 {
		return fmt.Sprintf("Image (%dx%d)", w, h)
	}
	return "Image"
}
