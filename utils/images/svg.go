package images

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultSVGSize stands in when the viewBox carries no usable size.
const defaultSVGSize = 1024

// maxRasterDim caps rasterization output per axis. A hostile viewBox like
// "0 0 100000 100000" would otherwise ask for a multi-gigabyte buffer.
const maxRasterDim = 8192

// IsSVG sniffs SVG data. filetype has no matcher for it, a cheap scan of
// the leading bytes is enough for data that already passed the normalizer.
func IsSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg")) || bytes.Contains(head, []byte("<?xml")) && bytes.Contains(data, []byte("<svg"))
}

func svgDimensions(data []byte) (int, int, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("unable to parse SVG: %w", err)
	}
	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		w, h = defaultSVGSize, defaultSVGSize
	}
	return w, h, nil
}

// RasterizeSVG renders SVG data into an RGBA image. With both targets zero
// the viewBox size is used; with one target set the other follows the
// aspect ratio; with both set the image is fit inside the box.
func RasterizeSVG(data []byte, targetW, targetH int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to parse SVG: %w", err)
	}

	srcW, srcH := icon.ViewBox.W, icon.ViewBox.H
	if srcW <= 0 || srcH <= 0 {
		srcW, srcH = defaultSVGSize, defaultSVGSize
	}
	var w, h int
	switch {
	case targetW <= 0 && targetH <= 0:
		w, h = int(math.Ceil(srcW)), int(math.Ceil(srcH))
	case targetW <= 0:
		h = targetH
		w = int(math.Ceil(float64(targetH) * srcW / srcH))
	case targetH <= 0:
		w = targetW
		h = int(math.Ceil(float64(targetW) * srcH / srcW))
	default:
		scale := math.Min(float64(targetW)/srcW, float64(targetH)/srcH)
		w = int(math.Ceil(srcW * scale))
		h = int(math.Ceil(srcH * scale))
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w > maxRasterDim || h > maxRasterDim {
		scale := math.Min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return img, nil
}
