// Package images probes and decodes book illustrations. The layout engine
// only needs pixel dimensions to size image rows; the renderer needs the
// decoded pixels. Both entry points accept whatever bytes the source
// carried and sniff the format themselves.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Decoders self-register for image.DecodeConfig / image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupported = errors.New("unsupported image format")

// Dimensions returns the pixel width and height of encoded image data
// without decoding the pixels. SVG data reports its viewBox size.
func Dimensions(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrUnsupported
	}
	if IsSVG(data) {
		return svgDimensions(data)
	}
	if !filetype.IsImage(data) {
		return 0, 0, ErrUnsupported
	}
	cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("unable to read %s header: %w", sniffName(data, kind), err)
	}
	return cfg.Width, cfg.Height, nil
}

// Decode turns encoded image data into pixels. SVG data is rasterized at
// its natural size.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrUnsupported
	}
	if IsSVG(data) {
		return RasterizeSVG(data, 0, 0)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode image: %w", err)
	}
	return img, nil
}

func sniffName(data []byte, decoded string) string {
	if decoded != "" {
		return decoded
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.Extension
	}
	return "image"
}
