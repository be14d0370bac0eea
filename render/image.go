package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"lectern/layout"
	"lectern/utils/images"
)

// paintImage renders the placement as half-block cells, two pixel rows per
// terminal row. Returns the number of page lines consumed; zero means the
// image could not be painted and the reserved lines should print as-is.
func (r *Renderer) paintImage(w io.Writer, p *layout.ImagePlacement, remaining int) (int, error) {
	src, ok := r.decodedImage(p.ID)
	if !ok {
		return 0, nil
	}
	cols := max(p.Cols, 1)
	rows := max(p.Rows, 1)
	// A page break may have cut the reservation short.
	if rows > remaining {
		rows = remaining
	}
	cells := imaging.Resize(src, cols, rows*2, imaging.Lanczos)
	var b strings.Builder
	for y := range rows {
		for x := range cols {
			top := nrgba(cells.At(x, 2*y))
			bottom := nrgba(cells.At(x, 2*y+1))
			fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		b.WriteString("\x1b[0m\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return 0, err
	}
	return rows, nil
}

func (r *Renderer) decodedImage(id string) (image.Image, bool) {
	if img, ok := r.decoded[id]; ok {
		return img, true
	}
	data, ok := r.assets[id]
	if !ok {
		return nil, false
	}
	img, err := images.Decode(data)
	if err != nil {
		r.log.Warn("unable to decode image, leaving placeholder blank",
			zap.String("id", id), zap.Error(err))
		return nil, false
	}
	r.decoded[id] = img
	return img, true
}

func nrgba(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
