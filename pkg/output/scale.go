package output

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// Scale enlarges img by an integer factor. Smooth uses Catmull-Rom filtering;
// otherwise pixels are replicated with nearest-neighbor sampling.
func Scale(img image.Image, factor int, smooth bool) (*image.RGBA, error) {
	if factor < 1 {
		return nil, fmt.Errorf("output: scale factor must be at least 1, got %d", factor)
	}

	src := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, src.Dx()*factor, src.Dy()*factor))

	var scaler xdraw.Scaler = xdraw.NearestNeighbor
	if smooth {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)

	return dst, nil
}
