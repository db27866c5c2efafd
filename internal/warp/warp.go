// Package warp executes affine transforms on image buffers. It implements
// the stab.Warper boundary with golang.org/x/image/draw resampling, and
// provides the grayscale conversion used on the motion-estimation side.
package warp

import (
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/steadyframe/stabilize/internal/stab"
)

// Affine warps images with bilinear resampling. The zero value is ready to
// use and safe for concurrent calls.
type Affine struct{}

// WarpAffine applies m (a forward source-to-destination matrix) to src,
// producing a width x height RGBA buffer. Destination pixels with no source
// coverage stay transparent black, the library's default border fill.
func (Affine) WarpAffine(src image.Image, m stab.Affine2x3, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid warp output size %dx%d", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Transform(dst, f64.Aff3{
		m[0], m[1], m[2],
		m[3], m[4], m[5],
	}, src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// Grayscale converts any image to an 8-bit grayscale buffer anchored at the
// origin, the view the motion estimator consumes.
func Grayscale(src image.Image) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}
