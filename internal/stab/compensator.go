package stab

import (
	"fmt"
	"image"
)

// BorderZoom is the fixed zoom-in applied after the corrective warp to push
// the border artifacts it introduces outside the visible frame.
const BorderZoom = 1.04

// Warper executes a 2x3 affine transform on an image buffer, producing an
// output of the given dimensions. Areas outside the source bounds take the
// implementation's default border fill.
type Warper interface {
	WarpAffine(src image.Image, m Affine2x3, width, height int) (*image.RGBA, error)
}

// Compensator applies stored corrective transforms to frames at render
// time. It holds a read-only Data table; once loaded and no longer being
// mutated, Compensate is safe to call concurrently across frame indices.
type Compensator struct {
	data   *Data
	warper Warper
}

// NewCompensator returns a compensator over the given stabilization data.
func NewCompensator(data *Data, warper Warper) *Compensator {
	return &Compensator{data: data, warper: warper}
}

// Compensate warps one frame onto the smoothed trajectory: rotation by the
// stored da and translation by (dx, dy), followed by the fixed border zoom.
// Output dimensions match the input. Requesting a frame index that was never
// analyzed is an error.
func (c *Compensator) Compensate(img image.Image, frame int) (*image.RGBA, error) {
	correction, err := c.data.Correction(frame)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	stabilized, err := c.warper.WarpAffine(img, AffineFromTransform(correction), w, h)
	if err != nil {
		return nil, fmt.Errorf("warping frame %d: %w", frame, err)
	}

	zoom := ScaleAboutCenter(float64(w)/2, float64(h)/2, BorderZoom)
	zoomed, err := c.warper.WarpAffine(stabilized, zoom, w, h)
	if err != nil {
		return nil, fmt.Errorf("zooming frame %d: %w", frame, err)
	}
	return zoomed, nil
}
