package estimate

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// patternAt is a deterministic, feature-rich test texture.
func patternAt(x, y int) uint8 {
	return uint8((x*7 + y*13 + (x*y)%31) % 251)
}

// shiftedFrame builds a w x h frame whose content is the base pattern
// displaced by (dx, dy) with wraparound, so the true shift is exact.
func shiftedFrame(w, h, dx, dy int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := ((x-dx)%w + w) % w
			sy := ((y-dy)%h + h) % h
			img.SetGray(x, y, color.Gray{Y: patternAt(sx, sy)})
		}
	}
	return img
}

func TestEstimate_RecoversTranslation(t *testing.T) {
	t.Parallel()

	prev := shiftedFrame(64, 64, 0, 0)
	cur := shiftedFrame(64, 64, 5, -3)

	got, ok := New(DefaultConfig()).Estimate(prev, cur)
	require.True(t, ok)
	assert.Equal(t, 5.0, got.Dx)
	assert.Equal(t, -3.0, got.Dy)
	assert.Zero(t, got.Da)
}

func TestEstimate_IdenticalFrames(t *testing.T) {
	t.Parallel()

	prev := shiftedFrame(32, 32, 0, 0)
	cur := shiftedFrame(32, 32, 0, 0)

	got, ok := New(DefaultConfig()).Estimate(prev, cur)
	require.True(t, ok)
	assert.Zero(t, got.Dx)
	assert.Zero(t, got.Dy)
}

func TestEstimate_FlatFramesRejected(t *testing.T) {
	t.Parallel()

	prev := image.NewGray(image.Rect(0, 0, 32, 32))
	cur := image.NewGray(image.Rect(0, 0, 32, 32))

	_, ok := New(DefaultConfig()).Estimate(prev, cur)
	assert.False(t, ok, "featureless frames carry no reliable shift")
}

func TestEstimate_SizeMismatchRejected(t *testing.T) {
	t.Parallel()

	prev := image.NewGray(image.Rect(0, 0, 32, 32))
	cur := image.NewGray(image.Rect(0, 0, 16, 32))

	_, ok := New(DefaultConfig()).Estimate(prev, cur)
	assert.False(t, ok)
}

func TestEstimate_DownsampledLargeFrames(t *testing.T) {
	t.Parallel()

	// 512px frames exceed MaxDim 256, so the estimator strides by 2 and
	// can only recover even shifts exactly.
	prev := shiftedFrame(512, 128, 0, 0)
	cur := shiftedFrame(512, 128, 8, 4)

	got, ok := New(DefaultConfig()).Estimate(prev, cur)
	require.True(t, ok)
	assert.Equal(t, 8.0, got.Dx)
	assert.Equal(t, 4.0, got.Dy)
}
