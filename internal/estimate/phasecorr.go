// Package estimate provides a default motion estimator for the analysis
// pipeline: translation-only phase correlation over grayscale frames.
//
// It is deliberately coarse (no rotation term, downsampled input) and exists
// so clips can be analyzed without an external vision library; any estimator
// implementing stab.MotionEstimator can replace it.
package estimate

import (
	"image"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/steadyframe/stabilize/internal/stab"
)

// Config holds estimator tuning parameters.
type Config struct {
	// MaxDim caps the processed image dimension; larger frames are
	// stride-sampled down to it. Recovered shifts are scaled back up.
	MaxDim int
	// PeakThreshold is the minimum normalized correlation peak accepted as
	// a reliable estimate. Identical frames score 1.0; featureless or
	// unrelated frames score near zero.
	PeakThreshold float64
}

// DefaultConfig returns the default estimator configuration.
func DefaultConfig() Config {
	return Config{
		MaxDim:        256,
		PeakThreshold: 0.03,
	}
}

// PhaseCorrelation estimates frame-to-frame translation from the peak of
// the normalized cross-power spectrum of two frames. Rotation is not
// recovered (Da is always zero).
type PhaseCorrelation struct {
	cfg Config
}

// New returns a phase-correlation estimator. Zero config fields fall back
// to defaults.
func New(cfg Config) *PhaseCorrelation {
	def := DefaultConfig()
	if cfg.MaxDim <= 0 {
		cfg.MaxDim = def.MaxDim
	}
	if cfg.PeakThreshold <= 0 {
		cfg.PeakThreshold = def.PeakThreshold
	}
	return &PhaseCorrelation{cfg: cfg}
}

// Estimate implements stab.MotionEstimator. ok is false when the frames
// differ in size or the correlation peak is below the configured threshold.
func (p *PhaseCorrelation) Estimate(prev, cur *image.Gray) (stab.RelativeTransform, bool) {
	pw, ph := prev.Bounds().Dx(), prev.Bounds().Dy()
	cw, ch := cur.Bounds().Dx(), cur.Bounds().Dy()
	if pw != cw || ph != ch || pw == 0 || ph == 0 {
		return stab.RelativeTransform{}, false
	}

	stride := 1
	for max(pw, ph)/stride > p.cfg.MaxDim {
		stride++
	}
	w, h := pw/stride, ph/stride
	if w < 2 || h < 2 {
		return stab.RelativeTransform{}, false
	}

	fPrev := spectrum(sample(prev, w, h, stride), w, h)
	fCur := spectrum(sample(cur, w, h, stride), w, h)

	// Normalized cross-power spectrum: phase difference only, so the
	// inverse transform concentrates into a delta at the shift.
	const eps = 1e-12
	cross := make([]complex128, w*h)
	for i := range cross {
		v := fCur[i] * cmplx.Conj(fPrev[i])
		if m := cmplx.Abs(v); m > eps {
			cross[i] = v / complex(m, 0)
		}
	}
	corr := inverseSpectrum(cross, w, h)

	peak := 0.0
	peakX, peakY := 0, 0
	n := float64(w * h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if v := real(corr[y*w+x]) / n; v > peak {
				peak = v
				peakX, peakY = x, y
			}
		}
	}
	if peak < p.cfg.PeakThreshold {
		return stab.RelativeTransform{}, false
	}

	// Peak indices wrap: the upper half encodes negative shifts.
	dx, dy := peakX, peakY
	if dx > w/2 {
		dx -= w
	}
	if dy > h/2 {
		dy -= h
	}

	return stab.RelativeTransform{
		Dx: float64(dx * stride),
		Dy: float64(dy * stride),
	}, true
}

// sample extracts a stride-decimated float image as a row-major grid.
func sample(img *image.Gray, w, h, stride int) []float64 {
	min := img.Bounds().Min
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(img.GrayAt(min.X+x*stride, min.Y+y*stride).Y)
		}
	}
	return out
}

// spectrum computes the 2-D DFT of a row-major real grid: FFT along rows,
// then along columns.
func spectrum(grid []float64, w, h int) []complex128 {
	out := make([]complex128, w*h)
	for i, v := range grid {
		out[i] = complex(v, 0)
	}
	fftRows(out, w, h)
	return out
}

// inverseSpectrum computes the unnormalized 2-D inverse DFT in place and
// returns its argument.
func inverseSpectrum(freq []complex128, w, h int) []complex128 {
	// IFFT(x) = conj(FFT(conj(x))); normalization is left to the caller.
	for i := range freq {
		freq[i] = cmplx.Conj(freq[i])
	}
	fftRows(freq, w, h)
	for i := range freq {
		freq[i] = cmplx.Conj(freq[i])
	}
	return freq
}

func fftRows(data []complex128, w, h int) {
	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		copy(row, data[y*w:(y+1)*w])
		rowFFT.Coefficients(data[y*w:(y+1)*w], row)
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	colOut := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = data[y*w+x]
		}
		colFFT.Coefficients(colOut, col)
		for y := 0; y < h; y++ {
			data[y*w+x] = colOut[y]
		}
	}
}
