package stab

import "fmt"

// DefaultSmoothingWindow is the half-width, in frames, of the centered
// averaging range used when no window is configured.
const DefaultSmoothingWindow = 30

// Smoother computes a centered moving average of a camera trajectory.
//
// For index i the average covers samples [i-window, i+window] clipped to the
// sequence bounds, dividing by the number of samples actually included. Near
// the ends the divisor shrinks, so the first and last `window` frames are
// smoothed over a truncated range rather than a padded or reflected one.
// Existing stabilization data depends on that boundary behavior; do not
// change it without a format migration.
type Smoother struct {
	window int
}

// NewSmoother returns a smoother with the given half-width window. A window
// of zero degenerates to identity smoothing; negative windows are rejected.
func NewSmoother(window int) (*Smoother, error) {
	if window < 0 {
		return nil, fmt.Errorf("smoothing window must be non-negative, got %d", window)
	}
	return &Smoother{window: window}, nil
}

// Window returns the configured half-width.
func (s *Smoother) Window() int {
	return s.window
}

// Smooth averages the trajectory and returns the result keyed by frame
// index. Every input index has an entry in the output.
func (s *Smoother) Smooth(trajectory []Trajectory) map[int]Trajectory {
	smoothed := make(map[int]Trajectory, len(trajectory))

	for i := range trajectory {
		var sumX, sumY, sumA float64
		count := 0

		for j := -s.window; j <= s.window; j++ {
			if i+j < 0 || i+j >= len(trajectory) {
				continue
			}
			sumX += trajectory[i+j].X
			sumY += trajectory[i+j].Y
			sumA += trajectory[i+j].A
			count++
		}

		smoothed[i] = Trajectory{
			X: sumX / float64(count),
			Y: sumY / float64(count),
			A: sumA / float64(count),
		}
	}
	return smoothed
}
