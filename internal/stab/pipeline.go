package stab

import (
	"context"
	"fmt"
	"image"

	"github.com/steadyframe/stabilize/internal/monitoring"
)

// MotionEstimator produces the rigid transform between two consecutive
// grayscale frames. ok is false when no reliable pairwise transform can be
// computed; the pipeline then reuses the last known good transform so the
// trajectory never has a gap.
type MotionEstimator interface {
	Estimate(prev, cur *image.Gray) (t RelativeTransform, ok bool)
}

// FrameSource supplies the frames of one clip in index order.
type FrameSource interface {
	// Len returns the number of frames in the clip.
	Len() int
	// Gray returns the grayscale view of frame i.
	Gray(i int) (*image.Gray, error)
}

// Stabilizer runs the analysis pass for one clip: motion estimation over
// consecutive frame pairs, trajectory accumulation, smoothing, and
// corrective-transform generation. A Stabilizer may be reused across clips;
// per-clip state lives on the stack of ProcessClip.
type Stabilizer struct {
	smoother *Smoother
}

// NewStabilizer returns a stabilizer with the given smoothing window
// (half-width in frames). See NewSmoother for validation.
func NewStabilizer(window int) (*Stabilizer, error) {
	smoother, err := NewSmoother(window)
	if err != nil {
		return nil, err
	}
	return &Stabilizer{smoother: smoother}, nil
}

// clipState is the mutable per-clip estimation state: the previous grayscale
// frame and the last transform the estimator produced successfully. It is
// threaded through the frame walk explicitly and discarded afterwards.
type clipState struct {
	prevGray *image.Gray
	lastGood RelativeTransform
}

// trackFrame advances the estimation state by one frame and returns the
// relative transform for the pair (previous, cur). Frame 0 has no
// predecessor and carries zero motion by convention, keeping record keys
// aligned with frame indices.
func (st *clipState) trackFrame(est MotionEstimator, cur *image.Gray, frame int) RelativeTransform {
	if st.prevGray == nil {
		st.prevGray = cur
		return RelativeTransform{}
	}

	t, ok := est.Estimate(st.prevGray, cur)
	if !ok {
		// Estimation gap: recover locally with the last known good
		// transform. Never an error.
		t = st.lastGood
		monitoring.Logf("frame %d: no reliable motion estimate, reusing last good transform", frame)
	}
	st.lastGood = t
	st.prevGray = cur
	return t
}

// CollectTransforms walks the clip through the estimator and returns one
// relative transform per frame. The walk is strictly sequential (frame i
// needs frame i-1's state); independent clips can be processed concurrently
// with separate calls. ctx is checked between frames so a caller can stop
// feeding frames early.
func (s *Stabilizer) CollectTransforms(ctx context.Context, src FrameSource, est MotionEstimator) ([]RelativeTransform, error) {
	transforms := make([]RelativeTransform, 0, src.Len())
	var state clipState

	for i := 0; i < src.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis canceled at frame %d: %w", i, err)
		}

		gray, err := src.Gray(i)
		if err != nil {
			return nil, fmt.Errorf("reading frame %d: %w", i, err)
		}

		transforms = append(transforms, state.trackFrame(est, gray, i))
	}
	return transforms, nil
}

// Analyze runs the trajectory computation over collected transforms:
// accumulation, smoothing, and corrective-transform generation. The result
// covers frame indices 0..len(transforms)-1 in both maps.
func (s *Stabilizer) Analyze(transforms []RelativeTransform) *Data {
	trajectory := CumulativeTrajectory(transforms)
	smoothed := s.smoother.Smooth(trajectory)
	corrections := GenerateCorrections(transforms, smoothed)

	return &Data{
		TrajectoryData:     smoothed,
		TransformationData: corrections,
	}
}

// ProcessClip analyzes a full clip and returns its stabilization data.
// Trajectory computation only runs once the whole clip is walked.
func (s *Stabilizer) ProcessClip(ctx context.Context, src FrameSource, est MotionEstimator) (*Data, error) {
	transforms, err := s.CollectTransforms(ctx, src, est)
	if err != nil {
		return nil, err
	}
	return s.Analyze(transforms), nil
}
