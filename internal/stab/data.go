package stab

import (
	"fmt"
	"time"
)

// Data is the long-lived artifact of one analysis pass: the smoothed camera
// trajectory and the per-frame corrective transforms, both keyed by frame
// index. After a successful analysis both maps cover exactly the frame
// indices 0..N-1. LastUpdated is set when the data is saved or loaded.
//
// A loaded Data is read-only for the lifetime of a stabilization effect;
// concurrent readers are safe as long as no load overlaps them.
type Data struct {
	TrajectoryData     map[int]Trajectory
	TransformationData map[int]RelativeTransform
	LastUpdated        time.Time
}

// FrameCount returns the number of analyzed frames.
func (d *Data) FrameCount() int {
	return len(d.TransformationData)
}

// Correction returns the corrective transform stored for a frame. A missing
// index means the frame was never analyzed or the backing file lost entries;
// it is reported as an error rather than silently substituting the identity,
// which would mask data loss.
func (d *Data) Correction(frame int) (RelativeTransform, error) {
	t, ok := d.TransformationData[frame]
	if !ok {
		return RelativeTransform{}, fmt.Errorf("no corrective transform for frame %d (clip has %d analyzed frames)", frame, len(d.TransformationData))
	}
	return t, nil
}

// Smoothed returns the smoothed trajectory entry stored for a frame.
func (d *Data) Smoothed(frame int) (Trajectory, error) {
	t, ok := d.TrajectoryData[frame]
	if !ok {
		return Trajectory{}, fmt.Errorf("no smoothed trajectory for frame %d", frame)
	}
	return t, nil
}
