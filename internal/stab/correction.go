package stab

import "fmt"

// GenerateCorrections derives, per frame, the relative transform that moves
// the raw accumulated trajectory onto the smoothed one. At each index i the
// correction is relative[i] + (smoothed[i] - cumulative[i]), componentwise:
// the frame-to-frame motion that, appended to the raw path so far, lands
// exactly on the smoothed path at i.
//
// The cumulative sum is re-walked here rather than taken as a parameter so
// the function stays stateless and testable on its own.
//
// smoothed must contain an entry for every index of transforms; both maps
// are produced by the same analysis pass, so a missing key is a programming
// error and panics rather than substituting a zero correction.
func GenerateCorrections(transforms []RelativeTransform, smoothed map[int]Trajectory) map[int]RelativeTransform {
	corrections := make(map[int]RelativeTransform, len(transforms))

	var cur Trajectory
	for i, t := range transforms {
		cur = cur.Add(t)

		target, ok := smoothed[i]
		if !ok {
			panic(fmt.Sprintf("stab: smoothed trajectory has no entry for frame %d", i))
		}

		corrections[i] = RelativeTransform{
			Dx: t.Dx + (target.X - cur.X),
			Dy: t.Dy + (target.Y - cur.Y),
			Da: t.Da + (target.A - cur.A),
		}
	}
	return corrections
}
