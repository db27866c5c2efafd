package stab

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCumulativeTrajectory(t *testing.T) {
	t.Parallel()

	t.Run("empty input yields empty output", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, CumulativeTrajectory(nil))
		assert.Empty(t, CumulativeTrajectory([]RelativeTransform{}))
	})

	t.Run("output length equals input length", func(t *testing.T) {
		t.Parallel()
		transforms := []RelativeTransform{
			{Dx: 1, Dy: 2, Da: 0.1},
			{Dx: -3, Dy: 0.5, Da: -0.2},
			{Dx: 0, Dy: 0, Da: 0},
		}
		assert.Len(t, CumulativeTrajectory(transforms), len(transforms))
	})

	t.Run("entry 0 is the first transform converted directly", func(t *testing.T) {
		t.Parallel()
		got := CumulativeTrajectory([]RelativeTransform{{Dx: 1.5, Dy: -2, Da: 0.3}})
		require.Len(t, got, 1)
		assert.Equal(t, Trajectory{X: 1.5, Y: -2, A: 0.3}, got[0])
	})

	t.Run("running sums in index order", func(t *testing.T) {
		t.Parallel()
		transforms := []RelativeTransform{
			{Dx: 0, Dy: 0, Da: 0},
			{Dx: 2, Dy: 0, Da: 0},
			{Dx: 2, Dy: 0, Da: 0},
			{Dx: 2, Dy: 0, Da: 0},
		}
		want := []Trajectory{
			{X: 0, Y: 0, A: 0},
			{X: 2, Y: 0, A: 0},
			{X: 4, Y: 0, A: 0},
			{X: 6, Y: 0, A: 0},
		}
		assert.Equal(t, want, CumulativeTrajectory(transforms))
	})
}

func TestAffineFromTransform(t *testing.T) {
	t.Parallel()

	t.Run("zero rotation is translation only", func(t *testing.T) {
		t.Parallel()
		m := AffineFromTransform(RelativeTransform{Dx: 5, Dy: -3})
		x, y := m.Apply(10, 20)
		assert.InDelta(t, 15.0, x, 1e-12)
		assert.InDelta(t, 17.0, y, 1e-12)
	})

	t.Run("quarter turn rotates axes", func(t *testing.T) {
		t.Parallel()
		m := AffineFromTransform(RelativeTransform{Da: math.Pi / 2})
		x, y := m.Apply(1, 0)
		assert.InDelta(t, 0.0, x, 1e-12)
		assert.InDelta(t, 1.0, y, 1e-12)
	})
}

func TestScaleAboutCenter(t *testing.T) {
	t.Parallel()

	m := ScaleAboutCenter(50, 40, 1.04)

	t.Run("anchor point is fixed", func(t *testing.T) {
		t.Parallel()
		x, y := m.Apply(50, 40)
		assert.InDelta(t, 50.0, x, 1e-12)
		assert.InDelta(t, 40.0, y, 1e-12)
	})

	t.Run("other points move away from the anchor", func(t *testing.T) {
		t.Parallel()
		x, y := m.Apply(0, 0)
		assert.InDelta(t, -2.0, x, 1e-12) // 50 - 1.04*50
		assert.InDelta(t, -1.6, y, 1e-12) // 40 - 1.04*40
	})
}
