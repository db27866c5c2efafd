package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/steadyframe/stabilize/internal/stab"
)

// SavePlotPNG writes a PNG line plot of the smoothed camera position over
// the clip. When raw is non-empty (available at analysis time, not in saved
// records) the unsmoothed trajectory is overlaid for comparison.
func SavePlotPNG(path string, d *stab.Data, raw []stab.Trajectory) error {
	ids := sortedFrames(d)
	if len(ids) == 0 {
		return fmt.Errorf("no stabilization data to plot")
	}

	p := plot.New()
	p.Title.Text = "Camera Trajectory"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Position (px)"

	smoothX := make(plotter.XYs, len(ids))
	smoothY := make(plotter.XYs, len(ids))
	for i, id := range ids {
		traj := d.TrajectoryData[id]
		smoothX[i] = plotter.XY{X: float64(id), Y: traj.X}
		smoothY[i] = plotter.XY{X: float64(id), Y: traj.Y}
	}

	for _, series := range []struct {
		name  string
		pts   plotter.XYs
		color color.RGBA
		width vg.Length
	}{
		{"x (smoothed)", smoothX, color.RGBA{R: 31, G: 119, B: 180, A: 255}, vg.Points(2)},
		{"y (smoothed)", smoothY, color.RGBA{R: 255, G: 127, B: 14, A: 255}, vg.Points(2)},
		{"x (raw)", rawSeries(raw, func(t stab.Trajectory) float64 { return t.X }), color.RGBA{R: 31, G: 119, B: 180, A: 96}, vg.Points(1)},
		{"y (raw)", rawSeries(raw, func(t stab.Trajectory) float64 { return t.Y }), color.RGBA{R: 255, G: 127, B: 14, A: 96}, vg.Points(1)},
	} {
		if len(series.pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(series.pts)
		if err != nil {
			return fmt.Errorf("building %s series: %w", series.name, err)
		}
		line.Color = series.color
		line.Width = series.width
		p.Add(line)
		p.Legend.Add(series.name, line)
	}

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving trajectory plot: %w", err)
	}
	return nil
}

func rawSeries(raw []stab.Trajectory, component func(stab.Trajectory) float64) plotter.XYs {
	pts := make(plotter.XYs, len(raw))
	for i, t := range raw {
		pts[i] = plotter.XY{X: float64(i), Y: component(t)}
	}
	return pts
}
