// Package report renders stabilization analysis results for inspection:
// an HTML page of trajectory/correction charts and a PNG trajectory plot.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/steadyframe/stabilize/internal/stab"
)

// WriteHTML renders line charts of the smoothed trajectory and the per-frame
// corrective transforms to w. Frames are plotted in index order.
func WriteHTML(w io.Writer, d *stab.Data, title string) error {
	ids := sortedFrames(d)
	if len(ids) == 0 {
		return fmt.Errorf("no stabilization data to chart")
	}

	xAxis := make([]int, len(ids))
	trajX := make([]opts.LineData, len(ids))
	trajY := make([]opts.LineData, len(ids))
	trajA := make([]opts.LineData, len(ids))
	corrDx := make([]opts.LineData, len(ids))
	corrDy := make([]opts.LineData, len(ids))
	corrDa := make([]opts.LineData, len(ids))
	for i, id := range ids {
		traj := d.TrajectoryData[id]
		corr := d.TransformationData[id]
		xAxis[i] = id
		trajX[i] = opts.LineData{Value: traj.X}
		trajY[i] = opts.LineData{Value: traj.Y}
		trajA[i] = opts.LineData{Value: traj.A}
		corrDx[i] = opts.LineData{Value: corr.Dx}
		corrDy[i] = opts.LineData{Value: corr.Dy}
		corrDa[i] = opts.LineData{Value: corr.Da}
	}

	position := charts.NewLine()
	position.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "smoothed camera position (px)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
	)
	position.SetXAxis(xAxis).
		AddSeries("x", trajX).
		AddSeries("y", trajY)

	angle := charts.NewLine()
	angle.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Subtitle: "smoothed camera angle (rad)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
	)
	angle.SetXAxis(xAxis).AddSeries("a", trajA)

	corrections := charts.NewLine()
	corrections.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Subtitle: "per-frame corrective transforms"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
	)
	corrections.SetXAxis(xAxis).
		AddSeries("dx", corrDx).
		AddSeries("dy", corrDy).
		AddSeries("da", corrDa)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(position, angle, corrections)
	return page.Render(w)
}

// SaveHTML writes the HTML report to path.
func SaveHTML(path string, d *stab.Data, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := WriteHTML(f, d, title); err != nil {
		f.Close()
		return fmt.Errorf("rendering report %s: %w", path, err)
	}
	return f.Close()
}

func sortedFrames(d *stab.Data) []int {
	ids := make([]int, 0, len(d.TrajectoryData))
	for id := range d.TrajectoryData {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
