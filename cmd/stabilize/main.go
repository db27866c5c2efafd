// Command stabilize analyzes camera shake in a clip (a directory of
// numbered frame images) and applies the resulting corrective transforms.
//
// The expensive analysis pass runs once and persists its result; applying
// the corrections later is cheap and can happen in a different process.
//
//	stabilize analyze -frames clip/ -out clip.stab [-window 30] [-report out.html] [-plot out.png] [-db runs.db]
//	stabilize apply   -frames clip/ -out steady/ [-data clip.stab | -db runs.db] [-workers 4]
//	stabilize info    -data clip.stab
//	stabilize report  -data clip.stab -html out.html [-plot out.png]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/steadyframe/stabilize/internal/catalog"
	"github.com/steadyframe/stabilize/internal/estimate"
	"github.com/steadyframe/stabilize/internal/frames"
	"github.com/steadyframe/stabilize/internal/report"
	"github.com/steadyframe/stabilize/internal/stab"
	"github.com/steadyframe/stabilize/internal/warp"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, os.Args[2:])
	case "apply":
		err = runApply(ctx, os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "report":
		err = runReport(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("stabilize %s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: stabilize <analyze|apply|info|report> [flags]")
}

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	framesDir := fs.String("frames", "", "directory of clip frames (required)")
	out := fs.String("out", "", "output stabilization data file (required)")
	window := fs.Int("window", stab.DefaultSmoothingWindow, "smoothing window half-width in frames")
	htmlPath := fs.String("report", "", "optional HTML trajectory report")
	plotPath := fs.String("plot", "", "optional PNG trajectory plot")
	dbPath := fs.String("db", "", "optional analysis-run catalog database")
	fs.Parse(args)

	if *framesDir == "" || *out == "" {
		return fmt.Errorf("-frames and -out are required")
	}

	clip, err := frames.OpenClip(*framesDir)
	if err != nil {
		return err
	}

	stabilizer, err := stab.NewStabilizer(*window)
	if err != nil {
		return err
	}

	log.Printf("analyzing %d frames from %s (window=%d)", clip.Len(), *framesDir, *window)
	start := time.Now()

	transforms, err := stabilizer.CollectTransforms(ctx, clip, estimate.New(estimate.DefaultConfig()))
	if err != nil {
		return err
	}
	raw := stab.CumulativeTrajectory(transforms)
	data := stabilizer.Analyze(transforms)

	if err := data.Save(*out); err != nil {
		return err
	}
	log.Printf("saved stabilization data for %d frames to %s in %s", data.FrameCount(), *out, time.Since(start).Round(time.Millisecond))

	if *htmlPath != "" {
		if err := report.SaveHTML(*htmlPath, data, "Stabilization: "+*framesDir); err != nil {
			return err
		}
		log.Printf("wrote report %s", *htmlPath)
	}
	if *plotPath != "" {
		if err := report.SavePlotPNG(*plotPath, data, raw); err != nil {
			return err
		}
		log.Printf("wrote plot %s", *plotPath)
	}
	if *dbPath != "" {
		cat, err := catalog.Open(*dbPath)
		if err != nil {
			return err
		}
		defer cat.Close()
		run, err := cat.RecordRun(catalog.Run{
			ClipDir:    *framesDir,
			DataPath:   *out,
			FrameCount: data.FrameCount(),
			Window:     *window,
		})
		if err != nil {
			return err
		}
		log.Printf("recorded analysis run %s", run.RunID)
	}
	return nil
}

func runApply(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	framesDir := fs.String("frames", "", "directory of clip frames (required)")
	dataPath := fs.String("data", "", "stabilization data file")
	dbPath := fs.String("db", "", "catalog database to find the newest data for the clip")
	outDir := fs.String("out", "", "output directory for corrected frames (required)")
	workers := fs.Int("workers", 4, "concurrent warp workers")
	fs.Parse(args)

	if *framesDir == "" || *outDir == "" {
		return fmt.Errorf("-frames and -out are required")
	}
	if *dataPath == "" && *dbPath == "" {
		return fmt.Errorf("either -data or -db is required")
	}
	if *workers < 1 {
		return fmt.Errorf("-workers must be at least 1")
	}

	if *dataPath == "" {
		cat, err := catalog.Open(*dbPath)
		if err != nil {
			return err
		}
		run, err := cat.LatestForClip(*framesDir)
		cat.Close()
		if err != nil {
			return err
		}
		*dataPath = run.DataPath
		log.Printf("using analysis run %s (%s)", run.RunID, run.DataPath)
	}

	var data stab.Data
	if err := data.Load(*dataPath); err != nil {
		return err
	}

	clip, err := frames.OpenClip(*framesDir)
	if err != nil {
		return err
	}
	sink, err := frames.NewSink(*outDir)
	if err != nil {
		return err
	}

	// The compensator reads an immutable table, so frames can be warped
	// concurrently. Fan frame indices out over a fixed worker pool.
	comp := stab.NewCompensator(&data, warp.Affine{})
	indexes := make(chan int)
	errs := make(chan error, *workers)
	var wg sync.WaitGroup

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				if err := compensateFrame(clip, comp, sink, i); err != nil {
					select {
					case errs <- err:
					default:
					}
					return
				}
			}
		}()
	}

	start := time.Now()
feed:
	for i := 0; i < clip.Len(); i++ {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		case err := <-errs:
			close(indexes)
			wg.Wait()
			return err
		}
	}
	close(indexes)
	wg.Wait()

	select {
	case err := <-errs:
		return err
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Printf("wrote %d corrected frames to %s in %s", clip.Len(), *outDir, time.Since(start).Round(time.Millisecond))
	return nil
}

// compensateFrame reads one frame, applies its corrective warp, and writes
// the result.
func compensateFrame(clip *frames.Clip, comp *stab.Compensator, sink *frames.Sink, i int) error {
	img, err := clip.Image(i)
	if err != nil {
		return err
	}
	corrected, err := comp.Compensate(img, i)
	if err != nil {
		return err
	}
	return sink.WritePNG(clip.Name(i), corrected)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	dataPath := fs.String("data", "", "stabilization data file (required)")
	fs.Parse(args)

	if *dataPath == "" {
		return fmt.Errorf("-data is required")
	}

	var data stab.Data
	if err := data.Load(*dataPath); err != nil {
		return err
	}

	minT, maxT := trajectoryExtents(&data)
	fmt.Printf("frames:       %d\n", data.FrameCount())
	fmt.Printf("last updated: %s\n", data.LastUpdated.Format(time.RFC3339))
	fmt.Printf("x range:      [%.2f, %.2f] px\n", minT.X, maxT.X)
	fmt.Printf("y range:      [%.2f, %.2f] px\n", minT.Y, maxT.Y)
	fmt.Printf("angle range:  [%.4f, %.4f] rad\n", minT.A, maxT.A)
	return nil
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	dataPath := fs.String("data", "", "stabilization data file (required)")
	htmlPath := fs.String("html", "", "HTML report output (required)")
	plotPath := fs.String("plot", "", "optional PNG trajectory plot")
	fs.Parse(args)

	if *dataPath == "" || *htmlPath == "" {
		return fmt.Errorf("-data and -html are required")
	}

	var data stab.Data
	if err := data.Load(*dataPath); err != nil {
		return err
	}

	if err := report.SaveHTML(*htmlPath, &data, "Stabilization: "+*dataPath); err != nil {
		return err
	}
	if *plotPath != "" {
		if err := report.SavePlotPNG(*plotPath, &data, nil); err != nil {
			return err
		}
	}
	return nil
}

func trajectoryExtents(d *stab.Data) (min, max stab.Trajectory) {
	first := true
	for _, t := range d.TrajectoryData {
		if first {
			min, max = t, t
			first = false
			continue
		}
		if t.X < min.X {
			min.X = t.X
		}
		if t.Y < min.Y {
			min.Y = t.Y
		}
		if t.A < min.A {
			min.A = t.A
		}
		if t.X > max.X {
			max.X = t.X
		}
		if t.Y > max.Y {
			max.Y = t.Y
		}
		if t.A > max.A {
			max.A = t.A
		}
	}
	return min, max
}
