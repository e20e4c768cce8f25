package export

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/linuxmatters/prosody/internal/prosody"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot file names, prefixed with "<basename>_" when PlotOptions.Prefix is set
const (
	F0PlotName  = "f0_plot.png"
	RMSPlotName = "rms_plot.png"
)

var (
	f0Colour  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	rmsColour = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// PlotOptions controls plot output
type PlotOptions struct {
	Prefix string    // usually the audio basename in batch mode
	Width  vg.Length // default 10in
	Height vg.Length // default 4in
}

// WritePlots renders the F0 contour and RMS envelope of an analysis as PNGs
// in dir and returns the written paths.
func WritePlots(dir string, a *prosody.Analysis, opts PlotOptions) ([]string, error) {
	if a == nil || a.Pitch == nil {
		return nil, fmt.Errorf("no analysis to plot")
	}
	if opts.Width == 0 {
		opts.Width = 10 * vg.Inch
	}
	if opts.Height == 0 {
		opts.Height = 4 * vg.Inch
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	f0, err := pitchPlot(a)
	if err != nil {
		return nil, err
	}
	rms, err := rmsPlot(a)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, out := range []struct {
		p    *plot.Plot
		name string
	}{{f0, F0PlotName}, {rms, RMSPlotName}} {
		path := filepath.Join(dir, plotName(opts.Prefix, out.name))
		if err := out.p.Save(opts.Width, opts.Height, path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func plotName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// voicedRuns splits the pitch track at unvoiced frames so gaps are not bridged
func voicedRuns(track *prosody.PitchTrack) []plotter.XYs {
	var runs []plotter.XYs
	var current plotter.XYs
	for _, frame := range track.Frames {
		if !frame.Frequency.Valid {
			if len(current) > 0 {
				runs = append(runs, current)
				current = nil
			}
			continue
		}
		current = append(current, plotter.XY{X: frame.Time, Y: frame.Frequency.Value})
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

func pitchPlot(a *prosody.Analysis) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Fundamental frequency"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "F0 (Hz)"
	p.X.Min = 0
	p.X.Max = max(a.Pitch.Duration, a.Pitch.TimeStep)

	runs := voicedRuns(a.Pitch)
	for _, run := range runs {
		line, err := plotter.NewLine(run)
		if err != nil {
			return nil, fmt.Errorf("failed to build f0 line: %w", err)
		}
		line.Color = f0Colour
		line.Width = vg.Points(1.5)
		p.Add(line)

		// Single-frame runs have no segment to draw
		if len(run) == 1 {
			dots, err := plotter.NewScatter(run)
			if err != nil {
				return nil, fmt.Errorf("failed to build f0 points: %w", err)
			}
			dots.GlyphStyle.Color = f0Colour
			p.Add(dots)
		}
	}
	if len(runs) == 0 {
		p.Title.Text += " (no voiced frames)"
		p.Y.Min, p.Y.Max = 0, 1
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

func rmsPlot(a *prosody.Analysis) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "RMS energy"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "RMS"
	p.X.Min = 0

	if len(a.RMS) == 0 {
		p.X.Max, p.Y.Min, p.Y.Max = 1, 0, 1
		return p, nil
	}

	xys := make(plotter.XYs, len(a.RMS))
	for i, v := range a.RMS {
		xys[i] = plotter.XY{X: float64(i) * a.RMSStep, Y: v}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to build rms line: %w", err)
	}
	line.Color = rmsColour
	line.Width = vg.Points(1)
	p.Add(line, plotter.NewGrid())
	p.Y.Min = 0
	return p, nil
}
