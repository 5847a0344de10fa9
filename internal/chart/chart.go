// Package chart renders frame figures to image files.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/alekseisolovev/databot/internal/utils"
	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Size of rendered figures.
var (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// maxNominalLabels bounds how many category labels are drawn under an axis.
const maxNominalLabels = 40

// ErrEmptyFigure is returned when a figure has nothing to draw.
var ErrEmptyFigure = errors.New("chart: figure has no points")

// Build turns a figure specification into a gonum plot.
func Build(fig *frame.Figure) (*plot.Plot, error) {
	if fig == nil || fig.Points() == 0 {
		return nil, ErrEmptyFigure
	}
	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = fig.XLabel
	p.Y.Label.Text = fig.YLabel

	switch fig.Kind {
	case frame.FigureBar:
		bars, err := plotter.NewBarChart(plotter.Values(fig.Y), vg.Points(20))
		if err != nil {
			return nil, fmt.Errorf("chart: bar: %w", err)
		}
		p.Add(bars)
		if len(fig.Labels) == len(fig.Y) && len(fig.Labels) <= maxNominalLabels {
			p.NominalX(fig.Labels...)
		}
	case frame.FigureLine, frame.FigureScatter:
		xys, err := points(fig)
		if err != nil {
			return nil, err
		}
		if fig.Kind == frame.FigureLine {
			l, err := plotter.NewLine(xys)
			if err != nil {
				return nil, fmt.Errorf("chart: line: %w", err)
			}
			p.Add(l)
		} else {
			s, err := plotter.NewScatter(xys)
			if err != nil {
				return nil, fmt.Errorf("chart: scatter: %w", err)
			}
			p.Add(s)
		}
		if fig.XTime {
			p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
		} else if positional(fig) && len(fig.Labels) <= maxNominalLabels {
			p.NominalX(fig.Labels...)
		}
		p.Add(plotter.NewGrid())
	case frame.FigureHist:
		bins := fig.Bins
		if bins <= 0 {
			bins = frame.DefaultBins
		}
		h, err := plotter.NewHist(plotter.Values(fig.Y), bins)
		if err != nil {
			return nil, fmt.Errorf("chart: hist: %w", err)
		}
		p.Add(h)
	default:
		return nil, fmt.Errorf("chart: unknown figure kind %q", fig.Kind)
	}
	return p, nil
}

func points(fig *frame.Figure) (plotter.XYs, error) {
	if len(fig.X) != len(fig.Y) {
		return nil, fmt.Errorf("chart: %d x values for %d y values", len(fig.X), len(fig.Y))
	}
	xys := make(plotter.XYs, len(fig.Y))
	for i := range fig.Y {
		xys[i].X = fig.X[i]
		xys[i].Y = fig.Y[i]
	}
	return xys, nil
}

// positional reports whether X is just 0..n-1 standing in for Labels.
func positional(fig *frame.Figure) bool {
	if len(fig.Labels) != len(fig.X) {
		return false
	}
	for i, x := range fig.X {
		if x != float64(i) {
			return false
		}
	}
	return true
}

// Render writes the figure in the given format (png, svg, pdf, ...).
func Render(fig *frame.Figure, w io.Writer, format string) error {
	p, err := Build(fig)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, strings.ToLower(format))
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("chart: write: %w", err)
	}
	return nil
}

// Save renders the figure as PNG into dir and returns the file path.
// The name is derived from the figure title plus a short random suffix.
func Save(fig *frame.Figure, dir string) (string, error) {
	var buf bytes.Buffer
	if err := Render(fig, &buf, "png"); err != nil {
		return "", err
	}
	title := "figure"
	if fig.Title != "" {
		title = fig.Title
	}
	name := fmt.Sprintf("%s_%s.png", utils.SafeFileStem(title), uuid.NewString()[:8])
	path := filepath.Join(dir, name)
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("chart: save: %w", err)
	}
	return path, nil
}
