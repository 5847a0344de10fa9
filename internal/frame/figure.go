package frame

import (
	"fmt"
	"strings"
)

// FigureKind names a chart type.
type FigureKind string

const (
	FigureBar     FigureKind = "bar"
	FigureLine    FigureKind = "line"
	FigureScatter FigureKind = "scatter"
	FigureHist    FigureKind = "hist"
)

// DefaultBins is the histogram bin count when none is given.
const DefaultBins = 10

// Figure is a renderer-independent plot specification. Bar charts use Labels and Y,
// line and scatter charts use X and Y (Labels optional), histograms use Y and Bins.
type Figure struct {
	Kind   FigureKind `json:"kind"`
	Title  string     `json:"title"`
	XLabel string     `json:"x_label,omitempty"`
	YLabel string     `json:"y_label,omitempty"`
	Labels []string   `json:"labels,omitempty"`
	X      []float64  `json:"x,omitempty"`
	Y      []float64  `json:"y"`
	Bins   int        `json:"bins,omitempty"`
	// XTime marks X as unix seconds.
	XTime bool `json:"x_time,omitempty"`
}

// Points is the number of plotted values.
func (fg *Figure) Points() int { return len(fg.Y) }

func (fg *Figure) String() string {
	return fmt.Sprintf("%s chart %q (%d points)", fg.Kind, fg.Title, fg.Points())
}

func parseFigureKind(kind string) (FigureKind, error) {
	switch k := FigureKind(strings.ToLower(strings.TrimSpace(kind))); k {
	case FigureBar, FigureLine, FigureScatter, FigureHist:
		return k, nil
	default:
		return "", fmt.Errorf("plot: unknown kind %q (want bar, line, scatter or hist)", kind)
	}
}

// Plot charts a numeric series against its row labels; hist ignores the labels.
func (s *Series) Plot(kind string) (*Figure, error) {
	k, err := parseFigureKind(kind)
	if err != nil {
		return nil, err
	}
	if k == FigureHist {
		return s.Hist()
	}
	if k == FigureScatter {
		return nil, fmt.Errorf("plot: scatter needs two columns; use df.Plot(\"scatter\", x, y)")
	}
	if _, err := s.numeric("plot"); err != nil {
		return nil, err
	}
	fg := &Figure{Kind: k, Title: s.name, YLabel: s.name}
	for i := 0; i < s.Len(); i++ {
		if !s.valid[i] {
			continue
		}
		fg.Labels = append(fg.Labels, s.labels[i])
		fg.X = append(fg.X, float64(len(fg.X)))
		fg.Y = append(fg.Y, s.nums[i])
	}
	if k == FigureBar {
		fg.X = nil
	}
	return fg, nil
}

// Hist bins the present values of a numeric series.
func (s *Series) Hist(bins ...int) (*Figure, error) {
	vals, err := s.numeric("hist")
	if err != nil {
		return nil, err
	}
	b := firstOr(bins, DefaultBins)
	if b <= 0 {
		return nil, fmt.Errorf("hist: bins must be positive, got %d", b)
	}
	return &Figure{Kind: FigureHist, Title: s.name, XLabel: s.name, YLabel: "count", Y: vals, Bins: b}, nil
}

// Plot charts column y against column x. For bar and line charts an empty x uses the row
// labels; hist only reads x.
func (f *Frame) Plot(kind, x, y string) (*Figure, error) {
	k, err := parseFigureKind(kind)
	if err != nil {
		return nil, err
	}
	if k == FigureHist {
		c, err := f.Col(x)
		if err != nil {
			return nil, err
		}
		return c.Hist()
	}
	yc, err := f.Col(y)
	if err != nil {
		return nil, err
	}
	if _, err := yc.numeric("plot"); err != nil {
		return nil, err
	}
	if x == "" {
		if k == FigureScatter {
			return nil, fmt.Errorf("plot: scatter needs an x column")
		}
		return yc.Plot(string(k))
	}
	xc, err := f.Col(x)
	if err != nil {
		return nil, err
	}
	fg := &Figure{Kind: k, Title: fmt.Sprintf("%s by %s", y, x), XLabel: x, YLabel: y, XTime: xc.kind == KindDatetime && k != FigureBar}
	for i := 0; i < f.Len(); i++ {
		if !xc.valid[i] || !yc.valid[i] {
			continue
		}
		fg.Y = append(fg.Y, yc.nums[i])
		fg.Labels = append(fg.Labels, xc.text(i))
		switch {
		case k == FigureBar:
		case xc.kind == KindNumeric:
			fg.X = append(fg.X, xc.nums[i])
		case xc.kind == KindDatetime:
			fg.X = append(fg.X, float64(xc.times[i].Unix()))
		case k == FigureScatter:
			return nil, fmt.Errorf("plot: scatter x column %q is %s, want numeric or datetime", x, xc.kind)
		default:
			fg.X = append(fg.X, float64(len(fg.X)))
		}
	}
	return fg, nil
}
