package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderKinds(t *testing.T) {
	figs := []*frame.Figure{
		{Kind: frame.FigureBar, Title: "mean width", Labels: []string{"a", "b", "c"}, Y: []float64{0.2, 1.4, 2.1}},
		{Kind: frame.FigureLine, Title: "trend", Labels: []string{"x", "y"}, X: []float64{0, 1}, Y: []float64{3, 4}},
		{Kind: frame.FigureScatter, Title: "pairs", X: []float64{1, 2, 3}, Y: []float64{2, 4, 5}},
		{Kind: frame.FigureHist, Title: "dist", Y: []float64{1, 2, 2, 3, 3, 3}, Bins: 3},
		{Kind: frame.FigureLine, Title: "dates", X: []float64{1704067200, 1704153600}, Y: []float64{1, 2}, XTime: true},
	}
	for _, fig := range figs {
		var buf bytes.Buffer
		require.NoError(t, Render(fig, &buf, "png"), fig.Title)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), fig.Title)
	}
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	fig := &frame.Figure{Kind: frame.FigureBar, Title: "t", Labels: []string{"a"}, Y: []float64{1}}
	require.NoError(t, Render(fig, &buf, "SVG"))
	assert.Contains(t, buf.String(), "<svg")
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(&frame.Figure{Kind: frame.FigureBar})
	require.ErrorIs(t, err, ErrEmptyFigure)
	_, err = Build(&frame.Figure{Kind: "pie", Y: []float64{1}})
	require.Error(t, err)
	_, err = Build(&frame.Figure{Kind: frame.FigureScatter, X: []float64{1}, Y: []float64{1, 2}})
	require.Error(t, err)
}

func TestSaveFromFramePlot(t *testing.T) {
	f, err := frame.Load(strings.NewReader("k,v\na,1\nb,3\nc,2\n"), frame.LoadOptions{})
	require.NoError(t, err)
	fig, err := f.Plot("bar", "k", "v")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "figures")
	path, err := Save(fig, dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "v_by_k_"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, pngMagic))
}
