package render

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseisolovev/databot/internal/agent"
	"github.com/alekseisolovev/databot/internal/frame"
)

func sample(t *testing.T, rows int) *frame.Frame {
	t.Helper()
	var b strings.Builder
	b.WriteString("city,temp\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "c%d,%d.5\n", i, i)
	}
	f, err := frame.Load(strings.NewReader(b.String()), frame.LoadOptions{})
	require.NoError(t, err)
	return f
}

func TestTableShowsHeadersAndShape(t *testing.T) {
	out := Table(sample(t, 3))
	assert.Contains(t, out, "city")
	assert.Contains(t, out, "temp")
	assert.Contains(t, out, "c2")
	assert.Contains(t, out, "2.5")
	assert.Contains(t, out, "3 rows x 2 columns")
}

func TestTableElidesLongFrames(t *testing.T) {
	out := Table(sample(t, 50))
	assert.Contains(t, out, "…")
	assert.Contains(t, out, "c0")
	assert.Contains(t, out, "c49")
	assert.NotContains(t, out, "c25")
}

func TestSeries(t *testing.T) {
	s, err := sample(t, 2).Col("temp")
	require.NoError(t, err)
	out := Series(s)
	assert.Contains(t, out, "1.5")
	assert.Contains(t, out, "temp: 2 values, numeric")
}

func TestAnswerPlain(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true, t.TempDir())
	require.NoError(t, p.Answer(&agent.Message{Role: agent.RoleAssistant, Content: "**Oslo** is coldest."}))
	assert.Equal(t, "**Oslo** is coldest.\n", buf.String())

	buf.Reset()
	require.NoError(t, p.Answer(nil))
	assert.Contains(t, buf.String(), "no answer")
}

func TestAnswerSavesFigure(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	p := New(&buf, true, dir)
	fig, err := sample(t, 4).Plot("bar", "city", "temp")
	require.NoError(t, err)
	msg := &agent.Message{Role: agent.RoleAssistant, Content: "Here is the chart.", Artifact: agent.FigureArtifact(fig)}
	require.NoError(t, p.Answer(msg))
	assert.Contains(t, buf.String(), "Figure saved:")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".png"))
}
