package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseisolovev/databot/internal/agent"
	"github.com/alekseisolovev/databot/internal/ai"
)

const iris = `Id,SepalLengthCm,PetalWidthCm,Species
1,5.1,0.2,Iris-setosa
2,4.9,0.2,Iris-setosa
51,7.0,1.4,Iris-versicolor
52,6.4,1.5,Iris-versicolor
101,6.3,2.5,Iris-virginica
102,5.8,1.9,Iris-virginica
`

const sales = `region,amount
north,10
south,20
north,5
`

// scripted answers every call with the next canned reply.
type scripted struct {
	replies []*agent.Completion
	seen    [][]agent.Message
}

func (m *scripted) Complete(ctx context.Context, msgs []agent.Message, tools []ai.Tool) (*agent.Completion, error) {
	m.seen = append(m.seen, msgs)
	if len(m.replies) == 0 {
		return &agent.Completion{Message: &agent.Message{Role: agent.RoleAssistant, Content: "ok"}}, nil
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r, nil
}

func newSession(m *scripted) *Session {
	return New(Options{NewModel: func() (agent.Model, error) { return m, nil }})
}

func TestSubmitBeforeLoad(t *testing.T) {
	s := newSession(&scripted{})
	assert.False(t, s.Ready())
	_, err := s.Submit(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Nil(t, s.Messages())
	assert.ErrorIs(t, s.ExportMarkdown(&strings.Builder{}), ErrNotReady)
}

func TestLoadBuildsFreshConversation(t *testing.T) {
	m := &scripted{}
	s := newSession(m)
	require.NoError(t, s.Load("iris.csv", strings.NewReader(iris)))
	assert.True(t, s.Ready())
	assert.Equal(t, agent.DefaultMaxHops, s.MaxHops())

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, agent.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "PetalWidthCm")
	assert.Equal(t, s.SystemPrompt(), msgs[0].Content)
	assert.Contains(t, s.Schema(), "Dataset: iris.csv")

	_, err := s.Submit(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestReloadClearsHistory(t *testing.T) {
	m := &scripted{replies: []*agent.Completion{
		{Message: &agent.Message{Role: agent.RoleAssistant, ToolCall: &agent.ToolRequest{ID: "1", Name: "run_dataframe_query", Args: map[string]any{"query": `df.GroupBy("Species").Col("PetalWidthCm").Mean()`}}}},
		{Message: &agent.Message{Role: agent.RoleAssistant, Content: "virginica is widest"}},
	}}
	s := newSession(m)
	require.NoError(t, s.Load("iris.csv", strings.NewReader(iris)))
	res, err := s.Submit(context.Background(), "which species has the widest petals?")
	require.NoError(t, err)
	assert.Equal(t, agent.ArtifactSeries, res.Answer.Artifact.Kind)
	assert.Len(t, s.Messages(), 5)
	assert.Equal(t, Stats{Turns: 1, ToolCalls: 1}, s.Stats())

	require.NoError(t, s.Load("sales.csv", strings.NewReader(sales)))
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "region")
	assert.NotContains(t, msgs[0].Content, "PetalWidthCm")
	assert.Equal(t, Stats{}, s.Stats())
}

func TestLoadFailureResetsSession(t *testing.T) {
	s := newSession(&scripted{})
	require.NoError(t, s.Load("iris.csv", strings.NewReader(iris)))

	err := s.Load("empty.csv", strings.NewReader(""))
	require.ErrorIs(t, err, ErrLoad)
	assert.False(t, s.Ready())
	assert.Nil(t, s.Messages())
	assert.Empty(t, s.Name())

	err = s.LoadFile(filepath.Join(t.TempDir(), "data.parquet"))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestAgentInitFailureLeavesSessionUninitialized(t *testing.T) {
	boom := errors.New("no api key")
	s := New(Options{NewModel: func() (agent.Model, error) { return nil, boom }})
	err := s.Load("iris.csv", strings.NewReader(iris))
	require.ErrorIs(t, err, ErrAgentInit)
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Ready())
	assert.Nil(t, s.Frame())

	s = New(Options{})
	assert.ErrorIs(t, s.Load("iris.csv", strings.NewReader(iris)), ErrAgentInit)
}

func TestUnload(t *testing.T) {
	s := newSession(&scripted{})
	require.NoError(t, s.Load("iris.csv", strings.NewReader(iris)))
	s.Unload()
	assert.False(t, s.Ready())
	assert.Nil(t, s.Messages())
	assert.Empty(t, s.SystemPrompt())
	s.Unload()
}

func TestRunWithoutModel(t *testing.T) {
	s := newSession(&scripted{})
	_, err := s.Run(context.Background(), "df.Len()")
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, s.Load("sales.csv", strings.NewReader(sales)))
	out, err := s.Run(context.Background(), `df.Col("amount").Sum()`)
	require.NoError(t, err)
	assert.Equal(t, "Query `df.Col(\"amount\").Sum()` returned float64: 35", out.Text)
}

func TestSaveTranscript(t *testing.T) {
	m := &scripted{replies: []*agent.Completion{
		{Message: &agent.Message{Role: agent.RoleAssistant, ToolCall: &agent.ToolRequest{ID: "1", Name: "run_dataframe_query", Args: map[string]any{"query": `df.GroupBy("region").Sum()`}}}},
		{Message: &agent.Message{Role: agent.RoleAssistant, Content: "South sold the most."}},
	}}
	s := newSession(m)
	require.NoError(t, s.Load("sales.csv", strings.NewReader(sales)))
	_, err := s.Submit(context.Background(), "which region sold most?")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "chat.md")
	require.NoError(t, s.SaveTranscript(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(data)
	assert.True(t, strings.HasPrefix(md, "# DataBot transcript: sales.csv"))
	assert.Contains(t, md, "## You\n\nwhich region sold most?")
	assert.Contains(t, md, "## DataBot\n\nSouth sold the most.")
	assert.Contains(t, md, "_table (2, 1)_")
	assert.NotContains(t, md, "run_dataframe_query", "tool traffic stays out of the transcript")
}
