package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseisolovev/databot/internal/ai"
)

type fakeRuntime struct {
	req  ai.GenerateRequest
	resp *ai.GenerateResponse
}

func (f *fakeRuntime) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.req = req
	return f.resp, nil
}

func TestRuntimeModelWireMapping(t *testing.T) {
	rt := &fakeRuntime{resp: &ai.GenerateResponse{
		Choices: []ai.Choice{{Message: ai.Message{
			Role: ai.RoleAssistant,
			ToolCalls: []ai.ToolCall{
				{ID: "c1", Type: "function", Function: ai.FunctionCall{Name: "run_dataframe_query", Arguments: `{"query":"df.Head()"}`}},
				{ID: "c2", Type: "function", Function: ai.FunctionCall{Name: "run_dataframe_query", Arguments: `{"query":"df.Tail()"}`}},
			},
		}}},
		Usage: ai.Usage{TotalTokens: 5},
	}}
	m := &RuntimeModel{Runtime: rt, Name: "openai/gpt-4o-mini", MaxTokens: 256}
	history := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleHuman, Content: "q"},
		{Role: RoleAssistant, ToolCall: &ToolRequest{ID: "c0", Name: "run_dataframe_query", Args: map[string]any{"query": "df.Len()"}}},
		{Role: RoleToolResult, Content: "Query `df.Len()` returned int: 9", ToolCallID: "c0", ToolName: "run_dataframe_query"},
	}
	tool, _ := newTool(t, "iris.csv")

	comp, err := m.Complete(context.Background(), history, []ai.Tool{tool.Definition()})
	require.NoError(t, err)

	wire := rt.req.Messages
	require.Len(t, wire, 4)
	assert.Equal(t, []string{"system", "user", "assistant", "tool"}, []string{wire[0].Role, wire[1].Role, wire[2].Role, wire[3].Role})
	assert.JSONEq(t, `{"query":"df.Len()"}`, wire[2].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "c0", wire[3].ToolCallID)
	assert.Equal(t, "auto", rt.req.ToolChoice)
	assert.Equal(t, 256, rt.req.MaxTokens)
	require.Len(t, rt.req.Tools, 1)

	require.NotNil(t, comp.Message)
	assert.Equal(t, RoleAssistant, comp.Message.Role)
	assert.Equal(t, 1, comp.Dropped)
	q, ok := comp.Message.ToolCall.Query()
	assert.True(t, ok)
	assert.Equal(t, "df.Head()", q)
	assert.Equal(t, 5, comp.Usage.TotalTokens)
}

func TestRuntimeModelLenientArguments(t *testing.T) {
	for raw, want := range map[string]string{
		`df.Describe()`:   "df.Describe()",
		`"df.Describe()"`: "df.Describe()",
	} {
		rt := &fakeRuntime{resp: &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{
			ToolCalls: []ai.ToolCall{{Function: ai.FunctionCall{Name: "run_dataframe_query", Arguments: raw}}},
		}}}}}
		comp, err := (&RuntimeModel{Runtime: rt, Name: "m"}).Complete(context.Background(), []Message{{Role: RoleHuman, Content: "x"}}, nil)
		require.NoError(t, err)
		q, ok := comp.Message.ToolCall.Query()
		assert.True(t, ok)
		assert.Equal(t, want, q)
		assert.NotEmpty(t, comp.Message.ToolCall.ID, "missing ids are generated")
		assert.Empty(t, rt.req.ToolChoice)
	}
}

func TestRuntimeModelNoChoices(t *testing.T) {
	rt := &fakeRuntime{resp: &ai.GenerateResponse{}}
	comp, err := (&RuntimeModel{Runtime: rt, Name: "m"}).Complete(context.Background(), []Message{{Role: RoleHuman, Content: "x"}}, nil)
	require.NoError(t, err)
	assert.Nil(t, comp.Message)
}

func TestConversationCopies(t *testing.T) {
	conv := NewConversation("sys")
	conv.Append(Message{Role: RoleHuman, Content: "a"})
	msgs := conv.Messages()
	msgs[1].Content = "changed"
	assert.Equal(t, "a", conv.Messages()[1].Content)
	assert.Equal(t, 2, conv.Len())
}
