package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/alekseisolovev/databot/internal/ai"
)

// Completion is one model reply.
type Completion struct {
	// Message is nil when the model produced nothing usable.
	Message *Message
	Usage   ai.Usage
	// Dropped counts tool calls beyond the first, which are discarded.
	Dropped int
}

// Model is the chat-completion capability the controller drives.
type Model interface {
	Complete(ctx context.Context, msgs []Message, tools []ai.Tool) (*Completion, error)
}

// RuntimeModel adapts an ai.Runtime to Model.
type RuntimeModel struct {
	Runtime     ai.Runtime
	Name        string
	MaxTokens   int
	Temperature float64
}

func (m *RuntimeModel) Complete(ctx context.Context, msgs []Message, tools []ai.Tool) (*Completion, error) {
	req := ai.GenerateRequest{
		Model:       m.Name,
		Messages:    toWire(msgs),
		Tools:       tools,
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
	}
	resp, err := m.Runtime.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &Completion{Usage: resp.Usage}
	if len(resp.Choices) == 0 {
		return out, nil
	}
	msg, dropped := fromWire(resp.Choices[0].Message)
	out.Message = &msg
	out.Dropped = dropped
	return out, nil
}

func toWire(msgs []Message) []ai.Message {
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, ai.Message{Role: ai.RoleSystem, Content: m.Content})
		case RoleHuman:
			out = append(out, ai.Message{Role: ai.RoleUser, Content: m.Content})
		case RoleAssistant:
			wm := ai.Message{Role: ai.RoleAssistant, Content: m.Content}
			if tc := m.ToolCall; tc != nil {
				wm.ToolCalls = []ai.ToolCall{{
					ID:       tc.ID,
					Type:     "function",
					Function: ai.FunctionCall{Name: tc.Name, Arguments: tc.arguments()},
				}}
			}
			out = append(out, wm)
		case RoleToolResult:
			out = append(out, ai.Message{Role: ai.RoleTool, Content: m.Content, ToolCallID: m.ToolCallID, Name: m.ToolName})
		}
	}
	return out
}

// fromWire keeps the first tool call and reports how many others were dropped.
func fromWire(wm ai.Message) (Message, int) {
	msg := Message{Content: wm.Content}
	switch wm.Role {
	case ai.RoleAssistant, "":
		msg.Role = RoleAssistant
	case ai.RoleUser:
		msg.Role = RoleHuman
	case ai.RoleSystem:
		msg.Role = RoleSystem
	case ai.RoleTool:
		msg.Role = RoleToolResult
	default:
		msg.Role = Role(-1)
	}
	if len(wm.ToolCalls) == 0 {
		return msg, 0
	}
	tc := wm.ToolCalls[0]
	id := tc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	msg.ToolCall = &ToolRequest{ID: id, Name: tc.Function.Name, Args: decodeArgs(tc)}
	return msg, len(wm.ToolCalls) - 1
}

// decodeArgs parses the argument object. Some models send the bare expression instead of JSON;
// that text is taken as the query.
func decodeArgs(tc ai.ToolCall) map[string]any {
	args := map[string]any{}
	if err := tc.DecodeArguments(&args); err != nil {
		var s string
		if json.Unmarshal([]byte(tc.Function.Arguments), &s) == nil {
			return map[string]any{"query": s}
		}
		return map[string]any{"query": strings.TrimSpace(tc.Function.Arguments)}
	}
	if args == nil {
		args = map[string]any{}
	}
	return args
}
