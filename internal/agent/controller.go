package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alekseisolovev/databot/internal/ai"
	"github.com/alekseisolovev/databot/internal/logging"
)

// State is a step of the turn state machine.
type State int

const (
	AwaitModel State = iota
	ExecuteTool
	Done
)

func (s State) String() string {
	switch s {
	case AwaitModel:
		return "AWAIT_MODEL"
	case ExecuteTool:
		return "EXECUTE_TOOL"
	case Done:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultMaxHops bounds tool executions per turn.
const DefaultMaxHops = 8

// TurnResult is the outcome of one user turn.
type TurnResult struct {
	// Answer is the final assistant message, nil when the model reply was unusable.
	Answer *Message
	// Hops is the number of tool executions.
	Hops int
	// Exhausted is set when the hop limit forced the answer.
	Exhausted bool
	Usage     ai.Usage
}

// Controller alternates model calls and tool executions until the model answers.
type Controller struct {
	model   Model
	tool    Tool
	maxHops int
	logger  *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

func WithMaxHops(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxHops = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewController(model Model, tool Tool, opts ...Option) *Controller {
	c := &Controller{model: model, tool: tool, maxHops: DefaultMaxHops, logger: logging.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) MaxHops() int { return c.maxHops }

// ExhaustedMessage is the forced answer when the hop limit is hit.
func ExhaustedMessage(hops int) string {
	return fmt.Sprintf("I could not complete this request within %d query attempts.", hops)
}

// Turn appends the user text to conv and runs the state machine to DONE. Model transport errors
// are returned; everything else ends the turn normally.
func (c *Controller) Turn(ctx context.Context, conv *Conversation, text string) (*TurnResult, error) {
	conv.Append(Message{Role: RoleHuman, Content: text})
	c.logger.Info("agent.turn_start", "messages", conv.Len(), "chars", len(text))

	res := &TurnResult{}
	tools := []ai.Tool{c.tool.Definition()}
	state := AwaitModel
	var pending *ToolRequest

	for state != Done {
		switch state {
		case AwaitModel:
			comp, err := c.model.Complete(ctx, conv.Messages(), tools)
			if err != nil {
				c.logger.Warn("agent.model_failed", "hops", res.Hops, "failure", string(ai.Classify(err)), "error", err.Error())
				return res, fmt.Errorf("agent: model call: %w", err)
			}
			res.Usage.Add(comp.Usage)
			msg := comp.Message
			if msg == nil || msg.Role != RoleAssistant {
				role := "nil"
				if msg != nil {
					role = msg.Role.String()
				}
				c.logger.Warn("agent.unexpected_message", "role", role, "hops", res.Hops)
				state = Done
				continue
			}
			if msg.ToolCall == nil {
				res.Answer = c.finish(conv, *msg)
				state = Done
				continue
			}
			if res.Hops >= c.maxHops {
				c.logger.Warn("agent.max_hops", "hops", res.Hops, "tool", msg.ToolCall.Name)
				res.Answer = c.finish(conv, Message{Role: RoleAssistant, Content: ExhaustedMessage(res.Hops)})
				res.Exhausted = true
				state = Done
				continue
			}
			if comp.Dropped > 0 {
				c.logger.Warn("agent.tool_calls_dropped", "dropped", comp.Dropped, "kept", msg.ToolCall.Name)
			}
			conv.Append(*msg)
			pending = msg.ToolCall
			state = ExecuteTool

		case ExecuteTool:
			out := c.execute(ctx, *pending)
			conv.Append(Message{
				Role:       RoleToolResult,
				Content:    out.Text,
				ToolCallID: pending.ID,
				ToolName:   pending.Name,
				Artifact:   out.Artifact,
			})
			res.Hops++
			pending = nil
			state = AwaitModel
		}
	}

	c.logger.Info("agent.turn_complete", "hops", res.Hops, "answered", res.Answer != nil,
		"exhausted", res.Exhausted, "total_tokens", res.Usage.TotalTokens)
	return res, nil
}

func (c *Controller) execute(ctx context.Context, req ToolRequest) ToolOutput {
	name := c.tool.Definition().Function.Name
	if req.Name != name {
		c.logger.Warn("agent.unknown_tool", "tool", req.Name)
		return ToolOutput{Text: fmt.Sprintf("Error: unknown tool `%s`; the only tool is `%s`.", req.Name, name)}
	}
	query, ok := req.Query()
	if !ok {
		return failed("", fmt.Errorf("missing string argument %q", "query"))
	}
	c.logger.Debug("agent.tool_start", "query", query)
	out := c.tool.Run(ctx, query)
	if out.Err != nil {
		c.logger.Info("agent.tool_failed", "query", query, "error", out.Err.Error())
	} else {
		c.logger.Info("agent.tool_complete", "query", query, "artifact", out.Artifact.Kind.String())
	}
	return out
}

// finish records the final answer, attaching the artifact of the tool result right before it.
func (c *Controller) finish(conv *Conversation, answer Message) *Message {
	if prev, ok := conv.Last(); ok && prev.Role == RoleToolResult && !prev.Artifact.Empty() {
		answer.Artifact = prev.Artifact
	}
	conv.Append(answer)
	return &answer
}
