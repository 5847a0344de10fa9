// Package agent runs one conversational turn: it asks the model for the next message, executes the
// dataframe query the model requests, feeds the observation back and stops at a final answer.
package agent

import (
	"encoding/json"
	"fmt"
)

// Role tags a conversation message.
type Role int

const (
	RoleSystem Role = iota
	RoleHuman
	RoleAssistant
	RoleToolResult
)

func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleHuman:
		return "human"
	case RoleAssistant:
		return "assistant"
	case RoleToolResult:
		return "tool"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ToolRequest is a model's request to run a tool with an argument map.
type ToolRequest struct {
	ID   string
	Name string
	Args map[string]any
}

// Query returns the "query" argument.
func (r ToolRequest) Query() (string, bool) {
	q, ok := r.Args["query"].(string)
	return q, ok
}

func (r ToolRequest) arguments() string {
	b, err := json.Marshal(r.Args)
	if err != nil || r.Args == nil {
		return "{}"
	}
	return string(b)
}

// Message is one entry of a conversation. Only assistant messages carry a ToolCall, only tool
// results carry ToolCallID, and an artifact rides on tool results and on the final answer that
// reports them.
type Message struct {
	Role       Role
	Content    string
	ToolCall   *ToolRequest
	ToolCallID string
	ToolName   string
	Artifact   Artifact
}

// Final reports whether an assistant message ends the turn.
func (m Message) Final() bool { return m.Role == RoleAssistant && m.ToolCall == nil }

// Conversation is the append-only message history of one dataset session.
type Conversation struct {
	msgs []Message
}

// NewConversation starts a history holding the system prompt.
func NewConversation(system string) *Conversation {
	return &Conversation{msgs: []Message{{Role: RoleSystem, Content: system}}}
}

func (c *Conversation) Append(m Message) { c.msgs = append(c.msgs, m) }

func (c *Conversation) Len() int { return len(c.msgs) }

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	return append([]Message(nil), c.msgs...)
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.msgs) == 0 {
		return Message{}, false
	}
	return c.msgs[len(c.msgs)-1], true
}
