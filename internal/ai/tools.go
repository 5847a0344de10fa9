package ai

import (
	"encoding/json"
	"fmt"
)

// Tool is an OpenAI-style function tool definition sent with a chat request.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a callable function and its JSON Schema parameters.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is a model request to invoke a tool. Arguments is a JSON object encoded as a string.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the function and carries its raw arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewFunctionTool builds a function tool; params is marshaled as the JSON Schema.
func NewFunctionTool(name, description string, params any) (Tool, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Tool{}, fmt.Errorf("marshal tool parameters: %w", err)
	}
	return Tool{Type: "function", Function: ToolFunction{Name: name, Description: description, Parameters: raw}}, nil
}

// DecodeArguments unmarshals the call's arguments into v. Empty arguments decode as {}.
func (tc ToolCall) DecodeArguments(v any) error {
	args := tc.Function.Arguments
	if args == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("decode arguments for %s: %w", tc.Function.Name, err)
	}
	return nil
}
