// Package protocol implements the line-oriented event framing used on
// the agent stream: newline-delimited records prefixed with "data: ",
// each carrying a JSON object tagged by a "type" field.
package protocol

import "encoding/json"

// wireTool is the serialized form of a tool invocation. Older platform
// versions emit "function_name" instead of "name"; both are accepted.
type wireTool struct {
	Name         string          `json:"name,omitempty"`
	FunctionName string          `json:"function_name,omitempty"`
	Arguments    json.RawMessage `json:"arguments,omitempty"`
	Status       string          `json:"status,omitempty"`
}

func (t wireTool) name() string {
	if t.Name != "" {
		return t.Name
	}
	return t.FunctionName
}

// wireEvent is the serialized form of one stream record.
type wireEvent struct {
	Type      string     `json:"type"`
	Content   string     `json:"content,omitempty"`
	Tool      *wireTool  `json:"tool,omitempty"`
	TraceID   string     `json:"trace_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	ToolCalls []wireTool `json:"tool_calls,omitempty"`
	Error     string     `json:"error,omitempty"`
}
