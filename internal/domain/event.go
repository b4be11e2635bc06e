package domain

// EventType tags the variants of the agent event stream.
type EventType string

const (
	EventToken    EventType = "token"
	EventToolCall EventType = "tool_call"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// ArgumentValue holds the arguments of a tool invocation. Arguments
// arrive as a nested encoded payload that may fail to decode; when it
// does, Raw carries the original text and Invalid is set instead of
// dropping the event.
type ArgumentValue struct {
	Fields  map[string]any `json:"fields,omitempty"`
	Raw     string         `json:"raw,omitempty"`
	Invalid bool           `json:"invalid,omitempty"`
}

// ToolInvocation reports that the agent invoked an external function.
type ToolInvocation struct {
	Name      string        `json:"name"`
	Arguments ArgumentValue `json:"arguments"`
}

// Event is one decoded record from the agent stream. Type selects
// which of the remaining fields are meaningful.
type Event struct {
	Type EventType `json:"type"`

	// Token
	Content string `json:"content,omitempty"`

	// ToolCall
	Tool *ToolInvocation `json:"tool,omitempty"`

	// Done
	TraceID   string           `json:"traceId,omitempty"`
	SessionID string           `json:"sessionId,omitempty"`
	ToolCalls []ToolInvocation `json:"toolCalls,omitempty"`

	// Error
	Message string `json:"message,omitempty"`
}

// Terminal reports whether the event ends an exchange.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
