package domain

// ExchangeStatus is the lifecycle state of an exchange.
type ExchangeStatus string

const (
	StatusStreaming ExchangeStatus = "streaming"
	StatusDone      ExchangeStatus = "done"
	StatusError     ExchangeStatus = "error"
)

// CallStatus is the resolution state of a recorded tool call.
type CallStatus string

const (
	CallSuccess CallStatus = "success"
	CallError   CallStatus = "error"
)

// ToolCallRecord is one tool invocation as materialized into an
// exchange result. Status defaults to success because the stream
// reports calls after they resolved; a terminal error taints every
// record accumulated before it.
type ToolCallRecord struct {
	Name      string        `json:"name"`
	Arguments ArgumentValue `json:"arguments"`
	Status    CallStatus    `json:"status"`
}

// ExchangeResult is the materialized state of one exchange. It evolves
// while the stream is open and becomes an immutable snapshot once
// Status reaches done or error. TraceID may be empty even on success;
// that only makes feedback unavailable.
type ExchangeResult struct {
	Text         string           `json:"text"`
	ToolCalls    []ToolCallRecord `json:"toolCalls,omitempty"`
	TraceID      string           `json:"traceId,omitempty"`
	SessionID    string           `json:"sessionId,omitempty"`
	Status       ExchangeStatus   `json:"status"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

// Finalized reports whether the result reached a terminal status.
func (r ExchangeResult) Finalized() bool {
	return r.Status == StatusDone || r.Status == StatusError
}

// HasTrace reports whether a trace identifier was issued for the
// exchange.
func (r ExchangeResult) HasTrace() bool {
	return r.TraceID != ""
}
