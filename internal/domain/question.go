package domain

// Question is a single natural-language question submitted to the
// analysis agent. Immutable once submitted.
type Question struct {
	Text        string `json:"text"`
	SessionID   string `json:"sessionId,omitempty"`
	IsFirstTurn bool   `json:"isFirstTurn"`
}

// Session threads multiple exchanges into one logical conversation.
// The identifier is issued by the platform on the first successful turn.
type Session struct {
	SessionID string `json:"sessionId"`
}
