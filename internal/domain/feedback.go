package domain

import "strings"

// Rating is a thumbs-style quality rating on a trace.
type Rating string

const (
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// Valid reports whether the rating is one of the accepted values.
func (r Rating) Valid() bool {
	return r == RatingUp || r == RatingDown
}

// FeedbackSubmission attaches a rating and optional comment to a
// finalized exchange's trace.
type FeedbackSubmission struct {
	TraceID  string `json:"traceId"`
	Rating   Rating `json:"rating"`
	Comment  string `json:"comment,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// FeedbackAck is the platform's response to a feedback submission.
type FeedbackAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TracingInfo is the auxiliary metadata used to build human-facing
// links into the platform's trace explorer. The templates contain
// {trace_id} and {session_id} placeholders.
type TracingInfo struct {
	ExperimentID       string `json:"experimentId,omitempty"`
	Link               string `json:"link,omitempty"`
	URLTemplate        string `json:"urlTemplate"`
	SessionURLTemplate string `json:"sessionUrlTemplate,omitempty"`
}

// TraceURL expands the template for a concrete trace identifier.
// Returns "" when no template is configured.
func (t TracingInfo) TraceURL(traceID string) string {
	if t.URLTemplate == "" || traceID == "" {
		return ""
	}
	return strings.ReplaceAll(t.URLTemplate, "{trace_id}", traceID)
}

// SessionURL expands the session template for a session identifier.
func (t TracingInfo) SessionURL(sessionID string) string {
	if t.SessionURLTemplate == "" || sessionID == "" {
		return ""
	}
	return strings.ReplaceAll(t.SessionURLTemplate, "{session_id}", sessionID)
}
