// Package stream folds a decoded event sequence into a materialized
// exchange result. The fold is a pure function so the state machine is
// testable without any transport.
package stream

import "github.com/soyeahso/blitz/internal/domain"

// NewResult returns the initial state for a fresh exchange.
func NewResult() domain.ExchangeResult {
	return domain.ExchangeResult{Status: domain.StatusStreaming}
}

// Reduce applies one event to a prior result and returns the next
// state. Total over every event type; events arriving after a terminal
// state are ignored. The input is never mutated, so callers may hand
// out each returned value as an immutable snapshot.
func Reduce(prior domain.ExchangeResult, ev domain.Event) domain.ExchangeResult {
	if prior.Finalized() {
		return prior
	}

	next := prior
	next.ToolCalls = cloneCalls(prior.ToolCalls)

	switch ev.Type {
	case domain.EventToken:
		next.Text += ev.Content

	case domain.EventToolCall:
		if ev.Tool == nil {
			return next
		}
		// Text accumulated before the first tool call is filler
		// narration, not the answer. Discard it once.
		if len(next.ToolCalls) == 0 {
			next.Text = ""
		}
		next.ToolCalls = append(next.ToolCalls, domain.ToolCallRecord{
			Name:      ev.Tool.Name,
			Arguments: ev.Tool.Arguments,
			Status:    domain.CallSuccess,
		})

	case domain.EventDone:
		if len(ev.ToolCalls) > 0 {
			// The terminal list is authoritative and replaces
			// whatever accumulated incrementally.
			calls := make([]domain.ToolCallRecord, 0, len(ev.ToolCalls))
			for _, inv := range ev.ToolCalls {
				calls = append(calls, domain.ToolCallRecord{
					Name:      inv.Name,
					Arguments: inv.Arguments,
					Status:    domain.CallSuccess,
				})
			}
			next.ToolCalls = calls
		}
		next.TraceID = ev.TraceID
		next.SessionID = ev.SessionID
		next.Status = domain.StatusDone

	case domain.EventError:
		for i := range next.ToolCalls {
			next.ToolCalls[i].Status = domain.CallError
		}
		next.Status = domain.StatusError
		next.ErrorMessage = ev.Message
	}

	return next
}

// ReduceAll folds a complete event sequence from the initial state.
func ReduceAll(events []domain.Event) domain.ExchangeResult {
	result := NewResult()
	for _, ev := range events {
		result = Reduce(result, ev)
	}
	return result
}

func cloneCalls(calls []domain.ToolCallRecord) []domain.ToolCallRecord {
	if calls == nil {
		return nil
	}
	out := make([]domain.ToolCallRecord, len(calls))
	copy(out, calls)
	return out
}
