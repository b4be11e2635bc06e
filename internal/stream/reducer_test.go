package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/blitz/internal/domain"
)

func token(s string) domain.Event {
	return domain.Event{Type: domain.EventToken, Content: s}
}

func toolCall(name string, fields map[string]any) domain.Event {
	return domain.Event{Type: domain.EventToolCall, Tool: &domain.ToolInvocation{
		Name:      name,
		Arguments: domain.ArgumentValue{Fields: fields},
	}}
}

func TestTokensConcatenateInOrder(t *testing.T) {
	result := ReduceAll([]domain.Event{
		token("Hello "),
		token("coach"),
		{Type: domain.EventDone, TraceID: "tr-1"},
	})

	assert.Equal(t, "Hello coach", result.Text)
	assert.Empty(t, result.ToolCalls)
	assert.Equal(t, "tr-1", result.TraceID)
	assert.Equal(t, domain.StatusDone, result.Status)
}

func TestFirstToolCallDiscardsEarlierText(t *testing.T) {
	result := NewResult()
	result = Reduce(result, token("thinking..."))
	result = Reduce(result, toolCall("lookup", map[string]any{"team": "X"}))
	assert.Empty(t, result.Text, "pre-tool-call narration is discarded")

	result = Reduce(result, token("Answer: X leads"))
	result = Reduce(result, domain.Event{
		Type:    domain.EventDone,
		TraceID: "tr-2",
		ToolCalls: []domain.ToolInvocation{
			{Name: "lookup", Arguments: domain.ArgumentValue{Fields: map[string]any{"team": "X"}}},
		},
	})

	assert.Equal(t, "Answer: X leads", result.Text)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "lookup", result.ToolCalls[0].Name)
	assert.Equal(t, domain.CallSuccess, result.ToolCalls[0].Status)
	assert.Equal(t, domain.StatusDone, result.Status)
}

func TestOnlyFirstToolCallResetsText(t *testing.T) {
	result := ReduceAll([]domain.Event{
		token("filler"),
		toolCall("first", nil),
		token("kept "),
		toolCall("second", nil),
		token("text"),
	})

	assert.Equal(t, "kept text", result.Text)
	assert.Len(t, result.ToolCalls, 2)
}

func TestDoneToolCallsOverrideAccumulated(t *testing.T) {
	result := ReduceAll([]domain.Event{
		toolCall("a", nil),
		toolCall("b", nil),
		toolCall("a", nil),
		{Type: domain.EventDone, TraceID: "tr-3", ToolCalls: []domain.ToolInvocation{
			{Name: "a"},
			{Name: "b"},
		}},
	})

	require.Len(t, result.ToolCalls, 2, "terminal list wins over the incremental one")
	assert.Equal(t, "a", result.ToolCalls[0].Name)
	assert.Equal(t, "b", result.ToolCalls[1].Name)
}

func TestDoneWithoutToolCallsKeepsAccumulated(t *testing.T) {
	result := ReduceAll([]domain.Event{
		toolCall("lookup", nil),
		{Type: domain.EventDone, TraceID: "tr-4"},
	})

	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "lookup", result.ToolCalls[0].Name)
}

func TestErrorTaintsAccumulatedToolCalls(t *testing.T) {
	result := ReduceAll([]domain.Event{
		toolCall("a", nil),
		toolCall("b", nil),
		{Type: domain.EventError, Message: "stream aborted"},
	})

	assert.Equal(t, domain.StatusError, result.Status)
	assert.Equal(t, "stream aborted", result.ErrorMessage)
	require.Len(t, result.ToolCalls, 2)
	for _, call := range result.ToolCalls {
		assert.Equal(t, domain.CallError, call.Status)
	}
}

func TestErrorPreservesPartialText(t *testing.T) {
	result := ReduceAll([]domain.Event{
		token("partial"),
		{Type: domain.EventError, Message: "upstream timeout"},
	})

	assert.Equal(t, "partial", result.Text)
	assert.Empty(t, result.ToolCalls)
	assert.Empty(t, result.TraceID)
	assert.Equal(t, domain.StatusError, result.Status)
	assert.Equal(t, "upstream timeout", result.ErrorMessage)
}

func TestDoneWithoutTraceIsStillSuccess(t *testing.T) {
	result := ReduceAll([]domain.Event{
		token("answer"),
		{Type: domain.EventDone},
	})

	assert.Equal(t, domain.StatusDone, result.Status)
	assert.False(t, result.HasTrace())
}

func TestEventsAfterTerminalAreIgnored(t *testing.T) {
	done := ReduceAll([]domain.Event{
		token("final"),
		{Type: domain.EventDone, TraceID: "tr-5"},
	})

	after := Reduce(done, token("late"))
	assert.Equal(t, done, after)

	after = Reduce(done, domain.Event{Type: domain.EventError, Message: "late error"})
	assert.Equal(t, done, after)
}

func TestReduceDoesNotMutatePrior(t *testing.T) {
	prior := ReduceAll([]domain.Event{
		toolCall("a", nil),
	})

	_ = Reduce(prior, domain.Event{Type: domain.EventError, Message: "boom"})
	assert.Equal(t, domain.CallSuccess, prior.ToolCalls[0].Status, "prior snapshot must stay intact")

	_ = Reduce(prior, toolCall("b", nil))
	assert.Len(t, prior.ToolCalls, 1)
}

func TestDoneCapturesSessionID(t *testing.T) {
	result := ReduceAll([]domain.Event{
		token("hi"),
		{Type: domain.EventDone, TraceID: "tr-6", SessionID: "s-1"},
	})

	assert.Equal(t, "s-1", result.SessionID)
}
