package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/blitz/internal/domain"
)

func TestDecodeChunkTokens(t *testing.T) {
	chunk := []byte("data: {\"type\":\"token\",\"content\":\"Hello \"}\n" +
		"data: {\"type\":\"token\",\"content\":\"coach\"}\n")

	events, rest := DecodeChunk(nil, chunk)
	require.Len(t, events, 2)
	assert.Empty(t, rest)
	assert.Equal(t, domain.EventToken, events[0].Type)
	assert.Equal(t, "Hello ", events[0].Content)
	assert.Equal(t, "coach", events[1].Content)
}

func TestDecodeChunkSplitAcrossChunks(t *testing.T) {
	full := "data: {\"type\":\"token\",\"content\":\"split record\"}\n"

	events, rest := DecodeChunk(nil, []byte(full[:17]))
	assert.Empty(t, events)
	assert.Equal(t, []byte(full[:17]), rest)

	events, rest = DecodeChunk(rest, []byte(full[17:]))
	require.Len(t, events, 1)
	assert.Empty(t, rest)
	assert.Equal(t, "split record", events[0].Content)
}

func TestDecodeChunkMultipleRecordsOneChunk(t *testing.T) {
	chunk := []byte("data: {\"type\":\"token\",\"content\":\"a\"}\n\n" +
		"data: {\"type\":\"token\",\"content\":\"b\"}\n" +
		"data: {\"type\":\"done\",\"trace_id\":\"tr-1\"}\n")

	events, rest := DecodeChunk(nil, chunk)
	require.Len(t, events, 3)
	assert.Empty(t, rest)
	assert.Equal(t, domain.EventDone, events[2].Type)
	assert.Equal(t, "tr-1", events[2].TraceID)
}

func TestDecodeToolCall(t *testing.T) {
	chunk := []byte(`data: {"type":"tool_call","tool":{"name":"lookup","arguments":{"team":"X"}}}` + "\n")

	events, _ := DecodeChunk(nil, chunk)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Tool)
	assert.Equal(t, "lookup", events[0].Tool.Name)
	assert.Equal(t, map[string]any{"team": "X"}, events[0].Tool.Arguments.Fields)
	assert.False(t, events[0].Tool.Arguments.Invalid)
}

func TestDecodeToolCallLegacyFunctionName(t *testing.T) {
	chunk := []byte(`data: {"type":"tool_call","tool":{"function_name":"standings","arguments":"{\"season\":2025}"}}` + "\n")

	events, _ := DecodeChunk(nil, chunk)
	require.Len(t, events, 1)
	assert.Equal(t, "standings", events[0].Tool.Name)
	assert.Equal(t, map[string]any{"season": float64(2025)}, events[0].Tool.Arguments.Fields)
}

func TestDecodeToolCallMalformedArguments(t *testing.T) {
	chunk := []byte(`data: {"type":"tool_call","tool":{"name":"lookup","arguments":"not json{"}}` + "\n")

	events, _ := DecodeChunk(nil, chunk)
	require.Len(t, events, 1, "malformed arguments must not drop the event")
	assert.True(t, events[0].Tool.Arguments.Invalid)
	assert.Equal(t, "not json{", events[0].Tool.Arguments.Raw)
	assert.Nil(t, events[0].Tool.Arguments.Fields)
}

func TestDecodeDoneWithToolCalls(t *testing.T) {
	chunk := []byte(`data: {"type":"done","trace_id":"tr-2","session_id":"s-1","tool_calls":[{"name":"lookup","arguments":{"team":"X"}}]}` + "\n")

	events, _ := DecodeChunk(nil, chunk)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "tr-2", ev.TraceID)
	assert.Equal(t, "s-1", ev.SessionID)
	require.Len(t, ev.ToolCalls, 1)
	assert.Equal(t, "lookup", ev.ToolCalls[0].Name)
}

func TestDecodeError(t *testing.T) {
	chunk := []byte(`data: {"type":"error","error":"upstream timeout"}` + "\n")

	events, _ := DecodeChunk(nil, chunk)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventError, events[0].Type)
	assert.Equal(t, "upstream timeout", events[0].Message)
}

func TestDecodeSkipsJunk(t *testing.T) {
	chunk := []byte(": keepalive\n" +
		"event: something\n" +
		"data: {\"type\":\"mystery\",\"content\":\"x\"}\n" +
		"data: not json at all\n" +
		"data: {\"type\":\"token\",\"content\":\"kept\"}\n")

	events, _ := DecodeChunk(nil, chunk)
	require.Len(t, events, 1, "junk lines and unknown types are skipped")
	assert.Equal(t, "kept", events[0].Content)
}

func TestDecodeCRLF(t *testing.T) {
	chunk := []byte("data: {\"type\":\"token\",\"content\":\"crlf\"}\r\n")

	events, _ := DecodeChunk(nil, chunk)
	require.Len(t, events, 1)
	assert.Equal(t, "crlf", events[0].Content)
}

func TestDecoderFlush(t *testing.T) {
	var d Decoder
	events := d.Decode([]byte(`data: {"type":"done","trace_id":"tr-3"}`))
	assert.Empty(t, events, "no newline yet")

	events = d.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, "tr-3", events[0].TraceID)
	assert.Empty(t, d.Flush())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := []domain.Event{
		{Type: domain.EventToken, Content: "Answer: "},
		{Type: domain.EventToolCall, Tool: &domain.ToolInvocation{
			Name:      "lookup",
			Arguments: domain.ArgumentValue{Fields: map[string]any{"team": "X"}},
		}},
		{Type: domain.EventDone, TraceID: "tr-9", SessionID: "s-2"},
	}

	var buf bytes.Buffer
	for _, ev := range original {
		require.NoError(t, Encode(&buf, ev))
	}

	decoded, rest := DecodeChunk(nil, buf.Bytes())
	assert.Empty(t, rest)
	require.Len(t, decoded, len(original))
	assert.Equal(t, "Answer: ", decoded[0].Content)
	assert.Equal(t, "lookup", decoded[1].Tool.Name)
	assert.Equal(t, "tr-9", decoded[2].TraceID)
	assert.Equal(t, "s-2", decoded[2].SessionID)
}

func TestEncodeErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, domain.Event{Type: domain.EventError, Message: "boom"}))
	assert.Equal(t, "data: {\"type\":\"error\",\"error\":\"boom\"}\n\n", buf.String())
}
