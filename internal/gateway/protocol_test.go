package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	f, err := NewRequest("r1", "exchange.start", map[string]string{"question": "hi"})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeRequest, f.Type)
	assert.Equal(t, "r1", f.ID)
	assert.Equal(t, "exchange.start", f.Method)

	var params map[string]string
	require.NoError(t, json.Unmarshal(f.Params, &params))
	assert.Equal(t, "hi", params["question"])
}

func TestNewResponse(t *testing.T) {
	f, err := NewResponse("r1", map[string]bool{"reset": true})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeResponse, f.Type)
	require.NotNil(t, f.OK)
	assert.True(t, *f.OK)
	assert.Nil(t, f.Error)
}

func TestNewErrorResponse(t *testing.T) {
	f := NewErrorResponse("r1", ErrorShape{Code: "busy", Message: "in flight", Retryable: true})
	assert.Equal(t, FrameTypeResponse, f.Type)
	require.NotNil(t, f.OK)
	assert.False(t, *f.OK)
	require.NotNil(t, f.Error)
	assert.Equal(t, "busy", f.Error.Code)
	assert.True(t, f.Error.Retryable)
}

func TestNewEvent(t *testing.T) {
	f, err := NewEvent("exchange.snapshot", map[string]string{"requestId": "r1"}, 7)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeEvent, f.Type)
	assert.Equal(t, "exchange.snapshot", f.Event)
	assert.Equal(t, int64(7), f.Seq)
}

func TestFrameRoundTrip(t *testing.T) {
	f, err := NewRequest("r2", "health", nil)
	require.NoError(t, err)

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var got Frame
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, f.Type, got.Type)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, f.Method, got.Method)
}
