package feedback

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/blitz/internal/domain"
	"github.com/soyeahso/blitz/internal/logging"
)

type mockSender struct {
	calls []domain.FeedbackSubmission
	ack   domain.FeedbackAck
	err   error
}

func (m *mockSender) SubmitFeedback(_ context.Context, sub domain.FeedbackSubmission) (domain.FeedbackAck, error) {
	m.calls = append(m.calls, sub)
	return m.ack, m.err
}

type mockGuard struct {
	recorded map[string]bool
}

func newMockGuard() *mockGuard {
	return &mockGuard{recorded: make(map[string]bool)}
}

func (m *mockGuard) HasFeedback(traceID string) (bool, error) {
	return m.recorded[traceID], nil
}

func (m *mockGuard) RecordFeedback(traceID string) error {
	m.recorded[traceID] = true
	return nil
}

func testLogger() *logging.Logger {
	return logging.New(io.Discard, "silent")
}

func doneResult(traceID string) domain.ExchangeResult {
	return domain.ExchangeResult{Text: "answer", TraceID: traceID, Status: domain.StatusDone}
}

func TestSubmitSuccess(t *testing.T) {
	sender := &mockSender{ack: domain.FeedbackAck{Success: true}}
	binder := NewBinder(sender, nil, testLogger())

	ack, err := binder.Submit(context.Background(), doneResult("tr-1"), domain.RatingUp, "great", "alice")
	require.NoError(t, err)
	assert.True(t, ack.Success)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, domain.FeedbackSubmission{
		TraceID:  "tr-1",
		Rating:   domain.RatingUp,
		Comment:  "great",
		UserName: "alice",
	}, sender.calls[0])
}

func TestSubmitRejectsUnfinalized(t *testing.T) {
	sender := &mockSender{}
	binder := NewBinder(sender, nil, testLogger())

	_, err := binder.Submit(context.Background(), domain.ExchangeResult{Status: domain.StatusStreaming, TraceID: "tr-1"}, domain.RatingUp, "", "")
	assert.ErrorIs(t, err, ErrNotFinalized)

	_, err = binder.Submit(context.Background(), domain.ExchangeResult{Status: domain.StatusError, TraceID: "tr-1"}, domain.RatingUp, "", "")
	assert.ErrorIs(t, err, ErrNotFinalized)

	assert.Empty(t, sender.calls, "precondition failures never reach the network")
}

func TestSubmitRejectsMissingTrace(t *testing.T) {
	sender := &mockSender{}
	binder := NewBinder(sender, nil, testLogger())

	_, err := binder.Submit(context.Background(), doneResult(""), domain.RatingUp, "", "")
	assert.ErrorIs(t, err, ErrNoTrace)
	assert.Empty(t, sender.calls)
}

func TestSubmitRejectsInvalidRating(t *testing.T) {
	sender := &mockSender{}
	binder := NewBinder(sender, nil, testLogger())

	_, err := binder.Submit(context.Background(), doneResult("tr-1"), domain.Rating("meh"), "", "")
	assert.Error(t, err)
	assert.Empty(t, sender.calls)
}

func TestSubmitOncePerTrace(t *testing.T) {
	sender := &mockSender{ack: domain.FeedbackAck{Success: true}}
	binder := NewBinder(sender, nil, testLogger())

	_, err := binder.Submit(context.Background(), doneResult("tr-1"), domain.RatingUp, "", "")
	require.NoError(t, err)

	_, err = binder.Submit(context.Background(), doneResult("tr-1"), domain.RatingDown, "", "")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Len(t, sender.calls, 1, "second submit is rejected locally")

	// A different trace is unaffected.
	_, err = binder.Submit(context.Background(), doneResult("tr-2"), domain.RatingUp, "", "")
	require.NoError(t, err)
	assert.Len(t, sender.calls, 2)
}

func TestSubmitNetworkFailureIsRetryable(t *testing.T) {
	sender := &mockSender{err: errors.New("connection reset")}
	binder := NewBinder(sender, nil, testLogger())

	_, err := binder.Submit(context.Background(), doneResult("tr-1"), domain.RatingUp, "", "")
	var retryable *RetryableError
	require.ErrorAs(t, err, &retryable)

	// Failure does not set the once-per-trace marker.
	sender.err = nil
	sender.ack = domain.FeedbackAck{Success: true}
	_, err = binder.Submit(context.Background(), doneResult("tr-1"), domain.RatingUp, "", "")
	require.NoError(t, err)
	assert.Len(t, sender.calls, 2)
}

func TestSubmitPlatformRejectionNotMarked(t *testing.T) {
	sender := &mockSender{ack: domain.FeedbackAck{Success: false, Message: "rating window closed"}}
	binder := NewBinder(sender, nil, testLogger())

	ack, err := binder.Submit(context.Background(), doneResult("tr-1"), domain.RatingUp, "", "")
	require.NoError(t, err)
	assert.False(t, ack.Success)
	assert.Equal(t, "rating window closed", ack.Message)

	// Not marked; a retry is allowed.
	sender.ack = domain.FeedbackAck{Success: true}
	_, err = binder.Submit(context.Background(), doneResult("tr-1"), domain.RatingUp, "", "")
	require.NoError(t, err)
	assert.Len(t, sender.calls, 2)
}

func TestSubmitDurableGuard(t *testing.T) {
	guard := newMockGuard()
	sender := &mockSender{ack: domain.FeedbackAck{Success: true}}
	binder := NewBinder(sender, guard, testLogger())

	_, err := binder.Submit(context.Background(), doneResult("tr-1"), domain.RatingUp, "", "")
	require.NoError(t, err)
	assert.True(t, guard.recorded["tr-1"])

	// A fresh binder over the same guard still rejects the trace.
	binder2 := NewBinder(sender, guard, testLogger())
	_, err = binder2.Submit(context.Background(), doneResult("tr-1"), domain.RatingUp, "", "")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Len(t, sender.calls, 1)
}
