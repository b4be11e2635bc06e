// Package feedback binds a quality rating to the trace of a finalized
// exchange. Precondition failures are rejected locally without a
// network call so callers can explain why feedback is unavailable.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/soyeahso/blitz/internal/domain"
	"github.com/soyeahso/blitz/internal/logging"
)

var (
	// ErrNotFinalized means the exchange has not finished successfully.
	ErrNotFinalized = errors.New("exchange is not finalized successfully")

	// ErrNoTrace means the exchange finished without a trace id, so
	// there is nothing to attach feedback to.
	ErrNoTrace = errors.New("exchange has no trace id")

	// ErrAlreadySubmitted means feedback for this trace was already
	// accepted.
	ErrAlreadySubmitted = errors.New("feedback already submitted for this trace")
)

// RetryableError wraps a transport failure during submission. The
// trace stays eligible; the caller may retry.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("feedback submission failed (retryable): %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// Sender issues a feedback submission to the platform.
type Sender interface {
	SubmitFeedback(ctx context.Context, sub domain.FeedbackSubmission) (domain.FeedbackAck, error)
}

// Guard durably records which traces already received feedback. Used
// in addition to the in-memory marker so the once-per-trace rule holds
// across restarts.
type Guard interface {
	HasFeedback(traceID string) (bool, error)
	RecordFeedback(traceID string) error
}

// Binder enforces the feedback preconditions and the once-per-trace
// rule.
type Binder struct {
	sender Sender
	guard  Guard
	log    *logging.Logger

	mu        sync.Mutex
	submitted map[string]bool
}

// NewBinder creates a binder. guard may be nil; the in-memory marker
// still applies.
func NewBinder(sender Sender, guard Guard, log *logging.Logger) *Binder {
	return &Binder{
		sender:    sender,
		guard:     guard,
		log:       log.Sub("feedback"),
		submitted: make(map[string]bool),
	}
}

// Submit validates the exchange and sends one feedback submission for
// its trace. The already-submitted marker is set only after the
// platform confirms success.
func (b *Binder) Submit(ctx context.Context, result domain.ExchangeResult, rating domain.Rating, comment, userName string) (domain.FeedbackAck, error) {
	if result.Status != domain.StatusDone {
		return domain.FeedbackAck{}, ErrNotFinalized
	}
	if !result.HasTrace() {
		return domain.FeedbackAck{}, ErrNoTrace
	}
	if !rating.Valid() {
		return domain.FeedbackAck{}, fmt.Errorf("invalid rating %q", rating)
	}
	if done, err := b.alreadySubmitted(result.TraceID); err != nil {
		return domain.FeedbackAck{}, err
	} else if done {
		return domain.FeedbackAck{}, ErrAlreadySubmitted
	}

	ack, err := b.sender.SubmitFeedback(ctx, domain.FeedbackSubmission{
		TraceID:  result.TraceID,
		Rating:   rating,
		Comment:  comment,
		UserName: userName,
	})
	if err != nil {
		b.log.Warn().Err(err).Str("traceId", result.TraceID).Msg("feedback submission failed")
		return domain.FeedbackAck{}, &RetryableError{Err: err}
	}
	if !ack.Success {
		return ack, nil
	}

	b.mark(result.TraceID)
	b.log.Info().Str("traceId", result.TraceID).Str("rating", string(rating)).Msg("feedback submitted")
	return ack, nil
}

func (b *Binder) alreadySubmitted(traceID string) (bool, error) {
	b.mu.Lock()
	seen := b.submitted[traceID]
	b.mu.Unlock()
	if seen {
		return true, nil
	}
	if b.guard != nil {
		has, err := b.guard.HasFeedback(traceID)
		if err != nil {
			return false, fmt.Errorf("check feedback guard: %w", err)
		}
		return has, nil
	}
	return false, nil
}

func (b *Binder) mark(traceID string) {
	b.mu.Lock()
	b.submitted[traceID] = true
	b.mu.Unlock()

	if b.guard != nil {
		if err := b.guard.RecordFeedback(traceID); err != nil {
			b.log.Warn().Err(err).Str("traceId", traceID).Msg("failed to persist feedback marker")
		}
	}
}
