// Package exchange drives one question/answer round against the
// platform: it opens the transport, feeds decoded events through the
// reducer, and publishes intermediate snapshots to an observer.
package exchange

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/soyeahso/blitz/internal/domain"
	"github.com/soyeahso/blitz/internal/logging"
	"github.com/soyeahso/blitz/internal/protocol"
	"github.com/soyeahso/blitz/internal/stream"
)

// ErrBusy is returned by Start while another exchange is in flight.
var ErrBusy = errors.New("exchange already in flight")

// Snapshot receives each intermediate result as events arrive. The
// value is never mutated after delivery.
type Snapshot func(domain.ExchangeResult)

// Coordinator runs at most one exchange at a time for a conversation.
type Coordinator struct {
	transport Transport
	log       *logging.Logger

	mu     sync.Mutex
	active *Exchange
}

// NewCoordinator creates a coordinator over the given transport.
func NewCoordinator(transport Transport, log *logging.Logger) *Coordinator {
	return &Coordinator{
		transport: transport,
		log:       log.Sub("exchange"),
	}
}

// Exchange is one in-flight or finished question/answer round.
type Exchange struct {
	cancel  context.CancelFunc
	release func()
	done    chan struct{}

	mu       sync.Mutex
	result   domain.ExchangeResult
	canceled bool
}

// Start begins a new exchange. Returns ErrBusy if one is already in
// flight; callers retry after the previous exchange finishes or is
// canceled. The observer may be nil.
func (c *Coordinator) Start(ctx context.Context, q domain.Question, observe Snapshot) (*Exchange, error) {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return nil, ErrBusy
	}

	ctx, cancel := context.WithCancel(ctx)
	ex := &Exchange{
		cancel: cancel,
		done:   make(chan struct{}),
		result: stream.NewResult(),
	}
	ex.release = func() { c.release(ex) }
	c.active = ex
	c.mu.Unlock()

	c.log.Debug().
		Bool("firstTurn", q.IsFirstTurn).
		Str("sessionId", q.SessionID).
		Msg("starting exchange")

	go c.run(ctx, ex, q, observe)
	return ex, nil
}

func (c *Coordinator) run(ctx context.Context, ex *Exchange, q domain.Question, observe Snapshot) {
	defer close(ex.done)
	defer ex.cancel()
	defer c.release(ex)

	body, err := c.transport.OpenStream(ctx, q)
	if err != nil {
		c.log.Warn().Err(err).Msg("transport open failed")
		ex.publish(stream.Reduce(ex.snapshot(), domain.Event{
			Type:    domain.EventError,
			Message: err.Error(),
		}), observe)
		return
	}
	defer body.Close()

	var dec protocol.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, ev := range dec.Decode(buf[:n]) {
				if c.apply(ex, ev, observe) {
					return
				}
			}
		}
		if err != nil {
			for _, ev := range dec.Flush() {
				if c.apply(ex, ev, observe) {
					return
				}
			}
			// A stream that ends without a terminal event is a
			// transport failure, same as a broken connection.
			msg := "stream ended before completion"
			if !errors.Is(err, io.EOF) {
				msg = err.Error()
			}
			c.log.Warn().Str("reason", msg).Msg("stream aborted")
			ex.publish(stream.Reduce(ex.snapshot(), domain.Event{
				Type:    domain.EventError,
				Message: msg,
			}), observe)
			return
		}
	}
}

// apply reduces one event into the exchange and reports whether it was
// terminal.
func (c *Coordinator) apply(ex *Exchange, ev domain.Event, observe Snapshot) bool {
	next := stream.Reduce(ex.snapshot(), ev)
	ex.publish(next, observe)
	if next.Finalized() {
		c.log.Debug().
			Str("status", string(next.Status)).
			Str("traceId", next.TraceID).
			Int("toolCalls", len(next.ToolCalls)).
			Msg("exchange finished")
		return true
	}
	return false
}

func (c *Coordinator) release(ex *Exchange) {
	c.mu.Lock()
	if c.active == ex {
		c.active = nil
	}
	c.mu.Unlock()
}

// Cancel stops snapshot delivery and frees the coordinator for a new
// Start. The transport is aborted best-effort; the stream goroutine may
// still be draining when Cancel returns.
func (e *Exchange) Cancel() {
	e.mu.Lock()
	e.canceled = true
	e.mu.Unlock()
	e.cancel()
	e.release()
}

// Wait blocks until the exchange reaches a terminal state or ctx
// expires, and returns the latest result either way.
func (e *Exchange) Wait(ctx context.Context) (domain.ExchangeResult, error) {
	select {
	case <-e.done:
		return e.Result(), nil
	case <-ctx.Done():
		return e.Result(), ctx.Err()
	}
}

// Result returns the latest snapshot.
func (e *Exchange) Result() domain.ExchangeResult {
	return e.snapshot()
}

func (e *Exchange) snapshot() domain.ExchangeResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

func (e *Exchange) publish(result domain.ExchangeResult, observe Snapshot) {
	e.mu.Lock()
	e.result = result
	canceled := e.canceled
	e.mu.Unlock()

	if observe != nil && !canceled {
		observe(result)
	}
}
