package exchange

import (
	"context"
	"sync"

	"github.com/soyeahso/blitz/internal/domain"
)

// Conversation threads a platform session id across exchanges so later
// questions are interpreted as follow-ups. The id is captured from the
// first successful terminal event that carries one; an error on turn
// one leaves the conversation uncorrelated and the next Ask goes out
// as a fresh first turn.
type Conversation struct {
	coord *Coordinator

	mu        sync.Mutex
	sessionID string
}

// NewConversation wraps a coordinator with session correlation.
func NewConversation(coord *Coordinator) *Conversation {
	return &Conversation{coord: coord}
}

// Ask starts an exchange for the question text, carrying the captured
// session id when one exists.
func (c *Conversation) Ask(ctx context.Context, text string, observe Snapshot) (*Exchange, error) {
	sessionID := c.SessionID()
	q := domain.Question{
		Text:        text,
		SessionID:   sessionID,
		IsFirstTurn: sessionID == "",
	}

	return c.coord.Start(ctx, q, func(result domain.ExchangeResult) {
		if result.Status == domain.StatusDone && result.SessionID != "" {
			c.capture(result.SessionID)
		}
		if observe != nil {
			observe(result)
		}
	})
}

func (c *Conversation) capture(id string) {
	c.mu.Lock()
	if c.sessionID == "" {
		c.sessionID = id
	}
	c.mu.Unlock()
}

// SessionID returns the captured session id, or "" before the first
// successful turn.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Reset discards the session so the next Ask starts a fresh
// conversation.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.sessionID = ""
	c.mu.Unlock()
}
