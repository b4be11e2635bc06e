package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryHistory implements History without persistence. Used when no
// database is configured and in tests.
type MemoryHistory struct {
	mu        sync.Mutex
	exchanges []ExchangeRecord
	feedback  map[string]bool
}

// NewMemoryHistory creates an empty in-memory history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{feedback: make(map[string]bool)}
}

func (m *MemoryHistory) SaveExchange(rec ExchangeRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	m.mu.Lock()
	m.exchanges = append(m.exchanges, rec)
	m.mu.Unlock()
	return rec.ID, nil
}

func (m *MemoryHistory) Recent(limit int) ([]ExchangeRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ExchangeRecord
	for i := len(m.exchanges) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.exchanges[i])
	}
	return out, nil
}

func (m *MemoryHistory) ByTrace(traceID string) (*ExchangeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.exchanges) - 1; i >= 0; i-- {
		if m.exchanges[i].TraceID == traceID {
			rec := m.exchanges[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *MemoryHistory) HasFeedback(traceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feedback[traceID], nil
}

func (m *MemoryHistory) RecordFeedback(traceID string) error {
	m.mu.Lock()
	m.feedback[traceID] = true
	m.mu.Unlock()
	return nil
}
