package store

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/blitz/internal/domain"
	"github.com/soyeahso/blitz/internal/logging"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", logging.New(io.Discard, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecord(traceID string) ExchangeRecord {
	return ExchangeRecord{
		SessionID: "s-1",
		Question:  "who leads the league?",
		Answer:    "Team X leads with 42 points.",
		ToolCalls: []domain.ToolCallRecord{
			{
				Name:      "standings",
				Arguments: domain.ArgumentValue{Fields: map[string]any{"season": float64(2025)}},
				Status:    domain.CallSuccess,
			},
		},
		TraceID: traceID,
		Status:  domain.StatusDone,
	}
}

func testHistories(t *testing.T) map[string]History {
	return map[string]History{
		"sqlite": NewSQLiteHistory(openTestDB(t)),
		"memory": NewMemoryHistory(),
	}
}

func TestSaveAndLoadExchange(t *testing.T) {
	for name, h := range testHistories(t) {
		t.Run(name, func(t *testing.T) {
			id, err := h.SaveExchange(sampleRecord("tr-1"))
			require.NoError(t, err)
			assert.NotEmpty(t, id)

			rec, err := h.ByTrace("tr-1")
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, id, rec.ID)
			assert.Equal(t, "who leads the league?", rec.Question)
			assert.Equal(t, "Team X leads with 42 points.", rec.Answer)
			assert.Equal(t, domain.StatusDone, rec.Status)
			require.Len(t, rec.ToolCalls, 1)
			assert.Equal(t, "standings", rec.ToolCalls[0].Name)
			assert.Equal(t, map[string]any{"season": float64(2025)}, rec.ToolCalls[0].Arguments.Fields)
			assert.False(t, rec.CreatedAt.IsZero())
		})
	}
}

func TestByTraceMissing(t *testing.T) {
	for name, h := range testHistories(t) {
		t.Run(name, func(t *testing.T) {
			rec, err := h.ByTrace("nope")
			require.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	for name, h := range testHistories(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Now().Add(-time.Hour)
			for i := 0; i < 5; i++ {
				rec := sampleRecord("")
				rec.Question = string(rune('a' + i))
				rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
				_, err := h.SaveExchange(rec)
				require.NoError(t, err)
			}

			recent, err := h.Recent(3)
			require.NoError(t, err)
			require.Len(t, recent, 3)
			assert.Equal(t, "e", recent[0].Question)
			assert.Equal(t, "d", recent[1].Question)
			assert.Equal(t, "c", recent[2].Question)
		})
	}
}

func TestSaveErrorExchange(t *testing.T) {
	h := NewSQLiteHistory(openTestDB(t))

	_, err := h.SaveExchange(ExchangeRecord{
		Question:     "bad question",
		Answer:       "partial",
		Status:       domain.StatusError,
		ErrorMessage: "upstream timeout",
	})
	require.NoError(t, err)

	recent, err := h.Recent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.StatusError, recent[0].Status)
	assert.Equal(t, "upstream timeout", recent[0].ErrorMessage)
	assert.Empty(t, recent[0].ToolCalls)
}

func TestFeedbackMarkers(t *testing.T) {
	for name, h := range testHistories(t) {
		t.Run(name, func(t *testing.T) {
			has, err := h.HasFeedback("tr-1")
			require.NoError(t, err)
			assert.False(t, has)

			require.NoError(t, h.RecordFeedback("tr-1"))
			has, err = h.HasFeedback("tr-1")
			require.NoError(t, err)
			assert.True(t, has)

			// Idempotent.
			require.NoError(t, h.RecordFeedback("tr-1"))

			has, err = h.HasFeedback("tr-2")
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.migrate())
}
