package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/blitz/internal/domain"
)

// ExchangeRecord is one persisted exchange.
type ExchangeRecord struct {
	ID           string                  `json:"id"`
	SessionID    string                  `json:"sessionId,omitempty"`
	Question     string                  `json:"question"`
	Answer       string                  `json:"answer"`
	ToolCalls    []domain.ToolCallRecord `json:"toolCalls,omitempty"`
	TraceID      string                  `json:"traceId,omitempty"`
	Status       domain.ExchangeStatus   `json:"status"`
	ErrorMessage string                  `json:"errorMessage,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
}

// History stores finished exchanges and the once-per-trace feedback
// markers. Satisfies feedback.Guard.
type History interface {
	SaveExchange(rec ExchangeRecord) (string, error)
	Recent(limit int) ([]ExchangeRecord, error)
	ByTrace(traceID string) (*ExchangeRecord, error)
	HasFeedback(traceID string) (bool, error)
	RecordFeedback(traceID string) error
}

// NewRecord builds an ExchangeRecord from a finalized result.
func NewRecord(question string, result domain.ExchangeResult) ExchangeRecord {
	return ExchangeRecord{
		SessionID:    result.SessionID,
		Question:     question,
		Answer:       result.Text,
		ToolCalls:    result.ToolCalls,
		TraceID:      result.TraceID,
		Status:       result.Status,
		ErrorMessage: result.ErrorMessage,
	}
}

// SQLiteHistory implements History backed by SQLite.
type SQLiteHistory struct {
	db *DB
}

// NewSQLiteHistory creates an exchange history using the given database.
func NewSQLiteHistory(db *DB) *SQLiteHistory {
	return &SQLiteHistory{db: db}
}

// SaveExchange persists a finished exchange and returns its id.
func (s *SQLiteHistory) SaveExchange(rec ExchangeRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var toolCalls []byte
	if len(rec.ToolCalls) > 0 {
		var err error
		toolCalls, err = json.Marshal(rec.ToolCalls)
		if err != nil {
			return "", fmt.Errorf("marshal tool calls: %w", err)
		}
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO exchanges (id, session_id, question, answer, tool_calls, trace_id, status, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Question, rec.Answer, nullableText(toolCalls),
		rec.TraceID, string(rec.Status), rec.ErrorMessage,
		rec.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return "", fmt.Errorf("insert exchange: %w", err)
	}
	return rec.ID, nil
}

// Recent returns the newest exchanges, most recent first.
func (s *SQLiteHistory) Recent(limit int) ([]ExchangeRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.sql.Query(
		`SELECT id, session_id, question, answer, tool_calls, trace_id, status, error_message, created_at
		 FROM exchanges ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var out []ExchangeRecord
	for rows.Next() {
		rec, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ByTrace returns the exchange with the given trace id, or nil if none
// was recorded.
func (s *SQLiteHistory) ByTrace(traceID string) (*ExchangeRecord, error) {
	row := s.db.sql.QueryRow(
		`SELECT id, session_id, question, answer, tool_calls, trace_id, status, error_message, created_at
		 FROM exchanges WHERE trace_id = ? ORDER BY created_at DESC LIMIT 1`, traceID,
	)
	rec, err := scanExchange(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// HasFeedback reports whether feedback was already recorded for the
// trace.
func (s *SQLiteHistory) HasFeedback(traceID string) (bool, error) {
	var count int
	err := s.db.sql.QueryRow("SELECT COUNT(*) FROM feedback WHERE trace_id = ?", traceID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check feedback: %w", err)
	}
	return count > 0, nil
}

// RecordFeedback marks the trace as rated. Idempotent.
func (s *SQLiteHistory) RecordFeedback(traceID string) error {
	_, err := s.db.sql.Exec(
		"INSERT OR IGNORE INTO feedback (trace_id) VALUES (?)", traceID,
	)
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExchange(row rowScanner) (ExchangeRecord, error) {
	var rec ExchangeRecord
	var toolCalls sql.NullString
	var createdAt string

	err := row.Scan(
		&rec.ID, &rec.SessionID, &rec.Question, &rec.Answer, &toolCalls,
		&rec.TraceID, (*string)(&rec.Status), &rec.ErrorMessage, &createdAt,
	)
	if err != nil {
		return ExchangeRecord{}, err
	}

	if toolCalls.Valid && toolCalls.String != "" {
		if err := json.Unmarshal([]byte(toolCalls.String), &rec.ToolCalls); err != nil {
			return ExchangeRecord{}, fmt.Errorf("unmarshal tool calls: %w", err)
		}
	}
	rec.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	return rec, nil
}

func nullableText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
