package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/soyeahso/blitz/internal/domain"
	"github.com/soyeahso/blitz/internal/exchange"
	"github.com/soyeahso/blitz/internal/feedback"
	"github.com/soyeahso/blitz/internal/protocol"
	"github.com/soyeahso/blitz/internal/store"
	"github.com/soyeahso/blitz/internal/stream"
)

// exchangeTimeout bounds one relayed exchange end to end.
const exchangeTimeout = 5 * time.Minute

const maxRequestBody = 1 << 20 // 1MB

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST /api/assistant/analyze-stream", s.handleAnalyzeStream)
	mux.HandleFunc("POST /api/assistant/multi-turn-stream", s.handleMultiTurnStream)
	mux.HandleFunc("POST /api/assistant/feedback", s.handleFeedback)
	mux.HandleFunc("GET /api/tracing-experiment", s.handleTracingInfo)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all WebSocket RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("exchange.start", s.rpcExchangeStart)
	s.Handle("exchange.reset", s.rpcExchangeReset)
	s.Handle("feedback.submit", s.rpcFeedbackSubmit)
	s.Handle("history.recent", s.rpcHistoryRecent)
	s.Handle("tracing.info", s.rpcTracingInfo)
}

// --- HTTP relay handlers ---

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	result := AuthorizeHTTP(s.auth, r)
	if !result.OK {
		s.authLimiter.recordFailure(r.RemoteAddr)
		writeJSONError(w, http.StatusUnauthorized, result.Reason)
		return false
	}
	return true
}

type analyzeStreamBody struct {
	Question string `json:"question"`
}

func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var body analyzeStreamBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Question == "" {
		writeJSONError(w, http.StatusBadRequest, "question is required")
		return
	}

	s.relayStream(w, r, domain.Question{Text: body.Question, IsFirstTurn: true})
}

type multiTurnStreamBody struct {
	Question    string `json:"question"`
	SessionID   string `json:"session_id,omitempty"`
	IsFirstTurn bool   `json:"is_first_turn"`
}

func (s *Server) handleMultiTurnStream(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var body multiTurnStreamBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Question == "" {
		writeJSONError(w, http.StatusBadRequest, "question is required")
		return
	}

	s.relayStream(w, r, domain.Question{
		Text:        body.Question,
		SessionID:   body.SessionID,
		IsFirstTurn: body.IsFirstTurn,
	})
}

// relayStream opens the upstream event stream and re-emits each decoded
// record downstream, reducing a result on the side for history.
func (s *Server) relayStream(w http.ResponseWriter, r *http.Request, q domain.Question) {
	ctx, cancel := context.WithTimeout(r.Context(), exchangeTimeout)
	defer cancel()

	upstream, err := s.platform.OpenStream(ctx, q)
	if err != nil {
		s.log.Warn().Err(err).Msg("upstream open failed")
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer upstream.Close()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	result := stream.NewResult()
	emit := func(ev domain.Event) bool {
		result = stream.Reduce(result, ev)
		if err := protocol.Encode(w, ev); err != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return !result.Finalized()
	}

	var dec protocol.Decoder
	buf := make([]byte, 4096)
	for {
		n, readErr := upstream.Read(buf)
		if n > 0 {
			for _, ev := range dec.Decode(buf[:n]) {
				if !emit(ev) {
					s.saveExchange(q, result)
					return
				}
			}
		}
		if readErr != nil {
			for _, ev := range dec.Flush() {
				if !emit(ev) {
					s.saveExchange(q, result)
					return
				}
			}
			if !result.Finalized() {
				// Upstream died mid-stream; surface it as an
				// in-band terminal error downstream.
				emit(domain.Event{Type: domain.EventError, Message: "stream ended before completion"})
			}
			s.saveExchange(q, result)
			return
		}
	}
}

func (s *Server) saveExchange(q domain.Question, result domain.ExchangeResult) {
	if s.history == nil || !result.Finalized() {
		return
	}
	if _, err := s.history.SaveExchange(store.NewRecord(q.Text, result)); err != nil {
		s.log.Warn().Err(err).Msg("failed to save exchange")
	}
}

type feedbackBody struct {
	TraceID  string `json:"trace_id"`
	Rating   string `json:"rating"`
	Comment  string `json:"comment,omitempty"`
	UserName string `json:"user_name,omitempty"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var body feedbackBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ack, err := s.submitFeedback(r.Context(), body.TraceID, domain.Rating(body.Rating), body.Comment, body.UserName)
	if err != nil {
		status, retryable := feedbackErrorStatus(err)
		writeJSON(w, status, map[string]any{
			"success":   false,
			"message":   err.Error(),
			"retryable": retryable,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": ack.Success, "message": ack.Message})
}

func (s *Server) handleTracingInfo(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	info, err := s.platform.TracingInfo(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tracingPayload(info))
}

// submitFeedback resolves the exchange behind a trace id and runs it
// through the binder.
func (s *Server) submitFeedback(ctx context.Context, traceID string, rating domain.Rating, comment, userName string) (domain.FeedbackAck, error) {
	result := domain.ExchangeResult{TraceID: traceID, Status: domain.StatusDone}
	if s.history != nil && traceID != "" {
		rec, err := s.history.ByTrace(traceID)
		if err != nil {
			return domain.FeedbackAck{}, err
		}
		if rec != nil {
			result = domain.ExchangeResult{
				Text:         rec.Answer,
				ToolCalls:    rec.ToolCalls,
				TraceID:      rec.TraceID,
				SessionID:    rec.SessionID,
				Status:       rec.Status,
				ErrorMessage: rec.ErrorMessage,
			}
		}
	}
	if userName == "" {
		userName = s.cfg.Assistant.UserName
	}
	return s.binder.Submit(ctx, result, rating, comment, userName)
}

// feedbackErrorStatus maps binder errors to HTTP statuses.
func feedbackErrorStatus(err error) (status int, retryable bool) {
	var retryErr *feedback.RetryableError
	switch {
	case errors.As(err, &retryErr):
		return http.StatusBadGateway, true
	case errors.Is(err, feedback.ErrAlreadySubmitted):
		return http.StatusConflict, false
	case errors.Is(err, feedback.ErrNotFinalized), errors.Is(err, feedback.ErrNoTrace):
		return http.StatusBadRequest, false
	default:
		return http.StatusBadRequest, false
	}
}

// --- WebSocket RPC handlers ---

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.clients.Count(),
	})
}

type exchangeStartParams struct {
	Question string `json:"question"`
}

// snapshotEvent is the payload of an exchange.snapshot event.
type snapshotEvent struct {
	RequestID string                `json:"requestId"`
	Result    domain.ExchangeResult `json:"result"`
}

func (s *Server) rpcExchangeStart(rc *RequestContext) {
	var p exchangeStartParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Question == "" {
		rc.RespondError("invalid_params", "question is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), exchangeTimeout)
	defer cancel()

	ex, err := rc.Client.Conv.Ask(ctx, p.Question, func(result domain.ExchangeResult) {
		rc.Client.SendEvent("exchange.snapshot", snapshotEvent{
			RequestID: rc.Frame.ID,
			Result:    result,
		}, s.eventSeq.Add(1))
	})
	if errors.Is(err, exchange.ErrBusy) {
		rc.RespondErrorShape(ErrorShape{
			Code:      "busy",
			Message:   "an exchange is already in flight on this connection",
			Retryable: true,
		})
		return
	}
	if err != nil {
		rc.RespondError("exchange_error", err.Error())
		return
	}

	result, err := ex.Wait(ctx)
	if err != nil {
		ex.Cancel()
		rc.RespondError("timeout", "exchange did not finish in time")
		return
	}

	s.saveExchange(domain.Question{Text: p.Question, SessionID: result.SessionID}, result)
	rc.Respond(map[string]any{
		"result":    result,
		"sessionId": rc.Client.Conv.SessionID(),
	})
}

func (s *Server) rpcExchangeReset(rc *RequestContext) {
	rc.Client.Conv.Reset()
	rc.Respond(map[string]any{"reset": true})
}

type feedbackSubmitParams struct {
	TraceID  string `json:"traceId"`
	Rating   string `json:"rating"`
	Comment  string `json:"comment,omitempty"`
	UserName string `json:"userName,omitempty"`
}

func (s *Server) rpcFeedbackSubmit(rc *RequestContext) {
	var p feedbackSubmitParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ack, err := s.submitFeedback(ctx, p.TraceID, domain.Rating(p.Rating), p.Comment, p.UserName)
	if err != nil {
		var retryErr *feedback.RetryableError
		rc.RespondErrorShape(ErrorShape{
			Code:      feedbackErrorCode(err),
			Message:   err.Error(),
			Retryable: errors.As(err, &retryErr),
		})
		return
	}
	rc.Respond(ack)
}

func feedbackErrorCode(err error) string {
	switch {
	case errors.Is(err, feedback.ErrAlreadySubmitted):
		return "already_submitted"
	case errors.Is(err, feedback.ErrNoTrace):
		return "no_trace"
	case errors.Is(err, feedback.ErrNotFinalized):
		return "not_finalized"
	default:
		return "feedback_error"
	}
}

type historyRecentParams struct {
	Limit int `json:"limit,omitempty"`
}

func (s *Server) rpcHistoryRecent(rc *RequestContext) {
	if s.history == nil {
		rc.Respond(map[string]any{"exchanges": []any{}})
		return
	}
	var p historyRecentParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	records, err := s.history.Recent(p.Limit)
	if err != nil {
		rc.RespondError("history_error", err.Error())
		return
	}
	rc.Respond(map[string]any{"exchanges": records})
}

func (s *Server) rpcTracingInfo(rc *RequestContext) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := s.platform.TracingInfo(ctx)
	if err != nil {
		rc.RespondError("tracing_error", err.Error())
		return
	}
	rc.Respond(tracingPayload(info))
}

// tracingPayload re-serves tracing metadata in the platform's own
// field names so UI clients need no translation.
func tracingPayload(info domain.TracingInfo) map[string]string {
	return map[string]string{
		"experiment_id":        info.ExperimentID,
		"link":                 info.Link,
		"trace_url_template":   info.URLTemplate,
		"session_url_template": info.SessionURLTemplate,
	}
}
