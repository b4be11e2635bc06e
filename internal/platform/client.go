// Package platform is the HTTP client for the hosted analysis agent:
// the streaming question endpoints, feedback submission, and the
// tracing metadata lookup.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/blitz/internal/domain"
	"github.com/soyeahso/blitz/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Options configures a platform client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Auth    Credentials
}

// Client talks to the agent platform. It satisfies exchange.Transport.
type Client struct {
	baseURL string
	auth    authorizer
	log     *logging.Logger

	// streamClient has no timeout: a stream stays open as long as the
	// agent keeps producing. unaryClient bounds the short calls.
	streamClient *http.Client
	unaryClient  *http.Client
}

// NewClient creates a platform client. ctx scopes oauth token
// refreshes, so pass one that outlives the client's use.
func NewClient(ctx context.Context, opts Options, log *logging.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("platform base URL is required")
	}
	auth, err := newAuthorizer(ctx, opts.Auth)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		auth:         auth,
		log:          log.Sub("platform"),
		streamClient: &http.Client{},
		unaryClient:  &http.Client{Timeout: timeout},
	}, nil
}

type analyzeRequest struct {
	Question string `json:"question"`
}

type multiTurnRequest struct {
	Question    string `json:"question"`
	SessionID   string `json:"session_id,omitempty"`
	IsFirstTurn bool   `json:"is_first_turn"`
}

// OpenStream submits a question and returns the raw event stream.
// First turns without a session go to the single-shot endpoint; turns
// in a correlated conversation use the multi-turn endpoint.
func (c *Client) OpenStream(ctx context.Context, q domain.Question) (io.ReadCloser, error) {
	var path string
	var payload any
	if q.SessionID == "" && q.IsFirstTurn {
		path = "/api/assistant/analyze-stream"
		payload = analyzeRequest{Question: q.Text}
	} else {
		path = "/api/assistant/multi-turn-stream"
		payload = multiTurnRequest{
			Question:    q.Text,
			SessionID:   q.SessionID,
			IsFirstTurn: q.IsFirstTurn,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if err := c.auth.authorize(req); err != nil {
		return nil, err
	}

	c.log.Debug().Str("path", path).Bool("firstTurn", q.IsFirstTurn).Msg("opening stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("platform error (%d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return resp.Body, nil
}

type feedbackRequest struct {
	TraceID  string `json:"trace_id"`
	Rating   string `json:"rating"`
	Comment  string `json:"comment,omitempty"`
	UserName string `json:"user_name,omitempty"`
}

type feedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SubmitFeedback attaches a rating to a trace.
func (c *Client) SubmitFeedback(ctx context.Context, sub domain.FeedbackSubmission) (domain.FeedbackAck, error) {
	var resp feedbackResponse
	err := c.postJSON(ctx, "/api/assistant/feedback", feedbackRequest{
		TraceID:  sub.TraceID,
		Rating:   string(sub.Rating),
		Comment:  sub.Comment,
		UserName: sub.UserName,
	}, &resp)
	if err != nil {
		return domain.FeedbackAck{}, err
	}
	return domain.FeedbackAck{Success: resp.Success, Message: resp.Message}, nil
}

type tracingResponse struct {
	ExperimentID       string `json:"experiment_id"`
	Link               string `json:"link"`
	TraceURLTemplate   string `json:"trace_url_template"`
	SessionURLTemplate string `json:"session_url_template"`
}

// TracingInfo fetches the trace link template. Cosmetic; callers
// tolerate failure.
func (c *Client) TracingInfo(ctx context.Context) (domain.TracingInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tracing-experiment", nil)
	if err != nil {
		return domain.TracingInfo{}, fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.auth.authorize(req); err != nil {
		return domain.TracingInfo{}, err
	}

	resp, err := c.unaryClient.Do(req)
	if err != nil {
		return domain.TracingInfo{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.TracingInfo{}, fmt.Errorf("platform error (%d)", resp.StatusCode)
	}
	var tr tracingResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return domain.TracingInfo{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return domain.TracingInfo{
		ExperimentID:       tr.ExperimentID,
		Link:               tr.Link,
		URLTemplate:        tr.TraceURLTemplate,
		SessionURLTemplate: tr.SessionURLTemplate,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.auth.authorize(req); err != nil {
		return err
	}

	resp, err := c.unaryClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The platform reports rejections as a structured failure
		// body when it can.
		if json.Unmarshal(respBody, out) == nil {
			return nil
		}
		return fmt.Errorf("platform error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
