package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrAPIUnavailable reports that the daemon API could not be reached.
var ErrAPIUnavailable = errors.New("daemon API unavailable")

// APIError is a decoded error envelope returned by the daemon.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Client talks to a running daemon over its HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient builds a client for the given bind address. The token is sent as
// a bearer credential when non-empty.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := *c.base
	endpoint.Path = path
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Message
		}
		return apiErr
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Health fetches the daemon health report.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out)
	return out, err
}

// ListTemplates fetches all templates.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var out ListResponse[Template]
	if err := c.do(ctx, http.MethodGet, "/api/templates", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateTemplate creates a template with its ordered statuses.
func (c *Client) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (Template, error) {
	var out Template
	err := c.do(ctx, http.MethodPost, "/api/templates", nil, req, &out)
	return out, err
}

// ListQueues fetches all queues.
func (c *Client) ListQueues(ctx context.Context) ([]Queue, error) {
	var out ListResponse[Queue]
	if err := c.do(ctx, http.MethodGet, "/api/queues", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateQueue creates a queue bound to a template.
func (c *Client) CreateQueue(ctx context.Context, req CreateQueueRequest) (Queue, error) {
	var out Queue
	err := c.do(ctx, http.MethodPost, "/api/queues", nil, req, &out)
	return out, err
}

// GetQueue fetches a single queue.
func (c *Client) GetQueue(ctx context.Context, id string) (Queue, error) {
	var out Queue
	err := c.do(ctx, http.MethodGet, "/api/queues/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// ResetQueue closes the queue's active session and opens a fresh one.
func (c *Client) ResetQueue(ctx context.Context, id string) (ResetResult, error) {
	var out ResetResult
	err := c.do(ctx, http.MethodPost, "/api/queues/"+url.PathEscape(id)+"/reset", nil, nil, &out)
	return out, err
}

// ActiveSession fetches the queue's currently active session.
func (c *Client) ActiveSession(ctx context.Context, queueID string) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodGet, "/api/queues/"+url.PathEscape(queueID)+"/sessions/active", nil, nil, &out)
	return out, err
}

// ListSessions fetches a queue's sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, queueID string) ([]Session, error) {
	var out ListResponse[Session]
	if err := c.do(ctx, http.MethodGet, "/api/queues/"+url.PathEscape(queueID)+"/sessions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// TransitionSession moves a session to the named lifecycle state.
func (c *Client) TransitionSession(ctx context.Context, id, state string) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/transition", nil, TransitionSessionRequest{State: state}, &out)
	return out, err
}

// ListItems fetches a session's tickets, optionally filtered by status.
func (c *Client) ListItems(ctx context.Context, sessionID, statusID string) ([]Item, error) {
	var query url.Values
	if statusID != "" {
		query = url.Values{"status": {statusID}}
	}
	var out ListResponse[Item]
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID)+"/items", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// SessionStatuses fetches a session's ordered pipeline stages.
func (c *Client) SessionStatuses(ctx context.Context, sessionID string) ([]SessionStatus, error) {
	var out ListResponse[SessionStatus]
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID)+"/statuses", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
