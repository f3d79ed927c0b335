// Package client is the HTTP implementation of the remote campaign store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/cadence/pkg/models"
	"github.com/moogar0880/problems"
)

// SessionHeader carries the writer's session id so the server can tag the
// invalidation it publishes.
const SessionHeader = "X-Session-ID"

const defaultTimeout = 30 * time.Second

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Problem    *problems.Problem
}

func (e *HTTPError) Error() string {
	detail := http.StatusText(e.StatusCode)
	if e.Problem != nil && e.Problem.Detail != "" {
		detail = e.Problem.Detail
	}

	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, detail)
}

// Temporary reports whether retrying could help: server errors, throttling
// and request timeouts.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= 500 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout
}

func IsNotFound(err error) bool {
	var httpErr *HTTPError

	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL   string
	http      *http.Client
	sessionID string
	logger    *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSessionID tags every write with the editing session.
func WithSessionID(id string) Option {
	return func(c *Client) { c.sessionID = id }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("module", "remote_client")

	return c
}

func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) FetchSequences(ctx context.Context, campaignID string) ([]*models.Sequence, error) {
	var out []*models.Sequence

	err := c.do(ctx, http.MethodGet, sequencesPath(campaignID), nil, &out)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) CreateSequence(ctx context.Context, sequence *models.Sequence) (*models.Sequence, error) {
	var out models.Sequence

	body := createSequenceRequest{
		CampaignID:  sequence.CampaignID,
		Name:        sequence.Name,
		Description: sequence.Description,
	}

	err := c.do(ctx, http.MethodPost, sequencesPath(sequence.CampaignID), body, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) UpdateSequence(ctx context.Context, campaignID, sequenceID string, sequence *models.Sequence) (*models.Sequence, error) {
	var out models.Sequence

	err := c.do(ctx, http.MethodPut, sequencesPath(campaignID)+"/"+url.PathEscape(sequenceID), sequence, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) ApproveEmail(ctx context.Context, campaignID, sequenceID, stepID string) error {
	path := sequencesPath(campaignID) + "/" + url.PathEscape(sequenceID) + "/steps/" + url.PathEscape(stepID) + "/approve"

	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) CreateWorkflow(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	var out models.Workflow

	err := c.do(ctx, http.MethodPost, "/workflows", workflow, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) FetchWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	var out models.Workflow

	err := c.do(ctx, http.MethodGet, "/workflows/"+url.PathEscape(workflowID), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) UpdateWorkflow(ctx context.Context, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	var out models.Workflow

	err := c.do(ctx, http.MethodPut, "/workflows/"+url.PathEscape(workflowID), workflow, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// NodeComponents fetches the node palette with field lists and schemas.
func (c *Client) NodeComponents(ctx context.Context) ([]*models.RegisteredComponent, error) {
	var out []*models.RegisteredComponent

	err := c.do(ctx, http.MethodGet, "/registry/nodes", nil, &out)

	return out, err
}

func (c *Client) StepComponents(ctx context.Context) ([]*models.RegisteredComponent, error) {
	var out []*models.RegisteredComponent

	err := c.do(ctx, http.MethodGet, "/registry/steps", nil, &out)

	return out, err
}

type createSequenceRequest struct {
	CampaignID  string `json:"campaignId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func sequencesPath(campaignID string) string {
	return "/campaigns/" + url.PathEscape(campaignID) + "/sequences"
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}

	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("remote call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}

func newHTTPError(method, path string, resp *http.Response) *HTTPError {
	httpErr := &HTTPError{StatusCode: resp.StatusCode, Method: method, Path: path}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return httpErr
	}

	var problem problems.Problem
	if json.Unmarshal(data, &problem) == nil && (problem.Title != "" || problem.Detail != "") {
		httpErr.Problem = &problem
	}

	return httpErr
}
