// Package client talks to the intent REST backend.
//
// Every operation maps to exactly one HTTP request. The client does not
// retry, cache or rate-limit; failures come back as *errors.ConsoleError
// with a TRANSPORT, UPSTREAM_STATUS or MALFORMED_RESPONSE code.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/intent"
)

// ResourcePath is the backend collection path for intents.
const ResourcePath = "/intent"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Operation names used in logs, metrics and error messages.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpReport = "report"
	OpJSONLD = "jsonld"
)

// Client issues requests against one backend.
type Client struct {
	resource   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for the backend at baseURL. baseURL may or may not
// already end in /intent.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	resource := strings.TrimRight(u.String(), "/")
	if !strings.HasSuffix(resource, ResourcePath) {
		resource += ResourcePath
	}

	c := &Client{
		resource:   resource,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ResourceURL returns the absolute URL of the intent collection.
func (c *Client) ResourceURL() string {
	return c.resource
}

// List fetches every intent.
func (c *Client) List(ctx context.Context) ([]intent.Intent, error) {
	var out []intent.Intent
	err := c.call(ctx, OpList, http.MethodGet, "", nil, func(body []byte) error {
		return json.Unmarshal(body, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create submits a new intent with the fields as given. Blank fields are
// rejected before any request. The returned intent is nil when the backend
// answers with an empty body.
func (c *Client) Create(ctx context.Context, d intent.Draft) (*intent.Intent, error) {
	if err := d.Validate(); err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	var created *intent.Intent
	err := c.call(ctx, OpCreate, http.MethodPost, "", d, func(body []byte) error {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		created = &intent.Intent{}
		return json.Unmarshal(body, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces the content of intent id. The identifier travels only in
// the path.
func (c *Client) Update(ctx context.Context, id intent.ID, p intent.Patch) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return errors.NewInvalidRequest(err.Error())
	}
	return c.call(ctx, OpUpdate, http.MethodPatch, itemPath(id), p, nil)
}

// Delete removes intent id.
func (c *Client) Delete(ctx context.Context, id intent.ID) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.call(ctx, OpDelete, http.MethodDelete, itemPath(id), nil, nil)
}

// Report fetches the report entries of intent id.
func (c *Client) Report(ctx context.Context, id intent.ID) ([]intent.ReportEntry, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var out []intent.ReportEntry
	err := c.call(ctx, OpReport, http.MethodGet, itemPath(id)+"/intentReport", nil, func(body []byte) error {
		return json.Unmarshal(body, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// JSONLD fetches the JSON-LD representation of intent id.
func (c *Client) JSONLD(ctx context.Context, id intent.ID) (intent.Document, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var doc intent.Document
	err := c.call(ctx, OpJSONLD, http.MethodGet, itemPath(id)+"/json-ld", nil, func(body []byte) error {
		body = bytes.TrimSpace(body)
		if !json.Valid(body) {
			return fmt.Errorf("response is not valid JSON")
		}
		doc = intent.Document(body)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// call performs one request and hands a 2xx body to decode.
func (c *Client) call(ctx context.Context, op, method, path string, in any, decode func([]byte) error) error {
	start := time.Now()
	requestID := ulid.Make().String()
	log := c.logger.With("op", op, "request_id", requestID)

	err := c.do(ctx, op, method, path, requestID, in, decode)

	elapsed := time.Since(start)
	c.metrics.observe(op, outcome(err), elapsed)
	if err != nil {
		log.Warn("backend request failed", "method", method, "path", path, "duration", elapsed, "error", err)
		return err
	}
	log.Debug("backend request", "method", method, "path", path, "duration", elapsed)
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path, requestID string, in any, decode func([]byte) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.NewInternal(err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resource+path, reqBody)
	if err != nil {
		return errors.NewInternal(err)
	}
	req.Header.Set("Accept", "application/json, application/ld+json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransport(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errors.NewTransport(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewUpstreamStatus(op, resp.StatusCode, body)
	}

	if decode == nil {
		return nil
	}
	if err := decode(body); err != nil {
		return errors.NewMalformedResponse(op, err)
	}
	return nil
}

func itemPath(id intent.ID) string {
	return "/" + url.PathEscape(id.String())
}

func requireID(id intent.ID) error {
	if strings.TrimSpace(id.String()) == "" {
		return errors.NewInvalidRequest("intent id is required")
	}
	return nil
}
