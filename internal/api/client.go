// Package api is the REST client for the remote client collection
// (GET/POST /clients, PUT/DELETE /clients/{id}).
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/tracing"
)

// DefaultTimeout bounds each request when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

const collectionPath = "/clients"

// Client talks to the remote client collection.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTracer records a client span per request.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// New creates a client rooted at baseURL, e.g. http://localhost:4000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tracer:  noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured origin.
func (c *Client) BaseURL() string { return c.baseURL }

// List fetches the whole collection.
func (c *Client) List(ctx context.Context) ([]clients.Client, error) {
	var out []clients.Client
	if err := c.do(ctx, tracing.SpanClientsList, "list clients", http.MethodGet, collectionPath, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []clients.Client{}
	}
	return out, nil
}

// Create posts a draft and returns the server record with its assigned id.
func (c *Client) Create(ctx context.Context, in clients.Input) (clients.Client, error) {
	var out clients.Client
	if err := c.do(ctx, tracing.SpanClientsCreate, "create client", http.MethodPost, collectionPath, in, &out); err != nil {
		return out, err
	}
	if out.ID == "" {
		return out, &clients.TransportError{Op: "create client", Err: fmt.Errorf("response carries no id")}
	}
	return out, nil
}

// Update replaces the record at id with the draft.
func (c *Client) Update(ctx context.Context, id clients.ID, in clients.Input) (clients.Client, error) {
	var out clients.Client
	err := c.do(ctx, tracing.SpanClientsUpdate, "update client", http.MethodPut, itemPath(id), in, &out,
		attribute.String(tracing.AttrClientID, id.String()))
	if err != nil {
		return out, err
	}
	// Some backends answer PUT with an empty object; the id is known.
	if out.ID == "" {
		out = in.WithID(id)
	}
	return out, nil
}

// Delete removes the record at id.
func (c *Client) Delete(ctx context.Context, id clients.ID) error {
	return c.do(ctx, tracing.SpanClientsDelete, "delete client", http.MethodDelete, itemPath(id), nil, nil,
		attribute.String(tracing.AttrClientID, id.String()))
}

func itemPath(id clients.ID) string {
	return collectionPath + "/" + url.PathEscape(id.String())
}

func (c *Client) do(ctx context.Context, span, op, method, path string, body, out any, attrs ...attribute.KeyValue) (err error) {
	target := c.baseURL + path
	attrs = append(attrs,
		attribute.String(tracing.AttrHTTPMethod, method),
		attribute.String(tracing.AttrURL, target),
	)
	ctx, s := tracing.StartClient(ctx, c.tracer, span, attrs...)
	defer func() { tracing.End(s, err) }()

	var reader io.Reader
	if body != nil {
		payload, mErr := json.Marshal(body)
		if mErr != nil {
			return fmt.Errorf("%s: encoding body: %w", op, mErr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.ErrorErr(log.CatAPI, "Request failed", err, "method", method, "url", target)
		return &clients.TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	s.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))
	log.Debug(log.CatAPI, "Request completed", "method", method, "url", target,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &clients.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("status %s", resp.Status)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &clients.TransportError{Op: op, Err: fmt.Errorf("reading body: %w", err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.ErrorErr(log.CatAPI, "Malformed response", err, "method", method, "url", target)
		return &clients.TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
