// Package lookup resolves Brazilian postal codes (CEP) into address fields
// and bridges the lookup into the client form with a quiet-period debounce.
package lookup

import (
	"context"
	"errors"
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

	"github.com/clientflow/clientflow/internal/cachemanager"
	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/tracing"
)

// DefaultBaseURL is the public BrasilAPI CEP v1 endpoint.
const DefaultBaseURL = "https://brasilapi.com.br/api/cep/v1"

// CodeLength is the only postal code length that triggers a lookup.
const CodeLength = 8

// Address holds the fields a lookup writes into the form.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
}

// Resolver turns a postal code into an Address. A miss is clients.ErrNotFound;
// a failed call is a *clients.TransportError.
type Resolver interface {
	Resolve(ctx context.Context, code string) (Address, error)
}

// HTTPResolver queries GET {base}/{code}.
type HTTPResolver struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

type ResolverOption func(*HTTPResolver)

func WithHTTPClient(hc *http.Client) ResolverOption {
	return func(r *HTTPResolver) { r.http = hc }
}

func WithTracer(t trace.Tracer) ResolverOption {
	return func(r *HTTPResolver) { r.tracer = t }
}

func NewHTTPResolver(baseURL string, timeout time.Duration, opts ...ResolverOption) *HTTPResolver {
	r := &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tracer:  noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve treats any non-2xx answer or unreadable body as not found. Only a
// call that produced no response is a transport failure.
func (r *HTTPResolver) Resolve(ctx context.Context, code string) (addr Address, err error) {
	target := r.baseURL + "/" + url.PathEscape(code)
	ctx, span := tracing.StartClient(ctx, r.tracer, tracing.SpanLookupResolve,
		attribute.String(tracing.AttrPostalCode, code),
		attribute.String(tracing.AttrHTTPMethod, http.MethodGet),
		attribute.String(tracing.AttrURL, target),
	)
	defer func() {
		span.SetAttributes(attribute.String(tracing.AttrOutcome, outcomeLabel(err)))
		if errors.Is(err, clients.ErrNotFound) {
			tracing.End(span, nil)
			return
		}
		tracing.End(span, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Address{}, fmt.Errorf("lookup postal code: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		log.ErrorErr(log.CatLookup, "Lookup request failed", err, "code", code)
		return Address{}, &clients.TransportError{Op: "lookup postal code", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		log.Debug(log.CatLookup, "Postal code not found", "code", code, "status", resp.StatusCode)
		return Address{}, fmt.Errorf("postal code %s: %w", code, clients.ErrNotFound)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Address{}, &clients.TransportError{Op: "lookup postal code", Err: fmt.Errorf("reading body: %w", err)}
	}
	if err := json.Unmarshal(data, &addr); err != nil {
		log.ErrorErr(log.CatLookup, "Malformed lookup response", err, "code", code)
		return Address{}, fmt.Errorf("postal code %s: malformed response: %w", code, clients.ErrNotFound)
	}

	log.Debug(log.CatLookup, "Postal code resolved", "code", code, "city", addr.City)
	return addr, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, clients.ErrNotFound):
		return "not_found"
	default:
		return "failed"
	}
}

// CachedResolver remembers successful lookups. Misses and failures always go
// to the next resolver.
type CachedResolver struct {
	rtc *cachemanager.ReadThroughCache[string, Address, string]
	ttl time.Duration
}

func NewCachedResolver(next Resolver, cache cachemanager.CacheManager[string, Address], ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		rtc: cachemanager.NewReadThroughCache[string, Address, string](cache, next.Resolve, false),
		ttl: ttl,
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, code string) (Address, error) {
	addr, hit, err := c.rtc.Get(ctx, code, code, c.ttl)
	if hit {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(tracing.AttrCacheHit, true))
		log.Debug(log.CatLookup, "Postal code served from cache", "code", code)
	}
	return addr, err
}
