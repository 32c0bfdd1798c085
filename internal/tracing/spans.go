package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrHTTPMethod = "http.request.method"
	AttrHTTPStatus = "http.response.status_code"
	AttrURL        = "url.full"
	AttrClientID   = "client.id"
	AttrPostalCode = "postal_code"
	AttrCacheHit   = "cache.hit"
	AttrOutcome    = "outcome"
)

// Span names.
const (
	SpanClientsList   = "clients.list"
	SpanClientsCreate = "clients.create"
	SpanClientsUpdate = "clients.update"
	SpanClientsDelete = "clients.delete"
	SpanLookupResolve = "lookup.resolve"
	SpanMockAPI       = "mockapi.request"
)

// StartClient opens a client-kind span for an outgoing remote call.
func StartClient(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// End records err on span (if any) and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
