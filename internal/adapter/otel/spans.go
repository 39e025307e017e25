package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sesbridge"

// StartAuthorizeSpan starts a span for an access decision.
func StartAuthorizeSpan(ctx context.Context, companyID, path string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "authorize",
		trace.WithAttributes(
			attribute.String("company.id", companyID),
			attribute.String("http.path", path),
		),
	)
}

// StartTransitionSpan starts a span for a request workflow transition.
func StartTransitionSpan(ctx context.Context, requestID, target string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "request.transition",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("transition.target", target),
		),
	)
}
