package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("esports-fantasy/internal/usecase")

// startUsecaseSpan only opens a child span. Scheduler runs without an incoming
// trace stay span-free.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err, if any, and ends span.
func endSpan(span trace.Span, err error) {
	if err != nil && span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func endResultSpan(span trace.Span, result Result) {
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Int64("match.id", result.MatchID),
			attribute.Int("match.players_processed", result.PlayersProcessed),
			attribute.Int("match.teams_processed", result.TeamsProcessed),
		)
		if result.Reason != "" {
			span.SetAttributes(attribute.String("match.failure_reason", string(result.Reason)))
		}
	}
	endSpan(span, result.Err())
}
