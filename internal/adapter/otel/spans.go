package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "planforge"

// StartChatSpan starts a span for one chat turn.
func StartChatSpan(ctx context.Context, projectID int64) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "chat.turn",
		trace.WithAttributes(attribute.Int64("project.id", projectID)),
	)
}

// StartExtractionSpan starts a span for a plan extraction.
func StartExtractionSpan(ctx context.Context, projectID int64) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "plan.extract",
		trace.WithAttributes(attribute.Int64("project.id", projectID)),
	)
}

// StartInvokeSpan starts a span for a single model invocation.
func StartInvokeSpan(ctx context.Context, model string, messages int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "assistant.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.Int("llm.messages", messages),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
