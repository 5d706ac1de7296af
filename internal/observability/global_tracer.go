package observability

import (
	"context"
	"fmt"

	"civicfeedback/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "civicfeedback"

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer(tracerName)
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		// Delegates to whatever provider is installed later
		return otel.Tracer(tracerName)
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceFunctionWithErrorHandling starts a new span and automatically adds error attributes if the function panics or returns an error.
func TraceFunctionWithErrorHandling(ctx context.Context, serviceName, functionName string, fn func(context.Context) error, attributes ...attribute.KeyValue) (err error) {
	ctx, span := TraceFunction(ctx, serviceName, functionName, attributes...)
	defer func() {
		if r := recover(); r != nil {
			span.SetAttributes(
				attribute.Bool("error", true),
				attribute.String("error.type", "panic"),
				attribute.String("error.message", fmt.Sprintf("%v", r)),
			)
			span.End()
			panic(r)
		}
	}()
	defer FinishSpan(span, &err)

	return fn(ctx)
}

// TraceSlotFunction starts a new span for a durable slot operation.
func TraceSlotFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "slot", functionName, attributes...)
}

// TraceStoreFunction starts a new span for a record store operation.
func TraceStoreFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "store", functionName, attributes...)
}

// TraceIdentityFunction starts a new span for an identity service function.
func TraceIdentityFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "identity", functionName, attributes...)
}

// TraceFeedbackFunction starts a new span for a feedback service function.
func TraceFeedbackFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "feedback", functionName, attributes...)
}

// TraceAnalyticsFunction starts a new span for an analytics service function.
func TraceAnalyticsFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "analytics", functionName, attributes...)
}

// TraceNotificationFunction starts a new span for a notification function.
func TraceNotificationFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "notification", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceDatabaseFunction starts a new span for a database function.
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// TraceCLIFunction starts a new span for an admin CLI command.
func TraceCLIFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "cli", functionName, attributes...)
}

// AttributeFeedback returns tracing attributes describing a feedback item.
func AttributeFeedback(item *models.FeedbackItem) []attribute.KeyValue {
	if item == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("feedback.id", item.ID),
		attribute.String("feedback.issue_type", string(item.IssueType)),
		attribute.String("feedback.status", string(item.Status)),
		attribute.String("feedback.urgency", string(item.Urgency)),
	}
}

// AttributeFeedbackID returns a tracing attribute for a feedback ID.
func AttributeFeedbackID(id string) attribute.KeyValue {
	return attribute.String("feedback.id", id)
}

// AttributeUserID returns a tracing attribute for a user ID.
func AttributeUserID(id string) attribute.KeyValue {
	return attribute.String("user.id", id)
}

// AttributeStatus returns a tracing attribute for a feedback status.
func AttributeStatus(status models.FeedbackStatus) attribute.KeyValue {
	return attribute.String("feedback.status", string(status))
}

// AttributeSlotKey returns a tracing attribute for a durable slot key.
func AttributeSlotKey(key string) attribute.KeyValue {
	return attribute.String("slot.key", key)
}

// AttributeBackend returns a tracing attribute for a store backend name.
func AttributeBackend(backend string) attribute.KeyValue {
	return attribute.String("store.backend", backend)
}

// AttributeCount returns a tracing attribute for a result count.
func AttributeCount(n int) attribute.KeyValue {
	return attribute.Int("result.count", n)
}

// AttributeSearch returns a tracing attribute for a search value.
func AttributeSearch(search string) attribute.KeyValue {
	return attribute.String("search", search)
}

// AttributeTypeFilter returns a tracing attribute for a type filter value.
func AttributeTypeFilter(typeFilter string) attribute.KeyValue {
	return attribute.String("type_filter", typeFilter)
}

// AttributeStatusFilter returns a tracing attribute for a status filter value.
func AttributeStatusFilter(statusFilter string) attribute.KeyValue {
	return attribute.String("status_filter", statusFilter)
}

// AttributeUrgencyFilter returns a tracing attribute for an urgency filter value.
func AttributeUrgencyFilter(urgencyFilter string) attribute.KeyValue {
	return attribute.String("urgency_filter", urgencyFilter)
}
