package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DomainMetrics holds the counters recorded by the feedback and identity services
type DomainMetrics struct {
	feedbackSubmitted     metric.Int64Counter
	feedbackStatusUpdated metric.Int64Counter
	feedbackDeleted       metric.Int64Counter
	identityLogins        metric.Int64Counter
	identitySignups       metric.Int64Counter
}

// NewDomainMetrics registers the domain counters on the global meter provider
func NewDomainMetrics() *DomainMetrics {
	return NewDomainMetricsWithMeter(otel.Meter("civicfeedback"))
}

// NewDomainMetricsWithMeter registers the domain counters on the given meter.
// Instrument creation errors leave the counter as a no-op.
func NewDomainMetricsWithMeter(meter metric.Meter) *DomainMetrics {
	m := &DomainMetrics{}
	m.feedbackSubmitted, _ = meter.Int64Counter("feedback.submitted",
		metric.WithDescription("Feedback items submitted"))
	m.feedbackStatusUpdated, _ = meter.Int64Counter("feedback.status_updated",
		metric.WithDescription("Feedback status updates applied by administrators"))
	m.feedbackDeleted, _ = meter.Int64Counter("feedback.deleted",
		metric.WithDescription("Feedback items deleted"))
	m.identityLogins, _ = meter.Int64Counter("identity.logins",
		metric.WithDescription("Login attempts by outcome"))
	m.identitySignups, _ = meter.Int64Counter("identity.signups",
		metric.WithDescription("Accounts created through signup"))
	return m
}

// RecordFeedbackSubmitted counts a new feedback item
func (m *DomainMetrics) RecordFeedbackSubmitted(ctx context.Context, issueType, urgency string) {
	if m == nil || m.feedbackSubmitted == nil {
		return
	}
	m.feedbackSubmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("issue_type", issueType),
		attribute.String("urgency", urgency),
	))
}

// RecordStatusUpdated counts a status transition
func (m *DomainMetrics) RecordStatusUpdated(ctx context.Context, from, to string) {
	if m == nil || m.feedbackStatusUpdated == nil {
		return
	}
	m.feedbackStatusUpdated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordFeedbackDeleted counts a deletion
func (m *DomainMetrics) RecordFeedbackDeleted(ctx context.Context) {
	if m == nil || m.feedbackDeleted == nil {
		return
	}
	m.feedbackDeleted.Add(ctx, 1)
}

// RecordLogin counts a login attempt
func (m *DomainMetrics) RecordLogin(ctx context.Context, success bool) {
	if m == nil || m.identityLogins == nil {
		return
	}
	m.identityLogins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordSignup counts a created account
func (m *DomainMetrics) RecordSignup(ctx context.Context) {
	if m == nil || m.identitySignups == nil {
		return
	}
	m.identitySignups.Add(ctx, 1)
}
