package services

import (
	"context"
	"sort"
	"sync"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"

	"go.opentelemetry.io/otel/attribute"
)

// SentEmail is one message captured by TestEmailService
type SentEmail struct {
	To       string
	Subject  string
	Template string
	Data     map[string]interface{}
}

// TestEmailService implements the EmailService interface for testing purposes.
// It doesn't actually send emails but logs the operations and keeps them in memory.
type TestEmailService struct {
	cfg    *config.Config
	logger *observability.Logger

	mu   sync.Mutex
	sent []SentEmail
}

var _ serviceinterfaces.EmailService = (*TestEmailService)(nil)

// NewTestEmailService creates a new TestEmailService instance
func NewTestEmailService(cfg *config.Config, logger *observability.Logger) *TestEmailService {
	return &TestEmailService{
		cfg:    cfg,
		logger: logger,
	}
}

// SendStatusUpdate records a status update email (test mode - just logs)
func (e *TestEmailService) SendStatusUpdate(ctx context.Context, user models.User, item models.FeedbackItem) error {
	if user.Email == "" {
		e.logger.Warn(ctx, "User has no email address, skipping status update", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil
	}

	return e.SendEmail(ctx, user.Email, "Report status update", "status_update", map[string]interface{}{
		"FeedbackID": item.ID,
		"Status":     string(item.Status),
		"Response":   item.AdminResponse,
	})
}

// SendEmail logs the email and keeps it for later inspection
func (e *TestEmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) error {
	ctx, span := observability.TraceNotificationFunction(ctx, "TestSendEmail",
		attribute.String("email.to", to),
		attribute.String("email.template", templateName),
	)
	defer span.End()

	e.logger.Info(ctx, "TEST MODE: Would send email", map[string]interface{}{
		"to":        to,
		"subject":   subject,
		"template":  templateName,
		"test_mode": true,
		"data_keys": getMapKeys(data),
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, SentEmail{To: to, Subject: subject, Template: templateName, Data: data})
	return nil
}

// Sent returns the captured emails
func (e *TestEmailService) Sent() []SentEmail {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]SentEmail, len(e.sent))
	copy(out, e.sent)
	return out
}

// IsEnabled always reports true in test mode
func (e *TestEmailService) IsEnabled() bool {
	return true
}

func getMapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
