package services

import (
	"context"
	"errors"
	"testing"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/services/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestLogger creates a logger for testing
func createTestLogger() *observability.Logger {
	cfg := &config.OpenTelemetryConfig{
		EnableLogging: false, // Disable logging for tests
	}
	return observability.NewLogger(cfg)
}

func enabledEmailConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{AppBaseURL: "https://portal.example.com"},
		Email: config.EmailConfig{
			Enabled: true,
			SMTP: config.SMTPConfig{
				Host:        "smtp.example.com",
				Port:        587,
				Username:    "test@example.com",
				Password:    "password",
				FromAddress: "noreply@example.com",
				FromName:    "Civic Portal",
			},
		},
	}
}

func TestNewEmailService(t *testing.T) {
	service := NewEmailService(enabledEmailConfig(), createTestLogger())

	assert.NotNil(t, service)
	assert.True(t, service.IsEnabled())
}

func TestNewEmailService_Disabled(t *testing.T) {
	cfg := &config.Config{
		Email: config.EmailConfig{
			Enabled: false,
		},
	}

	service := NewEmailService(cfg, createTestLogger())

	assert.NotNil(t, service)
	assert.False(t, service.IsEnabled())

	// Disabled service silently skips
	err := service.SendEmail(context.Background(), "a@b.co", "subject", "status_update", nil)
	assert.NoError(t, err)
}

func TestEmailService_SendStatusUpdate(t *testing.T) {
	sender := &mailer.RecordingSender{}
	service := NewEmailServiceWithSender(enabledEmailConfig(), createTestLogger(), sender)

	user := models.User{ID: "2", Email: "user@example.com", Name: "Regular User"}
	item := models.FeedbackItem{
		ID:            "7",
		Title:         "Broken <b>bench</b>",
		Locality:      "Elm Park",
		Status:        models.StatusResolved,
		AdminResponse: "Bench replaced",
	}

	require.NoError(t, service.SendStatusUpdate(context.Background(), user, item))

	msgs := sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"user@example.com"}, msgs[0].GetHeader("To"))
	assert.Equal(t, []string{`Your report "Broken <b>bench</b>" is now Resolved`}, msgs[0].GetHeader("Subject"))

	assert.Equal(t, []string{`"Civic Portal" <noreply@example.com>`}, msgs[0].GetHeader("From"))
}

func TestGenerateEmailContent_StatusUpdate(t *testing.T) {
	body, err := generateEmailContent("status_update", map[string]interface{}{
		"Name":       "Regular User",
		"Title":      "Broken <b>bench</b>",
		"Locality":   "Elm Park",
		"Status":     "Resolved",
		"Response":   "Bench replaced",
		"FeedbackID": "7",
		"PortalURL":  "https://portal.example.com",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Hello Regular User!")
	assert.Contains(t, body, "Bench replaced")
	assert.Contains(t, body, "https://portal.example.com/feedback/7")
	assert.NotContains(t, body, "<b>bench</b>", "template output must be escaped")

	// Optional sections are omitted
	body, err = generateEmailContent("status_update", map[string]interface{}{"Name": "A", "Status": "Pending"})
	require.NoError(t, err)
	assert.NotContains(t, body, "class=\"response\"><p>")
	assert.NotContains(t, body, "View your report")
}

func TestEmailService_SendStatusUpdate_NoEmail(t *testing.T) {
	sender := &mailer.RecordingSender{}
	service := NewEmailServiceWithSender(enabledEmailConfig(), createTestLogger(), sender)

	err := service.SendStatusUpdate(context.Background(), models.User{ID: "9"}, models.FeedbackItem{ID: "1"})
	assert.NoError(t, err)
	assert.Empty(t, sender.Messages())
}

func TestEmailService_SendFailure(t *testing.T) {
	sender := &mailer.RecordingSender{Err: errors.New("connection refused")}
	service := NewEmailServiceWithSender(enabledEmailConfig(), createTestLogger(), sender)

	err := service.SendEmail(context.Background(), "a@b.co", "subject", "test_email", map[string]interface{}{"Name": "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send email")
}

func TestEmailService_UnknownTemplate(t *testing.T) {
	service := NewEmailServiceWithSender(enabledEmailConfig(), createTestLogger(), &mailer.RecordingSender{})

	err := service.SendEmail(context.Background(), "a@b.co", "subject", "daily_digest", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate email content")
}

func TestEmailService_NotConfigured(t *testing.T) {
	service := NewEmailServiceWithSender(enabledEmailConfig(), createTestLogger(), nil)

	err := service.SendEmail(context.Background(), "a@b.co", "subject", "test_email", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not properly configured")
}

func TestTestEmailService(t *testing.T) {
	service := NewTestEmailService(&config.Config{IsTest: true}, createTestLogger())

	require.NoError(t, service.SendStatusUpdate(context.Background(),
		models.User{ID: "2", Email: "user@example.com"},
		models.FeedbackItem{ID: "3", Status: models.StatusInProgress}))
	require.NoError(t, service.SendStatusUpdate(context.Background(), models.User{ID: "5"}, models.FeedbackItem{ID: "4"}))

	sent := service.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "user@example.com", sent[0].To)
	assert.Equal(t, "status_update", sent[0].Template)
	assert.Equal(t, "in-progress", sent[0].Data["Status"])
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Pending", statusLabel(models.StatusPending))
	assert.Equal(t, "In Progress", statusLabel(models.StatusInProgress))
	assert.Equal(t, "Resolved", statusLabel(models.StatusResolved))
}
