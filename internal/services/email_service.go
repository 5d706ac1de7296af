// Package services provides business logic services for the civic feedback portal.
package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"
	"civicfeedback/internal/services/mailer"
	contextutils "civicfeedback/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/mail.v2"
)

// EmailService implements the serviceinterfaces.EmailService interface using gomail
type EmailService struct {
	cfg    *config.Config
	logger *observability.Logger
	sender mailer.Sender
}

// EmailServiceInterface defines the interface for email functionality
type EmailServiceInterface = serviceinterfaces.EmailService

// Ensure EmailService implements the EmailServiceInterface
var _ serviceinterfaces.EmailService = (*EmailService)(nil)

// NewEmailService creates a new EmailService instance
func NewEmailService(cfg *config.Config, logger *observability.Logger) *EmailService {
	var sender mailer.Sender
	if cfg.Email.Enabled && cfg.Email.SMTP.Host != "" {
		sender = mailer.NewSMTPSender(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
		)
	}

	return &EmailService{
		cfg:    cfg,
		logger: logger,
		sender: sender,
	}
}

// NewEmailServiceWithSender creates an EmailService that delivers through sender
func NewEmailServiceWithSender(cfg *config.Config, logger *observability.Logger, sender mailer.Sender) *EmailService {
	return &EmailService{
		cfg:    cfg,
		logger: logger,
		sender: sender,
	}
}

// SendStatusUpdate emails the submitter of item about its new status
func (e *EmailService) SendStatusUpdate(ctx context.Context, user models.User, item models.FeedbackItem) (err error) {
	ctx, span := observability.TraceNotificationFunction(ctx, "SendStatusUpdate",
		observability.AttributeUserID(user.ID),
		observability.AttributeFeedbackID(item.ID),
		observability.AttributeStatus(item.Status),
	)
	defer observability.FinishSpan(span, &err)

	if !e.IsEnabled() {
		e.logger.Info(ctx, "Email disabled, skipping status update", map[string]interface{}{
			"user_id":     user.ID,
			"feedback_id": item.ID,
		})
		return nil
	}

	if user.Email == "" {
		e.logger.Warn(ctx, "User has no email address, skipping status update", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}

	data := map[string]interface{}{
		"Name":       name,
		"Title":      item.Title,
		"Locality":   item.Locality,
		"Status":     statusLabel(item.Status),
		"Response":   item.AdminResponse,
		"FeedbackID": item.ID,
		"PortalURL":  e.cfg.Server.AppBaseURL,
	}

	subject := fmt.Sprintf("Your report \"%s\" is now %s", item.Title, statusLabel(item.Status))

	if err = e.SendEmail(ctx, user.Email, subject, "status_update", data); err != nil {
		return contextutils.WrapError(err, "failed to send status update")
	}

	e.logger.Info(ctx, "Status update sent successfully", map[string]interface{}{
		"user_id":     user.ID,
		"feedback_id": item.ID,
		"status":      string(item.Status),
	})

	return nil
}

// SendEmail sends a generic email with the given parameters
func (e *EmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) (err error) {
	ctx, span := observability.TraceNotificationFunction(ctx, "SendEmail",
		attribute.String("email.to", to),
		attribute.String("email.subject", subject),
		attribute.String("email.template", templateName),
	)
	defer observability.FinishSpan(span, &err)

	if !e.IsEnabled() {
		e.logger.Info(ctx, "Email disabled, skipping email send", map[string]interface{}{
			"to":       to,
			"template": templateName,
		})
		return nil
	}

	if e.sender == nil {
		return contextutils.ErrorWithContextf("email service not properly configured")
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", e.cfg.Email.SMTP.FromAddress, e.cfg.Email.SMTP.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	content, err := generateEmailContent(templateName, data)
	if err != nil {
		return contextutils.WrapError(err, "failed to generate email content")
	}

	m.SetBody("text/html", content)

	if err = e.sender.DialAndSend(m); err != nil {
		e.logger.Error(ctx, "Failed to send email", err, map[string]interface{}{
			"to":       to,
			"template": templateName,
			"subject":  subject,
		})
		return contextutils.WrapError(err, "failed to send email")
	}

	e.logger.Info(ctx, "Email sent successfully", map[string]interface{}{
		"to":       to,
		"template": templateName,
		"subject":  subject,
	})

	return nil
}

// IsEnabled returns whether email functionality is enabled
func (e *EmailService) IsEnabled() bool {
	return e.cfg.Email.Enabled && e.cfg.Email.SMTP.Host != ""
}

func statusLabel(s models.FeedbackStatus) string {
	switch s {
	case models.StatusInProgress:
		return "In Progress"
	case models.StatusResolved:
		return "Resolved"
	default:
		return "Pending"
	}
}

var emailTemplates = map[string]*template.Template{
	"status_update": template.Must(template.New("status_update").Parse(statusUpdateTemplate)),
	"test_email":    template.Must(template.New("test_email").Parse(testEmailTemplate)),
}

// generateEmailContent renders one of the built-in templates
func generateEmailContent(templateName string, data map[string]interface{}) (string, error) {
	tmpl, ok := emailTemplates[templateName]
	if !ok {
		return "", contextutils.ErrorWithContextf("unknown template: %s", templateName)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", contextutils.WrapError(err, "failed to execute template")
	}

	return buf.String(), nil
}

const statusUpdateTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Report Status Update</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1e3a8a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { background-color: #f9f9f9; padding: 20px; }
        .response { border-left: 4px solid #1e3a8a; padding-left: 12px; margin: 16px 0; }
        .footer { background-color: #eee; padding: 15px; text-align: center; font-size: 12px; color: #666; border-radius: 0 0 5px 5px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Report Status Update</h1>
        </div>
        <div class="content">
            <h2>Hello {{.Name}}!</h2>
            <p>Your report <strong>{{.Title}}</strong> at {{.Locality}} is now <strong>{{.Status}}</strong>.</p>
            {{if .Response}}<div class="response"><p>{{.Response}}</p></div>{{end}}
            {{if .PortalURL}}<p><a href="{{.PortalURL}}/feedback/{{.FeedbackID}}">View your report</a></p>{{end}}
        </div>
        <div class="footer">
            <p>You received this email because you submitted feedback through the civic feedback portal.</p>
        </div>
    </div>
</body>
</html>`

const testEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Test Email</title>
</head>
<body>
    <h2>Hello {{.Name}}!</h2>
    <p>This is a test email to verify that your email settings are working correctly.</p>
    <p><strong>Message:</strong> {{.Message}}</p>
</body>
</html>`
