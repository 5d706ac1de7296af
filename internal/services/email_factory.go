package services

import (
	"context"

	"civicfeedback/internal/config"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"
)

// CreateEmailService creates an appropriate email service based on configuration.
// If the application is running in test mode, it returns a TestEmailService,
// otherwise the SMTP backed EmailService.
func CreateEmailService(cfg *config.Config, logger *observability.Logger) serviceinterfaces.EmailService {
	if cfg.IsTest {
		logger.Info(context.Background(), "Using test email service", map[string]interface{}{
			"test_mode": true,
		})
		return NewTestEmailService(cfg, logger)
	}

	return NewEmailService(cfg, logger)
}
