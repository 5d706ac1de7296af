// Package serviceinterfaces defines service interfaces for dependency injection and testing.
package serviceinterfaces

import (
	"context"

	"civicfeedback/internal/models"
)

// EmailService defines the interface for email functionality
type EmailService interface {
	// SendStatusUpdate tells the submitter that an administrator changed their report
	SendStatusUpdate(ctx context.Context, user models.User, item models.FeedbackItem) error

	// SendEmail sends a generic email with the given parameters
	SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) error

	// IsEnabled returns whether email functionality is enabled
	IsEnabled() bool
}
