package serviceinterfaces

import (
	"context"
	"io"

	"civicfeedback/internal/models"
)

// FeedbackServiceInterface defines the feedback lifecycle operations.
type FeedbackServiceInterface interface {
	GetAll(ctx context.Context) ([]models.FeedbackItem, error)
	GetByUser(ctx context.Context, userID string) ([]models.FeedbackItem, error)
	GetByID(ctx context.Context, id string) (models.FeedbackItem, error)
	Submit(ctx context.Context, req models.SubmitRequest) (models.FeedbackItem, error)
	UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (models.FeedbackItem, error)
	Delete(ctx context.Context, id string) (models.DeleteResult, error)
	Search(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackItem, error)
	ExportCSV(ctx context.Context, w io.Writer, filter models.FeedbackFilter) error
}
