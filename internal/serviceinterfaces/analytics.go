package serviceinterfaces

import (
	"context"

	"civicfeedback/internal/models"
)

// AnalyticsServiceInterface computes dashboard statistics.
type AnalyticsServiceInterface interface {
	Get(ctx context.Context) (models.Analytics, error)
}
