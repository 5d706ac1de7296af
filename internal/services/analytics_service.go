package services

import (
	"context"
	"math"
	"time"

	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"
	"civicfeedback/internal/store"
	contextutils "civicfeedback/internal/utils"
)

// RecentActivityWindow is how far back recentActivity looks
const RecentActivityWindow = 30 * 24 * time.Hour

// AnalyticsService computes dashboard statistics from the current feedback snapshot
type AnalyticsService struct {
	store *store.Store
	now   func() time.Time
}

var _ serviceinterfaces.AnalyticsServiceInterface = (*AnalyticsService)(nil)

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(st *store.Store) *AnalyticsService {
	return &AnalyticsService{store: st, now: time.Now}
}

// WithClock replaces the clock used as "now"
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// Get returns analytics over every stored item
func (s *AnalyticsService) Get(ctx context.Context) (result0 models.Analytics, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "Get")
	defer observability.FinishSpan(span, &err)

	items, err := s.store.Feedback(ctx)
	if err != nil {
		return models.Analytics{}, err
	}

	span.SetAttributes(observability.AttributeCount(len(items)))
	return ComputeAnalytics(items, s.now()), nil
}

// ComputeAnalytics reduces items to dashboard statistics relative to now.
// Breakdowns only contain observed values.
func ComputeAnalytics(items []models.FeedbackItem, now time.Time) models.Analytics {
	a := models.Analytics{
		TotalFeedback:    len(items),
		StatusBreakdown:  map[string]int{},
		TypeBreakdown:    map[string]int{},
		UrgencyBreakdown: map[string]int{},
	}

	cutoff := now.Add(-RecentActivityWindow)
	var resolvedDays float64
	var resolved, pending int

	for _, item := range items {
		a.StatusBreakdown[string(item.Status)]++
		a.TypeBreakdown[string(item.IssueType)]++
		a.UrgencyBreakdown[string(item.Urgency)]++

		if item.UpdatedAt.After(cutoff) {
			a.RecentActivity++
		}

		switch item.Status {
		case models.StatusResolved:
			resolved++
			resolvedDays += contextutils.DurationInDays(item.CreatedAt, item.UpdatedAt)
		case models.StatusPending:
			pending++
		}
	}

	if resolved > 0 {
		a.AvgResolutionTime = roundHalfUp(resolvedDays/float64(resolved), 1)
	}
	if a.TotalFeedback > 0 {
		a.ResolvedPercentage = percentage(resolved, a.TotalFeedback)
		a.PendingPercentage = percentage(pending, a.TotalFeedback)
	}
	return a
}

func percentage(part, total int) int {
	return int(roundHalfUp(float64(part)*100/float64(total), 0))
}

// roundHalfUp rounds x to the given number of decimals with halves rounding up
func roundHalfUp(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Floor(x*p+0.5) / p
}
