package store

import (
	"time"

	"civicfeedback/internal/models"
	contextutils "civicfeedback/internal/utils"
)

// Bootstrap accounts written when the users collection is missing or corrupt
const (
	SeedAdminEmail    = "admin@example.com"
	SeedAdminPassword = "admin123"
	SeedUserEmail     = "user@example.com"
	SeedUserPassword  = "user123"
)

func seedUsers(bcryptCost int) ([]models.User, error) {
	adminHash, err := contextutils.HashPassword(SeedAdminPassword, bcryptCost)
	if err != nil {
		return nil, err
	}
	userHash, err := contextutils.HashPassword(SeedUserPassword, bcryptCost)
	if err != nil {
		return nil, err
	}

	return []models.User{
		{ID: "1", Email: SeedAdminEmail, Password: adminHash, Name: "Admin User", Role: models.RoleAdmin},
		{ID: "2", Email: SeedUserEmail, Password: userHash, Name: "Regular User", Phone: "555-123-4567", Role: models.RoleUser},
	}, nil
}

func seedFeedback(now time.Time) []models.FeedbackItem {
	return []models.FeedbackItem{
		{
			ID:          "1",
			UserID:      "2",
			UserName:    "Regular User",
			Phone:       "555-123-4567",
			Locality:    "123 Main Street",
			Location:    &models.Location{Lat: 37.7749, Lng: -122.4194},
			IssueType:   models.IssueTypeRoads,
			Title:       "Pothole on Main Street",
			Description: "There is a large pothole that has been present for several weeks",
			MediaURLs:   []string{},
			Urgency:     models.UrgencyMedium,
			Status:      models.StatusPending,
			CreatedAt:   contextutils.DaysAgo(now, 7),
			UpdatedAt:   contextutils.DaysAgo(now, 7),
		},
		{
			ID:            "2",
			UserID:        "2",
			UserName:      "Regular User",
			Locality:      "456 Oak Avenue",
			IssueType:     models.IssueTypeWater,
			Title:         "Water outage in Oak neighborhood",
			Description:   "No water in the entire street since this morning",
			MediaURLs:     []string{},
			Urgency:       models.UrgencyHigh,
			Status:        models.StatusInProgress,
			CreatedAt:     contextutils.DaysAgo(now, 2),
			UpdatedAt:     contextutils.DaysAgo(now, 1),
			AdminID:       "1",
			AdminResponse: "Maintenance team dispatched",
		},
		{
			ID:            "3",
			UserID:        "2",
			UserName:      "Regular User",
			Locality:      "789 Pine Drive",
			IssueType:     models.IssueTypeElectricity,
			Title:         "Street light not working",
			Description:   "The street light at the corner has been out for a week creating safety concerns",
			MediaURLs:     []string{},
			Urgency:       models.UrgencyLow,
			Status:        models.StatusResolved,
			CreatedAt:     contextutils.DaysAgo(now, 14),
			UpdatedAt:     contextutils.DaysAgo(now, 3),
			AdminID:       "1",
			AdminResponse: "Light replaced and working properly now",
		},
	}
}
