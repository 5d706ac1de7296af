package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	contextutils "civicfeedback/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFeedbackService(t *testing.T, cfg config.FeedbackConfig, notifier *MockEmailService) *FeedbackService {
	t.Helper()
	var n EmailServiceInterface
	if notifier != nil {
		n = notifier
	}
	return NewFeedbackService(newTestStore(t), n, cfg, observability.NewNopLogger(), nil).
		WithClock(func() time.Time { return testNow })
}

func strPtr(s string) *string { return &s }

func TestFeedbackService_Reads(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	again, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, again)

	mine, err := svc.GetByUser(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	none, err := svc.GetByUser(ctx, "1")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	item, err := svc.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Water outage in Oak neighborhood", item.Title)

	_, err = svc.GetByID(ctx, "404")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrFeedbackNotFound))
	assert.Equal(t, "Feedback not found", contextutils.GetErrorMessage(err))
}

func TestFeedbackService_Submit(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	created, err := svc.Submit(ctx, validSubmit())
	require.NoError(t, err)

	assert.Equal(t, "4", created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, testNow, created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Empty(t, created.AdminID)
	assert.Empty(t, created.AdminResponse)
	assert.Equal(t, []string{"photo-2.jpg", "photo-1.jpg"}, created.MediaURLs)

	// Name and phone are taken from the account when not supplied
	assert.Equal(t, "Regular User", created.UserName)
	assert.Equal(t, "555-123-4567", created.Phone)

	stored, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func TestFeedbackService_Submit_Anonymous(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	req := validSubmit()
	req.UserID = ""
	req.MediaURLs = nil
	req.Location = &models.Location{Lat: -33.86, Lng: 151.2}

	created, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.AnonymousUserID, created.UserID)
	assert.True(t, created.IsAnonymous())
	assert.Empty(t, created.UserName)
	assert.NotNil(t, created.MediaURLs)
	require.NotNil(t, created.Location)
	assert.InDelta(t, 151.2, created.Location.Lng, 1e-9)

	anon, err := svc.GetByUser(ctx, models.AnonymousUserID)
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, created.ID, anon[0].ID)
}

func TestFeedbackService_Submit_Validation(t *testing.T) {
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	tests := []struct {
		name    string
		mutate  func(*models.SubmitRequest)
		message string
	}{
		{"short title", func(r *models.SubmitRequest) { r.Title = "Hole" }, "title must be at least 5 characters"},
		{"long title", func(r *models.SubmitRequest) { r.Title = string(bytes.Repeat([]byte("a"), 101)) }, "title must be at most 100 characters"},
		{"short description", func(r *models.SubmitRequest) { r.Description = "too short" }, "description must be at least 10 characters"},
		{"short locality", func(r *models.SubmitRequest) { r.Locality = "ab" }, "locality must be at least 3 characters"},
		{"bad issue type", func(r *models.SubmitRequest) { r.IssueType = "potholes" }, "issueType must be one of: roads, water, electricity, sanitation, public-safety, other"},
		{"bad urgency", func(r *models.SubmitRequest) { r.Urgency = "critical" }, "urgency must be one of: low, medium, high"},
		{"lat out of range", func(r *models.SubmitRequest) { r.Location = &models.Location{Lat: 91} }, "lat must be less than or equal to 90"},
		{"lng out of range", func(r *models.SubmitRequest) { r.Location = &models.Location{Lng: -181} }, "lng must be greater than or equal to -180"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmit()
			tt.mutate(&req)
			_, err := svc.Submit(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
			assert.Equal(t, tt.message, contextutils.GetErrorMessage(err))
		})
	}

	all, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3, "rejected submissions must not be stored")
}

func TestFeedbackService_Submit_IDsUniqueAfterDelete(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	_, err := svc.Delete(ctx, "1")
	require.NoError(t, err)

	created, err := svc.Submit(ctx, validSubmit())
	require.NoError(t, err)
	assert.Equal(t, "4", created.ID)

	ids := map[string]bool{}
	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	for _, item := range all {
		assert.False(t, ids[item.ID])
		ids[item.ID] = true
	}
}

func TestFeedbackService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	before, err := svc.GetByID(ctx, "2")
	require.NoError(t, err)

	// nil response keeps the previous one
	updated, err := svc.UpdateStatus(ctx, "2", models.StatusUpdate{Status: models.StatusResolved, AdminID: "1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)
	assert.Equal(t, "Maintenance team dispatched", updated.AdminResponse)
	assert.Equal(t, testNow, updated.UpdatedAt)
	assert.Equal(t, before.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	// Discretionary: moving backwards is allowed by default
	updated, err = svc.UpdateStatus(ctx, "2", models.StatusUpdate{Status: models.StatusPending, AdminID: "1", Response: strPtr("Reopened")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Equal(t, "Reopened", updated.AdminResponse)

	// An explicit empty response clears it
	updated, err = svc.UpdateStatus(ctx, "2", models.StatusUpdate{Status: models.StatusInProgress, AdminID: "1", Response: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, updated.AdminResponse)

	stored, err := svc.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestFeedbackService_UpdateStatus_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	_, err := svc.UpdateStatus(ctx, "404", models.StatusUpdate{Status: models.StatusResolved, AdminID: "1"})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrFeedbackNotFound))

	_, err = svc.UpdateStatus(ctx, "1", models.StatusUpdate{Status: "closed", AdminID: "1"})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))

	_, err = svc.UpdateStatus(ctx, "1", models.StatusUpdate{Status: models.StatusResolved})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
	assert.Equal(t, "adminId is required", contextutils.GetErrorMessage(err))
}

func TestFeedbackService_UpdateStatus_RecordsLatestAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	_, err := svc.UpdateStatus(ctx, "1", models.StatusUpdate{Status: models.StatusInProgress, AdminID: "7"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, "1", models.StatusUpdate{Status: models.StatusResolved, AdminID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "1", updated.AdminID)

	stored, err := svc.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", stored.AdminID)
}

func TestFeedbackService_UpdateStatus_ForwardOnly(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{ForwardOnlyStatus: true}, nil)

	_, err := svc.UpdateStatus(ctx, "3", models.StatusUpdate{Status: models.StatusPending, AdminID: "1"})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidTransition))
	assert.Equal(t, "Invalid status transition", contextutils.GetErrorMessage(err))

	unchanged, err := svc.GetByID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, unchanged.Status)

	// Same status and forward moves are accepted
	_, err = svc.UpdateStatus(ctx, "1", models.StatusUpdate{Status: models.StatusPending, AdminID: "1"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, "1", models.StatusUpdate{Status: models.StatusResolved, AdminID: "1"})
	require.NoError(t, err)
}

func TestFeedbackService_UpdateStatus_Notifies(t *testing.T) {
	ctx := context.Background()
	notifier := &MockEmailService{}
	svc := newFeedbackService(t, config.FeedbackConfig{NotifyOnStatusChange: true}, notifier)

	notifier.On("IsEnabled").Return(true)
	notifier.On("SendStatusUpdate", mock.Anything,
		mock.MatchedBy(func(u models.User) bool { return u.Email == "user@example.com" }),
		mock.MatchedBy(func(f models.FeedbackItem) bool { return f.ID == "1" && f.Status == models.StatusInProgress }),
	).Return(errors.New("smtp unavailable")).Once()

	updated, err := svc.UpdateStatus(ctx, "1", models.StatusUpdate{Status: models.StatusInProgress, AdminID: "1"})
	require.NoError(t, err, "notification failure must not fail the update")
	assert.Equal(t, models.StatusInProgress, updated.Status)

	notifier.AssertExpectations(t)
}

func TestFeedbackService_UpdateStatus_NoNotificationForAnonymous(t *testing.T) {
	ctx := context.Background()
	notifier := &MockEmailService{}
	svc := newFeedbackService(t, config.FeedbackConfig{NotifyOnStatusChange: true}, notifier)
	notifier.On("IsEnabled").Return(true)

	req := validSubmit()
	req.UserID = ""
	created, err := svc.Submit(ctx, req)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, created.ID, models.StatusUpdate{Status: models.StatusResolved, AdminID: "1"})
	require.NoError(t, err)

	notifier.AssertNotCalled(t, "SendStatusUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestFeedbackService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	result, err := svc.Delete(ctx, "1")
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = svc.GetByID(ctx, "1")
	assert.True(t, contextutils.IsError(err, contextutils.ErrFeedbackNotFound))

	_, err = svc.Delete(ctx, "1")
	assert.True(t, contextutils.IsError(err, contextutils.ErrFeedbackNotFound))
}

func TestFeedbackService_Search(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	tests := []struct {
		name   string
		filter models.FeedbackFilter
		ids    []string
	}{
		{"no filter newest first", models.FeedbackFilter{}, []string{"2", "1", "3"}},
		{"all is no filter", models.FeedbackFilter{Status: "all", IssueType: "all", Urgency: "all"}, []string{"2", "1", "3"}},
		{"status", models.FeedbackFilter{Status: "resolved"}, []string{"3"}},
		{"type", models.FeedbackFilter{IssueType: "roads"}, []string{"1"}},
		{"urgency", models.FeedbackFilter{Urgency: "high"}, []string{"2"}},
		{"query title case-insensitive", models.FeedbackFilter{Query: "POTHOLE"}, []string{"1"}},
		{"query locality", models.FeedbackFilter{Query: "pine drive"}, []string{"3"}},
		{"query user name", models.FeedbackFilter{Query: "regular"}, []string{"2", "1", "3"}},
		{"combined no match", models.FeedbackFilter{Status: "pending", Query: "water"}, []string{}},
		{"user", models.FeedbackFilter{UserID: "1"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.Search(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestFeedbackService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	req := validSubmit()
	req.UserID = ""
	req.Title = `The "big" bin`
	req.Description = "Line one, with comma\nline two"
	_, err := svc.Submit(ctx, req)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf, models.FeedbackFilter{}))

	assert.Contains(t, buf.String(), `"The ""big"" bin"`)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, CSVHeader, records[0])

	// Newest first: the submission made "now"
	anon := records[1]
	assert.Equal(t, "4", anon[0])
	assert.Equal(t, "Anonymous", anon[1])
	assert.Equal(t, "N/A", anon[2])
	assert.Equal(t, `The "big" bin`, anon[5])
	assert.Equal(t, "Line one, with comma\nline two", anon[6])
	assert.Equal(t, "pending", anon[8])
	assert.Equal(t, contextutils.FormatTimestamp(testNow), anon[9])
	assert.Equal(t, "N/A", anon[11])

	water := records[2]
	assert.Equal(t, "2", water[0])
	assert.Equal(t, "Regular User", water[1])
	assert.Equal(t, "Maintenance team dispatched", water[11])
}

func TestFeedbackService_ExportCSV_Filtered(t *testing.T) {
	svc := newFeedbackService(t, config.FeedbackConfig{}, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, models.FeedbackFilter{Status: "resolved"}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "3", records[1][0])
}
