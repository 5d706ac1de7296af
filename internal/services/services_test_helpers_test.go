package services

import (
	"context"
	"testing"
	"time"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/slot"
	"civicfeedback/internal/store"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC)

// MockEmailService is a mock implementation of the EmailService interface for testing
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendStatusUpdate(ctx context.Context, user models.User, item models.FeedbackItem) error {
	args := m.Called(ctx, user, item)
	return args.Error(0)
}

func (m *MockEmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) error {
	args := m.Called(ctx, to, subject, templateName, data)
	return args.Error(0)
}

func (m *MockEmailService) IsEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

// newTestStore returns a loaded store over an in-memory slot, seeded with the bootstrap data
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(slot.NewMemorySlot(), observability.NewNopLogger(), store.Options{
		BcryptCost: 4,
		Now:        func() time.Time { return testNow },
	})
	require.NoError(t, err)
	require.NoError(t, st.Load(context.Background()))
	return st
}

func testConfig() *config.Config {
	return &config.Config{Auth: config.AuthConfig{BcryptCost: 4}}
}

func validSubmit() models.SubmitRequest {
	return models.SubmitRequest{
		UserID:      "2",
		Locality:    "12 Harbor Road",
		IssueType:   models.IssueTypeSanitation,
		Title:       "Overflowing bins",
		Description: "The public bins have not been emptied for two weeks.",
		MediaURLs:   []string{"photo-2.jpg", "photo-1.jpg"},
		Urgency:     models.UrgencyMedium,
	}
}
