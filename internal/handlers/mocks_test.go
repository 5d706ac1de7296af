package handlers

import (
	"context"
	"io"

	"civicfeedback/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockIdentityService for testing
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) Login(ctx context.Context, email, password string) (models.PublicUser, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.PublicUser), args.Error(1)
}

func (m *MockIdentityService) Signup(ctx context.Context, req models.SignupRequest) (models.PublicUser, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.PublicUser), args.Error(1)
}

func (m *MockIdentityService) GetUserByID(ctx context.Context, id string) (models.PublicUser, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.PublicUser), args.Error(1)
}

func (m *MockIdentityService) IsAdmin(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PublicUser), args.Error(1)
}

func (m *MockIdentityService) CreateUser(ctx context.Context, req models.SignupRequest, role models.Role) (models.PublicUser, error) {
	args := m.Called(ctx, req, role)
	return args.Get(0).(models.PublicUser), args.Error(1)
}

func (m *MockIdentityService) EnsureAdminUser(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

// MockFeedbackService for testing
type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) GetAll(ctx context.Context) ([]models.FeedbackItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeedbackItem), args.Error(1)
}

func (m *MockFeedbackService) GetByUser(ctx context.Context, userID string) ([]models.FeedbackItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeedbackItem), args.Error(1)
}

func (m *MockFeedbackService) GetByID(ctx context.Context, id string) (models.FeedbackItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.FeedbackItem), args.Error(1)
}

func (m *MockFeedbackService) Submit(ctx context.Context, req models.SubmitRequest) (models.FeedbackItem, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.FeedbackItem), args.Error(1)
}

func (m *MockFeedbackService) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (models.FeedbackItem, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(models.FeedbackItem), args.Error(1)
}

func (m *MockFeedbackService) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.DeleteResult), args.Error(1)
}

func (m *MockFeedbackService) Search(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeedbackItem), args.Error(1)
}

func (m *MockFeedbackService) ExportCSV(ctx context.Context, w io.Writer, filter models.FeedbackFilter) error {
	args := m.Called(ctx, w, filter)
	return args.Error(0)
}

// MockAnalyticsService for testing
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Get(ctx context.Context) (models.Analytics, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Analytics), args.Error(1)
}
