package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	contextutils "civicfeedback/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router    *gin.Engine
	identity  *MockIdentityService
	feedback  *MockFeedbackService
	analytics *MockAnalyticsService
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

var (
	testAdmin = models.PublicUser{ID: "1", Email: "admin@example.com", Name: "Admin User", Role: models.RoleAdmin}
	testUser  = models.PublicUser{ID: "2", Email: "user@example.com", Name: "Regular User", Role: models.RoleUser}
)

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			SessionSecret: "test-session-secret",
			CORSOrigins:   []string{"http://localhost:3000"},
		},
		IsTest: true,
	}

	s := &testServer{
		identity:  new(MockIdentityService),
		feedback:  new(MockFeedbackService),
		analytics: new(MockAnalyticsService),
	}
	s.router = NewRouter(cfg, s.identity, s.feedback, s.analytics, observability.NewNopLogger())
	t.Cleanup(func() {
		s.identity.AssertExpectations(t)
		s.feedback.AssertExpectations(t)
		s.analytics.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login signs user in through the API and returns the session cookie
func (s *testServer) login(t *testing.T, user models.PublicUser) *http.Cookie {
	t.Helper()
	s.identity.On("Login", mock.Anything, user.Email, "secret").Return(user, nil).Once()

	w := s.do(t, "POST", "/v1/auth/login", models.LoginRequest{Email: user.Email, Password: "secret"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == config.SessionName {
			return c
		}
	}
	t.Fatal("no session cookie returned")
	return nil
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func sampleItem(id string) models.FeedbackItem {
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return models.FeedbackItem{
		ID:          id,
		UserID:      testUser.ID,
		UserName:    testUser.Name,
		Locality:    "Downtown",
		IssueType:   models.IssueTypeRoads,
		Title:       "Large pothole",
		Description: "Deep pothole near the main junction",
		Urgency:     models.UrgencyHigh,
		Status:      models.StatusPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok","service":"civicfeedback"}}`, w.Body.String())

	w = s.do(t, "GET", "/v1/version", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"service":"civicfeedback"`)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/v1/nothing-here", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, string(contextutils.ErrorCodeRecordNotFound), env.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success sets session", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testUser)
		assert.NotEmpty(t, cookie.Value)

		s.identity.On("GetUserByID", mock.Anything, testUser.ID).Return(testUser, nil).Once()
		w := s.do(t, "GET", "/v1/auth/status", nil, cookie)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		var status AuthStatus
		require.NoError(t, json.Unmarshal(env.Data, &status))
		assert.True(t, status.Authenticated)
		require.NotNil(t, status.User)
		assert.Equal(t, testUser.Email, status.User.Email)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		s := newTestServer(t)
		s.identity.On("Login", mock.Anything, "user@example.com", "wrong").
			Return(models.PublicUser{}, contextutils.ErrInvalidCredentials).Once()

		w := s.do(t, "POST", "/v1/auth/login", models.LoginRequest{Email: "user@example.com", Password: "wrong"}, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, "Invalid email or password", env.Error)
		assert.Equal(t, string(contextutils.ErrorCodeInvalidCredentials), env.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t)
		req := httptest.NewRequest("POST", "/v1/auth/login", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, string(contextutils.ErrorCodeInvalidInput), decodeEnvelope(t, w).Code)
	})
}

func TestAuthHandler_Signup(t *testing.T) {
	req := models.SignupRequest{Email: "new@example.com", Password: "secret1", Name: "New Person"}

	t.Run("creates and logs in", func(t *testing.T) {
		s := newTestServer(t)
		created := models.PublicUser{ID: "3", Email: req.Email, Name: req.Name, Role: models.RoleUser}
		s.identity.On("Signup", mock.Anything, req).Return(created, nil).Once()

		w := s.do(t, "POST", "/v1/auth/signup", req, nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)
		assert.NotContains(t, string(env.Data), "password")
		assert.NotEmpty(t, w.Result().Cookies())
	})

	t.Run("email in use", func(t *testing.T) {
		s := newTestServer(t)
		s.identity.On("Signup", mock.Anything, req).Return(models.PublicUser{}, contextutils.ErrEmailInUse).Once()

		w := s.do(t, "POST", "/v1/auth/signup", req, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Email already in use", decodeEnvelope(t, w).Error)
	})

	t.Run("signups disabled", func(t *testing.T) {
		s := newTestServer(t)
		s.identity.On("Signup", mock.Anything, req).Return(models.PublicUser{}, contextutils.ErrSignupsDisabled).Once()

		w := s.do(t, "POST", "/v1/auth/signup", req, nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAuthHandler_StatusAndLogout(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(t, "GET", "/v1/auth/status", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"authenticated":false,"user":null}}`, w.Body.String())
	})

	t.Run("deleted account clears session", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testUser)
		s.identity.On("GetUserByID", mock.Anything, testUser.ID).Return(models.PublicUser{}, contextutils.ErrUserNotFound).Once()

		w := s.do(t, "GET", "/v1/auth/status", nil, cookie)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"authenticated":false,"user":null}}`, w.Body.String())
	})

	t.Run("logout", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testUser)

		w := s.do(t, "POST", "/v1/auth/logout", nil, cookie)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":null}`, w.Body.String())
	})
}

func TestFeedbackHandler_Submit(t *testing.T) {
	body := models.SubmitRequest{
		UserID:      "spoofed",
		Locality:    "Downtown",
		IssueType:   models.IssueTypeRoads,
		Title:       "Large pothole",
		Description: "Deep pothole near the main junction",
		Urgency:     models.UrgencyHigh,
	}

	t.Run("anonymous submitter", func(t *testing.T) {
		s := newTestServer(t)
		expected := body
		expected.UserID = ""
		item := sampleItem("4")
		item.UserID = models.AnonymousUserID
		s.feedback.On("Submit", mock.Anything, expected).Return(item, nil).Once()

		w := s.do(t, "POST", "/v1/feedback", body, nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)
		assert.Contains(t, string(env.Data), `"mediaUrls":[]`)
	})

	t.Run("session submitter", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testUser)
		expected := body
		expected.UserID = testUser.ID
		s.feedback.On("Submit", mock.Anything, expected).Return(sampleItem("4"), nil).Once()

		w := s.do(t, "POST", "/v1/feedback", body, cookie)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		s := newTestServer(t)
		invalid := body
		invalid.Title = "Hole"
		expected := invalid
		expected.UserID = ""
		s.feedback.On("Submit", mock.Anything, expected).
			Return(models.FeedbackItem{}, contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityWarn, "title must be at least 5 characters", "")).Once()

		w := s.do(t, "POST", "/v1/feedback", invalid, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "title must be at least 5 characters", env.Error)
		assert.Equal(t, string(contextutils.ErrorCodeValidationFailed), env.Code)
	})

	t.Run("persistence failure", func(t *testing.T) {
		s := newTestServer(t)
		expected := body
		expected.UserID = ""
		s.feedback.On("Submit", mock.Anything, expected).Return(models.FeedbackItem{}, contextutils.ErrPersistFailed).Once()

		w := s.do(t, "POST", "/v1/feedback", body, nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "Failed to persist records", decodeEnvelope(t, w).Error)
	})
}

func TestFeedbackHandler_Search(t *testing.T) {
	s := newTestServer(t)
	filter := models.FeedbackFilter{Status: "pending", IssueType: "roads", Urgency: "all", Query: "pothole"}
	s.feedback.On("Search", mock.Anything, filter).Return([]models.FeedbackItem{sampleItem("1")}, nil).Once()

	w := s.do(t, "GET", "/v1/feedback?status=pending&type=roads&urgency=all&q=pothole", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var items []models.FeedbackItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
}

func TestFeedbackHandler_Mine(t *testing.T) {
	t.Run("requires session", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(t, "GET", "/v1/feedback/mine", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("lists own items", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testUser)
		s.feedback.On("GetByUser", mock.Anything, testUser.ID).Return([]models.FeedbackItem{}, nil).Once()

		w := s.do(t, "GET", "/v1/feedback/mine", nil, cookie)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
	})
}

func TestFeedbackHandler_Get(t *testing.T) {
	s := newTestServer(t)
	s.feedback.On("GetByID", mock.Anything, "1").Return(sampleItem("1"), nil).Once()
	s.feedback.On("GetByID", mock.Anything, "999").Return(models.FeedbackItem{}, contextutils.ErrFeedbackNotFound).Once()

	w := s.do(t, "GET", "/v1/feedback/1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, "GET", "/v1/feedback/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Feedback not found", decodeEnvelope(t, w).Error)
}

func TestFeedbackHandler_UpdateStatus(t *testing.T) {
	response := "Crew dispatched"

	t.Run("admin update uses session admin id", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testAdmin)
		s.identity.On("IsAdmin", mock.Anything, testAdmin.ID).Return(true, nil)

		expected := models.StatusUpdate{Status: models.StatusInProgress, AdminID: testAdmin.ID, Response: &response}
		updated := sampleItem("1")
		updated.Status = models.StatusInProgress
		updated.AdminID = testAdmin.ID
		updated.AdminResponse = response
		s.feedback.On("UpdateStatus", mock.Anything, "1", expected).Return(updated, nil).Once()

		w := s.do(t, "PUT", "/v1/admin/feedback/1/status",
			map[string]interface{}{"status": "in-progress", "adminId": "someone-else", "adminResponse": response}, cookie)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"adminResponse":"Crew dispatched"`)
	})

	t.Run("regular user forbidden", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testUser)
		s.identity.On("IsAdmin", mock.Anything, testUser.ID).Return(false, nil)

		w := s.do(t, "PUT", "/v1/admin/feedback/1/status", map[string]interface{}{"status": "resolved"}, cookie)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, string(contextutils.ErrorCodeForbidden), decodeEnvelope(t, w).Code)
	})

	t.Run("no session", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(t, "PUT", "/v1/admin/feedback/1/status", map[string]interface{}{"status": "resolved"}, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid transition", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testAdmin)
		s.identity.On("IsAdmin", mock.Anything, testAdmin.ID).Return(true, nil)
		s.feedback.On("UpdateStatus", mock.Anything, "1", mock.AnythingOfType("models.StatusUpdate")).
			Return(models.FeedbackItem{}, contextutils.ErrInvalidTransition).Once()

		w := s.do(t, "PUT", "/v1/admin/feedback/1/status", map[string]interface{}{"status": "pending"}, cookie)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Invalid status transition", decodeEnvelope(t, w).Error)
	})
}

func TestFeedbackHandler_Delete(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, testAdmin)
	s.identity.On("IsAdmin", mock.Anything, testAdmin.ID).Return(true, nil)
	s.feedback.On("Delete", mock.Anything, "2").Return(models.DeleteResult{Success: true}, nil).Once()
	s.feedback.On("Delete", mock.Anything, "2").Return(models.DeleteResult{}, contextutils.ErrFeedbackNotFound).Once()

	w := s.do(t, "DELETE", "/v1/admin/feedback/2", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"success":true}}`, w.Body.String())

	w = s.do(t, "DELETE", "/v1/admin/feedback/2", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackHandler_Export(t *testing.T) {
	t.Run("csv attachment", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testAdmin)
		s.identity.On("IsAdmin", mock.Anything, testAdmin.ID).Return(true, nil)
		s.feedback.On("ExportCSV", mock.Anything, mock.Anything, models.FeedbackFilter{Status: "resolved"}).
			Run(func(args mock.Arguments) {
				_, _ = io.WriteString(args.Get(1).(io.Writer), "ID,Title\n1,\"Say \"\"hi\"\"\"\n")
			}).Return(nil).Once()

		w := s.do(t, "GET", "/v1/admin/feedback/export?status=resolved", nil, cookie)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), ExportFilename)
		assert.Equal(t, "ID,Title\n1,\"Say \"\"hi\"\"\"\n", w.Body.String())
	})

	t.Run("failure is an envelope", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.login(t, testAdmin)
		s.identity.On("IsAdmin", mock.Anything, testAdmin.ID).Return(true, nil)
		s.feedback.On("ExportCSV", mock.Anything, mock.Anything, models.FeedbackFilter{}).
			Run(func(args mock.Arguments) {
				_, _ = io.WriteString(args.Get(1).(io.Writer), "ID,Title\n")
			}).Return(errors.New("disk gone")).Once()

		w := s.do(t, "GET", "/v1/admin/feedback/export", nil, cookie)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.NotContains(t, w.Body.String(), "disk gone")
	})
}

func TestAdminHandler_GetAnalytics(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, testAdmin)
	s.identity.On("IsAdmin", mock.Anything, testAdmin.ID).Return(true, nil)
	s.analytics.On("Get", mock.Anything).Return(models.Analytics{
		TotalFeedback:      3,
		StatusBreakdown:    map[string]int{"pending": 1, "in-progress": 1, "resolved": 1},
		TypeBreakdown:      map[string]int{"roads": 1, "water": 1, "electricity": 1},
		UrgencyBreakdown:   map[string]int{"high": 2, "medium": 1},
		AvgResolutionTime:  2.5,
		RecentActivity:     3,
		ResolvedPercentage: 33,
		PendingPercentage:  33,
	}, nil).Once()

	w := s.do(t, "GET", "/v1/admin/analytics", nil, cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var analytics models.Analytics
	require.NoError(t, json.Unmarshal(env.Data, &analytics))
	assert.Equal(t, 3, analytics.TotalFeedback)
	assert.Equal(t, 2.5, analytics.AvgResolutionTime)
}

func TestUserAdminHandler_GetAllUsers(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, testAdmin)
	s.identity.On("IsAdmin", mock.Anything, testAdmin.ID).Return(true, nil)
	s.identity.On("ListUsers", mock.Anything).Return([]models.PublicUser{testAdmin, testUser}, nil).Once()

	w := s.do(t, "GET", "/v1/admin/users", nil, cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	env := decodeEnvelope(t, w)
	var users []models.PublicUser
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 2)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, "GET", "/v1/version", nil, nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, config.DefaultCSP, w.Header().Get("Content-Security-Policy"))
}
