package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	contextutils "civicfeedback/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAdminChecker struct {
	isAdmin    bool
	err        error
	lastUserID string
}

func (m *mockAdminChecker) IsAdmin(_ context.Context, userID string) (bool, error) {
	m.lastUserID = userID
	return m.isAdmin, m.err
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))
	return router
}

func setSessionCookie(t *testing.T, router *gin.Engine, values map[string]interface{}) *http.Cookie {
	setupPath := "/setup-session-" + t.Name()
	router.GET(setupPath, func(c *gin.Context) {
		session := sessions.Default(c)
		for k, v := range values {
			session.Set(k, v)
		}
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", setupPath, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth_SessionUser(t *testing.T) {
	router := newTestRouter()
	router.GET("/resource", RequireAuth(), func(c *gin.Context) {
		assert.Equal(t, "7", c.GetString(UserIDKey))
		assert.Equal(t, "7", contextutils.GetUserIDFromContext(c.Request.Context()))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	cookie := setSessionCookie(t, router, map[string]interface{}{UserIDKey: "7"})
	req := httptest.NewRequest("GET", "/resource", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_NoSession(t *testing.T) {
	router := newTestRouter()
	called := false
	router.GET("/resource", RequireAuth(), func(c *gin.Context) {
		called = true
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeError(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, string(contextutils.ErrorCodeUnauthorized), body.Code)
}

func TestRequireAuth_WrongValueType(t *testing.T) {
	router := newTestRouter()
	router.GET("/resource", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cookie := setSessionCookie(t, router, map[string]interface{}{UserIDKey: 7})
	req := httptest.NewRequest("GET", "/resource", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		session    map[string]interface{}
		checker    *mockAdminChecker
		wantStatus int
		wantCode   contextutils.ErrorCode
	}{
		{
			name:       "admin passes",
			session:    map[string]interface{}{UserIDKey: "1"},
			checker:    &mockAdminChecker{isAdmin: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "regular user forbidden",
			session:    map[string]interface{}{UserIDKey: "2"},
			checker:    &mockAdminChecker{isAdmin: false},
			wantStatus: http.StatusForbidden,
			wantCode:   contextutils.ErrorCodeForbidden,
		},
		{
			name:       "unknown user not found",
			session:    map[string]interface{}{UserIDKey: "99"},
			checker:    &mockAdminChecker{err: contextutils.ErrUserNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   contextutils.ErrorCodeRecordNotFound,
		},
		{
			name:       "checker failure",
			session:    map[string]interface{}{UserIDKey: "1"},
			checker:    &mockAdminChecker{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   contextutils.ErrorCodeInternalError,
		},
		{
			name:       "no session",
			checker:    &mockAdminChecker{isAdmin: true},
			wantStatus: http.StatusUnauthorized,
			wantCode:   contextutils.ErrorCodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			router.GET("/admin", RequireAdmin(tt.checker), func(c *gin.Context) {
				assert.Equal(t, "admin", contextutils.GetRoleFromContext(c.Request.Context()))
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.session != nil {
				req.AddCookie(setSessionCookie(t, router, tt.session))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, string(tt.wantCode), decodeError(t, w).Code)
			}
			if tt.session != nil {
				assert.Equal(t, tt.session[UserIDKey], tt.checker.lastUserID)
			}
		})
	}
}

func TestRequireAdmin_NilChecker(t *testing.T) {
	assert.Panics(t, func() { RequireAdmin(nil) })
}
