// Package middleware provides authentication, error envelope and response validation
// middleware for the Gin web framework.
package middleware

import (
	"context"

	"civicfeedback/internal/config"
	contextutils "civicfeedback/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// UserIDKey is the key used to store the user id in the session and the gin context
const UserIDKey = config.SessionUserIDKey

// AdminChecker reports whether a user holds the admin role
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// SessionUserID returns the logged-in user's id from the cookie session
func SessionUserID(c *gin.Context) (string, bool) {
	session := sessions.Default(c)
	userID, ok := session.Get(UserIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// authenticate stores the session user on the gin and request contexts.
// It reports false after writing a 401 envelope.
func authenticate(c *gin.Context) (string, bool) {
	userID, ok := SessionUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		c.Abort()
		return "", false
	}

	c.Set(UserIDKey, userID)
	c.Request = c.Request.WithContext(contextutils.WithUserID(c.Request.Context(), userID))
	return userID, true
}

// RequireAuth returns a middleware that requires authentication
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireAdmin returns a middleware that requires authentication and admin role
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	if checker == nil {
		panic("RequireAdmin: checker is nil")
	}

	return func(c *gin.Context) {
		userID, ok := authenticate(c)
		if !ok {
			return
		}

		isAdmin, err := checker.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			HandleAppError(c, contextutils.WrapError(err, "Failed to check admin status"))
			c.Abort()
			return
		}

		if !isAdmin {
			HandleAppError(c, contextutils.WithDetails(contextutils.ErrForbidden, "admin access required"))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(contextutils.WithRole(c.Request.Context(), "admin"))
		c.Next()
	}
}
