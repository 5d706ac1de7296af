package handlers

import (
	"civicfeedback/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// GetUserIDFromSession retrieves the current user ID from the session.
// Returns ("", false) if not authenticated or if the stored value is invalid.
func GetUserIDFromSession(c *gin.Context) (string, bool) {
	return middleware.SessionUserID(c)
}

// startSession stores userID in the cookie session
func startSession(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Set(middleware.UserIDKey, userID)
	return session.Save()
}

// endSession clears the cookie session
func endSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}
