package handlers

import (
	"civicfeedback/internal/middleware"
	contextutils "civicfeedback/internal/utils"

	"github.com/gin-gonic/gin"
)

// HandleAppError writes err as an error envelope
func HandleAppError(c *gin.Context, err error) {
	middleware.HandleAppError(c, err)
}

// RespondSuccess writes data in a success envelope
func RespondSuccess(c *gin.Context, status int, data interface{}) {
	middleware.RespondSuccess(c, status, data)
}

// bindJSON decodes the request body into dst, writing a 400 envelope on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return false
	}
	return true
}
