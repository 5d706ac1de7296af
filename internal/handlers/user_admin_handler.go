package handlers

import (
	"net/http"

	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"

	"github.com/gin-gonic/gin"
)

// UserAdminHandler handles user administration requests
type UserAdminHandler struct {
	identityService serviceinterfaces.IdentityServiceInterface
	logger          *observability.Logger
}

// NewUserAdminHandler creates a new UserAdminHandler
func NewUserAdminHandler(identityService serviceinterfaces.IdentityServiceInterface, logger *observability.Logger) *UserAdminHandler {
	return &UserAdminHandler{identityService: identityService, logger: logger}
}

// GetAllUsers lists every account without credentials
func (h *UserAdminHandler) GetAllUsers(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_all_users")
	defer observability.FinishSpan(span, nil)

	users, err := h.identityService.ListUsers(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeCount(len(users)))
	RespondSuccess(c, http.StatusOK, users)
}
