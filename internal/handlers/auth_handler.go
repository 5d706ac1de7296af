package handlers

import (
	"net/http"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"
	contextutils "civicfeedback/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	identityService serviceinterfaces.IdentityServiceInterface
	config          *config.Config
	logger          *observability.Logger
}

// AuthStatus is the payload of GET /v1/auth/status
type AuthStatus struct {
	Authenticated bool               `json:"authenticated"`
	User          *models.PublicUser `json:"user"`
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(identityService serviceinterfaces.IdentityServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{
		identityService: identityService,
		config:          cfg,
		logger:          logger,
	}
}

// Login handles user login requests
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	span.SetAttributes(attribute.Bool("auth.password_provided", req.Password != ""))

	user, err := h.identityService.Login(ctx, req.Email, req.Password)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeUserID(user.ID))

	if err := startSession(c, user.ID); err != nil {
		h.logger.Error(ctx, "Failed to save session", err, map[string]interface{}{"user_id": user.ID})
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	RespondSuccess(c, http.StatusOK, user)
}

// Signup creates a regular account and logs it in
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "signup")
	defer observability.FinishSpan(span, nil)

	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.identityService.Signup(ctx, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	if err := startSession(c, user.ID); err != nil {
		h.logger.Error(ctx, "Failed to save session", err, map[string]interface{}{"user_id": user.ID})
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	RespondSuccess(c, http.StatusCreated, user)
}

// Logout handles user logout requests
func (h *AuthHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	if userID, ok := GetUserIDFromSession(c); ok {
		span.SetAttributes(observability.AttributeUserID(userID))
	}

	if err := endSession(c); err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to clear session"))
		return
	}

	RespondSuccess(c, http.StatusOK, nil)
}

// Status returns the current authentication status
func (h *AuthHandler) Status(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "status")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		span.SetAttributes(attribute.Bool("auth.authenticated", false))
		RespondSuccess(c, http.StatusOK, AuthStatus{})
		return
	}

	user, err := h.identityService.GetUserByID(ctx, userID)
	if err != nil {
		if !contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			HandleAppError(c, err)
			return
		}

		// The account behind the session is gone
		if err := endSession(c); err != nil {
			h.logger.Error(ctx, "Error saving session", err, map[string]interface{}{"user_id": userID})
		}
		span.SetAttributes(attribute.Bool("auth.user_found", false))
		RespondSuccess(c, http.StatusOK, AuthStatus{})
		return
	}

	span.SetAttributes(
		attribute.Bool("auth.authenticated", true),
		observability.AttributeUserID(user.ID),
	)
	RespondSuccess(c, http.StatusOK, AuthStatus{Authenticated: true, User: &user})
}
