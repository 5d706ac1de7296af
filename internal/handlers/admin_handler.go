package handlers

import (
	"net/http"

	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin dashboard data
type AdminHandler struct {
	analyticsService serviceinterfaces.AnalyticsServiceInterface
	logger           *observability.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(analyticsService serviceinterfaces.AnalyticsServiceInterface, logger *observability.Logger) *AdminHandler {
	return &AdminHandler{analyticsService: analyticsService, logger: logger}
}

// GetAnalytics returns the dashboard statistics
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_analytics")
	defer observability.FinishSpan(span, nil)

	analytics, err := h.analyticsService.Get(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeCount(analytics.TotalFeedback))
	RespondSuccess(c, http.StatusOK, analytics)
}
