package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"
	contextutils "civicfeedback/internal/utils"

	"github.com/gin-gonic/gin"
)

// ExportFilename is the attachment name of a CSV export
const ExportFilename = "feedback-export.csv"

// FeedbackHandler handles feedback submission, listing and triage
type FeedbackHandler struct {
	feedbackService serviceinterfaces.FeedbackServiceInterface
	config          *config.Config
	logger          *observability.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler
func NewFeedbackHandler(feedbackService serviceinterfaces.FeedbackServiceInterface, cfg *config.Config, logger *observability.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		config:          cfg,
		logger:          logger,
	}
}

// Submit records a new report for the session user, or anonymously without a session
func (h *FeedbackHandler) Submit(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_feedback")
	defer observability.FinishSpan(span, nil)

	var req models.SubmitRequest
	if !bindJSON(c, &req) {
		return
	}

	// The submitter is whoever holds the session, never the body
	req.UserID = ""
	if userID, ok := GetUserIDFromSession(c); ok {
		req.UserID = userID
	}

	item, err := h.feedbackService.Submit(ctx, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeFeedback(&item)...)
	RespondSuccess(c, http.StatusCreated, item)
}

// Search lists feedback matching the query filters, newest first
func (h *FeedbackHandler) Search(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "search_feedback")
	defer observability.FinishSpan(span, nil)

	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	items, err := h.feedbackService.Search(ctx, filter)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeCount(len(items)))
	RespondSuccess(c, http.StatusOK, items)
}

// Mine lists the session user's own reports
func (h *FeedbackHandler) Mine(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "my_feedback")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	items, err := h.feedbackService.GetByUser(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	RespondSuccess(c, http.StatusOK, items)
}

// Get returns one report
func (h *FeedbackHandler) Get(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_feedback")
	defer observability.FinishSpan(span, nil)

	id := c.Param("id")
	span.SetAttributes(observability.AttributeFeedbackID(id))

	item, err := h.feedbackService.GetByID(ctx, id)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	RespondSuccess(c, http.StatusOK, item)
}

// UpdateStatus changes a report's status on behalf of the session admin
func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_feedback_status")
	defer observability.FinishSpan(span, nil)

	id := c.Param("id")
	span.SetAttributes(observability.AttributeFeedbackID(id))

	var update models.StatusUpdate
	if !bindJSON(c, &update) {
		return
	}

	update.AdminID = ""
	if adminID, ok := GetUserIDFromSession(c); ok {
		update.AdminID = adminID
	}

	item, err := h.feedbackService.UpdateStatus(ctx, id, update)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	h.logger.Info(ctx, "Feedback status updated", map[string]interface{}{
		"feedback_id": id,
		"status":      string(item.Status),
		"admin_id":    update.AdminID,
	})
	RespondSuccess(c, http.StatusOK, item)
}

// Delete removes a report
func (h *FeedbackHandler) Delete(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_feedback")
	defer observability.FinishSpan(span, nil)

	id := c.Param("id")
	span.SetAttributes(observability.AttributeFeedbackID(id))

	result, err := h.feedbackService.Delete(ctx, id)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	RespondSuccess(c, http.StatusOK, result)
}

// Export streams the filtered reports as a CSV attachment
func (h *FeedbackHandler) Export(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "export_feedback")
	defer observability.FinishSpan(span, nil)

	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	// Buffer the document so a failure can still be reported as an envelope
	var buf bytes.Buffer
	if err := h.feedbackService.ExportCSV(ctx, &buf, filter); err != nil {
		HandleAppError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func bindFilter(c *gin.Context) (models.FeedbackFilter, bool) {
	var filter models.FeedbackFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid query parameters",
			"",
			err,
		))
		return models.FeedbackFilter{}, false
	}
	return filter, true
}
