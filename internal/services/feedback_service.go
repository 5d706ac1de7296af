package services

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strings"
	"time"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"
	"civicfeedback/internal/store"
	contextutils "civicfeedback/internal/utils"
)

// FeedbackService implements FeedbackServiceInterface over the record store.
type FeedbackService struct {
	store    *store.Store
	notifier serviceinterfaces.EmailService
	cfg      config.FeedbackConfig
	logger   *observability.Logger
	metrics  *observability.DomainMetrics
	now      func() time.Time
}

var _ serviceinterfaces.FeedbackServiceInterface = (*FeedbackService)(nil)

// NewFeedbackService creates a new FeedbackService instance.
// notifier may be nil, in which case status changes are not emailed.
func NewFeedbackService(st *store.Store, notifier serviceinterfaces.EmailService, cfg config.FeedbackConfig,
	logger *observability.Logger, metrics *observability.DomainMetrics,
) *FeedbackService {
	if st == nil {
		panic("NewFeedbackService: store is nil")
	}
	if logger == nil {
		panic("NewFeedbackService: logger is nil")
	}
	return &FeedbackService{
		store:    st,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for timestamps
func (s *FeedbackService) WithClock(now func() time.Time) *FeedbackService {
	s.now = now
	return s
}

// GetAll returns every item in collection order
func (s *FeedbackService) GetAll(ctx context.Context) (result0 []models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "GetAll")
	defer observability.FinishSpan(span, &err)

	return s.store.Feedback(ctx)
}

// GetByUser returns the items whose userId equals userID exactly
func (s *FeedbackService) GetByUser(ctx context.Context, userID string) (result0 []models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "GetByUser", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	items, err := s.store.Feedback(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.FeedbackItem, 0)
	for _, item := range items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	span.SetAttributes(observability.AttributeCount(len(out)))
	return out, nil
}

// GetByID returns the item with id
func (s *FeedbackService) GetByID(ctx context.Context, id string) (result0 models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "GetByID", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	item, found, err := s.store.FindFeedback(ctx, id)
	if err != nil {
		return models.FeedbackItem{}, err
	}
	if !found {
		return models.FeedbackItem{}, contextutils.ErrFeedbackNotFound
	}
	return item, nil
}

// Submit validates req and stores a new pending item
func (s *FeedbackService) Submit(ctx context.Context, req models.SubmitRequest) (result0 models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "Submit")
	defer observability.FinishSpan(span, &err)

	if err := contextutils.ValidateStruct(req); err != nil {
		return models.FeedbackItem{}, err
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = models.AnonymousUserID
	}

	userName, phone := req.UserName, req.Phone
	if userID != models.AnonymousUserID && (userName == "" || phone == "") {
		if user, found, err := s.store.FindUser(ctx, userID); err == nil && found {
			if userName == "" {
				userName = user.Name
			}
			if phone == "" {
				phone = user.Phone
			}
		}
	}

	now := s.now().UTC()
	item := models.FeedbackItem{
		UserID:      userID,
		UserName:    userName,
		Phone:       phone,
		Locality:    req.Locality,
		Location:    req.Location,
		IssueType:   req.IssueType,
		Title:       req.Title,
		Description: req.Description,
		MediaURLs:   req.MediaURLs,
		Urgency:     req.Urgency,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if item.MediaURLs == nil {
		item.MediaURLs = []string{}
	}

	created, err := s.store.CreateFeedback(ctx, item)
	if err != nil {
		return models.FeedbackItem{}, err
	}

	span.SetAttributes(observability.AttributeFeedback(&created)...)
	s.metrics.RecordFeedbackSubmitted(ctx, string(created.IssueType), string(created.Urgency))
	s.logger.Info(ctx, "Feedback submitted", map[string]interface{}{
		"feedback_id": created.ID,
		"user_id":     created.UserID,
		"issue_type":  string(created.IssueType),
		"urgency":     string(created.Urgency),
	})
	return created, nil
}

// UpdateStatus applies an administrator's status change and optional response.
// The submitter is notified afterwards; a notification failure does not fail the update.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (result0 models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "UpdateStatus",
		observability.AttributeFeedbackID(id),
		observability.AttributeStatus(update.Status),
	)
	defer observability.FinishSpan(span, &err)

	if err := contextutils.ValidateStruct(update); err != nil {
		return models.FeedbackItem{}, err
	}

	var previous models.FeedbackStatus
	updated, err := s.store.UpdateFeedback(ctx, id, func(item *models.FeedbackItem) error {
		previous = item.Status
		if s.cfg.ForwardOnlyStatus && update.Status.Rank() < item.Status.Rank() {
			return contextutils.WithDetails(contextutils.ErrInvalidTransition, "%s -> %s", item.Status, update.Status)
		}

		now := s.now().UTC()
		if now.Before(item.CreatedAt) {
			now = item.CreatedAt
		}
		item.Status = update.Status
		item.UpdatedAt = now
		item.AdminID = update.AdminID
		if update.Response != nil {
			item.AdminResponse = *update.Response
		}
		return nil
	})
	if err != nil {
		return models.FeedbackItem{}, err
	}

	s.metrics.RecordStatusUpdated(ctx, string(previous), string(updated.Status))
	s.logger.Info(ctx, "Feedback status updated", map[string]interface{}{
		"feedback_id": updated.ID,
		"from":        string(previous),
		"to":          string(updated.Status),
		"admin_id":    updated.AdminID,
	})

	s.notifyOwner(ctx, updated)
	return updated, nil
}

func (s *FeedbackService) notifyOwner(ctx context.Context, item models.FeedbackItem) {
	if s.notifier == nil || !s.cfg.NotifyOnStatusChange || !s.notifier.IsEnabled() || item.IsAnonymous() {
		return
	}

	owner, found, err := s.store.FindUser(ctx, item.UserID)
	if err != nil || !found || owner.Email == "" {
		return
	}

	if err := s.notifier.SendStatusUpdate(ctx, owner, item); err != nil {
		s.logger.Warn(ctx, "Failed to notify submitter of status change", map[string]interface{}{
			"feedback_id": item.ID,
			"user_id":     owner.ID,
			"error":       err.Error(),
		})
	}
}

// Delete removes the item with id
func (s *FeedbackService) Delete(ctx context.Context, id string) (result0 models.DeleteResult, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "Delete", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	if err := s.store.DeleteFeedback(ctx, id); err != nil {
		return models.DeleteResult{}, err
	}

	s.metrics.RecordFeedbackDeleted(ctx)
	s.logger.Info(ctx, "Feedback deleted", map[string]interface{}{"feedback_id": id})
	return models.DeleteResult{Success: true}, nil
}

// Search filters items by exact enum values and a case-insensitive text query,
// newest first.
func (s *FeedbackService) Search(ctx context.Context, filter models.FeedbackFilter) (result0 []models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "Search",
		observability.AttributeStatusFilter(filter.Status),
		observability.AttributeTypeFilter(filter.IssueType),
		observability.AttributeUrgencyFilter(filter.Urgency),
		observability.AttributeSearch(filter.Query),
	)
	defer observability.FinishSpan(span, &err)

	items, err := s.store.Feedback(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.FeedbackItem, 0, len(items))
	for _, item := range items {
		if matchesFilter(item, filter) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	span.SetAttributes(observability.AttributeCount(len(out)))
	return out, nil
}

func filterActive(v string) bool {
	return v != "" && v != "all"
}

func matchesFilter(item models.FeedbackItem, f models.FeedbackFilter) bool {
	if filterActive(f.Status) && string(item.Status) != f.Status {
		return false
	}
	if filterActive(f.IssueType) && string(item.IssueType) != f.IssueType {
		return false
	}
	if filterActive(f.Urgency) && string(item.Urgency) != f.Urgency {
		return false
	}
	if f.UserID != "" && item.UserID != f.UserID {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{item.Title, item.Description, item.Locality, item.UserName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// CSVHeader is the first row written by ExportCSV
var CSVHeader = []string{
	"ID", "User Name", "Phone", "Locality", "Issue Type", "Title", "Description",
	"Urgency", "Status", "Created At", "Updated At", "Admin Response",
}

// ExportCSV writes the items matching filter to w as CSV
func (s *FeedbackService) ExportCSV(ctx context.Context, w io.Writer, filter models.FeedbackFilter) (err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "ExportCSV")
	defer observability.FinishSpan(span, &err)

	items, err := s.Search(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return contextutils.WrapError(err, "failed to write csv header")
	}
	for _, item := range items {
		if err := cw.Write(csvRow(item)); err != nil {
			return contextutils.WrapError(err, "failed to write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return contextutils.WrapError(err, "failed to flush csv")
	}

	span.SetAttributes(observability.AttributeCount(len(items)))
	return nil
}

func csvRow(item models.FeedbackItem) []string {
	return []string{
		item.ID,
		orDefault(item.UserName, "Anonymous"),
		orDefault(item.Phone, "N/A"),
		item.Locality,
		string(item.IssueType),
		item.Title,
		item.Description,
		string(item.Urgency),
		string(item.Status),
		contextutils.FormatTimestamp(item.CreatedAt),
		contextutils.FormatTimestamp(item.UpdatedAt),
		orDefault(item.AdminResponse, "N/A"),
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
