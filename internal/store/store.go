// Package store holds the user and feedback collections in memory and writes every change
// through to a durable slot.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/slot"
	contextutils "civicfeedback/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// Slot keys of the persisted collections
const (
	UsersKey     = "db_users"
	FeedbackKey  = "db_feedback"
	SequencesKey = "db_sequences"
)

// Options configures a Store
type Options struct {
	IDStrategy string
	BcryptCost int
	// Now supplies the clock used for bootstrap timestamps
	Now func() time.Time
}

// Store is the single source of truth for users and feedback.
// Every mutation runs under mu and is persisted before the lock is released.
type Store struct {
	mu         sync.RWMutex
	slot       slot.Slot
	logger     *observability.Logger
	validator  *payloadValidator
	idStrategy string
	bcryptCost int
	now        func() time.Time

	users    []models.User
	feedback []models.FeedbackItem
	seq      Sequences
	loaded   bool
}

// New creates a store over s. Call Load before use.
func New(s slot.Slot, logger *observability.Logger, opts Options) (*Store, error) {
	validator, err := newPayloadValidator()
	if err != nil {
		return nil, err
	}

	if opts.IDStrategy == "" {
		opts.IDStrategy = config.IDStrategySequence
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = config.DefaultBcryptCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		slot:       s,
		logger:     logger,
		validator:  validator,
		idStrategy: opts.IDStrategy,
		bcryptCost: opts.BcryptCost,
		now:        opts.Now,
	}, nil
}

// Backend names the slot backend in use
func (s *Store) Backend() string {
	return s.slot.Backend()
}

// Load reads both collections and the id counters from the slot.
// A missing, unparsable or schema-invalid collection is replaced by the bootstrap dataset,
// which is persisted immediately.
func (s *Store) Load(ctx context.Context) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "Load", observability.AttributeBackend(s.slot.Backend()))
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	usersOK, err := s.readCollection(ctx, UsersKey, &users)
	if err != nil {
		return err
	}
	if !usersOK {
		users, err = seedUsers(s.bcryptCost)
		if err != nil {
			return contextutils.WrapError(err, "failed to build bootstrap users")
		}
		if err := s.write(ctx, UsersKey, users); err != nil {
			return err
		}
	}

	var feedback []models.FeedbackItem
	feedbackOK, err := s.readCollection(ctx, FeedbackKey, &feedback)
	if err != nil {
		return err
	}
	if !feedbackOK {
		feedback = seedFeedback(s.now())
		if err := s.write(ctx, FeedbackKey, feedback); err != nil {
			return err
		}
	}

	derived := Sequences{Users: maxNumericID(userIDs(users)), Feedback: maxNumericID(feedbackIDs(feedback))}
	var seq Sequences
	seqOK, err := s.readCollection(ctx, SequencesKey, &seq)
	if err != nil {
		return err
	}
	persistSeq := !seqOK
	if seq.Users < derived.Users {
		seq.Users, persistSeq = derived.Users, true
	}
	if seq.Feedback < derived.Feedback {
		seq.Feedback, persistSeq = derived.Feedback, true
	}
	if persistSeq {
		if err := s.write(ctx, SequencesKey, seq); err != nil {
			return err
		}
	}

	s.users = users
	s.feedback = feedback
	s.seq = seq
	s.loaded = true

	span.SetAttributes(
		attribute.Int("store.users", len(users)),
		attribute.Int("store.feedback", len(feedback)),
	)
	s.logger.Info(ctx, "Record store loaded", map[string]interface{}{
		"backend":  s.slot.Backend(),
		"users":    len(users),
		"feedback": len(feedback),
		"seeded":   !usersOK || !feedbackOK,
	})
	return nil
}

// readCollection decodes key into dst. It reports false, without error, when the payload
// is absent or corrupt so the caller can fall back to defaults.
func (s *Store) readCollection(ctx context.Context, key string, dst interface{}) (bool, error) {
	payload, found, err := s.slot.Get(ctx, key)
	if err != nil {
		return false, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"Failed to read records", err.Error(), err)
	}
	if !found {
		s.logger.Warn(ctx, "Durable slot is empty, using bootstrap data", map[string]interface{}{"key": key})
		return false, nil
	}

	if err := s.validator.validate(key, payload); err != nil {
		s.logger.Warn(ctx, "Durable slot content is corrupt, using bootstrap data", map[string]interface{}{
			"key":   key,
			"error": contextutils.GetErrorMessage(err),
		})
		return false, nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		s.logger.Warn(ctx, "Durable slot content could not be decoded, using bootstrap data", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false, nil
	}
	return true, nil
}

// write serializes v and stores it under key
func (s *Store) write(ctx context.Context, key string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to encode %s", key)
	}
	if err := s.slot.Set(ctx, key, payload); err != nil {
		s.logger.Error(ctx, "Failed to persist records", err, map[string]interface{}{"key": key})
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			contextutils.ErrPersistFailed.Message, err.Error(), err)
	}
	return nil
}

func (s *Store) ensureLoaded() error {
	if !s.loaded {
		return contextutils.WithDetails(contextutils.ErrServiceUnavailable, "record store has not been loaded")
	}
	return nil
}

// Users returns a copy of every user in collection order
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	_, span := observability.TraceStoreFunction(ctx, "Users")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

// FindUserByEmail returns the user whose email matches exactly
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, bool, error) {
	_, span := observability.TraceStoreFunction(ctx, "FindUserByEmail")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureLoaded(); err != nil {
		return models.User{}, false, err
	}

	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// FindUser returns the user with id
func (s *Store) FindUser(ctx context.Context, id string) (models.User, bool, error) {
	_, span := observability.TraceStoreFunction(ctx, "FindUser", observability.AttributeUserID(id))
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureLoaded(); err != nil {
		return models.User{}, false, err
	}

	for _, u := range s.users {
		if u.ID == id {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// CreateUser assigns an id to u, appends it and persists the users collection.
// An existing exact-match email yields ErrEmailInUse.
func (s *Store) CreateUser(ctx context.Context, u models.User) (result0 models.User, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "CreateUser")
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return models.User{}, err
	}

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return models.User{}, contextutils.ErrEmailInUse
		}
	}

	prevSeq := s.seq
	id, usesSequence := s.nextID(UsersKey)
	if usesSequence {
		if err := s.write(ctx, SequencesKey, s.seq); err != nil {
			s.seq = prevSeq
			return models.User{}, err
		}
	}

	u.ID = id
	prev := s.users
	next := make([]models.User, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, u)

	if err := s.write(ctx, UsersKey, next); err != nil {
		return models.User{}, err
	}
	s.users = next

	span.SetAttributes(observability.AttributeUserID(u.ID))
	return u, nil
}

// Feedback returns deep copies of every feedback item in collection order
func (s *Store) Feedback(ctx context.Context) ([]models.FeedbackItem, error) {
	_, span := observability.TraceStoreFunction(ctx, "Feedback")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	out := make([]models.FeedbackItem, len(s.feedback))
	for i, f := range s.feedback {
		out[i] = f.Clone()
	}
	span.SetAttributes(observability.AttributeCount(len(out)))
	return out, nil
}

// FindFeedback returns a deep copy of the item with id
func (s *Store) FindFeedback(ctx context.Context, id string) (models.FeedbackItem, bool, error) {
	_, span := observability.TraceStoreFunction(ctx, "FindFeedback", observability.AttributeFeedbackID(id))
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureLoaded(); err != nil {
		return models.FeedbackItem{}, false, err
	}

	if i := s.feedbackIndex(id); i >= 0 {
		return s.feedback[i].Clone(), true, nil
	}
	return models.FeedbackItem{}, false, nil
}

func (s *Store) feedbackIndex(id string) int {
	for i := range s.feedback {
		if s.feedback[i].ID == id {
			return i
		}
	}
	return -1
}

// CreateFeedback assigns an id to item, appends it and persists the feedback collection
func (s *Store) CreateFeedback(ctx context.Context, item models.FeedbackItem) (result0 models.FeedbackItem, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "CreateFeedback")
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return models.FeedbackItem{}, err
	}

	prevSeq := s.seq
	id, usesSequence := s.nextID(FeedbackKey)
	if usesSequence {
		if err := s.write(ctx, SequencesKey, s.seq); err != nil {
			s.seq = prevSeq
			return models.FeedbackItem{}, err
		}
	}

	item = item.Clone()
	item.ID = id

	prev := s.feedback
	next := make([]models.FeedbackItem, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, item)

	if err := s.write(ctx, FeedbackKey, next); err != nil {
		return models.FeedbackItem{}, err
	}
	s.feedback = next

	span.SetAttributes(observability.AttributeFeedbackID(id))
	return item.Clone(), nil
}

// UpdateFeedback applies mutate to a copy of the item with id and persists the result.
// The stored item is only replaced when mutate succeeds and the write goes through.
func (s *Store) UpdateFeedback(ctx context.Context, id string, mutate func(*models.FeedbackItem) error) (result0 models.FeedbackItem, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "UpdateFeedback", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return models.FeedbackItem{}, err
	}

	i := s.feedbackIndex(id)
	if i < 0 {
		return models.FeedbackItem{}, contextutils.ErrFeedbackNotFound
	}

	updated := s.feedback[i].Clone()
	if err := mutate(&updated); err != nil {
		return models.FeedbackItem{}, err
	}

	next := make([]models.FeedbackItem, len(s.feedback))
	copy(next, s.feedback)
	next[i] = updated

	if err := s.write(ctx, FeedbackKey, next); err != nil {
		return models.FeedbackItem{}, err
	}
	s.feedback = next
	return updated.Clone(), nil
}

// DeleteFeedback removes the item with id and persists the feedback collection
func (s *Store) DeleteFeedback(ctx context.Context, id string) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "DeleteFeedback", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	i := s.feedbackIndex(id)
	if i < 0 {
		return contextutils.ErrFeedbackNotFound
	}

	next := make([]models.FeedbackItem, 0, len(s.feedback)-1)
	next = append(next, s.feedback[:i]...)
	next = append(next, s.feedback[i+1:]...)

	if err := s.write(ctx, FeedbackKey, next); err != nil {
		return err
	}
	s.feedback = next
	return nil
}

// Sequences returns the current id counters
func (s *Store) Sequences() Sequences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Close releases the underlying slot
func (s *Store) Close() error {
	return s.slot.Close()
}
