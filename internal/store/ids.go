package store

import (
	"strconv"

	"civicfeedback/internal/config"
	"civicfeedback/internal/models"

	"github.com/google/uuid"
)

// Sequences holds the last id issued per collection
type Sequences struct {
	Users    int64 `json:"users"`
	Feedback int64 `json:"feedback"`
}

func (s *Sequences) counter(key string) *int64 {
	if key == UsersKey {
		return &s.Users
	}
	return &s.Feedback
}

// maxNumericID returns the highest decimal id, or count when no id is numeric
func maxNumericID(ids []string) int64 {
	var highest int64
	numeric := false
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		numeric = true
		if n > highest {
			highest = n
		}
	}
	if !numeric {
		return int64(len(ids))
	}
	return highest
}

func userIDs(users []models.User) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func feedbackIDs(items []models.FeedbackItem) []string {
	ids := make([]string, len(items))
	for i, f := range items {
		ids[i] = f.ID
	}
	return ids
}

// nextID issues an id for the collection under key.
// The sequence strategy reports usesSequence so the caller persists the counter.
func (s *Store) nextID(key string) (id string, usesSequence bool) {
	if s.idStrategy == config.IDStrategyUUID {
		return uuid.NewString(), false
	}
	c := s.seq.counter(key)
	*c++
	return strconv.FormatInt(*c, 10), true
}
