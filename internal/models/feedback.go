package models

import (
	"encoding/json"
	"time"
)

// AnonymousUserID owns feedback submitted without a logged-in user
const AnonymousUserID = "anonymous"

// IssueType is the category of a reported civic issue
type IssueType string

// Issue categories
const (
	IssueTypeRoads        IssueType = "roads"
	IssueTypeWater        IssueType = "water"
	IssueTypeElectricity  IssueType = "electricity"
	IssueTypeSanitation   IssueType = "sanitation"
	IssueTypePublicSafety IssueType = "public-safety"
	IssueTypeOther        IssueType = "other"
)

// IssueTypes lists every category in display order
var IssueTypes = []IssueType{
	IssueTypeRoads,
	IssueTypeWater,
	IssueTypeElectricity,
	IssueTypeSanitation,
	IssueTypePublicSafety,
	IssueTypeOther,
}

// Valid reports whether t is a known category
func (t IssueType) Valid() bool {
	for _, known := range IssueTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Urgency is the reporter-assigned priority
type Urgency string

// Urgency levels
const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Valid reports whether u is a known urgency
func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

// FeedbackStatus is the workflow stage of a feedback item
type FeedbackStatus string

// Workflow stages
const (
	StatusPending    FeedbackStatus = "pending"
	StatusInProgress FeedbackStatus = "in-progress"
	StatusResolved   FeedbackStatus = "resolved"
)

// Valid reports whether s is a known status
func (s FeedbackStatus) Valid() bool {
	return s.Rank() >= 0
}

// Rank orders statuses along the pending, in-progress, resolved progression.
// Unknown statuses rank -1.
func (s FeedbackStatus) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInProgress:
		return 1
	case StatusResolved:
		return 2
	default:
		return -1
	}
}

// Location is an optional geocoordinate attached to a report
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// FeedbackItem is one reported civic issue
type FeedbackItem struct {
	ID            string         `json:"id"`
	UserID        string         `json:"userId"`
	UserName      string         `json:"userName,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	Locality      string         `json:"locality"`
	Location      *Location      `json:"location,omitempty"`
	IssueType     IssueType      `json:"issueType"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	MediaURLs     []string       `json:"mediaUrls"`
	Urgency       Urgency        `json:"urgency"`
	Status        FeedbackStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	AdminID       string         `json:"adminId,omitempty"`
	AdminResponse string         `json:"adminResponse,omitempty"`
}

// MarshalJSON always renders mediaUrls as an array
func (f FeedbackItem) MarshalJSON() (result0 []byte, err error) {
	type alias FeedbackItem
	a := alias(f)
	if a.MediaURLs == nil {
		a.MediaURLs = []string{}
	}
	return json.Marshal(a)
}

// Clone returns a deep copy that shares no mutable state with f
func (f FeedbackItem) Clone() FeedbackItem {
	c := f
	if f.MediaURLs != nil {
		c.MediaURLs = make([]string, len(f.MediaURLs))
		copy(c.MediaURLs, f.MediaURLs)
	}
	if f.Location != nil {
		loc := *f.Location
		c.Location = &loc
	}
	return c
}

// IsAnonymous reports whether the item was submitted without an account
func (f FeedbackItem) IsAnonymous() bool {
	return f.UserID == AnonymousUserID
}

// SubmitRequest carries the caller-supplied fields of a new feedback item
type SubmitRequest struct {
	UserID      string    `json:"userId,omitempty"`
	UserName    string    `json:"userName,omitempty" validate:"omitempty,max=100"`
	Phone       string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	Locality    string    `json:"locality" validate:"required,min=3"`
	Location    *Location `json:"location,omitempty"`
	IssueType   IssueType `json:"issueType" validate:"required,oneof=roads water electricity sanitation public-safety other"`
	Title       string    `json:"title" validate:"required,min=5,max=100"`
	Description string    `json:"description" validate:"required,min=10"`
	MediaURLs   []string  `json:"mediaUrls"`
	Urgency     Urgency   `json:"urgency" validate:"required,oneof=low medium high"`
}

// StatusUpdate is an administrator's status change.
// A nil Response keeps the previous admin response; a non-nil one replaces it,
// and a pointer to the empty string clears it.
type StatusUpdate struct {
	Status   FeedbackStatus `json:"status" validate:"required,oneof=pending in-progress resolved"`
	AdminID  string         `json:"adminId" validate:"required"`
	Response *string        `json:"adminResponse,omitempty"`
}

// DeleteResult is the success marker returned by a deletion
type DeleteResult struct {
	Success bool `json:"success"`
}

// FeedbackFilter narrows a feedback listing. Empty fields and "all" match everything.
type FeedbackFilter struct {
	Status    string `json:"status,omitempty" form:"status"`
	IssueType string `json:"issueType,omitempty" form:"type"`
	Urgency   string `json:"urgency,omitempty" form:"urgency"`
	UserID    string `json:"userId,omitempty" form:"user_id"`
	Query     string `json:"query,omitempty" form:"q"`
}
