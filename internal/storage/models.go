package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title" validate:"required,notblank,max=200"`
	Description string    `json:"description" validate:"required,max=1000"`
	Category    string    `json:"category" validate:"required,max=100"`
	Location    string    `json:"location" validate:"max=200"`
	EventDate   time.Time `json:"event_date" validate:"required"`
	CreatedAt   time.Time `json:"created_at"`
	Active      bool      `json:"active"`
	Priority    int       `json:"priority" validate:"min=1"`
	ViewCount   int       `json:"view_count"`
}

// Identity names who issued a search: a signed-in user when UserID is set,
// otherwise an anonymous session.
type Identity struct {
	UserID    *int64
	SessionID string
}

// IsZero reports whether the identity carries neither a user nor a session.
func (i Identity) IsZero() bool { return i.UserID == nil && i.SessionID == "" }

type SearchRecord struct {
	ID         int64
	UserID     *int64
	SessionID  string
	SearchTerm string
	Category   string
	SearchedAt time.Time
}

// EventFilter narrows SearchEvents. Zero fields are ignored.
type EventFilter struct {
	Term     string // substring of title, description or location
	Category string // exact match
	From     time.Time
	To       time.Time
}

type CategoryCount struct {
	Category string
	Count    int
}

// Report statuses, in the order a report normally moves through them.
const (
	ReportSubmitted  = "Submitted"
	ReportInProgress = "In Progress"
	ReportResolved   = "Resolved"
	ReportClosed     = "Closed"
)

// Report is an issue a resident filed with the city: a pothole, a broken
// street light, a missed collection.
type Report struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id" validate:"min=1"`
	Location    string    `json:"location" validate:"required,notblank,max=200"`
	Category    string    `json:"category" validate:"required,notblank,max=100"`
	Description string    `json:"description" validate:"required,notblank,max=2000"`
	Attachments []string  `json:"attachments,omitempty" validate:"max=5,dive,required,max=260"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	ReportedAt  time.Time `json:"reported_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Job is a queued tracking write. Hits counts the enqueues folded into it
// through CoalesceKey.
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	CoalesceKey string
	Hits        int
	Status      string // JobPending, JobRunning, JobCompleted or JobFailed
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
