// Package reports handles issues residents file with the city and the
// triage figures the admin dashboard shows for them.
package reports

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/kalambet/civic/internal/collections"
	"github.com/kalambet/civic/internal/metrics"
	"github.com/kalambet/civic/internal/ranking"
	"github.com/kalambet/civic/internal/storage"
	"github.com/kalambet/civic/internal/validation"
)

// Store defines the storage operations the Service needs.
// Implemented by storage.Store.
type Store interface {
	CreateReport(r storage.Report) (int64, error)
	GetReport(id int64) (storage.Report, error)
	ListReports() ([]storage.Report, error)
	ListReportsByUser(userID int64) ([]storage.Report, error)
	CountReportsByUser(userID int64) (int, error)
	UpdateReportStatus(id int64, status string, at time.Time) error
}

// DefaultRecent is how many reports Recent returns when asked for none.
const DefaultRecent = 5

// HighPriority is the lowest priority the dashboard counts as urgent.
const HighPriority = 3

// categoryPriority ranks the standard categories. Anything else gets 1.
var categoryPriority = map[string]int{
	"Public Safety":          5,
	"Water & Sewer":          4,
	"Electricity":            4,
	"Roads & Transportation": 3,
	"Waste Management":       2,
	"Building & Planning":    2,
	"Parks & Recreation":     1,
}

// Categories lists the standard categories, most urgent first.
func Categories() []string {
	out := make([]string, 0, len(categoryPriority))
	for c := range categoryPriority {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b string) int {
		if d := categoryPriority[b] - categoryPriority[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return out
}

// PriorityFor returns the triage priority of category, 1 to 5.
func PriorityFor(category string) int {
	if p, ok := categoryPriority[category]; ok {
		return p
	}
	return 1
}

var statuses = collections.NewSet(
	storage.ReportSubmitted,
	storage.ReportInProgress,
	storage.ReportResolved,
	storage.ReportClosed,
)

// Dashboard summarises every report on file.
type Dashboard struct {
	Total        int
	Pending      int // Submitted or In Progress
	Resolved     int
	HighPriority int
	ByCategory   *collections.Dictionary[string, int]
}

type Service struct {
	store  Store
	clock  ranking.Clock
	logger *slog.Logger
}

// NewService creates a Service reading the wall clock.
func NewService(store Store) *Service {
	return NewServiceWithClock(store, ranking.SystemClock{})
}

// NewServiceWithClock creates a Service with a custom clock (for testing).
func NewServiceWithClock(store Store, clock ranking.Clock) *Service {
	return &Service{store: store, clock: clock, logger: slog.Default()}
}

// Submit files r for userID. Status, priority and timestamps are set here;
// whatever the caller put in them is ignored.
func (s *Service) Submit(userID int64, r storage.Report) (storage.Report, error) {
	r.ID = 0
	r.UserID = userID
	r.Location = strings.TrimSpace(r.Location)
	r.Category = strings.TrimSpace(r.Category)
	r.Status = storage.ReportSubmitted
	r.Priority = PriorityFor(r.Category)
	r.ReportedAt = s.clock.Now().UTC()
	r.UpdatedAt = r.ReportedAt
	if err := validation.Struct(&r); err != nil {
		return storage.Report{}, err
	}

	id, err := s.store.CreateReport(r)
	if err != nil {
		return storage.Report{}, fmt.Errorf("creating report: %w", err)
	}
	r.ID = id

	metrics.RecordReport(r.Priority)
	s.logger.Info("report submitted", "id", id, "category", r.Category, "priority", r.Priority)
	return r, nil
}

// Get returns the report with id or storage.ErrNotFound.
func (s *Service) Get(id int64) (storage.Report, error) {
	r, err := s.store.GetReport(id)
	if err != nil {
		return storage.Report{}, fmt.Errorf("report %d: %w", id, err)
	}
	return r, nil
}

// ForUser returns userID's reports, newest first.
func (s *Service) ForUser(userID int64) ([]storage.Report, error) {
	rs, err := s.store.ListReportsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("listing reports of user %d: %w", userID, err)
	}
	return rs, nil
}

// UserReportCount returns how many reports userID has filed.
func (s *Service) UserReportCount(userID int64) (int, error) {
	n, err := s.store.CountReportsByUser(userID)
	if err != nil {
		return 0, fmt.Errorf("counting reports of user %d: %w", userID, err)
	}
	return n, nil
}

// Recent returns the n newest reports, newest first. n <= 0 means
// DefaultRecent.
func (s *Service) Recent(n int) (*collections.Sequence[storage.Report], error) {
	if n <= 0 {
		n = DefaultRecent
	}
	rows, err := s.store.ListReports()
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	// Storage lists oldest first, so the tail holds the newest.
	tail := collections.NewSequence(rows...).TakeLast(n)
	buf := make([]storage.Report, tail.Len())
	if err := tail.CopyTo(buf, 0); err != nil {
		return nil, err
	}
	slices.Reverse(buf)
	return collections.NewSequence(buf...), nil
}

// Dashboard counts reports by state, urgency and category.
func (s *Service) Dashboard() (Dashboard, error) {
	rows, err := s.store.ListReports()
	if err != nil {
		return Dashboard{}, fmt.Errorf("listing reports: %w", err)
	}

	d := Dashboard{Total: len(rows), ByCategory: collections.NewDictionary[string, int]()}
	for _, r := range rows {
		switch r.Status {
		case storage.ReportSubmitted, storage.ReportInProgress:
			d.Pending++
		case storage.ReportResolved:
			d.Resolved++
		}
		if r.Priority >= HighPriority {
			d.HighPriority++
		}
		n, _ := d.ByCategory.TryGet(r.Category)
		d.ByCategory.Set(r.Category, n+1)
	}
	return d, nil
}

// SetStatus moves a report to status, which must be one of the report
// statuses in storage.
func (s *Service) SetStatus(id int64, status string) (storage.Report, error) {
	status = strings.TrimSpace(status)
	if !statuses.Contains(status) {
		allowed := strings.Join(statuses.ToSequence().ToSlice(), ", ")
		return storage.Report{}, &validation.Error{Fields: []validation.FieldError{{
			Field:   "status",
			Tag:     "oneof",
			Param:   allowed,
			Message: "status must be one of: " + allowed,
		}}}
	}
	if err := s.store.UpdateReportStatus(id, status, s.clock.Now().UTC()); err != nil {
		return storage.Report{}, fmt.Errorf("updating report %d: %w", id, err)
	}
	s.logger.Info("report status changed", "id", id, "status", status)
	return s.Get(id)
}
