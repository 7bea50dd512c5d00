package reports

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/civic/internal/storage"
	"github.com/kalambet/civic/internal/validation"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *storage.Store, *fakeClock) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	clock := &fakeClock{now: testNow}
	return NewServiceWithClock(store, clock), store, clock
}

func mustSubmit(t *testing.T, svc *Service, userID int64, category, description string) storage.Report {
	t.Helper()
	r, err := svc.Submit(userID, storage.Report{
		Location:    "Main St",
		Category:    category,
		Description: description,
	})
	if err != nil {
		t.Fatalf("Submit(%q): %v", description, err)
	}
	return r
}

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		category string
		want     int
	}{
		{"Public Safety", 5},
		{"Water & Sewer", 4},
		{"Electricity", 4},
		{"Roads & Transportation", 3},
		{"Waste Management", 2},
		{"Building & Planning", 2},
		{"Parks & Recreation", 1},
		{"Noise", 1},
	}
	for _, tt := range tests {
		if got := PriorityFor(tt.category); got != tt.want {
			t.Errorf("PriorityFor(%q) = %d, want %d", tt.category, got, tt.want)
		}
	}

	cats := Categories()
	if len(cats) != 7 || cats[0] != "Public Safety" || cats[len(cats)-1] != "Parks & Recreation" {
		t.Errorf("Categories() = %v", cats)
	}
}

func TestSubmit(t *testing.T) {
	svc, store, _ := newTestService(t)

	r, err := svc.Submit(4, storage.Report{
		ID:          77,
		Location:    "  Oak Park ",
		Category:    "Water & Sewer",
		Description: "Burst main flooding the path",
		Attachments: []string{"flood.png"},
		Status:      storage.ReportResolved,
		Priority:    1,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.ID == 77 || r.UserID != 4 || r.Location != "Oak Park" {
		t.Errorf("submitted = %+v", r)
	}
	if r.Status != storage.ReportSubmitted || r.Priority != 4 || !r.ReportedAt.Equal(testNow) {
		t.Errorf("status/priority/time = %s/%d/%v", r.Status, r.Priority, r.ReportedAt)
	}

	stored, err := store.GetReport(r.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if stored.Description != r.Description || len(stored.Attachments) != 1 {
		t.Errorf("stored = %+v", stored)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	tests := []struct {
		name   string
		userID int64
		report storage.Report
		field  string
	}{
		{"anonymous", 0, storage.Report{Location: "a", Category: "b", Description: "c"}, "user_id"},
		{"blank location", 1, storage.Report{Location: " ", Category: "b", Description: "c"}, "location"},
		{"missing category", 1, storage.Report{Location: "a", Description: "c"}, "category"},
		{"blank description", 1, storage.Report{Location: "a", Category: "b", Description: "\t"}, "description"},
		{"too many files", 1, storage.Report{Location: "a", Category: "b", Description: "c", Attachments: []string{"1", "2", "3", "4", "5", "6"}}, "attachments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(tt.userID, tt.report)
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("Submit error = %v, want *validation.Error", err)
			}
			if verr.Fields[0].Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Fields[0].Field, tt.field)
			}
		})
	}
}

func TestForUserAndCount(t *testing.T) {
	svc, _, clock := newTestService(t)
	first := mustSubmit(t, svc, 1, "Electricity", "street light out")
	clock.Advance(time.Hour)
	mustSubmit(t, svc, 2, "Electricity", "other user")
	clock.Advance(time.Hour)
	second := mustSubmit(t, svc, 1, "Waste Management", "missed pickup")

	mine, err := svc.ForUser(1)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Errorf("ForUser(1) = %+v, want newest first", mine)
	}
	if n, err := svc.UserReportCount(1); err != nil || n != 2 {
		t.Errorf("UserReportCount(1) = %d, %v; want 2", n, err)
	}
	if n, _ := svc.UserReportCount(3); n != 0 {
		t.Errorf("UserReportCount(3) = %d, want 0", n)
	}

	if _, err := svc.Get(first.ID + 100); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestRecent(t *testing.T) {
	svc, _, clock := newTestService(t)

	empty, err := svc.Recent(3)
	if err != nil || empty.Len() != 0 {
		t.Fatalf("Recent on empty store = %v, %v", empty, err)
	}

	var ids []int64
	for i, desc := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		clock.Advance(time.Duration(i+1) * time.Minute)
		ids = append(ids, mustSubmit(t, svc, 1, "Parks & Recreation", desc).ID)
	}

	got, err := svc.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	want := []int64{ids[6], ids[5], ids[4]}
	rs := got.ToSlice()
	if len(rs) != len(want) {
		t.Fatalf("Recent(3) returned %d reports", len(rs))
	}
	for i, r := range rs {
		if r.ID != want[i] {
			t.Errorf("Recent(3)[%d] = %d, want %d", i, r.ID, want[i])
		}
	}

	if def, _ := svc.Recent(0); def.Len() != DefaultRecent {
		t.Errorf("Recent(0) returned %d, want %d", def.Len(), DefaultRecent)
	}
	if all, _ := svc.Recent(50); all.Len() != 7 {
		t.Errorf("Recent(50) returned %d, want 7", all.Len())
	}
}

func TestDashboard(t *testing.T) {
	svc, _, _ := newTestService(t)
	leak := mustSubmit(t, svc, 1, "Water & Sewer", "leak")
	mustSubmit(t, svc, 2, "Water & Sewer", "low pressure")
	light := mustSubmit(t, svc, 1, "Electricity", "flicker")
	mustSubmit(t, svc, 3, "Parks & Recreation", "broken swing")
	bench := mustSubmit(t, svc, 3, "Parks & Recreation", "graffiti")

	if _, err := svc.SetStatus(leak.ID, storage.ReportInProgress); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := svc.SetStatus(light.ID, storage.ReportResolved); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := svc.SetStatus(bench.ID, storage.ReportClosed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	d, err := svc.Dashboard()
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Total != 5 || d.Pending != 3 || d.Resolved != 1 || d.HighPriority != 3 {
		t.Errorf("dashboard = %+v", d)
	}
	for cat, want := range map[string]int{"Water & Sewer": 2, "Electricity": 1, "Parks & Recreation": 2} {
		if got, err := d.ByCategory.Get(cat); err != nil || got != want {
			t.Errorf("ByCategory[%q] = %d, %v; want %d", cat, got, err, want)
		}
	}
	if d.ByCategory.Len() != 3 {
		t.Errorf("ByCategory has %d keys, want 3", d.ByCategory.Len())
	}
}

func TestSetStatus(t *testing.T) {
	svc, _, clock := newTestService(t)
	r := mustSubmit(t, svc, 1, "Public Safety", "downed sign")

	clock.Advance(2 * time.Hour)
	got, err := svc.SetStatus(r.ID, " In Progress ")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.Status != storage.ReportInProgress || !got.UpdatedAt.Equal(testNow.Add(2*time.Hour)) {
		t.Errorf("after SetStatus: %+v", got)
	}

	var verr *validation.Error
	if _, err := svc.SetStatus(r.ID, "Archived"); !errors.As(err, &verr) {
		t.Errorf("SetStatus(Archived) = %v, want *validation.Error", err)
	}
	if _, err := svc.SetStatus(r.ID+1, storage.ReportResolved); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("SetStatus(missing) = %v, want ErrNotFound", err)
	}
}
