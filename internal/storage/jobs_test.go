package storage

import (
	"errors"
	"testing"
	"time"
)

func viewJob(id string, eventID string) Job {
	return Job{
		ID:          id,
		Type:        "event_view",
		PayloadJSON: `{"event_id":` + eventID + `}`,
		CoalesceKey: "event_view:" + eventID,
	}
}

func searchJob(id, term string) Job {
	return Job{ID: id, Type: "search_record", PayloadJSON: `{"search_term":"` + term + `"}`}
}

func mustEnqueue(t *testing.T, s *Store, j Job) string {
	t.Helper()
	id, err := s.EnqueueJob(j)
	if err != nil {
		t.Fatalf("EnqueueJob(%s): %v", j.ID, err)
	}
	return id
}

func mustClaim(t *testing.T, s *Store, types ...string) *Job {
	t.Helper()
	j, err := s.ClaimNextJob(types)
	if err != nil {
		t.Fatalf("ClaimNextJob(%v): %v", types, err)
	}
	if j == nil {
		t.Fatalf("ClaimNextJob(%v) returned nil", types)
	}
	return j
}

func TestEnqueueAndClaimSearchJob(t *testing.T) {
	s := openTestStore(t)
	if id := mustEnqueue(t, s, searchJob("search-1", "parade")); id != "search-1" {
		t.Errorf("EnqueueJob id = %q, want search-1", id)
	}

	got := mustClaim(t, s, "search_record")
	if got.ID != "search-1" || got.PayloadJSON != `{"search_term":"parade"}` {
		t.Errorf("claimed %+v", got)
	}
	if got.Status != JobRunning || got.Hits != 1 || got.MaxAttempts != 3 {
		t.Errorf("status/hits/max = %s/%d/%d, want running/1/3", got.Status, got.Hits, got.MaxAttempts)
	}

	if j, err := s.ClaimNextJob([]string{"search_record"}); err != nil || j != nil {
		t.Errorf("second claim = %v, %v; want nothing", j, err)
	}
}

func TestEnqueueJobRequiresID(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.EnqueueJob(Job{Type: "event_view", PayloadJSON: `{}`}); err == nil {
		t.Error("EnqueueJob without id succeeded")
	}
}

func TestEnqueueCoalescesPendingViews(t *testing.T) {
	s := openTestStore(t)

	first := mustEnqueue(t, s, viewJob("v-1", "7"))
	for _, id := range []string{"v-2", "v-3"} {
		if got := mustEnqueue(t, s, viewJob(id, "7")); got != first {
			t.Errorf("EnqueueJob(%s) = %q, want folded into %q", id, got, first)
		}
	}
	other := mustEnqueue(t, s, viewJob("v-4", "8"))
	if other == first {
		t.Error("views of different events were coalesced")
	}
	// Searches carry no key and never fold.
	mustEnqueue(t, s, searchJob("s-1", "a"))
	mustEnqueue(t, s, searchJob("s-2", "a"))

	counts, err := s.JobCounts()
	if err != nil {
		t.Fatalf("JobCounts: %v", err)
	}
	if counts[JobPending] != 4 {
		t.Errorf("pending = %d, want 4", counts[JobPending])
	}

	job, err := s.GetJob(first)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Hits != 3 {
		t.Errorf("Hits = %d, want 3", job.Hits)
	}
}

func TestEnqueueAfterClaimStartsNewJob(t *testing.T) {
	s := openTestStore(t)
	mustEnqueue(t, s, viewJob("v-1", "7"))
	claimed := mustClaim(t, s, "event_view")

	if got := mustEnqueue(t, s, viewJob("v-2", "7")); got != "v-2" {
		t.Errorf("view during a running job folded into %q, want new job v-2", got)
	}
	if claimed.Hits != 1 {
		t.Errorf("running job Hits = %d, want 1", claimed.Hits)
	}
}

func TestRetriedJobDoesNotAbsorbViews(t *testing.T) {
	s := openTestStore(t)
	mustEnqueue(t, s, viewJob("v-1", "7"))
	mustClaim(t, s, "event_view")
	if _, err := s.FailJob("v-1", "busy", 0); err != nil {
		t.Fatalf("FailJob: %v", err)
	}

	if got := mustEnqueue(t, s, viewJob("v-2", "7")); got != "v-2" {
		t.Errorf("new view folded into %q, want fresh job v-2", got)
	}
	if got := mustEnqueue(t, s, viewJob("v-3", "7")); got != "v-2" {
		t.Errorf("second view folded into %q, want v-2", got)
	}

	retried, _ := s.GetJob("v-1")
	if retried.Hits != 1 || retried.Status != JobPending {
		t.Errorf("retried job = %+v, want pending with 1 hit", retried)
	}
}

func TestClaimNextJobFiltersTypes(t *testing.T) {
	s := openTestStore(t)
	mustEnqueue(t, s, searchJob("s-1", "market"))
	mustEnqueue(t, s, viewJob("v-1", "3"))

	if got := mustClaim(t, s, "event_view"); got.ID != "v-1" {
		t.Errorf("claimed %q, want v-1", got.ID)
	}
	if j, _ := s.ClaimNextJob(nil); j != nil {
		t.Errorf("ClaimNextJob(nil) = %+v, want nil", j)
	}
	if j, _ := s.ClaimNextJob([]string{"event_view"}); j != nil {
		t.Errorf("claimed %q with no view pending", j.ID)
	}
}

func TestClaimNextJobSkipsFutureJobs(t *testing.T) {
	s := openTestStore(t)
	later := searchJob("s-later", "x")
	later.RunAfter = time.Now().Add(time.Hour)
	mustEnqueue(t, s, later)
	mustEnqueue(t, s, searchJob("s-now", "y"))

	if got := mustClaim(t, s, "search_record"); got.ID != "s-now" {
		t.Errorf("claimed %q, want s-now", got.ID)
	}
	if j, _ := s.ClaimNextJob([]string{"search_record"}); j != nil {
		t.Errorf("claimed %q before it was due", j.ID)
	}
}

func TestCompleteJob(t *testing.T) {
	s := openTestStore(t)
	mustEnqueue(t, s, searchJob("s-1", "x"))

	if err := s.CompleteJob("s-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CompleteJob(pending) = %v, want ErrNotFound", err)
	}
	mustClaim(t, s, "search_record")
	if err := s.CompleteJob("s-1"); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	if job, _ := s.GetJob("s-1"); job.Status != JobCompleted {
		t.Errorf("Status = %q, want completed", job.Status)
	}
}

func TestFailJobBacksOffThenFails(t *testing.T) {
	s := openTestStore(t)
	mustEnqueue(t, s, viewJob("v-1", "9"))

	before := time.Now().UTC().Truncate(time.Second)
	mustClaim(t, s, "event_view")
	status, err := s.FailJob("v-1", "event missing", 30*time.Second)
	if err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	if status != JobPending {
		t.Errorf("status after first failure = %q, want pending", status)
	}

	job, _ := s.GetJob("v-1")
	if job.Attempts != 1 || job.LastError != "event missing" {
		t.Errorf("attempts/last error = %d/%q", job.Attempts, job.LastError)
	}
	if job.RunAfter.Before(before.Add(30 * time.Second)) {
		t.Errorf("RunAfter = %v, want at least 30s after %v", job.RunAfter, before)
	}
	if j, _ := s.ClaimNextJob([]string{"event_view"}); j != nil {
		t.Fatal("job claimable during backoff")
	}

	for attempt := 2; attempt <= 3; attempt++ {
		if err := s.RetryJobNow("v-1"); err != nil {
			t.Fatalf("RetryJobNow: %v", err)
		}
		mustClaim(t, s, "event_view")
		if status, err = s.FailJob("v-1", "event missing", time.Second); err != nil {
			t.Fatalf("FailJob attempt %d: %v", attempt, err)
		}
	}
	if status != JobFailed {
		t.Errorf("status after 3 failures = %q, want failed", status)
	}
	if err := s.RetryJobNow("v-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RetryJobNow(failed) = %v, want ErrNotFound", err)
	}
	if _, err := s.FailJob("v-1", "again", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("FailJob(failed) = %v, want ErrNotFound", err)
	}
}

func TestJobCountsAndGetJob(t *testing.T) {
	s := openTestStore(t)
	mustEnqueue(t, s, searchJob("s-1", "a"))
	mustEnqueue(t, s, searchJob("s-2", "b"))
	mustClaim(t, s, "search_record")

	counts, err := s.JobCounts()
	if err != nil {
		t.Fatalf("JobCounts: %v", err)
	}
	if counts[JobPending] != 1 || counts[JobRunning] != 1 {
		t.Errorf("counts = %v, want 1 pending and 1 running", counts)
	}
	if _, err := s.GetJob("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob(missing) = %v, want ErrNotFound", err)
	}
}
