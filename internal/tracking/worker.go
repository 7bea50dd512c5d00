package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kalambet/civic/internal/metrics"
	"github.com/kalambet/civic/internal/storage"
)

// Job types handled by the Worker.
const (
	JobEventView    = "event_view"
	JobSearchRecord = "search_record"
)

// JobStore abstracts the job queue and the records the jobs write to.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id, errMsg string, retryIn time.Duration) (string, error)
	IncrementViewCount(id int64, n int) error
	SaveSearch(r storage.SearchRecord) error
}

// Enqueuer accepts new jobs and returns the id of the job holding each.
type Enqueuer interface {
	EnqueueJob(job storage.Job) (string, error)
}

// maxBackoff caps the delay before a failed job is retried.
const maxBackoff = 5 * time.Minute

type viewPayload struct {
	EventID int64 `json:"event_id"`
}

type searchPayload struct {
	UserID     *int64    `json:"user_id,omitempty"`
	SessionID  string    `json:"session_id"`
	SearchTerm string    `json:"search_term"`
	Category   string    `json:"category"`
	SearchedAt time.Time `json:"searched_at"`
}

// EnqueueView queues a view-count increment for eventID and returns the job
// id. Views of one event pile up on a single pending job until a worker
// claims it, so a burst of views costs one write.
func EnqueueView(q Enqueuer, eventID int64) (string, error) {
	payload, err := json.Marshal(viewPayload{EventID: eventID})
	if err != nil {
		return "", err
	}
	return enqueue(q, JobEventView, payload, viewKey(eventID))
}

func viewKey(eventID int64) string {
	return JobEventView + ":" + strconv.FormatInt(eventID, 10)
}

// EnqueueSearch queues r to be written to the search history and returns the
// job id.
func EnqueueSearch(q Enqueuer, r storage.SearchRecord) (string, error) {
	if r.SearchedAt.IsZero() {
		r.SearchedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(searchPayload{
		UserID:     r.UserID,
		SessionID:  r.SessionID,
		SearchTerm: r.SearchTerm,
		Category:   r.Category,
		SearchedAt: r.SearchedAt,
	})
	if err != nil {
		return "", err
	}
	return enqueue(q, JobSearchRecord, payload, "")
}

func enqueue(q Enqueuer, jobType string, payload []byte, key string) (string, error) {
	id, err := q.EnqueueJob(storage.Job{
		ID:          uuid.New().String(),
		Type:        jobType,
		PayloadJSON: string(payload),
		CoalesceKey: key,
	})
	if err != nil {
		return "", fmt.Errorf("enqueueing %s job: %w", jobType, err)
	}
	return id, nil
}

// Worker processes tracking jobs from the SQLite job queue.
type Worker struct {
	store    JobStore
	onChange func(jobType string)
	poll     time.Duration
	logger   *slog.Logger
}

// NewWorker creates a Worker. onChange, if non-nil, is called after every
// job that modified stored data. If pollInterval is <= 0, it defaults to
// 500ms. The interval also sets the retry backoff: a job that failed n times
// waits pollInterval << n, at most five minutes.
func NewWorker(store JobStore, onChange func(jobType string), pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:    store,
		onChange: onChange,
		poll:     pollInterval,
		logger:   slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single tracking job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobEventView, JobSearchRecord})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		metrics.RecordTrackingJob(job.Type, false)
		retryIn := w.backoff(job.Attempts + 1)
		status, failErr := w.store.FailJob(job.ID, err.Error(), retryIn)
		switch {
		case failErr != nil:
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		case status == storage.JobFailed:
			w.logger.Error("job gave up", "job_id", job.ID, "type", job.Type, "hits", job.Hits, "error", err)
		default:
			w.logger.Warn("job failed", "job_id", job.ID, "type", job.Type, "retry_in", retryIn, "error", err)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	metrics.RecordTrackingJob(job.Type, true)
	if w.onChange != nil {
		w.onChange(job.Type)
	}
	return true, nil
}

// backoff returns the wait after a job's nth failed attempt.
func (w *Worker) backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	if n > 16 {
		return maxBackoff
	}
	d := w.poll << n
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func (w *Worker) processJob(_ context.Context, job *storage.Job) error {
	switch job.Type {
	case JobEventView:
		var p viewPayload
		if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil {
			return fmt.Errorf("parsing payload: %w", err)
		}
		if err := w.store.IncrementViewCount(p.EventID, job.Hits); err != nil {
			return fmt.Errorf("adding %d views to event %d: %w", job.Hits, p.EventID, err)
		}
		return nil

	case JobSearchRecord:
		var p searchPayload
		if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil {
			return fmt.Errorf("parsing payload: %w", err)
		}
		err := w.store.SaveSearch(storage.SearchRecord{
			UserID:     p.UserID,
			SessionID:  p.SessionID,
			SearchTerm: p.SearchTerm,
			Category:   p.Category,
			SearchedAt: p.SearchedAt,
		})
		if err != nil {
			return fmt.Errorf("saving search: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}
