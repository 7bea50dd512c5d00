package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

const defaultMaxAttempts = 3

const jobColumns = `id, type, payload_json, coalesce_key, hits, status, attempts, max_attempts, run_after, created_at, updated_at, last_error`

// EnqueueJob stores job as pending and returns the id of the row that holds
// it. A job with a CoalesceKey is folded into the untried pending job with
// the same key, if any: that row's hits grow by job.Hits and its id is
// returned instead of job.ID.
func (s *Store) EnqueueJob(job Job) (string, error) {
	if job.ID == "" {
		return "", errors.New("job id is required")
	}
	now := time.Now().UTC()
	if job.RunAfter.IsZero() {
		job.RunAfter = now
	}
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = defaultMaxAttempts
	}
	if job.Hits <= 0 {
		job.Hits = 1
	}

	var id string
	err := s.db.QueryRow(`
		INSERT INTO jobs (id, type, payload_json, coalesce_key, hits, status, attempts, max_attempts, run_after, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'pending', 0, ?, ?, ?, ?)
		ON CONFLICT (coalesce_key) WHERE status = 'pending' AND attempts = 0 AND coalesce_key != ''
		DO UPDATE SET hits = jobs.hits + excluded.hits, updated_at = excluded.updated_at
		RETURNING id`,
		job.ID, job.Type, job.PayloadJSON, job.CoalesceKey, job.Hits, job.MaxAttempts,
		stamp(job.RunAfter), stamp(now), stamp(now),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ClaimNextJob moves the oldest due pending job of one of types to running
// and returns it, or nil when nothing is due.
func (s *Store) ClaimNextJob(types []string) (*Job, error) {
	if len(types) == 0 {
		return nil, nil
	}
	now := stamp(time.Now())

	args := []any{now, now}
	for _, t := range types {
		args = append(args, t)
	}
	row := s.db.QueryRow(`
		UPDATE jobs SET status = 'running', updated_at = ?
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = 'pending' AND run_after <= ? AND type IN (?`+strings.Repeat(",?", len(types)-1)+`)
			ORDER BY run_after, created_at
			LIMIT 1
		)
		RETURNING `+jobColumns, args...)

	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming job: %w", err)
	}
	return &j, nil
}

// CompleteJob marks a running job completed.
func (s *Store) CompleteJob(id string) error {
	res, err := s.db.Exec(`UPDATE jobs SET status = 'completed', updated_at = ? WHERE id = ? AND status = 'running'`,
		stamp(time.Now()), id)
	return affectedOne(res, err)
}

// FailJob records a failed attempt of a running job and returns its new
// status. The job goes back to pending, due after retryIn, until its
// attempts reach max_attempts; then it is failed for good.
func (s *Store) FailJob(id, errMsg string, retryIn time.Duration) (string, error) {
	now := time.Now().UTC()
	var status string
	err := s.db.QueryRow(`
		UPDATE jobs SET
			attempts   = attempts + 1,
			last_error = ?,
			updated_at = ?,
			status     = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'pending' END,
			run_after  = CASE WHEN attempts + 1 >= max_attempts THEN run_after ELSE ? END
		WHERE id = ? AND status = 'running'
		RETURNING status`,
		errMsg, stamp(now), stamp(now.Add(retryIn)), id,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

// GetJob returns the job with id.
func (s *Store) GetJob(id string) (Job, error) {
	j, err := scanJob(s.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return j, err
}

// RetryJobNow makes a pending job due immediately.
func (s *Store) RetryJobNow(id string) error {
	now := stamp(time.Now())
	res, err := s.db.Exec(`UPDATE jobs SET run_after = ?, updated_at = ? WHERE id = ? AND status = 'pending'`, now, now, id)
	return affectedOne(res, err)
}

// JobCounts returns the number of jobs per status.
func (s *Store) JobCounts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanJob(row scanner) (Job, error) {
	var (
		j                              Job
		runAfter, createdAt, updatedAt string
		lastError                      sql.NullString
	)
	err := row.Scan(&j.ID, &j.Type, &j.PayloadJSON, &j.CoalesceKey, &j.Hits, &j.Status,
		&j.Attempts, &j.MaxAttempts, &runAfter, &createdAt, &updatedAt, &lastError)
	if err != nil {
		return Job{}, err
	}
	j.LastError = lastError.String
	for _, f := range []struct {
		dst *time.Time
		src string
	}{{&j.RunAfter, runAfter}, {&j.CreatedAt, createdAt}, {&j.UpdatedAt, updatedAt}} {
		if *f.dst, err = time.Parse(time.RFC3339, f.src); err != nil {
			return Job{}, fmt.Errorf("job %s: %w", j.ID, err)
		}
	}
	return j, nil
}

// stamp formats t the way every time column is stored. Fixed-width
// second precision keeps string comparison in SQL chronological.
func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
