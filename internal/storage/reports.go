package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const reportColumns = `id, user_id, location, category, description, attachments, status, priority, reported_at, updated_at`

// CreateReport inserts r and returns its id. Status defaults to Submitted.
func (s *Store) CreateReport(r Report) (int64, error) {
	if r.Status == "" {
		r.Status = ReportSubmitted
	}
	if r.ReportedAt.IsZero() {
		r.ReportedAt = time.Now()
	}
	attachments, err := json.Marshal(nonNilStrings(r.Attachments))
	if err != nil {
		return 0, fmt.Errorf("encoding attachments: %w", err)
	}
	res, err := s.db.Exec(`
		INSERT INTO reports (user_id, location, category, description, attachments, status, priority, reported_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Location, r.Category, r.Description, string(attachments),
		r.Status, r.Priority, stamp(r.ReportedAt), stamp(r.ReportedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetReport returns the report with id.
func (s *Store) GetReport(id int64) (Report, error) {
	r, err := scanReport(s.db.QueryRow(`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	return r, err
}

// ListReports returns every report, oldest first.
func (s *Store) ListReports() ([]Report, error) {
	return s.queryReports(`SELECT ` + reportColumns + ` FROM reports ORDER BY reported_at, id`)
}

// ListReportsByUser returns the reports filed by userID, newest first.
func (s *Store) ListReportsByUser(userID int64) ([]Report, error) {
	return s.queryReports(`SELECT `+reportColumns+` FROM reports
		WHERE user_id = ? ORDER BY reported_at DESC, id DESC`, userID)
}

// CountReportsByUser returns how many reports userID has filed.
func (s *Store) CountReportsByUser(userID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reports WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// UpdateReportStatus moves a report to status.
func (s *Store) UpdateReportStatus(id int64, status string, at time.Time) error {
	res, err := s.db.Exec(`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`, status, stamp(at), id)
	return affectedOne(res, err)
}

func (s *Store) queryReports(query string, args ...any) ([]Report, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanReport(sc scanner) (Report, error) {
	var r Report
	var attachments, reportedAt, updatedAt string
	if err := sc.Scan(&r.ID, &r.UserID, &r.Location, &r.Category, &r.Description,
		&attachments, &r.Status, &r.Priority, &reportedAt, &updatedAt); err != nil {
		return Report{}, err
	}
	if err := json.Unmarshal([]byte(attachments), &r.Attachments); err != nil {
		return Report{}, fmt.Errorf("decoding attachments of report %d: %w", r.ID, err)
	}
	if len(r.Attachments) == 0 {
		r.Attachments = nil
	}
	var err error
	if r.ReportedAt, err = time.Parse(time.RFC3339, reportedAt); err != nil {
		return Report{}, fmt.Errorf("parsing reported_at for report %d: %w", r.ID, err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Report{}, fmt.Errorf("parsing updated_at for report %d: %w", r.ID, err)
	}
	return r, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
