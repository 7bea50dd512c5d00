package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const eventColumns = `id, title, description, category, location, event_date, created_at, is_active, priority, view_count`

// CreateEvent inserts e as an active event and returns its id.
func (s *Store) CreateEvent(e Event) (int64, error) {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	priority := e.Priority
	if priority == 0 {
		priority = 1
	}
	res, err := s.db.Exec(`
		INSERT INTO events (title, description, category, location, event_date, created_at, is_active, priority, view_count)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		e.Title, e.Description, e.Category, e.Location,
		e.EventDate.UTC().Format(time.RFC3339), createdAt.UTC().Format(time.RFC3339),
		priority, e.ViewCount,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetEvent returns the event with id, active or not.
func (s *Store) GetEvent(id int64) (Event, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return Event{}, ErrNotFound
	}
	return e, err
}

// UpdateEvent overwrites the editable fields of an active event. The view
// count, creation time and active flag are left untouched. A deleted event
// reports ErrNotFound.
func (s *Store) UpdateEvent(e Event) error {
	res, err := s.db.Exec(`
		UPDATE events SET title = ?, description = ?, category = ?, location = ?, event_date = ?, priority = ?
		WHERE id = ? AND is_active = 1`,
		e.Title, e.Description, e.Category, e.Location,
		e.EventDate.UTC().Format(time.RFC3339), e.Priority, e.ID,
	)
	return affectedOne(res, err)
}

// DeactivateEvent soft-deletes an event.
func (s *Store) DeactivateEvent(id int64) error {
	res, err := s.db.Exec(`UPDATE events SET is_active = 0 WHERE id = ?`, id)
	return affectedOne(res, err)
}

// IncrementViewCount adds n views to an event. n below one counts as one.
func (s *Store) IncrementViewCount(id int64, n int) error {
	if n < 1 {
		n = 1
	}
	res, err := s.db.Exec(`UPDATE events SET view_count = view_count + ? WHERE id = ?`, n, id)
	return affectedOne(res, err)
}

// ListActiveEvents returns every active event ordered by event date.
func (s *Store) ListActiveEvents() ([]Event, error) {
	return s.queryEvents(`SELECT ` + eventColumns + ` FROM events WHERE is_active = 1 ORDER BY event_date ASC, id ASC`)
}

// ListUpcomingEvents returns active events dated at or after now, soonest first.
func (s *Store) ListUpcomingEvents(now time.Time) ([]Event, error) {
	return s.queryEvents(`SELECT `+eventColumns+` FROM events
		WHERE is_active = 1 AND event_date >= ? ORDER BY event_date ASC, id ASC`,
		now.UTC().Format(time.RFC3339))
}

// SearchEvents returns active events matching f in id order.
func (s *Store) SearchEvents(f EventFilter) ([]Event, error) {
	var where []string
	var args []any

	where = append(where, "is_active = 1")
	if f.Term != "" {
		where = append(where, "(instr(lower(title), lower(?)) > 0 OR instr(lower(description), lower(?)) > 0 OR instr(lower(location), lower(?)) > 0)")
		args = append(args, f.Term, f.Term, f.Term)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		where = append(where, "event_date >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		where = append(where, "event_date <= ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	return s.queryEvents(query, args...)
}

// CountActiveEvents returns the number of active events.
func (s *Store) CountActiveEvents() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE is_active = 1`).Scan(&n)
	return n, err
}

// CountUpcomingEvents returns the number of active events dated at or after now.
func (s *Store) CountUpcomingEvents(now time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE is_active = 1 AND event_date >= ?`,
		now.UTC().Format(time.RFC3339)).Scan(&n)
	return n, err
}

// CategoryCounts returns the number of active events per category, by name.
func (s *Store) CategoryCounts() ([]CategoryCount, error) {
	rows, err := s.db.Query(`SELECT category, COUNT(*) FROM events WHERE is_active = 1 GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// Categories returns the distinct categories of active events, by name.
func (s *Store) Categories() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT category FROM events WHERE is_active = 1 ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func (s *Store) queryEvents(query string, args ...any) ([]Event, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (Event, error) {
	var e Event
	var eventDate, createdAt string
	var active int
	if err := sc.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Location,
		&eventDate, &createdAt, &active, &e.Priority, &e.ViewCount); err != nil {
		return Event{}, err
	}
	var err error
	if e.EventDate, err = time.Parse(time.RFC3339, eventDate); err != nil {
		return Event{}, fmt.Errorf("parsing event_date for event %d: %w", e.ID, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Event{}, fmt.Errorf("parsing created_at for event %d: %w", e.ID, err)
	}
	e.Active = active == 1
	return e, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
