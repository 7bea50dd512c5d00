package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SaveSearch records one search for later recommendation scoring.
func (s *Store) SaveSearch(r SearchRecord) error {
	searchedAt := r.SearchedAt
	if searchedAt.IsZero() {
		searchedAt = time.Now()
	}
	var userID sql.NullInt64
	if r.UserID != nil {
		userID = sql.NullInt64{Int64: *r.UserID, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO search_history (user_id, session_id, search_term, category, searched_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, r.SessionID, r.SearchTerm, r.Category, searchedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// identityClause selects history rows for id: by user when signed in, else
// by session. ok is false when id carries neither.
func identityClause(id Identity) (clause string, arg any, ok bool) {
	switch {
	case id.UserID != nil:
		return "user_id = ?", *id.UserID, true
	case id.SessionID != "":
		return "session_id = ?", id.SessionID, true
	default:
		return "", nil, false
	}
}

// RecentSearches returns up to limit searches for id, most recent first.
// An empty identity has no history.
func (s *Store) RecentSearches(id Identity, limit int) ([]SearchRecord, error) {
	clause, arg, ok := identityClause(id)
	if !ok {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT id, user_id, session_id, search_term, category, searched_at
		FROM search_history WHERE `+clause+`
		ORDER BY searched_at DESC, id DESC LIMIT ?`, arg, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchRecord
	for rows.Next() {
		var r SearchRecord
		var userID sql.NullInt64
		var searchedAt string
		if err := rows.Scan(&r.ID, &userID, &r.SessionID, &r.SearchTerm, &r.Category, &searchedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			uid := userID.Int64
			r.UserID = &uid
		}
		t, err := time.Parse(time.RFC3339, searchedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing searched_at: %w", err)
		}
		r.SearchedAt = t
		results = append(results, r)
	}
	return results, rows.Err()
}

// RecentSearchTerms returns up to limit distinct non-empty search terms for
// id, ordered by their latest use.
func (s *Store) RecentSearchTerms(id Identity, limit int) ([]string, error) {
	clause, arg, ok := identityClause(id)
	if !ok {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT search_term FROM search_history
		WHERE `+clause+` AND search_term != ''
		GROUP BY search_term
		ORDER BY MAX(searched_at) DESC, MAX(id) DESC LIMIT ?`, arg, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, err
		}
		results = append(results, term)
	}
	return results, rows.Err()
}
