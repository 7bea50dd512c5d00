package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/civic/internal/metrics"
	"github.com/kalambet/civic/internal/ranking"
	"github.com/kalambet/civic/internal/storage"
	"github.com/kalambet/civic/internal/validation"
	"golang.org/x/sync/errgroup"
)

// Query is an event search. Zero fields do not filter.
type Query struct {
	Term     string    `json:"q" validate:"max=200"`
	Category string    `json:"category" validate:"max=100"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Sort     string    `json:"sort" validate:"omitempty,oneof=date priority popularity"`
}

// SearchResult is everything a search page shows.
type SearchResult struct {
	Query           Query            `json:"query"`
	Events          []storage.Event  `json:"events"`
	TotalEvents     int              `json:"total_events"`
	FilteredEvents  int              `json:"filtered_events"`
	Categories      []string         `json:"categories"`
	Recommendations []Recommendation `json:"recommendations"`
	RecentSearches  []string         `json:"recent_searches"`
}

func (q *Query) normalize() error {
	q.Term = strings.TrimSpace(q.Term)
	q.Category = strings.TrimSpace(q.Category)
	q.Sort = strings.ToLower(strings.TrimSpace(q.Sort))
	if err := validation.Struct(q); err != nil {
		return err
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return &validation.Error{Fields: []validation.FieldError{{
			Field: "to", Tag: "gtefield", Param: "from", Message: "to must not be before from",
		}}}
	}
	return nil
}

// Search records the query in the identity's history when it has a term or
// category, then returns the matching active events in the requested order
// together with recommendations and the identity's recent search terms.
func (s *Service) Search(ctx context.Context, id storage.Identity, q Query) (SearchResult, error) {
	if err := q.normalize(); err != nil {
		return SearchResult{}, err
	}
	metrics.RecordSearch()

	if (q.Term != "" || q.Category != "") && !id.IsZero() {
		err := s.store.SaveSearch(storage.SearchRecord{
			UserID:     id.UserID,
			SessionID:  id.SessionID,
			SearchTerm: q.Term,
			Category:   q.Category,
			SearchedAt: s.clock.Now(),
		})
		if err != nil {
			s.logger.Warn("recording search failed", "error", err)
		}
	}

	matches, err := s.store.SearchEvents(storage.EventFilter{
		Term:     q.Term,
		Category: q.Category,
		From:     q.From,
		To:       q.To,
	})
	if err != nil {
		return SearchResult{}, fmt.Errorf("searching events: %w", err)
	}

	res := SearchResult{Query: q, FilteredEvents: len(matches)}
	sorted := ranking.SortBy(toRankable(matches), q.Sort)
	res.Events = make([]storage.Event, 0, sorted.Len())
	for r := range sorted.All() {
		res.Events = append(res.Events, r.Event)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountActiveEvents()
		if err != nil {
			return fmt.Errorf("counting events: %w", err)
		}
		res.TotalEvents = n
		return nil
	})
	g.Go(func() error {
		cats, err := s.Categories()
		if err != nil {
			return err
		}
		res.Categories = cats.ToSlice()
		return nil
	})
	g.Go(func() error {
		recs, err := s.Recommend(gCtx, id)
		if err != nil {
			return err
		}
		res.Recommendations = recs
		return nil
	})
	g.Go(func() error {
		terms, err := s.store.RecentSearchTerms(id, recentSearchLimit)
		if err != nil {
			return fmt.Errorf("loading recent searches: %w", err)
		}
		res.RecentSearches = terms
		return nil
	})
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}
	return res, nil
}
