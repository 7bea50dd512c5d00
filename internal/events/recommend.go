package events

import (
	"context"
	"fmt"
	"time"

	"github.com/kalambet/civic/internal/collections"
	"github.com/kalambet/civic/internal/metrics"
	"github.com/kalambet/civic/internal/ranking"
	"github.com/kalambet/civic/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Recommendation is an upcoming event with the score it was ranked by.
type Recommendation struct {
	Event storage.Event `json:"event"`
	Score int           `json:"score"`
}

// Recommend ranks upcoming events against the identity's recent searches
// and returns the best TopN. An identity without history still gets the
// upcoming events ranked by priority and popularity.
func (s *Service) Recommend(ctx context.Context, id storage.Identity) ([]Recommendation, error) {
	var (
		history  []storage.SearchRecord
		upcoming *collections.Sequence[storage.Event]
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		history, err = s.store.RecentSearches(id, s.opts.HistoryLimit)
		if err != nil {
			return fmt.Errorf("loading search history: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		upcoming, err = s.Upcoming()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start := time.Now()
	ranked := ranking.Rank(s.ranker, toRankable(upcoming.ToSlice()), toInteractions(history), s.opts.TopN)
	metrics.RecordRanking(identityKind(id), time.Since(start))

	out := make([]Recommendation, len(ranked))
	for i, r := range ranked {
		out[i] = Recommendation{Event: r.Candidate.Event, Score: r.Score}
	}
	return out, nil
}

// Statistics returns event counts keyed "Total", "Upcoming", "Past" and
// "Category_<name>" per active category.
func (s *Service) Statistics() (*collections.Dictionary[string, int], error) {
	total, err := s.store.CountActiveEvents()
	if err != nil {
		return nil, fmt.Errorf("counting events: %w", err)
	}
	upcoming, err := s.store.CountUpcomingEvents(s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("counting upcoming events: %w", err)
	}
	perCategory, err := s.store.CategoryCounts()
	if err != nil {
		return nil, fmt.Errorf("counting categories: %w", err)
	}

	stats := collections.NewDictionary[string, int]()
	stats.Set("Total", total)
	stats.Set("Upcoming", upcoming)
	stats.Set("Past", total-upcoming)
	for _, c := range perCategory {
		stats.Set("Category_"+c.Category, c.Count)
	}
	return stats, nil
}
