// Package events serves municipal events: cached listings, search with
// recorded history, and ranked recommendations.
package events

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/civic/internal/collections"
	"github.com/kalambet/civic/internal/metrics"
	"github.com/kalambet/civic/internal/ranking"
	"github.com/kalambet/civic/internal/storage"
	"github.com/kalambet/civic/internal/tracking"
	"github.com/kalambet/civic/internal/validation"
)

// Store defines the storage operations the Service needs.
// Implemented by storage.Store.
type Store interface {
	CreateEvent(e storage.Event) (int64, error)
	GetEvent(id int64) (storage.Event, error)
	UpdateEvent(e storage.Event) error
	DeactivateEvent(id int64) error
	ListActiveEvents() ([]storage.Event, error)
	ListUpcomingEvents(now time.Time) ([]storage.Event, error)
	SearchEvents(f storage.EventFilter) ([]storage.Event, error)
	CountActiveEvents() (int, error)
	CountUpcomingEvents(now time.Time) (int, error)
	CategoryCounts() ([]storage.CategoryCount, error)
	Categories() ([]string, error)
	SaveSearch(r storage.SearchRecord) error
	RecentSearches(id storage.Identity, limit int) ([]storage.SearchRecord, error)
	RecentSearchTerms(id storage.Identity, limit int) ([]string, error)
	EnqueueJob(job storage.Job) (string, error)
}

// Options tune a Service. Zero fields take the defaults.
type Options struct {
	TopN         int           // recommendations returned, default 5
	HistoryLimit int           // searches considered per identity, default 20
	CacheTTL     time.Duration // lifetime of cached listings, default 60s
}

const (
	defaultHistoryLimit = 20
	defaultCacheTTL     = 60 * time.Second
	recentSearchLimit   = 5
)

const (
	keyAllEvents      = "all_events"
	keyUpcomingEvents = "upcoming_events"
)

type cachedList struct {
	events   *collections.Sequence[storage.Event]
	loadedAt time.Time
}

// Service is safe for concurrent use. Cached listings are shared between
// callers and must not be modified.
type Service struct {
	store  Store
	ranker *ranking.Ranker
	clock  ranking.Clock
	opts   Options
	logger *slog.Logger

	mu         sync.Mutex
	generation uint64
	cache      *collections.Dictionary[string, cachedList]
	byID       *collections.HashTable[int64, storage.Event]
	categories *collections.Set[string]
}

// NewService creates a Service reading the wall clock.
func NewService(store Store, opts Options) *Service {
	return NewServiceWithClock(store, opts, ranking.SystemClock{})
}

// NewServiceWithClock creates a Service with a custom clock (for testing).
func NewServiceWithClock(store Store, opts Options, clock ranking.Clock) *Service {
	if opts.TopN <= 0 {
		opts.TopN = ranking.DefaultTopN
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return &Service{
		store:      store,
		ranker:     ranking.NewRankerWithClock(ranking.DefaultWeights(), clock),
		clock:      clock,
		opts:       opts,
		logger:     slog.Default(),
		cache:      collections.NewDictionary[string, cachedList](),
		byID:       collections.NewHashTable[int64, storage.Event](),
		categories: collections.NewSet[string](),
	}
}

// Invalidate drops every cached listing.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cache.Clear()
}

// OnTrackingJob is the tracking worker callback. View counts feed the
// cached listings, so a processed view invalidates them.
func (s *Service) OnTrackingJob(jobType string) {
	if jobType == tracking.JobEventView {
		s.Invalidate()
	}
}

// list returns the cached listing for key, reloading it when absent or
// older than the cache TTL. A load that races with Invalidate is returned
// but not cached.
func (s *Service) list(key string, load func() ([]storage.Event, error)) (*collections.Sequence[storage.Event], error) {
	seq, _, err := s.load(key, load)
	return seq, err
}

// load is list plus, for the all_events key, the id index matching the
// returned listing. The index comes from the same load even when that load
// was not cached.
func (s *Service) load(key string, load func() ([]storage.Event, error)) (*collections.Sequence[storage.Event], *collections.HashTable[int64, storage.Event], error) {
	now := s.clock.Now()

	s.mu.Lock()
	if c, ok := s.cache.TryGet(key); ok && now.Before(c.loadedAt.Add(s.opts.CacheTTL)) {
		index := s.byID
		s.mu.Unlock()
		metrics.RecordCacheHit(key)
		return c.events, index, nil
	}
	gen := s.generation
	s.mu.Unlock()
	metrics.RecordCacheMiss(key)

	rows, err := load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", key, err)
	}
	seq := collections.NewSequence(rows...)

	var index *collections.HashTable[int64, storage.Event]
	if key == keyAllEvents {
		index = collections.NewHashTable[int64, storage.Event]()
		for _, e := range rows {
			if err := index.Add(e.ID, e); err != nil {
				return nil, nil, fmt.Errorf("indexing events: %w", err)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return seq, index, nil
	}
	s.cache.Set(key, cachedList{events: seq, loadedAt: now})
	if index != nil {
		s.byID = index
		for _, e := range rows {
			s.categories.Add(e.Category)
		}
	}
	return seq, index, nil
}

// All returns every active event ordered by event date.
func (s *Service) All() (*collections.Sequence[storage.Event], error) {
	return s.list(keyAllEvents, s.store.ListActiveEvents)
}

// Upcoming returns active events dated now or later, soonest first.
func (s *Service) Upcoming() (*collections.Sequence[storage.Event], error) {
	return s.list(keyUpcomingEvents, func() ([]storage.Event, error) {
		return s.store.ListUpcomingEvents(s.clock.Now())
	})
}

// Get returns the active event with id or storage.ErrNotFound.
func (s *Service) Get(id int64) (storage.Event, error) {
	_, index, err := s.load(keyAllEvents, s.store.ListActiveEvents)
	if err != nil {
		return storage.Event{}, err
	}

	e, ok := index.Get(id)
	if !ok {
		return storage.Event{}, fmt.Errorf("event %d: %w", id, storage.ErrNotFound)
	}
	return e, nil
}

// Create validates and stores a new active event and returns it with its id.
func (s *Service) Create(e storage.Event) (storage.Event, error) {
	if e.Priority == 0 {
		e.Priority = 1
	}
	if err := validation.Struct(&e); err != nil {
		return storage.Event{}, err
	}
	e.CreatedAt = s.clock.Now().UTC()
	e.Active = true
	e.ViewCount = 0

	id, err := s.store.CreateEvent(e)
	if err != nil {
		return storage.Event{}, fmt.Errorf("creating event: %w", err)
	}
	e.ID = id

	s.mu.Lock()
	s.categories.Add(e.Category)
	s.mu.Unlock()
	s.Invalidate()

	s.logger.Info("event created", "id", id, "category", e.Category)
	return e, nil
}

// Update overwrites the editable fields of an active event. A deleted event
// reports storage.ErrNotFound and is left unchanged.
func (s *Service) Update(e storage.Event) error {
	if e.Priority == 0 {
		e.Priority = 1
	}
	if err := validation.Struct(&e); err != nil {
		return err
	}
	if err := s.store.UpdateEvent(e); err != nil {
		return fmt.Errorf("updating event %d: %w", e.ID, err)
	}

	s.mu.Lock()
	s.categories.Add(e.Category)
	s.mu.Unlock()
	s.Invalidate()
	return nil
}

// Delete deactivates an event. It stays in storage but leaves every listing.
func (s *Service) Delete(id int64) error {
	if err := s.store.DeactivateEvent(id); err != nil {
		return fmt.Errorf("deleting event %d: %w", id, err)
	}
	s.Invalidate()
	s.logger.Info("event deleted", "id", id)
	return nil
}

// Categories returns the distinct categories of active events.
func (s *Service) Categories() (*collections.Sequence[string], error) {
	rows, err := s.store.Categories()
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	set := collections.NewSet(rows...)

	s.mu.Lock()
	s.categories = set
	s.mu.Unlock()
	return set.ToSequence(), nil
}

// KnownCategory reports whether name was seen on an event since the last
// category refresh.
func (s *Service) KnownCategory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories.Contains(name)
}

// RecordView queues a view-count increment for the event.
func (s *Service) RecordView(id int64) error {
	if _, err := tracking.EnqueueView(s.store, id); err != nil {
		return err
	}
	return nil
}

// RecordSearch queues a search for the identity's history without running it.
func (s *Service) RecordSearch(id storage.Identity, term, category string) error {
	if id.IsZero() {
		return nil
	}
	_, err := tracking.EnqueueSearch(s.store, storage.SearchRecord{
		UserID:     id.UserID,
		SessionID:  id.SessionID,
		SearchTerm: term,
		Category:   category,
		SearchedAt: s.clock.Now(),
	})
	return err
}
