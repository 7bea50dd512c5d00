package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/civic/internal/collections"
	"github.com/kalambet/civic/internal/events"
	"github.com/kalambet/civic/internal/reports"
	"github.com/kalambet/civic/internal/storage"
)

type handlers struct {
	events  *events.Service
	reports *reports.Service
	store   StatusStore
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		httpError(w, http.StatusServiceUnavailable, "api_error", "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.JobCounts()
	if err != nil {
		serviceError(w, err)
		return
	}
	stats, err := h.events.Statistics()
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"stats": statsMap(stats),
	})
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	all, err := h.events.All()
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": nonNil(all.ToSlice())})
}

func (h *handlers) upcomingEvents(w http.ResponseWriter, r *http.Request) {
	upcoming, err := h.events.Upcoming()
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": nonNil(upcoming.ToSlice())})
}

func (h *handlers) getEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	e, err := h.events.Get(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	if err := h.events.RecordView(id); err != nil {
		slog.Warn("queueing view failed", "event_id", id, "error", err)
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handlers) searchEvents(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := events.Query{
		Term:     params.Get("q"),
		Category: params.Get("category"),
		Sort:     params.Get("sort"),
	}
	var err error
	if q.From, err = parseDate(params.Get("from")); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid from: %v", err)
		return
	}
	if q.To, err = parseDate(params.Get("to")); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid to: %v", err)
		return
	}

	res, err := h.events.Search(r.Context(), IdentityFrom(r.Context()), q)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.events.Recommend(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": nonNil(recs)})
}

func (h *handlers) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.events.Categories()
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": nonNil(cats.ToSlice())})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.events.Statistics()
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsMap(stats))
}

type searchRequest struct {
	Term     string `json:"q"`
	Category string `json:"category"`
}

func (h *handlers) recordSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Term = strings.TrimSpace(req.Term)
	req.Category = strings.TrimSpace(req.Category)
	if req.Term == "" && req.Category == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "q or category is required")
		return
	}
	if err := h.events.RecordSearch(IdentityFrom(r.Context()), req.Term, req.Category); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *handlers) createEvent(w http.ResponseWriter, r *http.Request) {
	var e storage.Event
	if !decodeBody(w, r, &e) {
		return
	}
	created, err := h.events.Create(e)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	var e storage.Event
	if !decodeBody(w, r, &e) {
		return
	}
	e.ID = id
	if err := h.events.Update(e); err != nil {
		serviceError(w, err)
		return
	}
	updated, err := h.events.Get(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	if err := h.events.Delete(id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return pathID(w, r, "event")
}

// pathID parses the {id} URL parameter, writing 400 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request, kind string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid %s id %q", kind, chi.URLParam(r, "id"))
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON: %v", err)
		return false
	}
	return true
}

// parseDate accepts RFC 3339 timestamps and plain dates. Empty input is the
// zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want RFC 3339 or YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func statsMap(d *collections.Dictionary[string, int]) map[string]int {
	out := make(map[string]int, d.Len())
	for e := range d.Entries().All() {
		out[e.Key] = e.Value
	}
	return out
}
