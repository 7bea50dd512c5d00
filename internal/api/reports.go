package api

import (
	"net/http"
	"strconv"

	"github.com/kalambet/civic/internal/reports"
	"github.com/kalambet/civic/internal/storage"
)

type reportRequest struct {
	Location    string   `json:"location"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Attachments []string `json:"attachments"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type categoryPriority struct {
	Category string `json:"category"`
	Priority int    `json:"priority"`
}

// signedInUser returns the caller's user id, or writes 401 when the request
// carries none.
func signedInUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id := IdentityFrom(r.Context())
	if id.UserID == nil {
		httpError(w, http.StatusUnauthorized, "authentication_error", "%s header required", UserIDHeader)
		return 0, false
	}
	return *id.UserID, true
}

func (h *handlers) submitReport(w http.ResponseWriter, r *http.Request) {
	uid, ok := signedInUser(w, r)
	if !ok {
		return
	}
	var req reportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := h.reports.Submit(uid, storage.Report{
		Location:    req.Location,
		Category:    req.Category,
		Description: req.Description,
		Attachments: req.Attachments,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) getReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "report")
	if !ok {
		return
	}
	rep, err := h.reports.Get(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handlers) myReports(w http.ResponseWriter, r *http.Request) {
	uid, ok := signedInUser(w, r)
	if !ok {
		return
	}
	mine, err := h.reports.ForUser(uid)
	if err != nil {
		serviceError(w, err)
		return
	}
	count, err := h.reports.UserReportCount(uid)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": nonNil(mine), "count": count})
}

func (h *handlers) recentReports(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "count must be between 1 and 100")
			return
		}
		n = v
	}
	recent, err := h.reports.Recent(n)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": nonNil(recent.ToSlice())})
}

func (h *handlers) reportCategories(w http.ResponseWriter, r *http.Request) {
	cats := reports.Categories()
	out := make([]categoryPriority, len(cats))
	for i, c := range cats {
		out[i] = categoryPriority{Category: c, Priority: reports.PriorityFor(c)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (h *handlers) reportDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Dashboard()
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardJSON(d))
}

func (h *handlers) setReportStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "report")
	if !ok {
		return
	}
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := h.reports.SetStatus(id, req.Status)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func dashboardJSON(d reports.Dashboard) map[string]any {
	return map[string]any{
		"total":         d.Total,
		"pending":       d.Pending,
		"resolved":      d.Resolved,
		"high_priority": d.HighPriority,
		"by_category":   statsMap(d.ByCategory),
	}
}
