package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Manjussha/allocheck/internal/history"
)

// ListHistory handles GET /api/v1/history.
// Query params: address, tier, limit, page.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := history.Filter{Address: q.Get("address"), Limit: 100, Page: 1}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			f.Limit = n
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Page = n
		}
	}
	if v := q.Get("tier"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 5 {
			fail(w, http.StatusBadRequest, "tier must be 1-5")
			return
		}
		f.Tier = n
	}

	checks, total, err := h.history.List(r.Context(), f)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	okPaginated(w, checks, total, f.Page, f.Limit)
}

// GetStats handles GET /api/v1/stats.
// Query params: period=daily|weekly|monthly.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "daily"
	}

	now := time.Now()
	var since time.Time
	switch period {
	case "weekly":
		since = now.AddDate(0, 0, -7)
	case "monthly":
		since = now.AddDate(0, -1, 0)
	default:
		period = "daily"
		since = now.Add(-24 * time.Hour)
	}

	st, err := h.history.Stats(r.Context(), since)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	ok(w, map[string]interface{}{
		"period": period,
		"stats":  st,
	})
}
