package handlers

import (
	"net/http"
	"time"

	"github.com/Manjussha/allocheck/internal/allocation"
	"github.com/Manjussha/allocheck/internal/estimator"
)

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var checksToday int
	if st, err := h.history.Stats(r.Context(), time.Now().Add(-24*time.Hour)); err == nil {
		checksToday = st.Total
	}

	wsClients := 0
	if h.hub != nil {
		wsClients = h.hub.ClientCount()
	}

	ok(w, map[string]interface{}{
		"checks_24h":             checksToday,
		"ws_clients":             wsClients,
		"jitter_mode":            h.config.JitterMode,
		"total_pool":             allocation.TotalPool,
		"estimated_participants": allocation.EstimatedParticipants,
		"min_allocation":         allocation.MinAllocation,
		"disclaimer":             estimator.Disclaimer,
		"started_at":             h.started.Format(time.RFC3339),
	})
}
