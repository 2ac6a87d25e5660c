package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/Manjussha/allocheck/internal/estimator"
	"github.com/Manjussha/allocheck/internal/telemetry"
)

// Check handles POST /api/v1/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	h.evaluate(w, r, req.Address)
}

// GetCheck handles GET /api/v1/check/{address}.
func (h *Handler) GetCheck(w http.ResponseWriter, r *http.Request) {
	h.evaluate(w, r, pathID(r, "address"))
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request, address string) {
	ctx := estimator.WithSource(r.Context(), estimator.SourceAPI)
	est, err := h.estimator.Evaluate(ctx, address)
	switch {
	case errors.Is(err, telemetry.ErrInvalidAddress):
		fail(w, http.StatusBadRequest, telemetry.UserMessage(err))
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(w, http.StatusServiceUnavailable, "request cancelled")
		return
	case err != nil:
		log.Printf("handlers.evaluate: %v", err)
		fail(w, http.StatusInternalServerError, "failed to fetch data, please check the address and try again")
		return
	}
	ok(w, est)
}
