// Package handlers provides HTTP handler implementations for the allocheck REST API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Manjussha/allocheck/internal/config"
	"github.com/Manjussha/allocheck/internal/db"
	"github.com/Manjussha/allocheck/internal/estimator"
	"github.com/Manjussha/allocheck/internal/history"
	"github.com/Manjussha/allocheck/internal/webhook"
)

// Evaluator runs a check.
type Evaluator interface {
	Evaluate(ctx context.Context, address string) (*estimator.Estimate, error)
}

// ClientCounter reports live WebSocket viewers.
type ClientCounter interface {
	ClientCount() int
}

// Handler holds all shared dependencies for API handler methods.
type Handler struct {
	db        *db.DB
	config    *config.Config
	estimator Evaluator
	history   *history.Store
	hub       ClientCounter
	webhook   *webhook.Dispatcher
	started   time.Time
}

// New creates a Handler with all dependencies.
func New(
	database *db.DB,
	cfg *config.Config,
	est Evaluator,
	hist *history.Store,
	hub ClientCounter,
	wh *webhook.Dispatcher,
) *Handler {
	return &Handler{
		db:        database,
		config:    cfg,
		estimator: est,
		history:   hist,
		hub:       hub,
		webhook:   wh,
		started:   time.Now(),
	}
}

// ── Response helpers ──────────────────────────────────────────────────────────

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type paginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    pageMeta    `json:"meta"`
}

type pageMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func ok(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response{Success: true, Data: data})
}

func okPaginated(w http.ResponseWriter, data interface{}, total, page, limit int) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(paginatedResponse{
		Success: true,
		Data:    data,
		Meta:    pageMeta{Total: total, Page: page, Limit: limit},
	})
}

func fail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response{Success: false, Error: msg})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request, name string) string {
	return r.PathValue(name)
}
