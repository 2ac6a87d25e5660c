// Package api sets up the HTTP routes and middleware for allocheck's REST API.
package api

import (
	"net/http"

	"github.com/Manjussha/allocheck/internal/api/handlers"
	"github.com/Manjussha/allocheck/internal/auth"
	"github.com/Manjussha/allocheck/internal/config"
	"github.com/Manjussha/allocheck/internal/db"
	"github.com/Manjussha/allocheck/internal/history"
	"github.com/Manjussha/allocheck/internal/limiter"
	"github.com/Manjussha/allocheck/internal/webhook"
	"github.com/Manjussha/allocheck/internal/ws"
)

// Deps holds all dependencies injected into the API handlers.
type Deps struct {
	DB        *db.DB
	Config    *config.Config
	Estimator handlers.Evaluator
	History   *history.Store
	Hub       *ws.Hub
	Webhook   *webhook.Dispatcher
	Limiter   *limiter.Limiter
	Admin     *auth.Admin
}

// SetupRoutes registers all HTTP routes on the given ServeMux.
// Uses Go 1.22 method+pattern routing syntax.
func SetupRoutes(mux *http.ServeMux, deps *Deps) {
	var counter handlers.ClientCounter
	if deps.Hub != nil {
		counter = deps.Hub
	}
	h := handlers.New(deps.DB, deps.Config, deps.Estimator, deps.History, counter, deps.Webhook)

	limited := func(next http.HandlerFunc) http.Handler {
		if deps.Limiter == nil {
			return next
		}
		return deps.Limiter.Middleware(next)
	}

	// ── Public routes ────────────────────────────────────────────────────────
	mux.Handle("POST /api/v1/check", limited(h.Check))
	mux.Handle("GET /api/v1/check/{address}", limited(h.GetCheck))
	mux.HandleFunc("GET /api/v1/status", h.Status)

	if deps.Hub != nil {
		mux.HandleFunc("GET /ws", deps.Hub.ServeWS)
	}

	// ── Admin routes ─────────────────────────────────────────────────────────
	// Without admin credentials the admin surface is not mounted at all.
	if deps.Admin == nil {
		return
	}
	requireAdmin := func(next http.HandlerFunc) http.Handler {
		return deps.Admin.RequireAdmin(next)
	}

	// History
	mux.Handle("GET /api/v1/history", requireAdmin(h.ListHistory))
	mux.Handle("GET /api/v1/stats", requireAdmin(h.GetStats))

	// Webhooks
	mux.Handle("GET /api/v1/webhooks", requireAdmin(h.ListWebhooks))
	mux.Handle("POST /api/v1/webhooks", requireAdmin(h.CreateWebhook))
	mux.Handle("DELETE /api/v1/webhooks/{id}", requireAdmin(h.DeleteWebhook))
	mux.Handle("POST /api/v1/webhooks/{id}/test", requireAdmin(h.TestWebhook))

	// Settings
	mux.Handle("GET /api/v1/settings", requireAdmin(h.ListSettings))
	mux.Handle("PUT /api/v1/settings/{key}", requireAdmin(h.UpdateSetting))
}
