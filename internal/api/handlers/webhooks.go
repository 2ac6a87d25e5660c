package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Manjussha/allocheck/internal/db"
	"github.com/Manjussha/allocheck/internal/webhook"
)

var knownEvents = map[string]bool{
	webhook.EventCheckCompleted: true,
	webhook.EventCheckElite:     true,
	webhook.EventDigest:         true,
}

// ListWebhooks handles GET /api/v1/webhooks.
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, name, url, events, enabled, last_status, last_fired, created_at
		FROM webhooks ORDER BY id`)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	defer rows.Close()

	hooks := []db.Webhook{}
	for rows.Next() {
		var wh db.Webhook
		if err := rows.Scan(&wh.ID, &wh.Name, &wh.URL, &wh.Events,
			&wh.Enabled, &wh.LastStatus, &wh.LastFired, &wh.CreatedAt); err != nil {
			continue
		}
		hooks = append(hooks, wh)
	}
	ok(w, hooks)
}

// CreateWebhook handles POST /api/v1/webhooks.
func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		URL     string `json:"url"`
		Events  string `json:"events"`
		Enabled *bool  `json:"enabled"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.URL == "" {
		fail(w, http.StatusBadRequest, "name and url are required")
		return
	}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fail(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}
	events, err := normalizeEvents(req.Events)
	if err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	enabled := 1
	if req.Enabled != nil && !*req.Enabled {
		enabled = 0
	}
	res, err := h.db.ExecContext(r.Context(), `
		INSERT INTO webhooks (name, url, events, enabled) VALUES (?,?,?,?)`,
		req.Name, req.URL, events, enabled,
	)
	if err != nil {
		fail(w, http.StatusInternalServerError, "insert: "+err.Error())
		return
	}
	id, _ := res.LastInsertId()
	ok(w, map[string]interface{}{"id": id, "events": events})
}

// DeleteWebhook handles DELETE /api/v1/webhooks/{id}.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	res, err := h.db.ExecContext(r.Context(), `DELETE FROM webhooks WHERE id=?`, id)
	if err != nil {
		fail(w, http.StatusInternalServerError, "delete: "+err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		fail(w, http.StatusNotFound, "webhook not found")
		return
	}
	ok(w, map[string]string{"message": "deleted"})
}

// TestWebhook handles POST /api/v1/webhooks/{id}/test.
func (h *Handler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if h.webhook == nil {
		fail(w, http.StatusServiceUnavailable, "webhook dispatcher not initialized")
		return
	}
	if err := h.webhook.TestWebhook(r.Context(), id); err != nil {
		fail(w, http.StatusBadGateway, "test failed: "+err.Error())
		return
	}
	ok(w, map[string]string{"message": "test delivered"})
}

// normalizeEvents validates a comma-separated event list. Empty means all events.
func normalizeEvents(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return webhook.EventCheckCompleted + "," + webhook.EventCheckElite + "," + webhook.EventDigest, nil
	}
	var out []string
	for _, e := range strings.Split(raw, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !knownEvents[e] {
			return "", fmt.Errorf("unknown event: %s", e)
		}
		out = append(out, e)
	}
	return strings.Join(out, ","), nil
}
