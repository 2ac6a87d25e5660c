package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/Manjussha/allocheck/internal/auth"
)

// ListSettings handles GET /api/v1/settings.
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `SELECT key, value FROM settings WHERE key != 'schema_version' ORDER BY key`)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			continue
		}
		settings[k] = v
	}
	ok(w, settings)
}

// UpdateSetting handles PUT /api/v1/settings/{key}.
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := pathID(r, "key")
	if key == "" || key == "schema_version" {
		fail(w, http.StatusBadRequest, "invalid key")
		return
	}
	var req struct {
		Value string `json:"value"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !settingKeys[key] {
		fail(w, http.StatusBadRequest, "unknown setting: "+key)
		return
	}
	if err := validateSetting(key, req.Value); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.db.SetSetting(key, req.Value); err != nil {
		fail(w, http.StatusInternalServerError, "set: "+err.Error())
		return
	}
	user := auth.UserFromContext(r.Context())
	log.Printf("handlers.UpdateSetting: %s set %s=%q", user, key, req.Value)
	ok(w, map[string]string{"key": key, "value": req.Value, "updated_by": user})
}

var settingKeys = map[string]bool{
	"digest_enabled":         true,
	"elite_alerts":           true,
	"history_retention_days": true,
}

func validateSetting(key, value string) error {
	switch key {
	case "digest_enabled", "elite_alerts":
		if value != "0" && value != "1" {
			return fmt.Errorf("%s must be 0 or 1", key)
		}
	case "history_retention_days":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
	}
	return nil
}
