package audit

import (
	"net/http"
	"strconv"

	"campuspass/internal/api"
)

type Handlers struct {
	Logs *Repository
}

// List handles GET /v1/logs?limit= (staff only): the most recent system
// log entries for the reports console.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.Logs.ListRecent(r.Context(), limit)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"items": entries})
}
