package handler

import (
	"net/http"

	"TabQueryAPI/internal/logger"
)

// OptionsHandler returns the find options generated for the request.
func OptionsHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "options"
	m, req, err := prepare(w, r)
	if err != nil {
		writeError(w, r, endpoint, err)
		return
	}

	payload, err := m.GetOptionsFromRedisOrBuild(r.Context(), req)
	if err != nil {
		writeError(w, r, endpoint, err)
		return
	}
	logger.Debug("options_generated", map[string]any{
		"model":      m.Name,
		"bytes":      len(payload),
		"request_id": RequestID(r.Context()),
	})

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		logger.Error("write_response_failed", map[string]any{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
	}
}
