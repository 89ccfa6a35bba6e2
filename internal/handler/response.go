package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"TabQueryAPI/internal/filter"
	"TabQueryAPI/internal/logger"
	"TabQueryAPI/internal/model"
	"TabQueryAPI/internal/querystring"
	"TabQueryAPI/internal/resolver"
)

var errNoDatabase = resolver.ErrNoDatabase

func statusFor(err error) int {
	switch {
	case errors.Is(err, errModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, errNoDatabase):
		return http.StatusServiceUnavailable
	case filter.IsInputError(err),
		errors.Is(err, querystring.ErrInvalidQuery),
		errors.Is(err, errBadBody),
		errors.Is(err, model.ErrUnsupportedQuery):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError logs err and answers {"error": msg}.
func writeError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	status := statusFor(err)
	fields := map[string]any{
		"endpoint":   endpoint,
		"model":      r.PathValue("model"),
		"status":     status,
		"error":      err.Error(),
		"request_id": RequestID(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request_failed", fields)
	} else {
		logger.Warn("request_rejected", fields)
	}
	writeJSON(w, r, endpoint, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, endpoint string, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write_response_failed", map[string]any{
			"endpoint":   endpoint,
			"error":      err.Error(),
			"request_id": RequestID(r.Context()),
		})
	}
}
