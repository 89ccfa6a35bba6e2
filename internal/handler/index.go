package handler

import (
	"net/http"

	"TabQueryAPI/internal/filter"
	"TabQueryAPI/internal/logger"
	"TabQueryAPI/internal/resolver"
)

// IndexResponse is the body of /index.
type IndexResponse struct {
	Items   []map[string]any    `json:"items"`
	Options *filter.FindOptions `json:"options"`
}

// IndexHandler returns the rows of the model matching the request, with
// the relations named by select or include attached.
func IndexHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "index"
	m, req, err := prepare(w, r)
	if err != nil {
		writeError(w, r, endpoint, err)
		return
	}

	opts, err := m.Generator().Generate(req)
	if err != nil {
		writeError(w, r, endpoint, err)
		return
	}

	// Вызываем Resolver
	items, err := resolver.Resolve(r.Context(), m, opts)
	if err != nil {
		writeError(w, r, endpoint, err)
		return
	}
	logger.Debug("index_resolved", map[string]any{
		"model":      m.Name,
		"items":      len(items),
		"request_id": RequestID(r.Context()),
	})

	writeJSON(w, r, endpoint, http.StatusOK, IndexResponse{Items: items, Options: opts})
}
