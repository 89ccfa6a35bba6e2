package handler

import (
	"net/http"

	"TabQueryAPI/internal/db"
	"TabQueryAPI/internal/logger"
)

// CountHandler обрабатывает запросы на подсчет количества записей.
// Учитывается только where; пагинация и курсор игнорируются.
// Возвращает JSON с полем count.
func CountHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "count"
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

	query, err := m.BuildCountQuery(opts)
	if err != nil {
		writeError(w, r, endpoint, err)
		return
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		writeError(w, r, endpoint, err)
		return
	}
	logger.Debug("sql", map[string]any{
		"endpoint":   endpoint,
		"sql":        sqlStr,
		"args":       args,
		"request_id": RequestID(r.Context()),
	})

	if db.Pool == nil {
		writeError(w, r, endpoint, errNoDatabase)
		return
	}
	// QueryRow: нужен только один результат
	var count int64
	if err := db.Pool.QueryRow(r.Context(), sqlStr, args...).Scan(&count); err != nil {
		writeError(w, r, endpoint, err)
		return
	}

	writeJSON(w, r, endpoint, http.StatusOK, map[string]int64{"count": count})
}
