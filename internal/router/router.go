package router

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"TabQueryAPI/internal/config"
	"TabQueryAPI/internal/handler"
	"TabQueryAPI/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// InitRoutes инициализирует маршруты для API
func InitRoutes(cfg *config.Config) http.Handler {
	mux := http.NewServeMux()
	cors := newCORSPolicy(cfg.CORS)
	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		return withRequestID(cors.wrap(withLogging(h)))
	}
	mux.HandleFunc("/api/{model}/options", wrap(handler.OptionsHandler))
	mux.HandleFunc("/api/{model}/index", wrap(handler.IndexHandler))
	mux.HandleFunc("/api/{model}/count", wrap(handler.CountHandler))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withRequestID reuses a sane incoming X-Request-ID or issues a new one.
func withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next(w, r.WithContext(handler.WithRequestID(r.Context(), id)))
	}
}

func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		fields := map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
			"request_id": handler.RequestID(r.Context()),
		}
		switch {
		case sw.status >= 500:
			logger.Error("response", fields)
		case sw.status >= 400:
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	}
}
