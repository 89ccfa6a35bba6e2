package router

import (
	"net/http"
	"strconv"
	"strings"

	"TabQueryAPI/internal/config"
)

// corsPolicy is CORS_ALLOW_ORIGIN parsed once at startup.
type corsPolicy struct {
	any         bool
	origins     map[string]struct{}
	credentials bool
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins:     map[string]struct{}{},
		credentials: cfg.AllowCredentials,
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	for _, o := range strings.Split(cfg.AllowOrigin, ",") {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	if len(p.origins) == 0 {
		p.any = true
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// origin and whether the answer depends on it. Browsers reject "*" with
// credentials, so the origin is echoed instead.
func (p *corsPolicy) allowOrigin(origin string) (string, bool) {
	if p.any {
		if p.credentials && origin != "" {
			return origin, true
		}
		return "*", false
	}
	if _, ok := p.origins[origin]; ok {
		return origin, true
	}
	return "", true
}

// wrap adds the CORS headers and answers preflight requests itself.
func (p *corsPolicy) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		value, vary := p.allowOrigin(r.Header.Get("Origin"))
		if value != "" {
			h.Set("Access-Control-Allow-Origin", value)
		}
		if vary {
			h.Add("Vary", "Origin")
		}
		if p.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Expose-Headers", requestIDHeader)

		if r.Method != http.MethodOptions {
			next(w, r)
			return
		}
		// preflight
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		if p.maxAge != "" {
			h.Set("Access-Control-Max-Age", p.maxAge)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
