package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig lists what cross-origin callers of the REST API may do.
// X-Request-Id is always exposed so browsers can read the id RequestContext
// assigns.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers" mapstructure:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
	// MaxAge is how long, in seconds, a preflight answer may be cached.
	MaxAge int `yaml:"max_age" mapstructure:"max_age"`
}

// CORS answers OPTIONS preflights with 204 and decorates other responses
// for allowed origins. The origin is echoed back, never "*".
func CORS(cfg CORSConfig) Middleware {
	exposed := strings.Join(exposedHeaders(cfg.ExposedHeaders), ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Expose-Headers", exposed)
				setList(h, "Access-Control-Allow-Methods", cfg.AllowedMethods)
				setList(h, "Access-Control-Allow-Headers", cfg.AllowedHeaders)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if cfg.MaxAge > 0 && r.Method == http.MethodOptions {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func exposedHeaders(configured []string) []string {
	for _, name := range configured {
		if strings.EqualFold(name, HeaderRequestID) {
			return configured
		}
	}
	return append(slices.Clone(configured), HeaderRequestID)
}

func setList(h http.Header, key string, values []string) {
	if len(values) > 0 {
		h.Set(key, strings.Join(values, ", "))
	}
}

func originAllowed(origin string, allowed []string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
