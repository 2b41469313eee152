package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	// AllowedOrigins lists exact origins. An entry of "*" admits any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// MaxAge is how long, in seconds, a browser may reuse a preflight answer.
	MaxAge int
}

// DefaultCORSOptions admits every origin so browser-based API clients can
// reach the service.
func DefaultCORSOptions() CORSOptions {
	return CORSOptions{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}
}

type corsPolicy struct {
	any     bool
	origins map[string]bool
	methods string
	headers string
	maxAge  string
}

func newCORSPolicy(opts CORSOptions) corsPolicy {
	p := corsPolicy{
		origins: make(map[string]bool, len(opts.AllowedOrigins)),
		methods: strings.Join(opts.AllowedMethods, ", "),
		headers: strings.Join(opts.AllowedHeaders, ", "),
	}
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			p.any = true
			continue
		}
		p.origins[o] = true
	}
	if opts.MaxAge > 0 {
		p.maxAge = strconv.Itoa(opts.MaxAge)
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or "" when
// the origin is not admitted.
func (p corsPolicy) allow(origin string) string {
	switch {
	case origin == "":
		return ""
	case p.origins[origin]:
		return origin
	case p.any:
		return "*"
	}
	return ""
}

// CORS sets the access-control headers for admitted origins. A request is a
// preflight only when it is OPTIONS and names Access-Control-Request-Method;
// those are answered with 204 and never reach next.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	policy := newCORSPolicy(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			if allowed := policy.allow(r.Header.Get("Origin")); allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Methods", policy.methods)
				h.Set("Access-Control-Allow-Headers", policy.headers)
				if policy.maxAge != "" {
					h.Set("Access-Control-Max-Age", policy.maxAge)
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
