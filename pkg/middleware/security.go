package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/foorest/sleep/pkg/auth"
	"github.com/foorest/sleep/pkg/logger"
	"github.com/foorest/sleep/pkg/metrics"
	"github.com/foorest/sleep/pkg/response"
)

// SecurityOptions configures the security filter.
type SecurityOptions struct {
	Credentials *auth.Credentials
	Tokens      *auth.Tokens
	Realm       string
	// Permit lists exact paths served without credentials.
	Permit []string
}

type principalKey struct{}

// PrincipalFromCtx returns the authenticated user or token subject.
func PrincipalFromCtx(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(principalKey{}).(string)
	return p, ok
}

// Security requires HTTP Basic or Bearer credentials on every request whose
// path is not permitted. Missing credentials get a Basic challenge.
func Security(opts SecurityOptions) func(http.Handler) http.Handler {
	permit := make(map[string]bool, len(opts.Permit))
	for _, p := range opts.Permit {
		permit[p] = true
	}
	realm := opts.Realm
	if realm == "" {
		realm = "Realm"
	}
	challenge := `Basic realm="` + realm + `"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if permit[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				metrics.SecurityRejections.WithLabelValues("missing").Inc()
				w.Header().Set("WWW-Authenticate", challenge)
				response.Unauthorized(w)
				return
			}

			principal, ok := authenticate(opts, r, header)
			if !ok {
				metrics.SecurityRejections.WithLabelValues("invalid").Inc()
				logger.WithCtx(r.Context()).Debug("credentials rejected", "path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", challenge)
				response.Unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(opts SecurityOptions, r *http.Request, header string) (string, bool) {
	if raw, found := strings.CutPrefix(header, "Bearer "); found {
		if opts.Tokens == nil {
			return "", false
		}
		claims, err := opts.Tokens.Validate(strings.TrimSpace(raw))
		if err != nil {
			return "", false
		}
		return claims.Subject, true
	}

	user, pass, ok := r.BasicAuth()
	if !ok || opts.Credentials == nil || !opts.Credentials.Check(user, pass) {
		return "", false
	}
	return user, true
}
