package app

// kernel.go assembles the http.Handler: global middleware, the optional
// security filter, runtime endpoints and the application's routes.

import (
	"net/http"
	"time"

	"github.com/go-http-utils/etag"

	"github.com/foorest/sleep/config"
	"github.com/foorest/sleep/pkg/auth"
	"github.com/foorest/sleep/pkg/logger"
	"github.com/foorest/sleep/pkg/metrics"
	"github.com/foorest/sleep/pkg/middleware"
	"github.com/foorest/sleep/pkg/reqid"
	"github.com/foorest/sleep/pkg/response"
	"github.com/foorest/sleep/pkg/router"
)

const (
	healthPath   = "/health"
	metricsPath  = "/metrics"
	envPath      = "/runtime/env"
	apiDocsPath  = "/v3/api-docs"
	shutdownPath = "/shutdown"
)

type kernel struct {
	handler  http.Handler
	limiter  *middleware.RateLimiter
	security bool
}

// securityActive reports whether the security filter is installed. Code-level
// SecurityDisabled wins over configuration.
func (a *Application) securityActive(cfg *config.Config) bool {
	if a.opts.Security == SecurityDisabled {
		return false
	}
	return cfg.Bool(config.KeySecurityAutoconfig)
}

// buildKernel wires the handler. shutdown is invoked by the shutdown endpoint.
func (a *Application) buildKernel(cfg *config.Config, argv []string, shutdown func()) (*kernel, error) {
	k := &kernel{
		limiter:  middleware.NewRateLimiter(cfg.Int(config.KeyRateLimit), time.Minute),
		security: a.securityActive(cfg),
	}

	cors := middleware.DefaultCORSOptions()
	cors.AllowedOrigins = cfg.Strings(config.KeyCORSOrigins)

	r := router.New()

	// Outermost first: metrics see total latency, recovery sits above
	// everything that can panic, the request id exists before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(cors))
	r.Use(k.limiter.Middleware)

	if k.security {
		sec, err := a.securityOptions(cfg)
		if err != nil {
			return nil, err
		}
		r.Use(middleware.Security(sec))
	} else {
		logger.Info("security auto-configuration disabled", "mode", a.opts.Security.String())
	}

	if a.opts.ETag {
		r.Use(func(next http.Handler) http.Handler { return etag.Handler(next, false) })
	}

	r.Get(healthPath, "", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})
	r.HandleFunc(metricsPath, metrics.Handler())
	r.Get(envPath, "", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]interface{}{
			"app":      a.opts.Name,
			"args":     config.MaskArgs(argv),
			"listen":   listenAddr(cfg),
			"security": k.security,
			"config":   cfg.Effective(),
		})
	})
	r.Get(apiDocsPath, "", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, r.OpenAPI(a.opts.Name, "1.0"))
	})
	if cfg.Bool(config.KeyShutdownEndpoint) {
		r.Post(shutdownPath, "", func(w http.ResponseWriter, req *http.Request) {
			logger.WithCtx(req.Context()).Info("shutdown requested")
			response.Accepted(w, "Shutting down")
			shutdown()
		})
	}

	for _, fn := range a.routesFns {
		fn(r, cfg)
	}

	k.handler = r.Handler()
	return k, nil
}

func (a *Application) securityOptions(cfg *config.Config) (middleware.SecurityOptions, error) {
	user := cfg.String(config.KeySecurityUser)
	creds, generated, err := auth.NewCredentials(user, cfg.String(config.KeySecurityPassword))
	if err != nil {
		return middleware.SecurityOptions{}, err
	}
	if generated != "" {
		logger.Warn("Using generated security password", "user", user, "password", generated)
	}

	// Bearer tokens are accepted only with an explicit JWT_SECRET.
	var tokens *auth.Tokens
	if secret := cfg.String(config.KeyJWTSecret); secret != "" {
		if tokens, err = auth.NewTokens(secret); err != nil {
			return middleware.SecurityOptions{}, err
		}
	}

	return middleware.SecurityOptions{
		Credentials: creds,
		Tokens:      tokens,
		Permit:      []string{healthPath, metricsPath},
	}, nil
}
