package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/foorest/sleep/config"
	"github.com/foorest/sleep/internal/server"
	"github.com/foorest/sleep/pkg/logger"
)

// serve runs the HTTP server until a termination signal, ctx cancellation or
// the shutdown endpoint.
func (a *Application) serve(ctx context.Context, cfg *config.Config, argv []string) error {
	logger.Setup(cfg.String(config.KeyAppEnv), a.opts.LogOutput)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	k, err := a.buildKernel(cfg, argv, cancel)
	if err != nil {
		return err
	}

	go sweep(ctx, k.limiter.Sweep, time.Minute)

	logger.Info("starting",
		"app", a.opts.Name,
		"env", cfg.String(config.KeyAppEnv),
		"security", securityState(k.security),
	)

	srv := &server.Server{
		Addr:            listenAddr(cfg),
		Handler:         k.handler,
		ShutdownTimeout: cfg.Duration(config.KeyShutdownTimeout),
		OnStarted:       a.started,
	}
	return srv.Run(ctx)
}

func sweep(ctx context.Context, fn func(), every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
