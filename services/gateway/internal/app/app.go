// Package app assembles the gateway's dependencies and runs its HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/BigRedEye/dc-hw/pkg/health"
	"github.com/BigRedEye/dc-hw/pkg/tracing"
	"github.com/BigRedEye/dc-hw/services/gateway/internal/config"
	"github.com/BigRedEye/dc-hw/services/gateway/internal/handler"
	"github.com/BigRedEye/dc-hw/services/gateway/internal/proxy"
)

// App is the running edge gateway. It owns no database or broker, only
// the HTTP server and the reverse proxies behind it.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp builds the proxy table, health checks, and router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "gateway",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	sp, err := proxy.NewServiceProxy(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init service proxy: %w", err)
	}

	// Upstream reachability is reported but non-critical. One dead
	// backend should not pull the whole edge out of rotation.
	healthHandler := health.NewHandler()
	healthHandler.RegisterNonCritical("auth", dialCheck(cfg.AuthServiceURL))
	healthHandler.RegisterNonCritical("catalog", dialCheck(cfg.CatalogServiceURL))

	router := handler.NewRouter(cfg, sp, healthHandler, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           router,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
		tracerShutdown: tracerShutdown,
	}, nil
}

// dialCheck probes TCP reachability of the URL's host.
func dialCheck(rawURL string) func(context.Context) error {
	return func(ctx context.Context) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("parse service URL: %w", err)
		}
		d := net.Dialer{Timeout: 2 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return fmt.Errorf("upstream unreachable: %w", err)
		}
		_ = conn.Close()
		return nil
	}
}

// Run serves until the context is canceled or the listener fails, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}
	return a.Shutdown()
}

// Shutdown drains in-flight requests first, then flushes the tracer so
// spans from those requests still make it out.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
