// Package proxy forwards API traffic to the backend services.
package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/BigRedEye/dc-hw/services/gateway/internal/config"
)

// ServiceProxy routes requests to one reverse proxy per backend.
type ServiceProxy struct {
	backends map[string]*httputil.ReverseProxy
	logger   *slog.Logger
}

// NewServiceProxy builds the proxies for the auth and catalog backends.
// A malformed backend URL fails startup instead of surfacing later as
// 502s on every request.
func NewServiceProxy(cfg *config.Config, logger *slog.Logger) (*ServiceProxy, error) {
	sp := &ServiceProxy{
		backends: make(map[string]*httputil.ReverseProxy),
		logger:   logger,
	}

	targets := map[string]string{
		"auth":    cfg.AuthServiceURL,
		"catalog": cfg.CatalogServiceURL,
	}
	for name, rawURL := range targets {
		if err := sp.register(name, rawURL); err != nil {
			return nil, err
		}
	}
	return sp, nil
}

func (sp *ServiceProxy) register(name, rawURL string) error {
	target, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse %s service URL %q: %w", name, rawURL, err)
	}

	sp.backends[name] = &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
		},
		ErrorHandler: sp.upstreamErrorHandler(name),
	}

	sp.logger.Info("registered service proxy",
		slog.String("service", name),
		slog.String("target", rawURL),
	)
	return nil
}

// Handler returns the proxy for the named backend. Asking for an
// unregistered backend yields a handler that always answers 502, so a
// routing mistake shows up loudly instead of panicking.
func (sp *ServiceProxy) Handler(serviceName string) http.Handler {
	p, ok := sp.backends[serviceName]
	if !ok {
		sp.logger.Error("no proxy registered for service", slog.String("service", serviceName))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"code":"SERVICE_UNAVAILABLE","message":"service not configured"}`, http.StatusBadGateway)
		})
	}
	return p
}

func (sp *ServiceProxy) upstreamErrorHandler(serviceName string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		sp.logger.Error("proxy error",
			slog.String("service", serviceName),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":"BAD_GATEWAY","message":"upstream service unavailable"}`))
	}
}
