package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BigRedEye/dc-hw/pkg/authclient"
	"github.com/BigRedEye/dc-hw/pkg/health"
	"github.com/BigRedEye/dc-hw/pkg/middleware"
	"github.com/BigRedEye/dc-hw/pkg/role"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/service"
)

// NewRouter creates a chi router with all catalog service routes registered.
// Reads require a valid session; writes require the admin role. Every
// protected request goes through a live validate call.
func NewRouter(
	productService *service.ProductService,
	authz authclient.Authorizer,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("catalog"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	productHandler := NewProductHandler(productService, logger)

	// Read endpoints: any authenticated user.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(authclient.Require(authz, role.User))
			// Catalog reads are identical for every caller.
			r.Use(middleware.CacheControl(60))

			r.Get("/", productHandler.ListProducts)
			r.Get("/{id}", productHandler.GetProduct)
		})

		// Write endpoints: admin only.
		r.Group(func(r chi.Router) {
			r.Use(authclient.Require(authz, role.Admin))

			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
			r.Post("/import", productHandler.ImportProducts)
		})
	})

	return r
}
