package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/view"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig carries the HTTP-layer settings of the storefront.
type RouterConfig struct {
	View        view.Config
	Session     SessionConfig
	CORS        middleware.CORSConfig
	ToggleRPS   float64
	ToggleBurst int
	PprofCIDRs  []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svc *service.StorefrontService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	h := NewStorefrontHandler(svc, cfg.View, logger)

	r.Route("/api/storefront", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.NoStore)
		r.Use(Session(cfg.Session, svc.UserID, logger))

		r.Get("/home", h.Home)

		r.Get("/wishlist", h.Wishlist)
		r.With(RateLimitBySession(cfg.ToggleRPS, cfg.ToggleBurst, logger)).
			Post("/wishlist/{productId}/toggle", h.ToggleWishlist)

		r.Get("/orders", h.Orders)
		r.Get("/categories", h.Categories)
		r.Get("/settings", h.Settings)
		r.Get("/profile", h.Profile)

		r.Get("/session", h.Session)
		r.Post("/session/token", h.SignIn)
		r.Delete("/session/token", h.SignOut)
	})

	return r
}
