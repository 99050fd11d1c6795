package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/pikup-intake/internal/metrics"
	"github.com/ukydev/pikup-intake/internal/middleware"
)

// RouterConfig wires the handlers and middleware into one router.
type RouterConfig struct {
	Intake  *IntakeHandler
	Drivers *DriverHandler
	Admin   *AdminHandler
	Auth    *middleware.AuthMiddleware

	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP replace the
	// connection address. Enable it only behind a proxy that sets them.
	TrustProxyHeaders bool
}

// NewRouter builds the HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chimw.Heartbeat("/health"))

	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	limit := func() func(http.Handler) http.Handler {
		return middleware.NewRateLimitMiddleware().RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	r.With(limit()).Post("/submit", cfg.Intake.Submit)

	r.Route("/driver", func(r chi.Router) {
		r.With(limit()).Post("/login", cfg.Drivers.Login)
		r.Group(func(r chi.Router) {
			r.Use(limit())
			r.Use(cfg.Auth.RequireDriver)
			r.Get("/profile", cfg.Drivers.GetProfile)
			r.Get("/moves", cfg.Drivers.GetMoves)
		})
	})

	r.Route("/admin/drivers", func(r chi.Router) {
		r.Use(cfg.Auth.RequireAdmin)
		r.Get("/", cfg.Admin.ListDrivers)
		r.Post("/", cfg.Admin.AddDriver)
		r.Put("/{email}", cfg.Admin.UpdateDriver)
		r.Delete("/{email}", cfg.Admin.DeleteDriver)
	})

	return r
}
