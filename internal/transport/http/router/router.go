package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/handlers"
	mw "github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/middleware"
)

func New(
	h *handlers.RecommendationsHandler,
	a *handlers.AnalyticsHandler,
	z *handlers.HealthHandler,
	auth *mw.AuthMiddleware,
	sessions *mw.Sessions,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw.Sentry)
	r.Use(mw.AccessLog)

	r.Get("/healthz", z.Healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/recommendation/v1", func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
		}
		r.Use(sessions.Handler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Optional)
			r.Post("/interactions", h.TrackInteraction)
			r.Post("/recommendations", h.GetRecommendations)
			r.Get("/products/{product_id}/similar", h.GetSimilar)
			r.Get("/products/{product_id}/frequently-bought-together", h.GetFrequentlyBoughtTogether)
			r.Get("/trending", h.GetTrending)
			r.Post("/exposures/{exposure_id}/clicks", h.RecordClick)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)
			r.Post("/personalized", h.GetPersonalized)
			r.Post("/recently-viewed", h.GetRecentlyViewed)
		})

		// manual attribution; purchases normally arrive through order events
		r.Group(func(r chi.Router) {
			r.Use(auth.Require)
			r.Use(mw.RequireAdmin)
			r.Post("/exposures/{exposure_id}/conversion", h.RecordConversion)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(auth.Require)
			r.Use(mw.RequireAdmin)
			r.Get("/customers/{customer_id}/behavior", a.CustomerBehavior)
			r.Get("/products/popularity", a.ProductPopularity)
			r.Get("/performance", a.Performance)
		})
	})

	return r
}
