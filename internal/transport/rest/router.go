package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/jobly/internal/auth"
	"github.com/frahmantamala/jobly/internal/job"
	"github.com/frahmantamala/jobly/internal/payment"
	"github.com/frahmantamala/jobly/internal/promotion"
	"github.com/frahmantamala/jobly/internal/transport/middleware"
	"github.com/frahmantamala/jobly/internal/transport/swagger"
)

// maxRequestBytes caps every request body before any middleware reads it.
// The IPN handler applies a tighter limit of its own.
const maxRequestBytes = 1 << 20

type Handlers struct {
	Health    *HealthHandler
	Auth      *auth.Handler
	Promotion *promotion.Handler
	Payment   *payment.Handler
	Webhook   *payment.WebhookHandler
	Job       *job.Handler
}

type RouterOptions struct {
	OpenAPIPath      string
	OpenAPIValidator func(http.Handler) http.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions, logger *slog.Logger) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientIP)
	router.Use(middleware.BodyLimit(maxRequestBytes))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if opts.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route("/api/v1", func(r chi.Router) {
		if opts.OpenAPIValidator != nil {
			r.Use(opts.OpenAPIValidator)
		}

		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.With(h.Auth.AuthMiddleware).Get("/me", h.Auth.Me)
		})

		r.Route("/promotion-packages", func(pr chi.Router) {
			pr.Get("/", h.Promotion.List)
			pr.Get("/{id}", h.Promotion.Get)

			pr.Group(func(ar chi.Router) {
				ar.Use(h.Auth.AuthMiddleware)
				ar.Use(middleware.RequireAdmin)
				ar.Post("/", h.Promotion.Create)
				ar.Put("/{id}", h.Promotion.Update)
			})
		})

		r.Route("/payments", func(pr chi.Router) {
			// IPN deliveries come from the gateway, not a logged-in user.
			pr.Post("/ipn", h.Webhook.HandleIPN)

			pr.Group(func(ar chi.Router) {
				ar.Use(h.Auth.AuthMiddleware)

				ar.With(middleware.RequireRecruiter).Post("/initiate", h.Payment.Initiate)
				ar.With(middleware.RequireRecruiter).Get("/promotion-status", h.Job.PromotionStatus)
				ar.Post("/check-status", h.Payment.CheckStatus)
				ar.Get("/", h.Payment.List)
				ar.Get("/mine", h.Payment.Mine)
				ar.Get("/{id}", h.Payment.Detail)
				ar.Get("/{id}/logs", h.Payment.Logs)
			})
		})
	})
}
