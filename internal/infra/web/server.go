package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-yoga-subscription/internal/usecase"
)

// Server wires the payment webhooks and the admin surface onto one router.
type Server struct {
	click       http.Handler
	payme       http.Handler
	adminUC     usecase.AdminUseCase
	lifecycleUC usecase.LifecycleUseCase
	auth        *AuthManager
	log         *zerolog.Logger
}

func NewServer(
	click http.Handler,
	payme http.Handler,
	adminUC usecase.AdminUseCase,
	lifecycleUC usecase.LifecycleUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{click: click, payme: payme, adminUC: adminUC, lifecycleUC: lifecycleUC, auth: auth, log: &l}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	// Provider webhooks: both protocols answer business faults with HTTP 200
	// in their own envelopes, so nothing here wraps their status codes.
	r.Post("/api/payments/click", s.click.ServeHTTP)
	r.Post("/api/payments/payme", s.payme.ServeHTTP)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/subscriptions/{id}/action", s.handleSubscriptionAction)
		r.Post("/jobs/trigger", s.handleJobTrigger)
	})

	return r
}
