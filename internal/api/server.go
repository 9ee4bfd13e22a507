// Package api exposes the digest service over HTTP: signup,
// verification, timezone updates, the deliver-now trigger, and
// health.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/dailyhi/internal/domain"
	"github.com/ignite/dailyhi/internal/signup"
)

// DeliveryRunner triggers one delivery pass. Satisfied by
// *delivery.Scheduler.
type DeliveryRunner interface {
	RunOnce(ctx context.Context, utc time.Time) (domain.DeliveryReport, error)
}

// Server is the HTTP front of the digest service.
type Server struct {
	router    *chi.Mux
	signup    *signup.Service
	scheduler DeliveryRunner
	db        *sql.DB
	redis     *redis.Client
}

// NewServer builds the router. db and redis are used only by the
// health endpoint and may be nil in tests.
func NewServer(svc *signup.Service, scheduler DeliveryRunner, db *sql.DB, redisClient *redis.Client) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		signup:    svc,
		scheduler: scheduler,
		db:        db,
		redis:     redisClient,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	s.router.Post("/subscriptions", s.handleSubscribe)
	s.router.Patch("/subscriptions/{code}/timezone", s.handleUpdateTimezone)
	s.router.Get("/verify/{code}", s.handleVerify)
	s.router.Post("/deliver", s.handleDeliver)
	s.router.Get("/healthz", s.handleHealth)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
