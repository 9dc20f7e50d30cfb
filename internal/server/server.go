package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/accounts"
	"github.com/hongminglow/reveal-be/internal/auth"
	"github.com/hongminglow/reveal-be/internal/config"
	"github.com/hongminglow/reveal-be/internal/events"
	"github.com/hongminglow/reveal-be/internal/http/handlers"
	"github.com/hongminglow/reveal-be/internal/metrics"
	"github.com/hongminglow/reveal-be/internal/middleware"
	"github.com/hongminglow/reveal-be/internal/publisher"
	"github.com/hongminglow/reveal-be/internal/storage"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	Store     storage.Store
	Sessions  auth.Sessions
	Publisher publisher.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	EventOptions []events.Option
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// NewHandler builds the routed API with CORS and request logging applied.
func NewHandler(cfg config.Config, deps Deps) http.Handler {
	accountSvc := accounts.NewService(deps.Store, deps.Store, deps.Sessions, deps.Metrics, deps.Logger, cfg.PlanDuration)
	eventSvc := events.NewService(deps.Store, deps.Publisher, deps.Metrics, deps.Logger, cfg.WagerFee, deps.EventOptions...)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), deps.Store.Ping).Register(mux)
	handlers.NewAuthHandler(accountSvc, deps.Logger).Register(mux)
	handlers.NewEventsHandler(eventSvc, deps.Logger).Register(mux)

	logging := middleware.Logging(deps.Logger, deps.Metrics)
	return middleware.CORS(cfg.CORSOrigins)(logging(mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
