package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hongminglow/loft-be/internal/auth"
	"github.com/hongminglow/loft-be/internal/config"
	"github.com/hongminglow/loft-be/internal/http/handlers"
	"github.com/hongminglow/loft-be/internal/http/respond"
	"github.com/hongminglow/loft-be/internal/ledger"
	"github.com/hongminglow/loft-be/internal/metrics"
	"github.com/hongminglow/loft-be/internal/middleware"
	"github.com/hongminglow/loft-be/internal/storage"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Auth     *auth.Service
	Tokens   *auth.TokenManager
	Ledger   *ledger.Ledger
	Recorder *ledger.Recorder
	Catalog  storage.Catalog
	DB       handlers.Pinger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(deps.Log),
	}
	return &Server{inner: httpServer}
}

// NewRouter builds the full handler tree.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(deps.Log),
		middleware.Logging,
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.CORSOrigins),
		chimw.Recoverer,
		middleware.Session(deps.Auth, deps.Tokens),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	handlers.NewHealthHandler(time.Now(), deps.DB).Routes(r)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}
	handlers.NewAuthHandler(deps.Auth, deps.Tokens, cfg.Production()).Routes(r)
	handlers.NewCurrencyHandler(deps.Ledger).Routes(r)
	handlers.NewTransactionHandler(deps.Recorder).Routes(r)
	handlers.NewCatalogHandler(deps.Catalog).Routes(r)

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
