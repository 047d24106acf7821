package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger verifies a dependency is reachable. Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig holds the dependencies and settings for the HTTP server.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Orders *OrderHandler
	Admin  *AdminHandler
	// DB is probed by the health endpoint. Optional.
	DB     Pinger
	Logger *slog.Logger
}

// Server is the HTTP server for the order notifier API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the router and wraps it in an http.Server. The middleware
// chain is Recoverer (outermost), RequestID, then RequestLogger, so every
// request is logged with its ID and panics always produce a JSON 500.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(Recoverer(logger))
	r.Use(RequestID)
	r.Use(RequestLogger(logger))

	r.Get("/health", healthHandler(cfg.DB))

	r.Route("/v1", func(r chi.Router) {
		cfg.Orders.RegisterRoutes(r)
		r.Route("/admin", func(r chi.Router) {
			cfg.Orders.RegisterAdminRoutes(r)
			cfg.Admin.RegisterRoutes(r)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// ListenAndServe runs the server until it is shut down. It returns nil when
// the server closed normally.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// healthHandler reports service liveness and, when a DB is configured, its
// reachability. A failing DB ping degrades the status to 503.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		checks := map[string]string{}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				checks["database"] = "unreachable"
				status = http.StatusServiceUnavailable
			} else {
				checks["database"] = "ok"
			}
		}

		body := map[string]any{
			"status": "ok",
			"checks": checks,
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		JSON(w, r, status, APIResponse{Data: body})
	}
}
