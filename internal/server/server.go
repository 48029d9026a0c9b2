// Package server assembles the HTTP pipeline and owns the listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/benvon/corsgate/internal/config"
	"github.com/benvon/corsgate/internal/handlers"
	"github.com/benvon/corsgate/internal/middleware"
	"github.com/benvon/corsgate/internal/telemetry"
	"github.com/benvon/corsgate/internal/validation"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// Options carries optional collaborators created by the caller.
type Options struct {
	// Tracing adds otelmux spans; the global tracer provider must be set.
	Tracing bool
	// Redis, when set, backs the rate limiter and is pinged by /healthz?mode=extended.
	Redis *middleware.RedisRateLimiter
}

// Server is the configured HTTP server.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	srv    *http.Server
}

// New validates the CORS rule and builds the handler chain. Any error here is
// a startup configuration error.
func New(cfg *config.Config, logger *zap.Logger, opts Options) (*Server, error) {
	handler, err := NewHandler(cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		srv: &http.Server{
			Handler:           handler,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
			ErrorLog:          zap.NewStdLog(logger.Named("http")),
		},
	}, nil
}

// NewHandler builds the full request pipeline.
//
// Outer chain, outermost first: request id, logging, audit, security headers,
// CORS, plain OPTIONS responder. The CORS layer sits in front of the router so preflights and
// unmatched /v1 paths are covered too. Router middleware, outermost first:
// tracing, panic recovery, request size, timeout.
func NewHandler(cfg *config.Config, logger *zap.Logger, opts Options) (http.Handler, error) {
	rule := cfg.CorsRule()
	if err := validation.ValidateCorsRule(rule); err != nil {
		return nil, err
	}

	// A nil *RedisRateLimiter must not become a non-nil Pinger.
	healthDeps := map[string]handlers.Pinger{}
	if opts.Redis != nil {
		healthDeps["redis"] = opts.Redis
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	if opts.Tracing {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.MaxRequestSize(cfg.MaxRequestSize, logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	healthChecker := handlers.NewHealthChecker(healthDeps)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", handlers.VersionInfo).Methods(http.MethodGet)

	rateLimitMW, err := newRateLimit(cfg.RateLimit, opts.Redis, logger)
	if err != nil {
		return nil, err
	}
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(rateLimitMW)
	v1.Use(middleware.ContentType(logger))
	handlers.NewCorsPolicyHandler(rule).RegisterRoutes(v1)

	corsMW, err := middleware.CORS(rule, logger, cfg.ServerDebugMode)
	if err != nil {
		return nil, err
	}

	var h http.Handler = r
	h = answerOptions(h)
	h = corsMW(h)
	h = middleware.SecurityHeaders(cfg.EnableHSTS)(h)
	h = middleware.Audit(logger)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID(h)
	return h, nil
}

// answerOptions replies 204 to OPTIONS requests that were not answered as
// preflights. No router route may match OPTIONS on every path, or unknown
// paths would get 405 instead of 404.
func answerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newRateLimit(rate string, redis *middleware.RedisRateLimiter, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if redis != nil {
		return middleware.RateLimit(rate, redis.Client(), logger)
	}
	return middleware.RateLimit(rate, nil, logger)
}

// Handler returns the assembled pipeline.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run binds the configured address and serves until ctx is cancelled. A bind
// failure is returned immediately, before anything is served.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("server_starting", zap.String("addr", ln.Addr().String()))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	s.logger.Info("server_exited")
	return nil
}
