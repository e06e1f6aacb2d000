// Package httpapi serves the validator, query engine and bulk update planner
// over HTTP. Requests carry build documents inline; the server never touches
// the filesystem.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ludo-technologies/linecheck/internal/version"
	"github.com/ludo-technologies/linecheck/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Default server limits
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxBodyBytes   = 10 << 20
)

// Config holds the HTTP server settings
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Server wires the services to HTTP routes
type Server struct {
	config    Config
	logger    *zap.Logger
	metrics   *service.Metrics
	validator *service.ValidationServiceImpl
	queries   *service.QueryServiceImpl
	planner   *service.BulkUpdateServiceImpl
}

// NewServer creates a server. A nil logger discards output; a nil metrics
// set disables /metrics.
func NewServer(cfg Config, logger *zap.Logger, metrics *service.Metrics) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// in-memory requests never reach the repository
	repo := service.NewBuildRepository()
	return &Server{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		validator: service.NewValidationService(repo, service.NewBOMLoader()).WithLogger(logger).WithMetrics(metrics),
		queries:   service.NewQueryService(repo).WithLogger(logger).WithMetrics(metrics),
		planner:   service.NewBulkUpdateService(repo).WithLogger(logger).WithMetrics(metrics),
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.headerMiddleware)
	router.Use(s.metricsMiddleware)
	router.NotFoundHandler = s.headerMiddleware(s.metricsMiddleware(http.NotFoundHandler()))

	router.HandleFunc("/healthz", s.healthzHandler).Methods("GET")
	if s.metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rules", s.rulesHandler).Methods("GET")
	api.HandleFunc("/validate", s.validateHandler).Methods("POST")
	api.HandleFunc("/query", s.queryHandler).Methods("POST")
	api.HandleFunc("/bulk-update", s.bulkUpdateHandler).Methods("POST")
	api.HandleFunc("/graph", s.graphHandler).Methods("POST")

	return router
}

// HTTPServer returns an http.Server for the route table
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.RequestTimeout,
		WriteTimeout: s.config.RequestTimeout,
		IdleTimeout:  2 * time.Minute,
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := s.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) headerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", version.UserAgent())
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// unmatchedRoute labels requests that matched no route template, keeping raw
// paths out of metric labels
const unmatchedRoute = "unmatched"

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		route := unmatchedRoute
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.metrics.ObserveRequest(route, r.Method, wrapper.statusCode)
		s.logger.Debug("http request processed",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// responseWrapper captures the response status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
