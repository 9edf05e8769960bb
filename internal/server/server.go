// Package server provides a read-only HTTP API over a merged catalog.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/stonemap/internal/server/cache"
	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/spatial"
)

// Server holds the HTTP server state and dependencies. The catalog is
// loaded once and never modified, so handlers read it without locking.
type Server struct {
	catalog   *sites.Catalog
	index     *spatial.Index
	cache     *cache.Cache
	gatherer  prometheus.Gatherer
	logger    *zerolog.Logger
	config    Config
	startTime time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer exposes the metrics of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithGridPrecision sets the precision of the index behind /sites/near.
func WithGridPrecision(p int) Option {
	return func(s *Server) { s.index = spatial.New(p) }
}

// New creates a server for catalog c.
func New(c *sites.Catalog, cfg Config, opts ...Option) (*Server, error) {
	if c == nil {
		return nil, errors.NewValidationError("catalog", nil, "is required")
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		catalog:   c,
		cache:     cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		logger:    logging.Default(),
		config:    cfg,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.index == nil {
		s.index = spatial.New(constants.DefaultGridPrecision)
	}
	for _, site := range c.Sites() {
		s.index.Insert(site.CanonicalID, site.Coordinates)
	}

	s.logger.Debug().
		Int("sites", c.Len()).
		Float64("cell_meters", s.index.CellSizeMeters()).
		Msg("Server instance created")
	return s, nil
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", srv.Addr).
			Str("prefix", s.config.PathPrefix).
			Int("sites", s.catalog.Len()).
			Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.WrapIO("listen", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("Shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapIO("shutdown", srv.Addr, err)
	}
	return nil
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
