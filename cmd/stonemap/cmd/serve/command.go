// Package serve provides the serve command, a read-only HTTP API over a
// merged catalog.
package serve

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/stonemap/internal/appcontext"
	"github.com/agentstation/stonemap/internal/cmd/catalog"
	"github.com/agentstation/stonemap/internal/server"
	"github.com/agentstation/stonemap/pkg/errors"
)

// Flags holds the serve command flags.
type Flags struct {
	Catalog      string
	Host         string
	Port         int
	Prefix       string
	CORS         bool
	CORSOrigins  []string
	RateLimit    int
	CacheTTL     time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Metrics      bool
}

// NewCommand creates the serve command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Serve a merged catalog over a read-only REST API",
		Long: `Serve loads a catalog written by merge and exposes it over HTTP.

Endpoints:
  GET /health                    liveness
  GET /api/v1/ready              readiness with site count
  GET /api/v1/sites              filtered, sorted, paged site list
  GET /api/v1/sites/{id}         one canonical site
  GET /api/v1/sites/near         sites within radius meters of lat/lon
  GET /api/v1/stats              counts by kind, type and flag
  GET /metrics                   Prometheus metrics`,
		Example: `  stonemap serve --catalog catalog.json
  stonemap serve --catalog catalog.db --port 3000 --cors
  stonemap serve --rate-limit 0 --metrics=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	defaults := server.DefaultConfig()
	cmd.Flags().StringVar(&flags.Catalog, "catalog", "catalog.json", "Catalog file to serve (json, yaml or .db)")
	cmd.Flags().StringVar(&flags.Host, "host", defaults.Host, "Bind address")
	cmd.Flags().IntVarP(&flags.Port, "port", "p", defaults.Port, "Server port")
	cmd.Flags().StringVar(&flags.Prefix, "prefix", defaults.PathPrefix, "API path prefix")
	cmd.Flags().BoolVar(&flags.CORS, "cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSliceVar(&flags.CORSOrigins, "cors-origins", nil, "Allowed CORS origins (comma-separated)")
	cmd.Flags().IntVar(&flags.RateLimit, "rate-limit", defaults.RateLimit, "Requests per minute per client (0 to disable)")
	cmd.Flags().DurationVar(&flags.CacheTTL, "cache-ttl", defaults.CacheTTL, "Response cache TTL")
	cmd.Flags().DurationVar(&flags.ReadTimeout, "read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().DurationVar(&flags.WriteTimeout, "write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().DurationVar(&flags.IdleTimeout, "idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")
	cmd.Flags().BoolVar(&flags.Metrics, "metrics", defaults.MetricsEnabled, "Expose /metrics")

	return cmd
}

// Config builds the server configuration from flags and the HTTP_HOST and
// HTTP_PORT environment variables.
func (f *Flags) Config() (server.Config, error) {
	cfg := server.DefaultConfig()
	cfg.Host = f.Host
	cfg.Port = f.Port
	cfg.PathPrefix = f.Prefix
	cfg.CORSEnabled = f.CORS || len(f.CORSOrigins) > 0
	cfg.CORSOrigins = f.CORSOrigins
	cfg.RateLimit = f.RateLimit
	cfg.CacheTTL = f.CacheTTL
	cfg.ReadTimeout = f.ReadTimeout
	cfg.WriteTimeout = f.WriteTimeout
	cfg.IdleTimeout = f.IdleTimeout
	cfg.MetricsEnabled = f.Metrics

	if host := os.Getenv("HTTP_HOST"); host != "" {
		cfg.Host = host
	}
	if env := os.Getenv("HTTP_PORT"); env != "" {
		port, err := parsePort(env)
		if err != nil {
			return cfg, err
		}
		cfg.Port = port
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return cfg, errors.NewValidationError("port", cfg.Port, "out of range")
	}
	return cfg, nil
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	cfg, err := flags.Config()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := catalog.Load(ctx, flags.Catalog)
	if err != nil {
		return err
	}

	srv, err := server.New(c, cfg,
		server.WithLogger(app.Logger()),
		server.WithGatherer(app.Metrics().Registry()),
		server.WithGridPrecision(app.Settings().GridPrecision),
	)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

// parsePort parses a port number in 1..65535.
func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewValidationError("HTTP_PORT", s, "invalid port number")
	}
	if port < 1 || port > 65535 {
		return 0, errors.NewValidationError("HTTP_PORT", port, "port out of range")
	}
	return port, nil
}
