// Package app provides the application context and dependency management
// for the stonemap CLI. It centralizes configuration, logging and the
// pipeline dependencies that commands receive through appcontext.Interface.
package app

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/agentstation/stonemap/internal/appcontext"
	"github.com/agentstation/stonemap/internal/config"
	"github.com/agentstation/stonemap/internal/metrics"
	"github.com/agentstation/stonemap/internal/sources"
	"github.com/agentstation/stonemap/internal/transport"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/reconciler"
)

// App represents the stonemap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	viper    *viper.Viper
	config   *Config
	settings *config.Settings

	// Logger
	logger *zerolog.Logger

	// Metrics (lazy-initialized, one registry per process)
	metricsOnce sync.Once
	metrics     *metrics.Pipeline
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		viper:   viper.New(),
	}

	cfg, err := LoadConfig(app.viper)
	if err != nil {
		return nil, errors.NewConfigError("app", "load config", err)
	}
	app.config = cfg

	settings, err := config.Load(app.viper)
	if err != nil {
		return nil, err
	}
	app.settings = settings

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Settings returns the pipeline settings.
func (a *App) Settings() *config.Settings {
	return a.settings
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the output format chosen by flag, env or config.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Loader returns a batch loader sharing the application user agent.
func (a *App) Loader(opts ...sources.LoaderOption) *sources.Loader {
	client := transport.New("batch", a.settings.TransportOptions()...)
	return sources.NewLoader(append([]sources.LoaderOption{sources.WithClient(client)}, opts...)...)
}

// Metrics returns the process-wide pipeline metrics.
func (a *App) Metrics() *metrics.Pipeline {
	a.metricsOnce.Do(func() {
		if a.metrics == nil {
			a.metrics = metrics.MustNewPipeline()
		}
	})
	return a.metrics
}

// Reconciler creates a reconciler configured from the settings.
func (a *App) Reconciler(opts ...reconciler.Option) (reconciler.Reconciler, error) {
	all := append(a.settings.ReconcilerOptions(), reconciler.WithMetrics(a.Metrics()))
	r, err := reconciler.New(append(all, opts...)...)
	if err != nil {
		return nil, errors.NewConfigError("reconciler", "invalid options", err)
	}
	return r, nil
}

// reload re-reads the config file and settings after flags are parsed.
func (a *App) reload() error {
	if a.config.ConfigFile != "" {
		a.viper.SetConfigFile(a.config.ConfigFile)
		if err := a.viper.ReadInConfig(); err != nil {
			return errors.WrapIO("read", a.config.ConfigFile, err)
		}
	}
	settings, err := config.Load(a.viper)
	if err != nil {
		return err
	}
	a.settings = settings
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) error {
		a.config = cfg
		return nil
	}
}

// WithSettings sets custom pipeline settings.
func WithSettings(s *config.Settings) Option {
	return func(a *App) error {
		if err := s.Validate(); err != nil {
			return err
		}
		a.settings = s
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics pipeline (useful for testing).
func WithMetrics(m *metrics.Pipeline) Option {
	return func(a *App) error {
		a.metrics = m
		return nil
	}
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)
