// Package appcontext provides the shared application context interface
// used by all commands. Commands depend on this interface rather than the
// concrete App so they can be tested with Mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/stonemap/internal/config"
	"github.com/agentstation/stonemap/internal/metrics"
	"github.com/agentstation/stonemap/internal/sources"
	"github.com/agentstation/stonemap/pkg/reconciler"
)

// Interface defines the application context interface that commands need.
type Interface interface {
	// Settings returns the pipeline settings loaded from file, env and flags.
	Settings() *config.Settings

	// Loader returns a batch loader using the application HTTP client.
	Loader(opts ...sources.LoaderOption) *sources.Loader

	// Metrics returns the pipeline metrics of this process.
	Metrics() *metrics.Pipeline

	// Reconciler creates a reconciler from the settings; opts are applied
	// after the settings and override them.
	Reconciler(opts ...reconciler.Option) (reconciler.Reconciler, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
