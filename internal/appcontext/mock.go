package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/stonemap/internal/config"
	"github.com/agentstation/stonemap/internal/metrics"
	"github.com/agentstation/stonemap/internal/sources"
	"github.com/agentstation/stonemap/pkg/reconciler"
)

// Mock provides a mock implementation of Interface for testing.
// If a function field is nil, the method returns a working default.
type Mock struct {
	SettingsFunc     func() *config.Settings
	MetricsPipeline  *metrics.Pipeline
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

// Settings returns settings using the mock function or the defaults.
func (m *Mock) Settings() *config.Settings {
	if m.SettingsFunc != nil {
		return m.SettingsFunc()
	}
	return config.Default()
}

// Loader returns a default loader.
func (m *Mock) Loader(opts ...sources.LoaderOption) *sources.Loader {
	return sources.NewLoader(opts...)
}

// Metrics returns MetricsPipeline, creating it on first use.
func (m *Mock) Metrics() *metrics.Pipeline {
	if m.MetricsPipeline == nil {
		m.MetricsPipeline = metrics.MustNewPipeline()
	}
	return m.MetricsPipeline
}

// Reconciler creates a reconciler from the mock settings.
func (m *Mock) Reconciler(opts ...reconciler.Option) (reconciler.Reconciler, error) {
	all := append(m.Settings().ReconcilerOptions(), reconciler.WithMetrics(m.Metrics()))
	return reconciler.New(append(all, opts...)...)
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
