package reconciler

import (
	"fmt"

	"github.com/agentstation/stonemap/internal/metrics"
	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/enhancer"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/match"
	"github.com/agentstation/stonemap/pkg/quality"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/validity"
)

// options configures a reconciler.
type options struct {
	match           match.Config
	precision       int
	validity        validity.Config
	enhancers       []enhancer.Enhancer
	enrichment      enhancer.Config
	baseline        *sites.Catalog
	tracking        bool
	metrics         *metrics.Pipeline
	scorer          *quality.Scorer
	maxSlugAttempts int
}

func defaultOptions() *options {
	return &options{
		match:           match.DefaultConfig(),
		precision:       constants.DefaultGridPrecision,
		validity:        validity.DefaultConfig(),
		enrichment:      enhancer.DefaultConfig(),
		maxSlugAttempts: constants.MaxSlugAttempts,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithMatchConfig sets the matching radii and similarity threshold.
func WithMatchConfig(cfg match.Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.match = cfg
		return nil
	}
}

// WithGridPrecision sets the decimal precision of spatial index cells.
func WithGridPrecision(p int) Option {
	return func(o *options) error {
		if p < 0 || p > constants.MaxGridPrecision {
			return errors.NewValidationError("gridPrecision", p,
				fmt.Sprintf("must be between 0 and %d", constants.MaxGridPrecision))
		}
		o.precision = p
		return nil
	}
}

// WithValidityConfig replaces the validity filter configuration.
func WithValidityConfig(cfg validity.Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.validity = cfg
		return nil
	}
}

// WithLandPolicy sets how records outside every land box are handled.
func WithLandPolicy(p validity.LandPolicy) Option {
	return func(o *options) error {
		cfg := o.validity
		cfg.LandPolicy = p
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.validity = cfg
		return nil
	}
}

// WithEnhancers enables enrichment with the given enhancers.
func WithEnhancers(enhancers ...enhancer.Enhancer) Option {
	return func(o *options) error {
		o.enhancers = enhancers
		return nil
	}
}

// WithEnrichmentConfig sets enrichment concurrency, delay and timeout.
func WithEnrichmentConfig(cfg enhancer.Config) Option {
	return func(o *options) error {
		if cfg.Concurrency < 1 {
			return errors.NewValidationError("enrichment.concurrency", cfg.Concurrency, "must be at least 1")
		}
		o.enrichment = cfg
		return nil
	}
}

// WithBaseline seeds every run with a previous catalog. The baseline itself
// is never modified.
func WithBaseline(c *sites.Catalog) Option {
	return func(o *options) error {
		o.baseline = c
		return nil
	}
}

// WithProvenance enables field-level tracking.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.tracking = enabled
		return nil
	}
}

// WithMetrics records pipeline metrics into m.
func WithMetrics(m *metrics.Pipeline) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithScorer replaces the quality scorer.
func WithScorer(s *quality.Scorer) Option {
	return func(o *options) error {
		if s == nil {
			return &errors.ValidationError{Field: "scorer", Message: "cannot be nil"}
		}
		o.scorer = s
		return nil
	}
}

// WithMaxSlugAttempts bounds the numeric suffixes tried for one slug.
func WithMaxSlugAttempts(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("maxSlugAttempts", n, "must be at least 1")
		}
		o.maxSlugAttempts = n
		return nil
	}
}
