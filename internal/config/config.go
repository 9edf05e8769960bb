// Package config maps viper configuration onto pipeline settings. Keys are
// read from the config file, STONEMAP_* environment variables and flags
// bound by the CLI.
package config

import (
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agentstation/stonemap/internal/transport"
	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/enhancer"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/match"
	"github.com/agentstation/stonemap/pkg/reconciler"
	"github.com/agentstation/stonemap/pkg/validity"
)

// EnvPrefix prefixes every environment variable read by stonemap.
const EnvPrefix = "STONEMAP"

// Settings holds the pipeline configuration.
type Settings struct {
	GridPrecision int             `mapstructure:"grid_precision" yaml:"grid_precision"`
	Match         match.Config    `mapstructure:"match" yaml:"match"`
	Validity      ValiditySection `mapstructure:"validity" yaml:"validity"`
	Enrichment    EnrichSection   `mapstructure:"enrichment" yaml:"enrichment"`
	Sources       SourcesSection  `mapstructure:"sources" yaml:"sources"`
	Provenance    bool            `mapstructure:"provenance" yaml:"provenance"`
}

// ValiditySection configures the validity filter.
type ValiditySection struct {
	LandPolicy   string   `mapstructure:"land_policy" yaml:"land_policy"`
	AllowedTypes []string `mapstructure:"allowed_types" yaml:"allowed_types"`
}

// EnrichSection configures Wikimedia enrichment.
type EnrichSection struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	Delay       time.Duration `mapstructure:"delay" yaml:"delay"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	ThumbSize   int           `mapstructure:"thumb_size" yaml:"thumb_size"`
}

// SourcesSection configures how remote batches are fetched. APIKey is sent
// as a bearer token, or in AuthHeader when that is set.
type SourcesSection struct {
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	APIKey     string        `mapstructure:"api_key" yaml:"-"`
	AuthHeader string        `mapstructure:"auth_header" yaml:"auth_header"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("grid_precision", constants.DefaultGridPrecision)

	m := match.DefaultConfig()
	v.SetDefault("match.near_certain_meters", m.NearCertainMeters)
	v.SetDefault("match.corroborated_meters", m.CorroboratedMeters)
	v.SetDefault("match.max_search_meters", m.MaxSearchMeters)
	v.SetDefault("match.name_similarity", m.NameSimilarity)

	v.SetDefault("validity.land_policy", string(validity.LandPolicyFlag))
	v.SetDefault("validity.allowed_types", []string{})

	e := enhancer.DefaultConfig()
	v.SetDefault("enrichment.enabled", false)
	v.SetDefault("enrichment.endpoint", enhancer.DefaultWikimediaEndpoint)
	v.SetDefault("enrichment.concurrency", e.Concurrency)
	v.SetDefault("enrichment.delay", e.Delay)
	v.SetDefault("enrichment.timeout", e.Timeout)
	v.SetDefault("enrichment.cache_ttl", constants.CacheTTL)
	v.SetDefault("enrichment.thumb_size", 800)

	v.SetDefault("sources.timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("sources.api_key", "")
	v.SetDefault("sources.auth_header", "")

	v.SetDefault("provenance", false)
}

// BindEnv makes every setting readable from STONEMAP_* variables, e.g.
// STONEMAP_MATCH_NAME_SIMILARITY or STONEMAP_ENRICHMENT_ENABLED.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load reads settings from v and validates them.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.NewConfigError("settings", "decode failed", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Default returns the default settings.
func Default() *Settings {
	v := viper.New()
	SetDefaults(v)
	s, err := Load(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks every section.
func (s *Settings) Validate() error {
	if s.GridPrecision < 0 || s.GridPrecision > constants.MaxGridPrecision {
		return errors.NewConfigError("settings", "grid_precision out of range",
			errors.NewValidationError("grid_precision", s.GridPrecision, "must be between 0 and 7"))
	}
	if err := s.Match.Validate(); err != nil {
		return errors.NewConfigError("match", "invalid thresholds", err)
	}
	if err := s.validity().Validate(); err != nil {
		return err
	}
	if s.Enrichment.Concurrency < 1 {
		return errors.NewConfigError("enrichment", "invalid concurrency",
			errors.NewValidationError("concurrency", s.Enrichment.Concurrency, "must be at least 1"))
	}
	if s.Sources.Timeout <= 0 {
		return errors.NewConfigError("sources", "invalid timeout",
			errors.NewValidationError("timeout", s.Sources.Timeout, "must be positive"))
	}
	return nil
}

func (s *Settings) validity() validity.Config {
	cfg := validity.DefaultConfig()
	cfg.LandPolicy = validity.LandPolicy(strings.ToLower(s.Validity.LandPolicy))
	cfg.AllowedTypes = s.Validity.AllowedTypes
	return cfg
}

// EnrichmentConfig returns the enhancer pipeline configuration.
func (s *Settings) EnrichmentConfig() enhancer.Config {
	return enhancer.Config{
		Concurrency: s.Enrichment.Concurrency,
		Delay:       s.Enrichment.Delay,
		Timeout:     s.Enrichment.Timeout,
	}
}

// Enhancers builds the configured enhancers; none when enrichment is off.
func (s *Settings) Enhancers() []enhancer.Enhancer {
	if !s.Enrichment.Enabled {
		return nil
	}
	return []enhancer.Enhancer{
		enhancer.NewWikimediaEnhancer(
			enhancer.WithEndpoint(s.Enrichment.Endpoint),
			enhancer.WithCache(s.Enrichment.CacheTTL, constants.CacheCleanupInterval),
			enhancer.WithThumbSize(s.Enrichment.ThumbSize),
		),
	}
}

// ReconcilerOptions converts the settings into reconciler options.
func (s *Settings) ReconcilerOptions() []reconciler.Option {
	return []reconciler.Option{
		reconciler.WithGridPrecision(s.GridPrecision),
		reconciler.WithMatchConfig(s.Match),
		reconciler.WithValidityConfig(s.validity()),
		reconciler.WithEnhancers(s.Enhancers()...),
		reconciler.WithEnrichmentConfig(s.EnrichmentConfig()),
		reconciler.WithProvenance(s.Provenance),
	}
}

// TransportOptions configures the HTTP client used for remote batches.
func (s *Settings) TransportOptions() []transport.Option {
	opts := []transport.Option{
		transport.WithUserAgent(constants.UserAgent),
		transport.WithHTTPClient(&http.Client{Timeout: s.Sources.Timeout}),
	}
	if s.Sources.APIKey != "" {
		opts = append(opts, transport.WithAuth(transport.AuthFor(s.Sources.AuthHeader), s.Sources.APIKey))
	}
	return opts
}

// Filter builds a validity filter from the settings.
func (s *Settings) Filter() (*validity.Filter, error) {
	return validity.New(s.validity())
}
