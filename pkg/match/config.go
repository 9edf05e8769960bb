package match

import (
	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/errors"
)

// Config holds the matching thresholds.
type Config struct {
	// NearCertainMeters: closer candidates match regardless of name
	NearCertainMeters float64 `json:"near_certain_meters" yaml:"near_certain_meters" mapstructure:"near_certain_meters"`
	// CorroboratedMeters: closer candidates match when the names are similar
	CorroboratedMeters float64 `json:"corroborated_meters" yaml:"corroborated_meters" mapstructure:"corroborated_meters"`
	// MaxSearchMeters: name-key matches are accepted up to this distance
	MaxSearchMeters float64 `json:"max_search_meters" yaml:"max_search_meters" mapstructure:"max_search_meters"`
	// NameSimilarity must be exceeded for corroboration
	NameSimilarity float64 `json:"name_similarity" yaml:"name_similarity" mapstructure:"name_similarity"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		NearCertainMeters:  constants.NearCertainMeters,
		CorroboratedMeters: constants.CorroboratedMeters,
		MaxSearchMeters:    constants.MaxSearchMeters,
		NameSimilarity:     constants.NameSimilarityThreshold,
	}
}

// Validate checks that the radii are increasing and the threshold is a fraction.
func (c Config) Validate() error {
	if c.NearCertainMeters <= 0 {
		return errors.NewValidationError("near_certain_meters", c.NearCertainMeters, "must be positive")
	}
	if c.CorroboratedMeters < c.NearCertainMeters {
		return errors.NewValidationError("corroborated_meters", c.CorroboratedMeters, "must not be below near_certain_meters")
	}
	if c.MaxSearchMeters < c.CorroboratedMeters {
		return errors.NewValidationError("max_search_meters", c.MaxSearchMeters, "must not be below corroborated_meters")
	}
	if c.NameSimilarity < 0 || c.NameSimilarity > 1 {
		return errors.NewValidationError("name_similarity", c.NameSimilarity, "must be between 0 and 1")
	}
	return nil
}

// Radii returns the search radii in the order they are tried.
func (c Config) Radii() []float64 {
	return []float64{c.NearCertainMeters, c.CorroboratedMeters, c.MaxSearchMeters}
}
