// Package constants provides shared constants used throughout the stonemap codebase.
// This includes matching thresholds, timeouts, limits and file permissions that
// must stay consistent between the library packages and the CLI.
package constants

import "time"

// Matching thresholds
const (
	// NearCertainMeters is the distance below which two records are the same site
	NearCertainMeters = 50.0

	// CorroboratedMeters is the distance below which a similar name confirms a match
	CorroboratedMeters = 500.0

	// MaxSearchMeters bounds the name-key match search
	MaxSearchMeters = 5000.0

	// NameSimilarityThreshold must be exceeded for a name to corroborate a match
	NameSimilarityThreshold = 0.5

	// DefaultGridPrecision is the number of decimal places kept in a grid cell key (about 11 m)
	DefaultGridPrecision = 4

	// MaxGridPrecision bounds the grid precision
	MaxGridPrecision = 7
)

// Scoring and identifier limits
const (
	// GenericSummaryLength is the length at or below which a summary counts as a placeholder
	GenericSummaryLength = 40

	// MaxQualityScore is the upper bound of the completeness score
	MaxQualityScore = 100

	// MaxSlugLength is the maximum length of a canonical id
	MaxSlugLength = 100

	// MaxSlugAttempts is the number of numeric suffixes tried before giving up
	MaxSlugAttempts = 10000

	// FallbackSlug is used when a name has no alphanumeric characters
	FallbackSlug = "site"
)

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for loading remote batches
	DefaultHTTPTimeout = 30 * time.Second

	// EnrichmentTimeout is the hard deadline for one enrichment call
	EnrichmentTimeout = 10 * time.Second
)

// Enrichment defaults
const (
	// EnrichmentConcurrency is the number of records enriched in parallel
	EnrichmentConcurrency = 4

	// EnrichmentDelay is the minimum interval between outbound enrichment requests
	EnrichmentDelay = 500 * time.Millisecond

	// CacheTTL is the time-to-live for memoized enrichment lookups
	CacheTTL = 24 * time.Hour

	// CacheCleanupInterval is how often expired cache entries are purged
	CacheCleanupInterval = 1 * time.Hour

	// UserAgent identifies stonemap to remote APIs
	UserAgent = "stonemap/1.0 (+https://github.com/agentstation/stonemap)"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
