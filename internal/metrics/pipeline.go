// Package metrics provides the Prometheus collectors of a merge run and
// their export to a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentstation/stonemap/pkg/errors"
)

// Record outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

const namespace = "stonemap"

// Pipeline contains all metrics of the merge pipeline.
type Pipeline struct {
	RecordsTotal       *prometheus.CounterVec
	RejectionsTotal    *prometheus.CounterVec
	DecisionsTotal     *prometheus.CounterVec
	SitesCreated       prometheus.Counter
	SitesMerged        prometheus.Counter
	ConflictsTotal     prometheus.Counter
	FlaggedTotal       *prometheus.CounterVec
	EnrichmentFailures *prometheus.CounterVec
	EnrichmentDuration *prometheus.HistogramVec
	BatchErrors        prometheus.Counter
	CatalogSites       prometheus.Gauge
	registry           *prometheus.Registry
}

// NewPipeline creates the metrics and registers them with registry.
func NewPipeline(registry *prometheus.Registry) (*Pipeline, error) {
	if registry == nil {
		return nil, errors.NewValidationError("registry", nil, "registry is required")
	}
	m := &Pipeline{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

// MustNewPipeline creates pipeline metrics on a fresh registry.
func MustNewPipeline() *Pipeline {
	m, err := NewPipeline(prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Pipeline) initMetrics() {
	m.RecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_total",
		Help:      "Source records processed, by batch kind and outcome.",
	}, []string{"kind", "outcome"})

	m.RejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejections_total",
		Help:      "Source records rejected by the validity filter, by reason and pattern.",
	}, []string{"reason", "pattern"})

	m.DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "match_decisions_total",
		Help:      "Matcher decisions, by reason.",
	}, []string{"reason"})

	m.SitesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sites_created_total",
		Help:      "Canonical sites created.",
	})

	m.SitesMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sites_merged_total",
		Help:      "Source records merged into an existing site.",
	})

	m.ConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conflicting_matches_total",
		Help:      "Records that qualified against more than one site.",
	})

	m.FlaggedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flagged_total",
		Help:      "Accepted records carrying a review flag, by flag.",
	}, []string{"flag"})

	m.EnrichmentFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrichment_failures_total",
		Help:      "Failed enrichment calls, by enhancer.",
	}, []string{"enhancer"})

	m.EnrichmentDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "enrichment_duration_seconds",
		Help:      "Duration of enrichment calls in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"enhancer"})

	m.BatchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_errors_total",
		Help:      "Batches skipped as malformed.",
	})

	m.CatalogSites = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_sites",
		Help:      "Canonical sites in the catalog after the run.",
	})
}

// Registry returns the registry the metrics are registered with.
func (m *Pipeline) Registry() *prometheus.Registry {
	return m.registry
}

// RecordOutcome counts one processed record.
func (m *Pipeline) RecordOutcome(kind, outcome string) {
	m.RecordsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordRejection counts one rejected record.
func (m *Pipeline) RecordRejection(reason, pattern string) {
	m.RejectionsTotal.WithLabelValues(reason, pattern).Inc()
}

// RecordDecision counts one matcher decision.
func (m *Pipeline) RecordDecision(reason string) {
	m.DecisionsTotal.WithLabelValues(reason).Inc()
}

// IncrementCreated counts one created site.
func (m *Pipeline) IncrementCreated() {
	m.SitesCreated.Inc()
}

// IncrementMerged counts one merge into an existing site.
func (m *Pipeline) IncrementMerged() {
	m.SitesMerged.Inc()
}

// IncrementConflicts counts one conflicting match.
func (m *Pipeline) IncrementConflicts() {
	m.ConflictsTotal.Inc()
}

// RecordFlag counts one flagged record.
func (m *Pipeline) RecordFlag(flag string) {
	m.FlaggedTotal.WithLabelValues(flag).Inc()
}

// ObserveEnrichment records the duration and outcome of one enrichment call.
// Its signature matches enhancer.Observer.
func (m *Pipeline) ObserveEnrichment(enhancer string, elapsed time.Duration, err error) {
	m.EnrichmentDuration.WithLabelValues(enhancer).Observe(elapsed.Seconds())
	if err != nil {
		m.EnrichmentFailures.WithLabelValues(enhancer).Inc()
	}
}

// IncrementBatchErrors counts one malformed batch.
func (m *Pipeline) IncrementBatchErrors() {
	m.BatchErrors.Inc()
}

// SetCatalogSites sets the catalog size gauge.
func (m *Pipeline) SetCatalogSites(n int) {
	m.CatalogSites.Set(float64(n))
}

// Collect implements the prometheus.Collector interface.
func (m *Pipeline) Collect(ch chan<- prometheus.Metric) {
	m.RecordsTotal.Collect(ch)
	m.RejectionsTotal.Collect(ch)
	m.DecisionsTotal.Collect(ch)
	ch <- m.SitesCreated
	ch <- m.SitesMerged
	ch <- m.ConflictsTotal
	m.FlaggedTotal.Collect(ch)
	m.EnrichmentFailures.Collect(ch)
	m.EnrichmentDuration.Collect(ch)
	ch <- m.BatchErrors
	ch <- m.CatalogSites
}

// Describe implements the prometheus.Collector interface.
func (m *Pipeline) Describe(ch chan<- *prometheus.Desc) {
	m.RecordsTotal.Describe(ch)
	m.RejectionsTotal.Describe(ch)
	m.DecisionsTotal.Describe(ch)
	ch <- m.SitesCreated.Desc()
	ch <- m.SitesMerged.Desc()
	ch <- m.ConflictsTotal.Desc()
	m.FlaggedTotal.Describe(ch)
	m.EnrichmentFailures.Describe(ch)
	m.EnrichmentDuration.Describe(ch)
	ch <- m.BatchErrors.Desc()
	ch <- m.CatalogSites.Desc()
}
