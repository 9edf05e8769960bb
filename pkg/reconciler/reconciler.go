// Package reconciler runs the merge pipeline: batches are normalized,
// filtered, optionally enriched, matched against the catalog and merged
// into it, one record at a time in input order.
package reconciler

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/stonemap/internal/metrics"
	"github.com/agentstation/stonemap/pkg/differ"
	"github.com/agentstation/stonemap/pkg/enhancer"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/match"
	"github.com/agentstation/stonemap/pkg/merge"
	"github.com/agentstation/stonemap/pkg/normalize"
	"github.com/agentstation/stonemap/pkg/provenance"
	"github.com/agentstation/stonemap/pkg/quality"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/slug"
	"github.com/agentstation/stonemap/pkg/spatial"
	"github.com/agentstation/stonemap/pkg/validity"
)

// Reconciler merges batches of source records into a catalog.
type Reconciler interface {
	// Run processes batches in order and returns the resulting catalog.
	// Each call starts from the baseline; no state is shared between runs.
	Run(ctx context.Context, batches []sites.Batch) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	opts     *options
	filter   *validity.Filter
	scorer   *quality.Scorer
	pipeline *enhancer.Pipeline
	metrics  *metrics.Pipeline
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	filter, err := validity.New(o.validity)
	if err != nil {
		return nil, err
	}

	m := o.metrics
	if m == nil {
		m = metrics.MustNewPipeline()
	}

	scorer := o.scorer
	if scorer == nil {
		scorer = quality.NewScorer()
	}

	return &reconciler{
		opts:   o,
		filter: filter,
		scorer: scorer,
		pipeline: enhancer.NewPipeline(o.enhancers,
			enhancer.WithConfig(o.enrichment),
			enhancer.WithObserver(m.ObserveEnrichment),
		),
		metrics: m,
	}, nil
}

// runState holds the mutable state of one Run call.
type runState struct {
	catalog *sites.Catalog
	index   *spatial.Index
	slugs   *slug.Registry
	matcher *match.Matcher
	merger  *merge.Merger
	tracker provenance.Tracker
	result  *Result
}

// Run processes the batches and builds the result.
func (r *reconciler) Run(ctx context.Context, batches []sites.Batch) (*Result, error) {
	runID := uuid.NewString()
	ctx = logging.WithRun(ctx, runID)
	logger := logging.FromContext(ctx)

	st, err := r.initialize(runID)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("batches", len(batches)).
		Int("baseline_sites", st.catalog.Len()).
		Int("enhancers", r.pipeline.Len()).
		Msg("Starting merge run")

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("merge run stopped before batch %q: %w: %w", b.Name, errors.ErrCanceled, err)
		}
		r.runBatch(logging.WithBatch(ctx, b.Name), st, b)
		st.result.Metadata.Batches = append(st.result.Metadata.Batches, b.Name)
	}

	return r.finish(ctx, st), nil
}

// initialize seeds catalog, index and slug registry from the baseline.
func (r *reconciler) initialize(runID string) (*runState, error) {
	catalog := sites.NewCatalog()
	if r.opts.baseline != nil {
		catalog = r.opts.baseline.Copy()
	}

	index := spatial.New(r.opts.precision)
	slugs := slug.NewRegistry(slug.WithMaxAttempts(r.opts.maxSlugAttempts))
	for _, s := range catalog.Sites() {
		index.Insert(s.CanonicalID, s.Coordinates)
		slugs.Reserve(s.CanonicalID)
	}

	matcher, err := match.New(r.opts.match, catalog, index)
	if err != nil {
		return nil, err
	}

	tracker := provenance.NewTracker(r.opts.tracking)
	result := NewResult(runID)
	result.Metadata.BaselineSites = catalog.Len()
	result.Metadata.Enhancers = r.pipeline.Enhancers()

	return &runState{
		catalog: catalog,
		index:   index,
		slugs:   slugs,
		matcher: matcher,
		merger:  merge.New(r.scorer, merge.WithTracker(tracker)),
		tracker: tracker,
		result:  result,
	}, nil
}

// runBatch processes one batch. A malformed batch is recorded and skipped.
func (r *reconciler) runBatch(ctx context.Context, st *runState, b sites.Batch) {
	logger := logging.FromContext(ctx)
	report := st.result.Report

	if err := b.Validate(); err != nil {
		logger.Warn().Err(err).Msg("Skipping malformed batch")
		report.AddBatchError(err)
		r.metrics.IncrementBatchErrors()
		return
	}

	stats := BatchStats{Name: b.Name, Received: len(b.Sites)}
	report.Counts.Received += len(b.Sites)

	if b.Catalog != nil {
		b.Sites = r.restore(ctx, st, b.Catalog, &stats)
	}

	accepted, verdicts := r.filterBatch(ctx, st, b, &stats)
	accepted = r.enrich(ctx, st, b.Name, accepted, &stats)

	for i, n := range accepted {
		r.place(ctx, st, b.Name, n, verdicts[i], &stats)
	}

	report.Batches = append(report.Batches, stats)
	logger.Info().
		Int("received", stats.Received).
		Int("accepted", stats.Accepted).
		Int("rejected", stats.Rejected).
		Int("restored", stats.Restored).
		Int("created", stats.Created).
		Int("merged", stats.Merged).
		Int("conflicts", stats.Conflicts).
		Msg("Batch merged")
}

// restore seeds the sites of a previous catalog the way initialize seeds
// the baseline: ids and contributing sources are kept. A site whose id is
// already taken by the same site (a shared source or within the
// near-certain radius) only gains the sources it was missing. Other
// collisions are returned as records for the regular pipeline.
func (r *reconciler) restore(ctx context.Context, st *runState, prev *sites.Catalog, stats *BatchStats) []sites.SourceRecord {
	logger := logging.FromContext(ctx)
	report := st.result.Report

	rest := []sites.SourceRecord{}
	for _, s := range prev.Sites() {
		existing, taken := st.catalog.Get(s.CanonicalID)
		nearby := st.index.Query(s.Coordinates, r.opts.match.NearCertainMeters)
		owned, shared := true, false
		for _, ref := range s.ContributingSources {
			owner, ok := st.catalog.FindByRef(ref)
			if !ok {
				continue
			}
			if owner.CanonicalID != s.CanonicalID {
				owned = false
				break
			}
			shared = true
		}

		switch {
		case !owned:
			rest = append(rest, sites.SiteRecord(s))

		case taken && (shared || slices.ContainsFunc(nearby, func(h spatial.Hit) bool { return h.ID == s.CanonicalID })):
			for _, ref := range s.ContributingSources {
				if !existing.AddSource(ref) {
					continue
				}
				if err := st.catalog.Link(ref, existing.CanonicalID); err != nil {
					report.addFailure(stats.Name, ref.String(), err)
				}
			}
			stats.AlreadyMerged++
			report.Counts.AlreadyMerged++

		case taken || len(nearby) > 0:
			rest = append(rest, sites.SiteRecord(s))

		default:
			site := s.Copy()
			if err := st.catalog.Add(site); err != nil {
				report.addFailure(stats.Name, s.CanonicalID, err)
				logger.Error().Err(err).Str("site_id", s.CanonicalID).Msg("Failed to restore site")
				continue
			}
			st.index.Insert(site.CanonicalID, site.Coordinates)
			st.slugs.Reserve(site.CanonicalID)
			stats.Restored++
			report.Counts.Restored++
		}
	}

	logger.Debug().
		Int("restored", stats.Restored).
		Int("remaining", len(rest)).
		Msg("Catalog batch restored")
	return rest
}

// filterBatch normalizes every record and keeps the accepted ones in order.
func (r *reconciler) filterBatch(ctx context.Context, st *runState, b sites.Batch, stats *BatchStats) ([]normalize.Normalized, []validity.Verdict) {
	logger := logging.FromContext(ctx)
	report := st.result.Report

	var (
		accepted []normalize.Normalized
		verdicts []validity.Verdict
	)
	for _, rec := range b.Sites {
		n := normalize.Record(rec)
		v := r.filter.Check(n)
		if !v.Accepted {
			stats.Rejected++
			report.addRejection(Rejection{
				Batch:          b.Name,
				SourceRecordID: rec.SourceID,
				SourceKind:     rec.SourceKind,
				Name:           n.Record.RawName,
				Reason:         v.Reason,
				Pattern:        v.Pattern,
			})
			r.metrics.RecordOutcome(string(rec.SourceKind), metrics.OutcomeRejected)
			r.metrics.RecordRejection(string(v.Reason), v.Pattern)
			logger.Debug().
				Err(v.Err(rec.Ref().String())).
				Str("pattern", v.Pattern).
				Msg("Record rejected")
			continue
		}
		accepted = append(accepted, n)
		verdicts = append(verdicts, v)
	}

	stats.Accepted += len(accepted)
	report.Counts.Accepted += len(accepted)
	return accepted, verdicts
}

// enrich runs the enhancers over the accepted records and renormalizes the
// output. Order is preserved.
func (r *reconciler) enrich(ctx context.Context, st *runState, batch string, accepted []normalize.Normalized, stats *BatchStats) []normalize.Normalized {
	if r.pipeline.Len() == 0 || len(accepted) == 0 {
		return accepted
	}

	recs := make([]sites.SourceRecord, len(accepted))
	for i, n := range accepted {
		recs[i] = n.Record
	}

	enriched, failures := r.pipeline.Batch(ctx, recs)
	for _, err := range failures {
		stats.EnrichmentFailures++
		st.result.Report.addEnrichmentFailure(batch, err)
	}

	out := make([]normalize.Normalized, len(enriched))
	for i, rec := range enriched {
		out[i] = normalize.Record(rec)
	}
	return out
}

// place matches one accepted record and merges it or creates a site.
func (r *reconciler) place(ctx context.Context, st *runState, batch string, n normalize.Normalized, v validity.Verdict, stats *BatchStats) {
	rec := n.Record
	ref := rec.Ref()
	report := st.result.Report
	logger := logging.FromContext(ctx).With().Str("record", ref.String()).Logger()

	r.metrics.RecordOutcome(string(rec.SourceKind), metrics.OutcomeAccepted)
	if len(v.Flags) > 0 {
		stats.Flagged++
		report.Counts.Flagged++
		for _, f := range v.Flags {
			r.metrics.RecordFlag(f)
		}
	}

	d := st.matcher.Match(n)
	r.metrics.RecordDecision(string(d.Reason))

	switch {
	case d.Reason == match.ReasonAlreadyMerged:
		stats.AlreadyMerged++
		report.Counts.AlreadyMerged++
		logger.Debug().Str("site_id", d.MatchedCanonicalID).Msg("Record already merged")

	case d.Matched():
		if d.Reason == match.ReasonConflicting {
			stats.Conflicts++
			report.addConflict(batch, d)
			r.metrics.IncrementConflicts()
			logger.Warn().
				Err(d.Err()).
				Str("site_id", d.MatchedCanonicalID).
				Float64("distance_m", d.DistanceMeters).
				Msg("Conflicting match, attaching to nearest site")
		}
		r.mergeInto(&logger, st, batch, d, rec, stats)

	default:
		r.create(&logger, st, batch, rec, v, stats)
	}
}

func (r *reconciler) mergeInto(logger *zerolog.Logger, st *runState, batch string, d match.Decision, rec sites.SourceRecord, stats *BatchStats) {
	site, ok := st.catalog.Get(d.MatchedCanonicalID)
	if !ok {
		st.result.Report.addFailure(batch, rec.Ref().String(), errors.NewNotFoundError("site", d.MatchedCanonicalID))
		return
	}

	res := st.merger.Merge(site, rec)
	if err := st.catalog.Link(rec.Ref(), site.CanonicalID); err != nil {
		st.result.Report.addFailure(batch, rec.Ref().String(), err)
		logger.Error().Err(err).Msg("Failed to link record")
		return
	}

	stats.Merged++
	st.result.Report.Counts.Merged++
	r.metrics.IncrementMerged()
	logger.Debug().
		Str("site_id", site.CanonicalID).
		Str("reason", string(d.Reason)).
		Float64("distance_m", d.DistanceMeters).
		Float64("similarity", d.NameSimilarity).
		Strs("changed", res.Changed).
		Int("score", res.Score).
		Msg("Record merged")
}

func (r *reconciler) create(logger *zerolog.Logger, st *runState, batch string, rec sites.SourceRecord, v validity.Verdict, stats *BatchStats) {
	id, err := st.slugs.Assign(rec.RawName)
	if err != nil {
		st.result.Report.addFailure(batch, rec.Ref().String(), err)
		logger.Error().Err(err).Msg("Failed to assign identifier")
		return
	}

	site := st.merger.Seed(id, rec)
	for _, f := range v.Flags {
		site.AddFlag(f)
	}
	if err := st.catalog.Add(site); err != nil {
		st.result.Report.addFailure(batch, rec.Ref().String(), err)
		logger.Error().Err(err).Msg("Failed to add site")
		return
	}
	st.index.Insert(id, site.Coordinates)

	stats.Created++
	st.result.Report.Counts.Created++
	r.metrics.IncrementCreated()
	logger.Debug().Str("site_id", id).Int("score", site.QualityScore).Msg("Site created")
}

// finish computes the changeset and closes the result.
func (r *reconciler) finish(ctx context.Context, st *runState) *Result {
	res := st.result
	res.Catalog = st.catalog
	res.Changeset = differ.New().Catalogs(r.opts.baseline, st.catalog)
	if st.tracker.Enabled() {
		res.Provenance = st.tracker.Map()
	}
	res.Finalize()

	r.metrics.SetCatalogSites(st.catalog.Len())

	logging.FromContext(ctx).Info().
		Int("sites", st.catalog.Len()).
		Int("created", res.Report.Counts.Created).
		Int("merged", res.Report.Counts.Merged).
		Int("rejected", res.Report.Counts.Rejected).
		Int("conflicts", res.Report.Counts.Conflicts).
		Dur("duration", res.Metadata.Duration).
		Msg("Merge run complete")
	return res
}
