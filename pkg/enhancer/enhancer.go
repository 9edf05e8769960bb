// Package enhancer adds optional fields (images, summaries, reference links)
// to source records before they are matched. Enrichment is best effort: a
// failing enhancer never stops a record from being merged.
package enhancer

import (
	"context"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/sites"
)

// Enhancer defines the interface for record enrichment.
type Enhancer interface {
	// Name returns the enhancer name
	Name() string

	// CanEnhance reports whether the record is missing anything this enhancer supplies
	CanEnhance(rec sites.SourceRecord) bool

	// Enhance returns a copy of rec with added fields
	Enhance(ctx context.Context, rec sites.SourceRecord) (sites.SourceRecord, error)

	// Priority returns the priority of this enhancer (higher = applied first)
	Priority() int
}

// Observer is told about every enhancer call. Used for metrics.
type Observer func(enhancer string, elapsed time.Duration, err error)

// Config holds the pipeline tunables.
type Config struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	Delay       time.Duration `mapstructure:"delay" yaml:"delay"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultConfig returns the default enrichment settings.
func DefaultConfig() Config {
	return Config{
		Concurrency: constants.EnrichmentConcurrency,
		Delay:       constants.EnrichmentDelay,
		Timeout:     constants.EnrichmentTimeout,
	}
}

// Pipeline runs a set of enhancers over records.
type Pipeline struct {
	enhancers []Enhancer
	cfg       Config
	limiter   *rate.Limiter
	observer  Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig replaces the pipeline settings.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) { p.cfg = cfg }
}

// WithConcurrency bounds the number of records enriched at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.cfg.Concurrency = n }
}

// WithDelay sets the minimum spacing between outbound calls.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.cfg.Delay = d }
}

// WithTimeout sets the deadline of each enhancer call.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.cfg.Timeout = d }
}

// WithObserver registers a callback invoked after every enhancer call.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// NewPipeline creates a pipeline. Enhancers run highest priority first;
// equal priorities keep their given order.
func NewPipeline(enhancers []Enhancer, opts ...Option) *Pipeline {
	sorted := slices.Clone(enhancers)
	slices.SortStableFunc(sorted, func(a, b Enhancer) int {
		return b.Priority() - a.Priority()
	})

	p := &Pipeline{enhancers: sorted, cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.Concurrency < 1 {
		p.cfg.Concurrency = 1
	}

	limit := rate.Inf
	if p.cfg.Delay > 0 {
		limit = rate.Every(p.cfg.Delay)
	}
	p.limiter = rate.NewLimiter(limit, 1)
	return p
}

// Len returns the number of enhancers.
func (p *Pipeline) Len() int {
	return len(p.enhancers)
}

// Enhancers returns the enhancer names in execution order.
func (p *Pipeline) Enhancers() []string {
	names := make([]string, len(p.enhancers))
	for i, e := range p.enhancers {
		names[i] = e.Name()
	}
	return names
}

// Enhance applies every applicable enhancer to one record. Failed enhancers
// are skipped and reported as *errors.EnrichmentError values.
func (p *Pipeline) Enhance(ctx context.Context, rec sites.SourceRecord) (sites.SourceRecord, []error) {
	var failures []error
	ref := rec.Ref().String()

	for _, e := range p.enhancers {
		if !e.CanEnhance(rec) {
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			failures = append(failures, errors.NewEnrichmentError(e.Name(), ref, err))
			break
		}

		result, err := p.call(ctx, e, rec)
		if err != nil {
			logging.FromContext(ctx).Warn().
				Err(err).
				Str("enhancer", e.Name()).
				Str("record", ref).
				Msg("Enhancer failed for record")
			failures = append(failures, errors.NewEnrichmentError(e.Name(), ref, err))
			continue
		}
		rec = result
	}

	return rec, failures
}

func (p *Pipeline) call(ctx context.Context, e Enhancer, rec sites.SourceRecord) (sites.SourceRecord, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := e.Enhance(ctx, rec)
	if p.observer != nil {
		p.observer(e.Name(), time.Since(start), err)
	}
	if err != nil {
		return rec, err
	}
	return result, nil
}

// Batch enriches records concurrently. The returned slice has the same
// length and order as recs; failures are sorted by record index.
func (p *Pipeline) Batch(ctx context.Context, recs []sites.SourceRecord) ([]sites.SourceRecord, []error) {
	out := make([]sites.SourceRecord, len(recs))
	copy(out, recs)
	if len(p.enhancers) == 0 || len(recs) == 0 {
		return out, nil
	}

	perRecord := make([][]error, len(recs))

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i := range recs {
		g.Go(func() error {
			rec, failures := p.Enhance(ctx, recs[i])
			out[i] = rec
			perRecord[i] = failures
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for _, errs := range perRecord {
		failures = append(failures, errs...)
	}
	if len(failures) > 0 {
		logging.FromContext(ctx).Debug().
			Int("records", len(recs)).
			Int("failures", len(failures)).
			Msg("Enrichment finished with failures")
	}
	return out, failures
}
