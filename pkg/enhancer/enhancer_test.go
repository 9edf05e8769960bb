package enhancer

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/sites"
)

// stubEnhancer is a test implementation of the Enhancer interface.
type stubEnhancer struct {
	name       string
	priority   int
	enhance    func(context.Context, sites.SourceRecord) (sites.SourceRecord, error)
	canEnhance func(sites.SourceRecord) bool
}

func (e *stubEnhancer) Name() string  { return e.name }
func (e *stubEnhancer) Priority() int { return e.priority }
func (e *stubEnhancer) CanEnhance(rec sites.SourceRecord) bool {
	if e.canEnhance != nil {
		return e.canEnhance(rec)
	}
	return true
}
func (e *stubEnhancer) Enhance(ctx context.Context, rec sites.SourceRecord) (sites.SourceRecord, error) {
	if e.enhance != nil {
		return e.enhance(ctx, rec)
	}
	return rec, nil
}

func record(id, name string) sites.SourceRecord {
	return sites.SourceRecord{
		SourceID:    id,
		SourceKind:  sites.KindCrowdGeo,
		RawName:     name,
		Coordinates: sites.Coordinates{Lat: 51.1789, Lon: -1.8262},
	}
}

func TestPipelineOrdersByPriority(t *testing.T) {
	var calls []string
	mk := func(name string, prio int) Enhancer {
		return &stubEnhancer{name: name, priority: prio, enhance: func(_ context.Context, r sites.SourceRecord) (sites.SourceRecord, error) {
			calls = append(calls, name)
			return r, nil
		}}
	}

	p := NewPipeline([]Enhancer{mk("low", 1), mk("high", 10), mk("mid", 5)}, WithDelay(0))
	assert.Equal(t, []string{"high", "mid", "low"}, p.Enhancers())
	assert.Equal(t, 3, p.Len())

	_, failures := p.Enhance(context.Background(), record("node/1", "Stonehenge"))
	assert.Empty(t, failures)
	assert.Equal(t, []string{"high", "mid", "low"}, calls)
}

func TestPipelineSkipsFailedEnhancer(t *testing.T) {
	failing := &stubEnhancer{name: "broken", priority: 10, enhance: func(context.Context, sites.SourceRecord) (sites.SourceRecord, error) {
		return sites.SourceRecord{}, errors.NewAPIError("broken", 503, "down")
	}}
	image := &stubEnhancer{name: "image", priority: 1, enhance: func(_ context.Context, r sites.SourceRecord) (sites.SourceRecord, error) {
		r.ImageURL = "https://img.example.org/a.jpg"
		return r, nil
	}}

	p := NewPipeline([]Enhancer{failing, image}, WithDelay(0))
	rec, failures := p.Enhance(context.Background(), record("node/1", "Stonehenge"))

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], errors.ErrEnrichmentUnavailable)
	assert.ErrorIs(t, failures[0], errors.ErrProviderUnavailable)

	var enrichErr *errors.EnrichmentError
	require.ErrorAs(t, failures[0], &enrichErr)
	assert.Equal(t, "broken", enrichErr.Enhancer)
	assert.Equal(t, "crowd_geo:node/1", enrichErr.RecordID)

	assert.Equal(t, "Stonehenge", rec.RawName)
	assert.Equal(t, "https://img.example.org/a.jpg", rec.ImageURL)
}

func TestPipelineCanEnhanceFilter(t *testing.T) {
	var called atomic.Int32
	e := &stubEnhancer{
		name:       "image",
		canEnhance: func(r sites.SourceRecord) bool { return r.ImageURL == "" },
		enhance: func(_ context.Context, r sites.SourceRecord) (sites.SourceRecord, error) {
			called.Add(1)
			return r, nil
		},
	}
	p := NewPipeline([]Enhancer{e}, WithDelay(0))

	withImage := record("node/1", "Stonehenge")
	withImage.ImageURL = "https://img.example.org/s.jpg"
	_, _ = p.Enhance(context.Background(), withImage)
	assert.Equal(t, int32(0), called.Load())

	_, _ = p.Enhance(context.Background(), record("node/2", "Avebury"))
	assert.Equal(t, int32(1), called.Load())
}

func TestPipelineTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	slow := &stubEnhancer{name: "slow", enhance: func(ctx context.Context, r sites.SourceRecord) (sites.SourceRecord, error) {
		<-ctx.Done()
		return r, ctx.Err()
	}}
	p := NewPipeline([]Enhancer{slow}, WithDelay(0), WithTimeout(10*time.Millisecond))

	rec, failures := p.Enhance(context.Background(), record("node/1", "Stonehenge"))
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], context.DeadlineExceeded)
	assert.Equal(t, "Stonehenge", rec.RawName)
}

func TestPipelineObserver(t *testing.T) {
	var seen []string
	observer := func(name string, elapsed time.Duration, err error) {
		seen = append(seen, fmt.Sprintf("%s:%t", name, err == nil))
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	}
	ok := &stubEnhancer{name: "ok"}
	p := NewPipeline([]Enhancer{ok}, WithDelay(0), WithObserver(observer))

	_, _ = p.Enhance(context.Background(), record("node/1", "Stonehenge"))
	assert.Equal(t, []string{"ok:true"}, seen)
}

func TestBatchPreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak atomic.Int32
	e := &stubEnhancer{name: "summary", enhance: func(_ context.Context, r sites.SourceRecord) (sites.SourceRecord, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		if r.SourceID == "node/3" {
			return r, errors.NewAPIError("summary", 500, "boom")
		}
		r.RawSummary = "summary of " + r.RawName
		return r, nil
	}}

	recs := make([]sites.SourceRecord, 8)
	for i := range recs {
		recs[i] = record(fmt.Sprintf("node/%d", i), fmt.Sprintf("Site %d", i))
	}

	p := NewPipeline([]Enhancer{e}, WithDelay(0), WithConcurrency(3))
	out, failures := p.Batch(context.Background(), recs)

	require.Len(t, out, len(recs))
	for i, r := range out {
		assert.Equal(t, recs[i].SourceID, r.SourceID)
		if r.SourceID == "node/3" {
			assert.Empty(t, r.RawSummary)
			continue
		}
		assert.Equal(t, "summary of "+recs[i].RawName, r.RawSummary)
	}
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], errors.ErrEnrichmentUnavailable)
	assert.LessOrEqual(t, peak.Load(), int32(3))

	// inputs are not modified
	assert.Empty(t, recs[0].RawSummary)
}

func TestBatchCanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := &stubEnhancer{name: "never"}
	p := NewPipeline([]Enhancer{e}, WithDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recs := []sites.SourceRecord{record("node/1", "A"), record("node/2", "B")}
	out, failures := p.Batch(ctx, recs)
	assert.Equal(t, recs, out)
	assert.Len(t, failures, 2)
}

func TestBatchWithoutEnhancers(t *testing.T) {
	p := NewPipeline(nil)
	recs := []sites.SourceRecord{record("node/1", "A")}
	out, failures := p.Batch(context.Background(), recs)
	assert.Equal(t, recs, out)
	assert.Nil(t, failures)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Delay)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}
