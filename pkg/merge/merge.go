// Package merge combines source records into canonical sites field by
// field. Empty fields are filled, placeholder summaries are replaced, and
// nothing non-empty is ever cleared. Coordinates are fixed by the record
// that created the site.
package merge

import (
	"github.com/agentstation/stonemap/pkg/provenance"
	"github.com/agentstation/stonemap/pkg/quality"
	"github.com/agentstation/stonemap/pkg/sites"
)

// Field names used in results and provenance.
const (
	FieldName         = "name"
	FieldSummary      = "summary"
	FieldSiteType     = "siteType"
	FieldCoordinates  = "coordinates"
	FieldImageURL     = "imageUrl"
	FieldReferenceURL = "referenceUrl"
	FieldCountry      = "country"
	FieldSourceIDs    = "sourceIds"
)

// Result lists what a merge changed.
type Result struct {
	Changed     []string // fields whose value changed
	SourceAdded bool     // the record's ref was appended to contributingSources
	Score       int      // site score after the merge
}

// Merger applies field rules. It is not safe for concurrent use.
type Merger struct {
	scorer  *quality.Scorer
	tracker provenance.Tracker

	// score of the record that supplied each site's current name
	nameScores map[string]int
}

// Option configures a Merger.
type Option func(*Merger)

// WithTracker records every field decision.
func WithTracker(t provenance.Tracker) Option {
	return func(m *Merger) { m.tracker = t }
}

// New creates a merger. A nil scorer uses the default scorer.
func New(scorer *quality.Scorer, opts ...Option) *Merger {
	if scorer == nil {
		scorer = quality.NewScorer()
	}
	m := &Merger{scorer: scorer, tracker: provenance.NewTracker(false), nameScores: make(map[string]int)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scorer returns the scorer used for name decisions and rescoring.
func (m *Merger) Scorer() *quality.Scorer {
	return m.scorer
}

// Seed creates a new canonical site with the given id from a record.
func (m *Merger) Seed(id string, rec sites.SourceRecord) *sites.CanonicalSite {
	site := &sites.CanonicalSite{
		CanonicalID:         id,
		Name:                rec.RawName,
		Summary:             rec.RawSummary,
		SiteType:            rec.SiteTypeLabel,
		Coordinates:         rec.Coordinates,
		ImageURL:            rec.ImageURL,
		ReferenceURL:        rec.ReferenceURL,
		Country:             rec.Country,
		ContributingSources: []sites.SourceRef{rec.Ref()},
	}
	if rec.SourceKind.Structured() {
		site.SourceIDs = map[sites.SourceKind]string{rec.SourceKind: rec.SourceID}
	}
	site.QualityScore = m.scorer.Site(site)
	score := m.scorer.Record(rec)
	m.nameScores[id] = score

	if m.tracker.Enabled() {
		seeded := []struct {
			field string
			value any
		}{
			{FieldName, site.Name},
			{FieldSummary, site.Summary},
			{FieldSiteType, site.SiteType},
			{FieldCoordinates, site.Coordinates},
			{FieldImageURL, site.ImageURL},
			{FieldReferenceURL, site.ReferenceURL},
			{FieldCountry, site.Country},
		}
		for _, s := range seeded {
			if s.value == "" {
				continue
			}
			m.tracker.Track(id, s.field, provenance.Provenance{
				Source: rec.Ref(), Value: s.value, Applied: true, Score: score, Reason: provenance.ReasonSeeded,
			})
		}
	}
	return site
}

// Merge folds a matched record into site in place. A record whose ref
// already contributed is ignored.
func (m *Merger) Merge(site *sites.CanonicalSite, rec sites.SourceRecord) Result {
	ref := rec.Ref()
	if site.HasSource(ref) {
		return Result{Score: site.QualityScore}
	}

	d := &decider{m: m, site: site, ref: ref, score: m.scorer.Record(rec)}

	// name: strictly higher score than the record that supplied it wins
	switch {
	case rec.RawName == "" || rec.RawName == site.Name:
	case site.Name == "":
		d.apply(FieldName, &site.Name, rec.RawName, provenance.ReasonFilled)
		m.nameScores[site.CanonicalID] = d.score
	case d.score > m.nameScore(site):
		d.apply(FieldName, &site.Name, rec.RawName, provenance.ReasonHigherScore)
		m.nameScores[site.CanonicalID] = d.score
	default:
		d.keep(FieldName, rec.RawName)
	}

	// summary: fill when empty, replace the boilerplate only with a real summary
	switch {
	case rec.RawSummary == "" || rec.RawSummary == site.Summary:
	case site.Summary == "":
		d.apply(FieldSummary, &site.Summary, rec.RawSummary, provenance.ReasonFilled)
	case quality.Placeholder(site.Summary, site.Name) && !m.scorer.GenericSummary(rec.RawSummary, rec.RawName):
		d.apply(FieldSummary, &site.Summary, rec.RawSummary, provenance.ReasonReplacedGeneric)
	default:
		d.keep(FieldSummary, rec.RawSummary)
	}

	d.fill(FieldImageURL, &site.ImageURL, rec.ImageURL)
	d.fill(FieldReferenceURL, &site.ReferenceURL, rec.ReferenceURL)
	d.fill(FieldCountry, &site.Country, rec.Country)
	d.fill(FieldSiteType, &site.SiteType, rec.SiteTypeLabel)

	if rec.SourceKind.Structured() && rec.SourceID != "" {
		if site.SourceIDs[rec.SourceKind] == "" {
			if site.SourceIDs == nil {
				site.SourceIDs = make(map[sites.SourceKind]string)
			}
			site.SourceIDs[rec.SourceKind] = rec.SourceID
			d.changed = append(d.changed, FieldSourceIDs)
			d.track(FieldSourceIDs, rec.SourceID, nil, true, provenance.ReasonFilled)
		} else if site.SourceIDs[rec.SourceKind] != rec.SourceID {
			d.track(FieldSourceIDs, rec.SourceID, nil, false, provenance.ReasonKeptExisting)
		}
	}

	if rec.Coordinates != site.Coordinates {
		d.track(FieldCoordinates, rec.Coordinates, nil, false, provenance.ReasonNeverOverwrite)
	}

	site.AddSource(ref)
	site.QualityScore = m.scorer.Site(site)

	return Result{Changed: d.changed, SourceAdded: true, Score: site.QualityScore}
}

// nameScore returns the score of the record that supplied the site's name.
// Sites not seeded by this merger, such as baseline sites, fall back to
// the site score.
func (m *Merger) nameScore(site *sites.CanonicalSite) int {
	if score, ok := m.nameScores[site.CanonicalID]; ok {
		return score
	}
	return m.scorer.Site(site)
}

// decider applies and records the field decisions of one merge.
type decider struct {
	m       *Merger
	site    *sites.CanonicalSite
	ref     sites.SourceRef
	score   int
	changed []string
}

func (d *decider) apply(field string, dst *string, value, reason string) {
	prev := *dst
	*dst = value
	d.changed = append(d.changed, field)
	var previous any
	if prev != "" {
		previous = prev
	}
	d.track(field, value, previous, true, reason)
}

func (d *decider) keep(field, value string) {
	d.track(field, value, nil, false, provenance.ReasonKeptExisting)
}

// fill sets dst only when it is empty.
func (d *decider) fill(field string, dst *string, value string) {
	switch {
	case value == "" || value == *dst:
	case *dst == "":
		d.apply(field, dst, value, provenance.ReasonFilled)
	default:
		d.keep(field, value)
	}
}

func (d *decider) track(field string, value, previous any, applied bool, reason string) {
	d.m.tracker.Track(d.site.CanonicalID, field, provenance.Provenance{
		Source:        d.ref,
		Value:         value,
		PreviousValue: previous,
		Applied:       applied,
		Score:         d.score,
		Reason:        reason,
	})
}
