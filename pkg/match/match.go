// Package match decides whether an incoming record describes a site that is
// already in the catalog. Candidates come from the spatial index at growing
// radii; distance and name similarity decide which ones qualify.
package match

import (
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/normalize"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/spatial"
)

// Reason explains a decision.
type Reason string

// Decision reasons.
const (
	ReasonNearCertain      Reason = "near_certain_distance"
	ReasonNameCorroborated Reason = "name_corroborated"
	ReasonNameKey          Reason = "name_key_match"
	ReasonNoCandidate      Reason = "no_candidate"
	ReasonConflicting      Reason = "conflicting_match"
	ReasonAlreadyMerged    Reason = "already_merged"
)

// Decision is the audit record of one match evaluation. An empty
// MatchedCanonicalID means no site matched.
type Decision struct {
	SourceRecordID     string           `json:"sourceRecordId" yaml:"sourceRecordId"`
	SourceKind         sites.SourceKind `json:"sourceKind" yaml:"sourceKind"`
	MatchedCanonicalID string           `json:"matchedCanonicalId,omitempty" yaml:"matchedCanonicalId,omitempty"`
	Reason             Reason           `json:"reason" yaml:"reason"`
	DistanceMeters     float64          `json:"distanceMeters" yaml:"distanceMeters"`
	NameSimilarity     float64          `json:"nameSimilarity" yaml:"nameSimilarity"`
	ConflictingIDs     []string         `json:"conflictingIds,omitempty" yaml:"conflictingIds,omitempty"`
}

// Matched reports whether the record attaches to an existing site.
func (d Decision) Matched() bool {
	return d.MatchedCanonicalID != ""
}

// Ref returns the SourceRef of the evaluated record.
func (d Decision) Ref() sites.SourceRef {
	return sites.SourceRef{Kind: d.SourceKind, ID: d.SourceRecordID}
}

// Err returns a ConflictError for conflicting decisions, nil otherwise.
func (d Decision) Err() error {
	if d.Reason != ReasonConflicting {
		return nil
	}
	return errors.NewConflictError(d.Ref().String(), d.ConflictingIDs)
}

// Catalog is the read access the matcher needs.
type Catalog interface {
	Get(id string) (*sites.CanonicalSite, bool)
	FindByRef(ref sites.SourceRef) (*sites.CanonicalSite, bool)
}

// Index is the proximity query the matcher needs.
type Index interface {
	Query(c sites.Coordinates, radius float64) []spatial.Hit
}

// Matcher evaluates records against a catalog and its index.
type Matcher struct {
	cfg     Config
	catalog Catalog
	index   Index
}

// New creates a matcher.
func New(cfg Config, catalog Catalog, index Index) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{cfg: cfg, catalog: catalog, index: index}, nil
}

type candidate struct {
	id         string
	distance   float64
	similarity float64
	reason     Reason
}

// Match evaluates a normalized, accepted record.
func (m *Matcher) Match(n normalize.Normalized) Decision {
	rec := n.Record
	d := Decision{SourceRecordID: rec.SourceID, SourceKind: rec.SourceKind}

	if site, ok := m.catalog.FindByRef(rec.Ref()); ok {
		d.MatchedCanonicalID = site.CanonicalID
		d.Reason = ReasonAlreadyMerged
		d.NameSimilarity = Similarity(n.Key, normalize.Key(site.Name))
		return d
	}

	for _, radius := range m.cfg.Radii() {
		qualified := m.qualify(n, m.index.Query(rec.Coordinates, radius))
		if len(qualified) == 0 {
			continue
		}

		// hits arrive nearest first with insertion-order ties
		best := qualified[0]
		d.MatchedCanonicalID = best.id
		d.DistanceMeters = best.distance
		d.NameSimilarity = best.similarity
		d.Reason = best.reason
		if len(qualified) > 1 {
			d.Reason = ReasonConflicting
			for _, c := range qualified {
				d.ConflictingIDs = append(d.ConflictingIDs, c.id)
			}
		}
		return d
	}

	d.Reason = ReasonNoCandidate
	return d
}

// qualify applies the decision rule to a set of hits, keeping hit order.
func (m *Matcher) qualify(n normalize.Normalized, hits []spatial.Hit) []candidate {
	var out []candidate
	for _, h := range hits {
		site, ok := m.catalog.Get(h.ID)
		if !ok {
			continue
		}
		key := normalize.Key(site.Name)
		sim := Similarity(n.Key, key)

		var reason Reason
		switch {
		case h.Distance < m.cfg.NearCertainMeters:
			reason = ReasonNearCertain
		case h.Distance < m.cfg.CorroboratedMeters && sim > m.cfg.NameSimilarity:
			reason = ReasonNameCorroborated
		case h.Distance <= m.cfg.MaxSearchMeters && KeysMatch(n.Key, key):
			reason = ReasonNameKey
		default:
			continue
		}
		out = append(out, candidate{id: h.ID, distance: h.Distance, similarity: sim, reason: reason})
	}
	return out
}
