// Package sites defines the data model of the megalithic site catalog:
// source records as they arrive from each source, the canonical sites they
// are merged into, and the ordered catalog that holds them.
package sites

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/paulmach/orb"

	"github.com/agentstation/stonemap/pkg/errors"
)

// SourceKind identifies the kind of source a record came from.
type SourceKind string

// Source kinds.
const (
	KindKnowledgeBase SourceKind = "knowledge_base"
	KindCrowdGeo      SourceKind = "crowd_geo"
	KindManual        SourceKind = "manual"
)

// Kinds lists every valid SourceKind.
var Kinds = []SourceKind{KindKnowledgeBase, KindCrowdGeo, KindManual}

// String returns the string representation of a source kind.
func (k SourceKind) String() string {
	return string(k)
}

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// Structured reports whether records of this kind carry a stable external id.
func (k SourceKind) Structured() bool {
	return k == KindKnowledgeBase || k == KindCrowdGeo
}

// UnmarshalText rejects unknown kinds so that bad batches fail at decode time.
func (k *SourceKind) UnmarshalText(text []byte) error {
	kind, err := ParseSourceKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseSourceKind parses a source kind string.
func ParseSourceKind(s string) (SourceKind, error) {
	kind := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", errors.NewValidationError("sourceKind", s, "unknown source kind")
	}
	return kind, nil
}

// Coordinates is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the coordinates are finite and within range.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// IsNullIsland reports whether the coordinates are exactly (0, 0).
func (c Coordinates) IsNullIsland() bool {
	return c.Lat == 0 && c.Lon == 0
}

// Point returns the coordinates as an orb.Point (lon, lat).
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// String returns "lat,lon" with six decimals.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// FromPoint converts an orb.Point back to Coordinates.
func FromPoint(p orb.Point) Coordinates {
	return Coordinates{Lat: p.Lat(), Lon: p.Lon()}
}

// SourceRef identifies one record of one source.
type SourceRef struct {
	Kind SourceKind `json:"kind" yaml:"kind"`
	ID   string     `json:"id" yaml:"id"`
}

// String returns "kind:id".
func (r SourceRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// SourceRecord is one entry as received from one source.
type SourceRecord struct {
	SourceID      string      `json:"sourceId" yaml:"sourceId"`
	SourceKind    SourceKind  `json:"sourceKind" yaml:"sourceKind"`
	RawName       string      `json:"rawName" yaml:"rawName"`
	RawSummary    string      `json:"rawSummary,omitempty" yaml:"rawSummary,omitempty"`
	SiteTypeLabel string      `json:"siteTypeLabel,omitempty" yaml:"siteTypeLabel,omitempty"`
	Coordinates   Coordinates `json:"coordinates" yaml:"coordinates"`
	ImageURL      string      `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	ReferenceURL  string      `json:"referenceUrl,omitempty" yaml:"referenceUrl,omitempty"`
	Country       string      `json:"country,omitempty" yaml:"country,omitempty"`
}

// Ref returns the record's SourceRef.
func (r SourceRecord) Ref() SourceRef {
	return SourceRef{Kind: r.SourceKind, ID: r.SourceID}
}

// CanonicalSite is one deduplicated physical site.
type CanonicalSite struct {
	CanonicalID         string                `json:"canonicalId" yaml:"canonicalId"`
	Name                string                `json:"name" yaml:"name"`
	Summary             string                `json:"summary,omitempty" yaml:"summary,omitempty"`
	SiteType            string                `json:"siteType,omitempty" yaml:"siteType,omitempty"`
	Coordinates         Coordinates           `json:"coordinates" yaml:"coordinates"`
	ImageURL            string                `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	ReferenceURL        string                `json:"referenceUrl,omitempty" yaml:"referenceUrl,omitempty"`
	Country             string                `json:"country,omitempty" yaml:"country,omitempty"`
	SourceIDs           map[SourceKind]string `json:"sourceIds,omitempty" yaml:"sourceIds,omitempty"`
	ContributingSources []SourceRef           `json:"contributingSources" yaml:"contributingSources"`
	QualityScore        int                   `json:"qualityScore" yaml:"qualityScore"`
	Flags               []string              `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// HasSource reports whether ref already contributed to the site.
func (s *CanonicalSite) HasSource(ref SourceRef) bool {
	return slices.Contains(s.ContributingSources, ref)
}

// AddSource appends ref unless it is already present.
func (s *CanonicalSite) AddSource(ref SourceRef) bool {
	if s.HasSource(ref) {
		return false
	}
	s.ContributingSources = append(s.ContributingSources, ref)
	return true
}

// HasFlag reports whether the site carries flag.
func (s *CanonicalSite) HasFlag(flag string) bool {
	return slices.Contains(s.Flags, flag)
}

// AddFlag adds flag unless it is already present.
func (s *CanonicalSite) AddFlag(flag string) {
	if flag == "" || s.HasFlag(flag) {
		return
	}
	s.Flags = append(s.Flags, flag)
}

// Kinds returns the distinct source kinds that contributed, in first-seen order.
func (s *CanonicalSite) Kinds() []SourceKind {
	var kinds []SourceKind
	for _, ref := range s.ContributingSources {
		if !slices.Contains(kinds, ref.Kind) {
			kinds = append(kinds, ref.Kind)
		}
	}
	return kinds
}

// Copy returns a deep copy of the site.
func (s *CanonicalSite) Copy() *CanonicalSite {
	if s == nil {
		return nil
	}
	c := *s
	if s.SourceIDs != nil {
		c.SourceIDs = make(map[SourceKind]string, len(s.SourceIDs))
		for k, v := range s.SourceIDs {
			c.SourceIDs[k] = v
		}
	}
	c.ContributingSources = slices.Clone(s.ContributingSources)
	c.Flags = slices.Clone(s.Flags)
	return &c
}
