// Package quality computes the integer completeness score of source records
// and canonical sites. The score only breaks ties between competing field
// values; it never decides whether two records are the same site.
package quality

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/sites"
)

// Weights are the points awarded per attribute.
type Weights struct {
	Image        int `json:"image" yaml:"image"`
	Reference    int `json:"reference" yaml:"reference"`
	StructuredID int `json:"structured_id" yaml:"structured_id"`
	Summary      int `json:"summary" yaml:"summary"`
	Name         int `json:"name" yaml:"name"`

	// source-kind bonuses
	Manual        int `json:"manual" yaml:"manual"`
	KnowledgeBase int `json:"knowledge_base" yaml:"knowledge_base"`
	CrowdGeo      int `json:"crowd_geo" yaml:"crowd_geo"`
}

// DefaultWeights returns the standard weights.
func DefaultWeights() Weights {
	return Weights{
		Image:         20,
		Reference:     15,
		StructuredID:  10,
		Summary:       15,
		Name:          10,
		Manual:        8,
		KnowledgeBase: 5,
		CrowdGeo:      0,
	}
}

func (w Weights) kindBonus(k sites.SourceKind) int {
	switch k {
	case sites.KindManual:
		return w.Manual
	case sites.KindKnowledgeBase:
		return w.KnowledgeBase
	case sites.KindCrowdGeo:
		return w.CrowdGeo
	default:
		return 0
	}
}

// Scorer computes quality scores.
type Scorer struct {
	weights              Weights
	genericSummaryLength int
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithWeights replaces the default weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w }
}

// WithGenericSummaryLength sets the length at or below which a summary is a placeholder.
func WithGenericSummaryLength(n int) Option {
	return func(s *Scorer) {
		if n >= 0 {
			s.genericSummaryLength = n
		}
	}
}

// NewScorer creates a scorer.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		weights:              DefaultWeights(),
		genericSummaryLength: constants.GenericSummaryLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record scores a source record.
func (s *Scorer) Record(r sites.SourceRecord) int {
	score := 0
	if r.ImageURL != "" {
		score += s.weights.Image
	}
	if r.ReferenceURL != "" {
		score += s.weights.Reference
	}
	if r.SourceKind.Structured() && r.SourceID != "" {
		score += s.weights.StructuredID
	}
	if !s.GenericSummary(r.RawSummary, r.RawName) {
		score += s.weights.Summary
	}
	if !GenericName(r.RawName) {
		score += s.weights.Name
	}
	score += s.weights.kindBonus(r.SourceKind)
	return clamp(score)
}

// Site scores a canonical site. The source bonus is the best among the
// contributing kinds.
func (s *Scorer) Site(site *sites.CanonicalSite) int {
	score := 0
	if site.ImageURL != "" {
		score += s.weights.Image
	}
	if site.ReferenceURL != "" {
		score += s.weights.Reference
	}
	if len(site.SourceIDs) > 0 {
		score += s.weights.StructuredID
	}
	if !s.GenericSummary(site.Summary, site.Name) {
		score += s.weights.Summary
	}
	if !GenericName(site.Name) {
		score += s.weights.Name
	}
	best := 0
	for i, k := range site.Kinds() {
		if b := s.weights.kindBonus(k); i == 0 || b > best {
			best = b
		}
	}
	score += best
	return clamp(score)
}

// GenericSummary reports whether a summary is empty, too short or the
// "<name> - a megalithic site." boilerplate.
func (s *Scorer) GenericSummary(summary, name string) bool {
	summary = strings.TrimSpace(summary)
	if utf8.RuneCountInString(summary) <= s.genericSummaryLength {
		return true
	}
	return Placeholder(summary, name)
}

// Placeholder reports whether a summary is empty or the boilerplate. Unlike
// GenericSummary, a short summary written by hand is not a placeholder.
func Placeholder(summary, name string) bool {
	summary = strings.TrimSpace(summary)
	if summary == "" || strings.EqualFold(summary, Boilerplate(name)) {
		return true
	}
	return boilerplatePattern.MatchString(summary)
}

// Boilerplate returns the placeholder summary some sources emit for a name.
func Boilerplate(name string) string {
	return strings.TrimSpace(name) + " - a megalithic site."
}

var boilerplatePattern = regexp.MustCompile(`(?i)^.{0,120} - an? megalithic site\.?$`)

var genericNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:site|unnamed|unknown|untitled|no name|noname|megalith|stone|monument|feature|point|poi|location|place)(?:[\s#_-]*\d+)?$`),
	regexp.MustCompile(`^#?\s*\d+$`),
	regexp.MustCompile(`(?i)^(?:osm|node|way|relation|wikidata|wd|q)[\s/:_-]*\d+$`),
}

// GenericName reports whether a name is empty, auto-numbered or only a
// source identifier.
func GenericName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}
	for _, p := range genericNamePatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	return max(0, min(score, constants.MaxQualityScore))
}
