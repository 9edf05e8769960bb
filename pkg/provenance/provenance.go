// Package provenance provides field-level tracking of merge decisions: for
// every canonical site field, which source record supplied or tried to
// supply a value and why it was applied or kept.
package provenance

import (
	"slices"
	"sort"
	"strings"

	"github.com/agentstation/stonemap/pkg/sites"
)

// Reasons recorded for field decisions.
const (
	ReasonSeeded          = "seeded"           // value came from the record that created the site
	ReasonFilled          = "filled"           // field was empty
	ReasonReplacedGeneric = "replaced_generic" // existing value was a placeholder
	ReasonHigherScore     = "higher_score"     // incoming record scored strictly higher
	ReasonKeptExisting    = "kept_existing"    // existing value retained
	ReasonNeverOverwrite  = "never_overwrite"  // field is immutable after creation
)

// Provenance records one decision about one field.
type Provenance struct {
	Source        sites.SourceRef `json:"source" yaml:"source"`
	Field         string          `json:"field" yaml:"field"`
	Value         any             `json:"value,omitempty" yaml:"value,omitempty"`
	PreviousValue any             `json:"previousValue,omitempty" yaml:"previousValue,omitempty"`
	Applied       bool            `json:"applied" yaml:"applied"`
	Score         int             `json:"score" yaml:"score"`
	Reason        string          `json:"reason" yaml:"reason"`
	Seq           int             `json:"seq" yaml:"seq"`
}

// Map tracks provenance keyed by "siteID:field".
type Map map[string][]Provenance

// Tracker records field decisions during a merge run.
type Tracker interface {
	// Track records a decision for a field of a site
	Track(siteID, field string, p Provenance)

	// FindByField retrieves the decisions for one field
	FindByField(siteID, field string) []Provenance

	// FindBySite retrieves all decisions for a site keyed by field
	FindBySite(siteID string) map[string][]Provenance

	// Map returns a copy of the complete provenance map
	Map() Map

	// Enabled reports whether decisions are being recorded
	Enabled() bool

	// Clear removes all provenance data
	Clear()
}

type tracker struct {
	provenance Map
	enabled    bool
	seq        int
}

// NewTracker creates a new provenance tracker. A disabled tracker ignores
// every Track call.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

func (p *tracker) Track(siteID, field string, history Provenance) {
	if !p.enabled {
		return
	}
	p.seq++
	history.Seq = p.seq
	history.Field = field
	key := makeKey(siteID, field)
	p.provenance[key] = append(p.provenance[key], history)
}

func (p *tracker) FindByField(siteID, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	return p.provenance[makeKey(siteID, field)]
}

func (p *tracker) FindBySite(siteID string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}
	result := make(map[string][]Provenance)
	prefix := siteID + ":"
	for key, info := range p.provenance {
		if field, found := strings.CutPrefix(key, prefix); found && !strings.Contains(field, ":") {
			result[field] = info
		}
	}
	return result
}

func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}
	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = slices.Clone(v)
	}
	return result
}

func (p *tracker) Enabled() bool {
	return p.enabled
}

func (p *tracker) Clear() {
	p.provenance = make(Map)
	p.seq = 0
}

func makeKey(siteID, field string) string {
	return siteID + ":" + field
}

// Report groups provenance by site for output.
type Report struct {
	Sites []SiteProvenance `json:"sites" yaml:"sites"`
}

// SiteProvenance contains the decisions for one site.
type SiteProvenance struct {
	SiteID string  `json:"siteId" yaml:"siteId"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Field contains the decision history of one field.
type Field struct {
	Name    string       `json:"name" yaml:"name"`
	Current *Provenance  `json:"current,omitempty" yaml:"current,omitempty"`
	History []Provenance `json:"history" yaml:"history"`
}

// GenerateReport builds a report from a map. Sites and fields are sorted by
// name; history keeps decision order. Current is the last applied decision.
func GenerateReport(m Map) *Report {
	bySite := make(map[string][]Field)
	for key, infos := range m {
		i := strings.LastIndex(key, ":")
		if i < 0 {
			continue
		}
		siteID, name := key[:i], key[i+1:]

		history := slices.Clone(infos)
		sort.SliceStable(history, func(a, b int) bool { return history[a].Seq < history[b].Seq })

		f := Field{Name: name, History: history}
		for j := len(history) - 1; j >= 0; j-- {
			if history[j].Applied {
				cur := history[j]
				f.Current = &cur
				break
			}
		}
		bySite[siteID] = append(bySite[siteID], f)
	}

	report := &Report{Sites: make([]SiteProvenance, 0, len(bySite))}
	for siteID, fields := range bySite {
		sort.Slice(fields, func(a, b int) bool { return fields[a].Name < fields[b].Name })
		report.Sites = append(report.Sites, SiteProvenance{SiteID: siteID, Fields: fields})
	}
	sort.Slice(report.Sites, func(a, b int) bool { return report.Sites[a].SiteID < report.Sites[b].SiteID })
	return report
}
