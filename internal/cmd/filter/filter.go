// Package filter narrows site lists for CLI output.
package filter

import (
	"strings"

	"github.com/agentstation/stonemap/pkg/normalize"
	"github.com/agentstation/stonemap/pkg/sites"
)

// SiteFilter applies filters to site lists.
type SiteFilter struct {
	Type     string
	Country  string
	Kind     sites.SourceKind
	Flag     string
	MinScore int
	Search   string // matched against the folded name and id
}

// Apply filters a slice of sites.
func (f *SiteFilter) Apply(list []*sites.CanonicalSite) []*sites.CanonicalSite {
	if f == nil || f.isEmpty() {
		return list
	}

	var filtered []*sites.CanonicalSite
	for _, site := range list {
		if f.matches(site) {
			filtered = append(filtered, site)
		}
	}
	return filtered
}

func (f *SiteFilter) isEmpty() bool {
	return f.Type == "" &&
		f.Country == "" &&
		f.Kind == "" &&
		f.Flag == "" &&
		f.MinScore == 0 &&
		f.Search == ""
}

func (f *SiteFilter) matches(site *sites.CanonicalSite) bool {
	if f.Type != "" && !strings.EqualFold(site.SiteType, f.Type) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(site.Country, f.Country) {
		return false
	}
	if f.Kind != "" && !f.matchesKind(site) {
		return false
	}
	if f.Flag != "" && !site.HasFlag(f.Flag) {
		return false
	}
	if site.QualityScore < f.MinScore {
		return false
	}
	if f.Search != "" && !f.matchesSearch(site) {
		return false
	}
	return true
}

func (f *SiteFilter) matchesKind(site *sites.CanonicalSite) bool {
	for _, k := range site.Kinds() {
		if k == f.Kind {
			return true
		}
	}
	return false
}

func (f *SiteFilter) matchesSearch(site *sites.CanonicalSite) bool {
	term := normalize.Fold(f.Search)
	return strings.Contains(normalize.Fold(site.Name), term) ||
		strings.Contains(site.CanonicalID, strings.ToLower(f.Search))
}
