package differ

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/agentstation/stonemap/pkg/sites"
)

// Differ handles change detection between catalogs.
type Differ interface {
	// Sites compares two ordered lists of sites
	Sites(existing, updated []*sites.CanonicalSite) *Changeset

	// Catalogs compares two complete catalogs; a nil catalog is empty
	Catalogs(existing, updated *sites.Catalog) *Changeset
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields map[string]bool
	maxValueLen  int
}

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithIgnoredFields sets fields to ignore during comparison.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}

// WithMaxValueLength truncates long values such as summaries in field changes.
func WithMaxValueLength(n int) Option {
	return func(d *differ) { d.maxValueLen = n }
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{
		ignoreFields: make(map[string]bool),
		maxValueLen:  50,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Catalogs compares two catalogs.
func (diff *differ) Catalogs(existing, updated *sites.Catalog) *Changeset {
	var before, after []*sites.CanonicalSite
	if existing != nil {
		before = existing.Sites()
	}
	if updated != nil {
		after = updated.Sites()
	}
	return diff.Sites(before, after)
}

// Sites compares two sets of sites by canonical id.
func (diff *differ) Sites(existing, updated []*sites.CanonicalSite) *Changeset {
	c := &Changeset{
		Added:   []SiteChange{},
		Updated: []SiteUpdate{},
		Removed: []SiteChange{},
	}

	existingMap := make(map[string]*sites.CanonicalSite, len(existing))
	for _, s := range existing {
		existingMap[s.CanonicalID] = s
	}
	updatedMap := make(map[string]*sites.CanonicalSite, len(updated))
	for _, s := range updated {
		updatedMap[s.CanonicalID] = s
	}

	for _, s := range updated {
		old, ok := existingMap[s.CanonicalID]
		if !ok {
			c.Added = append(c.Added, SiteChange{ID: s.CanonicalID, Name: s.Name})
			continue
		}
		if u := diff.site(old, s); u != nil {
			c.Updated = append(c.Updated, *u)
		}
	}

	for _, s := range existing {
		if _, ok := updatedMap[s.CanonicalID]; !ok {
			c.Removed = append(c.Removed, SiteChange{ID: s.CanonicalID, Name: s.Name})
		}
	}

	c.Summary = calculateSummary(c)
	return c
}

func (diff *differ) site(existing, updated *sites.CanonicalSite) *SiteUpdate {
	var changes []FieldChange
	add := func(path, oldValue, newValue string) {
		if oldValue == newValue || diff.ignoreFields[path] {
			return
		}
		changes = append(changes, FieldChange{
			Path:     path,
			OldValue: diff.truncate(oldValue),
			NewValue: diff.truncate(newValue),
			Type:     changeType(oldValue, newValue),
		})
	}

	add("name", existing.Name, updated.Name)
	add("summary", existing.Summary, updated.Summary)
	add("siteType", existing.SiteType, updated.SiteType)
	add("coordinates", existing.Coordinates.String(), updated.Coordinates.String())
	add("imageUrl", existing.ImageURL, updated.ImageURL)
	add("referenceUrl", existing.ReferenceURL, updated.ReferenceURL)
	add("country", existing.Country, updated.Country)
	add("sourceIds", formatSourceIDs(existing.SourceIDs), formatSourceIDs(updated.SourceIDs))
	add("contributingSources", formatRefs(existing.ContributingSources), formatRefs(updated.ContributingSources))
	add("qualityScore", fmt.Sprint(existing.QualityScore), fmt.Sprint(updated.QualityScore))
	add("flags", strings.Join(existing.Flags, ","), strings.Join(updated.Flags, ","))

	if len(changes) == 0 {
		return nil
	}
	return &SiteUpdate{ID: updated.CanonicalID, Name: updated.Name, Changes: changes}
}

func (diff *differ) truncate(s string) string {
	if diff.maxValueLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= diff.maxValueLen {
		return s
	}
	return string(r[:diff.maxValueLen]) + "..."
}

func changeType(oldValue, newValue string) ChangeType {
	switch {
	case oldValue == "":
		return ChangeTypeAdd
	case newValue == "":
		return ChangeTypeRemove
	default:
		return ChangeTypeUpdate
	}
}

func formatSourceIDs(ids map[sites.SourceKind]string) string {
	keys := slices.Sorted(maps.Keys(ids))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k) + ":" + ids[k]
	}
	return strings.Join(parts, ",")
}

func formatRefs(refs []sites.SourceRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}
