package sites

import (
	"github.com/agentstation/stonemap/pkg/errors"
)

// Catalog is an ordered collection of canonical sites with lookups by
// canonical id and by SourceRef. Output order is insertion order.
//
// A Catalog is not safe for concurrent mutation; the reconciler is its
// single writer.
type Catalog struct {
	sites []*CanonicalSite
	byID  map[string]int
	byRef map[SourceRef]string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID:  make(map[string]int),
		byRef: make(map[SourceRef]string),
	}
}

// Len returns the number of sites.
func (c *Catalog) Len() int {
	return len(c.sites)
}

// Add appends a site. The canonical id must be unique and none of the
// site's contributing sources may already belong to another site.
func (c *Catalog) Add(site *CanonicalSite) error {
	if site == nil || site.CanonicalID == "" {
		return errors.NewValidationError("canonicalId", nil, "site must have a canonical id")
	}
	if _, exists := c.byID[site.CanonicalID]; exists {
		return errors.NewAlreadyExistsError("site", site.CanonicalID)
	}
	for _, ref := range site.ContributingSources {
		if owner, ok := c.byRef[ref]; ok {
			return errors.NewValidationError("contributingSources", ref.String(),
				"source already belongs to site "+owner)
		}
	}

	c.byID[site.CanonicalID] = len(c.sites)
	c.sites = append(c.sites, site)
	for _, ref := range site.ContributingSources {
		c.byRef[ref] = site.CanonicalID
	}
	return nil
}

// Link records that ref now belongs to the site with the given id.
func (c *Catalog) Link(ref SourceRef, id string) error {
	if _, ok := c.byID[id]; !ok {
		return errors.NewNotFoundError("site", id)
	}
	if owner, ok := c.byRef[ref]; ok && owner != id {
		return errors.NewValidationError("contributingSources", ref.String(),
			"source already belongs to site "+owner)
	}
	c.byRef[ref] = id
	return nil
}

// Get returns the site with the given canonical id.
func (c *Catalog) Get(id string) (*CanonicalSite, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.sites[i], true
}

// Index returns the insertion index of a site, or -1.
func (c *Catalog) Index(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// FindByRef returns the site a source record was merged into.
func (c *Catalog) FindByRef(ref SourceRef) (*CanonicalSite, bool) {
	id, ok := c.byRef[ref]
	if !ok {
		return nil, false
	}
	return c.Get(id)
}

// Sites returns the sites in insertion order. The slice is a copy; the
// sites are shared.
func (c *Catalog) Sites() []*CanonicalSite {
	out := make([]*CanonicalSite, len(c.sites))
	copy(out, c.sites)
	return out
}

// Copy returns a deep copy of the catalog.
func (c *Catalog) Copy() *Catalog {
	out := NewCatalog()
	for _, s := range c.sites {
		// ids and refs are already consistent
		cp := s.Copy()
		out.byID[cp.CanonicalID] = len(out.sites)
		out.sites = append(out.sites, cp)
		for _, ref := range cp.ContributingSources {
			out.byRef[ref] = cp.CanonicalID
		}
	}
	return out
}

// FromSites builds a catalog from an ordered list of sites.
func FromSites(list []*CanonicalSite) (*Catalog, error) {
	c := NewCatalog()
	for _, s := range list {
		if err := c.Add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}
