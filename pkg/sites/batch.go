package sites

import (
	"fmt"

	"github.com/agentstation/stonemap/pkg/errors"
)

// Batch is one bulk snapshot from a source: {"name": "...", "sites": [...]}.
// A nil Sites slice means the "sites" key was missing and the batch is malformed;
// an empty list is a valid, empty batch.
type Batch struct {
	Name  string         `json:"name,omitempty" yaml:"name,omitempty"`
	Sites []SourceRecord `json:"sites" yaml:"sites"`

	// Catalog is set on batches built by CatalogAsBatch. Its sites are
	// restored as they are, keeping their ids and sources; Sites holds the
	// same sites as records for any that cannot be restored. Read only.
	Catalog *Catalog `json:"-" yaml:"-"`
}

// Validate checks the structural requirements of a batch.
func (b Batch) Validate() error {
	if b.Sites == nil {
		return errors.NewBatchError(b.Name, "missing sites list", nil)
	}
	for i, rec := range b.Sites {
		if rec.SourceID == "" {
			return errors.NewBatchError(b.Name, fmt.Sprintf("record %d has no sourceId", i), nil)
		}
		if !rec.SourceKind.Valid() {
			return errors.NewBatchError(b.Name,
				fmt.Sprintf("record %d has unknown sourceKind %q", i, rec.SourceKind), nil)
		}
	}
	return nil
}

// DecodeBatch decodes a native batch document. Decode failures are
// reported as malformed batch errors.
func DecodeBatch(data []byte, format Format, name string) (Batch, error) {
	var b Batch
	if err := unmarshal(data, format, &b); err != nil {
		return Batch{}, errors.NewBatchError(name, "decode failed", errors.WrapParse(string(format), name, err))
	}
	if b.Name == "" {
		b.Name = name
	}
	return b, b.Validate()
}

// CatalogAsBatch turns a previous catalog into a batch. Its sites keep
// their canonical ids and contributing sources when they do not collide
// with the catalog being built, so feeding a catalog back through the
// pipeline never grows it.
func CatalogAsBatch(c *Catalog, name string) Batch {
	b := Batch{Name: name, Sites: make([]SourceRecord, 0, c.Len()), Catalog: c}
	for _, s := range c.Sites() {
		b.Sites = append(b.Sites, SiteRecord(s))
	}
	return b
}

// SiteRecord converts a site into a manual record whose sourceId is the
// site's canonical id.
func SiteRecord(s *CanonicalSite) SourceRecord {
	return SourceRecord{
		SourceID:      s.CanonicalID,
		SourceKind:    KindManual,
		RawName:       s.Name,
		RawSummary:    s.Summary,
		SiteTypeLabel: s.SiteType,
		Coordinates:   s.Coordinates,
		ImageURL:      s.ImageURL,
		ReferenceURL:  s.ReferenceURL,
		Country:       s.Country,
	}
}
