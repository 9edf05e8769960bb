package sources

import (
	"path"
	"strings"

	"github.com/antonholmquist/jason"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/sites"
)

// SPARQL converts Wikidata query service JSON results into knowledge_base
// records. Expected variables: item, itemLabel, coord, and optionally
// image, article, typeLabel, description, countryLabel.
type SPARQL struct{}

// Format returns FormatSPARQL.
func (SPARQL) Format() Format { return FormatSPARQL }

// Decode converts result bindings. Rows repeating an item fill that item's
// empty fields; rows without a usable item or coordinate are skipped.
func (SPARQL) Decode(data []byte, name string) (sites.Batch, error) {
	doc, err := jason.NewObjectFromBytes(data)
	if err != nil {
		return sites.Batch{}, errors.NewBatchError(name, "decode failed", errors.WrapParse("sparql", name, err))
	}
	bindings, err := doc.GetObjectArray("results", "bindings")
	if err != nil {
		return sites.Batch{}, errors.NewBatchError(name, "missing results.bindings", err)
	}

	batch := sites.Batch{Name: name, Sites: make([]sites.SourceRecord, 0, len(bindings))}
	seen := make(map[string]int, len(bindings))
	skipped := 0

	for _, b := range bindings {
		rec, ok := bindingRecord(b)
		if !ok {
			skipped++
			continue
		}
		if i, dup := seen[rec.SourceID]; dup {
			fillEmpty(&batch.Sites[i], rec)
			continue
		}
		seen[rec.SourceID] = len(batch.Sites)
		batch.Sites = append(batch.Sites, rec)
	}

	if skipped > 0 {
		logging.Debug().
			Str("batch", name).
			Int("skipped", skipped).
			Int("kept", len(batch.Sites)).
			Msg("Skipped SPARQL rows")
	}
	return batch, nil
}

func bindingRecord(b *jason.Object) (sites.SourceRecord, bool) {
	qid := entityID(bindingValue(b, "item"))
	if qid == "" {
		return sites.SourceRecord{}, false
	}
	coords, ok := parsePoint(bindingValue(b, "coord"))
	if !ok {
		return sites.SourceRecord{}, false
	}

	label := bindingValue(b, "itemLabel")
	// the label service echoes the id when an item has no label
	if label == qid {
		label = ""
	}

	return sites.SourceRecord{
		SourceID:      qid,
		SourceKind:    sites.KindKnowledgeBase,
		RawName:       label,
		RawSummary:    bindingValue(b, "description"),
		SiteTypeLabel: bindingValue(b, "typeLabel"),
		Coordinates:   coords,
		ImageURL:      bindingValue(b, "image"),
		ReferenceURL:  bindingValue(b, "article"),
		Country:       bindingValue(b, "countryLabel"),
	}, true
}

func bindingValue(b *jason.Object, variable string) string {
	v, err := b.GetString(variable, "value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

// entityID returns the Q-id of an entity IRI such as
// http://www.wikidata.org/entity/Q39671.
func entityID(iri string) string {
	id := path.Base(iri)
	if len(id) < 2 || id[0] != 'Q' {
		return ""
	}
	return id
}

// parsePoint reads a WKT literal "Point(lon lat)". Literals prefixed with a
// globe IRI describe other bodies and are rejected.
func parsePoint(lit string) (sites.Coordinates, bool) {
	if lit == "" || strings.HasPrefix(lit, "<") {
		return sites.Coordinates{}, false
	}
	p, err := wkt.UnmarshalPoint(strings.ToUpper(lit))
	if err != nil {
		return sites.Coordinates{}, false
	}
	return sites.FromPoint(p), true
}

func fillEmpty(dst *sites.SourceRecord, src sites.SourceRecord) {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = s
		}
	}
	fill(&dst.RawName, src.RawName)
	fill(&dst.RawSummary, src.RawSummary)
	fill(&dst.SiteTypeLabel, src.SiteTypeLabel)
	fill(&dst.ImageURL, src.ImageURL)
	fill(&dst.ReferenceURL, src.ReferenceURL)
	fill(&dst.Country, src.Country)
}
