package sources

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/sites"
)

// OverpassHistoric lists the historic=* values kept from Overpass results.
var OverpassHistoric = []string{"megalith", "archaeological_site"}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Overpass converts OpenStreetMap Overpass API JSON into crowd_geo records.
type Overpass struct{}

// Format returns FormatOverpass.
func (Overpass) Format() Format { return FormatOverpass }

// Decode converts the elements of an Overpass response. Elements without a
// matching historic tag or without a position are skipped.
func (Overpass) Decode(data []byte, name string) (sites.Batch, error) {
	var resp overpassResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return sites.Batch{}, errors.NewBatchError(name, "decode failed", errors.WrapParse("overpass", name, err))
	}
	if resp.Elements == nil {
		return sites.Batch{}, errors.NewBatchError(name, "missing elements list", nil)
	}

	batch := sites.Batch{Name: name, Sites: make([]sites.SourceRecord, 0, len(resp.Elements))}
	skipped := 0
	for _, el := range resp.Elements {
		rec, ok := el.record()
		if !ok {
			skipped++
			continue
		}
		batch.Sites = append(batch.Sites, rec)
	}
	if skipped > 0 {
		logging.Debug().
			Str("batch", name).
			Int("skipped", skipped).
			Int("kept", len(batch.Sites)).
			Msg("Skipped Overpass elements")
	}
	return batch, nil
}

func (el overpassElement) record() (sites.SourceRecord, bool) {
	if !slices.Contains(OverpassHistoric, el.Tags["historic"]) {
		return sites.SourceRecord{}, false
	}

	var coords sites.Coordinates
	switch {
	case el.Lat != nil && el.Lon != nil:
		coords = sites.Coordinates{Lat: *el.Lat, Lon: *el.Lon}
	case el.Center != nil:
		coords = sites.Coordinates{Lat: el.Center.Lat, Lon: el.Center.Lon}
	default:
		return sites.SourceRecord{}, false
	}

	kind := el.Type
	if kind == "" {
		kind = "node"
	}

	return sites.SourceRecord{
		SourceID:      fmt.Sprintf("%s/%d", kind, el.ID),
		SourceKind:    sites.KindCrowdGeo,
		RawName:       firstTag(el.Tags, "name", "name:en", "alt_name"),
		RawSummary:    firstTag(el.Tags, "description", "description:en", "inscription"),
		SiteTypeLabel: firstTag(el.Tags, "megalith_type", "site_type", "historic"),
		Coordinates:   coords,
		ImageURL:      imageTag(el.Tags),
		ReferenceURL:  referenceTag(el.Tags),
		Country:       firstTag(el.Tags, "addr:country", "is_in:country"),
	}, true
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

// imageTag keeps only absolute http(s) image links; OSM also carries
// "File:..." commons names which need a lookup.
func imageTag(tags map[string]string) string {
	img := firstTag(tags, "image")
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		return img
	}
	return ""
}

// referenceTag turns wikipedia=lang:Title into a link, falling back to website.
func referenceTag(tags map[string]string) string {
	if wp := firstTag(tags, "wikipedia"); wp != "" {
		lang, title, ok := strings.Cut(wp, ":")
		if !ok {
			lang, title = "en", wp
		}
		title = strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
		return "https://" + lang + ".wikipedia.org/wiki/" + url.PathEscape(title)
	}
	return firstTag(tags, "website", "url")
}
