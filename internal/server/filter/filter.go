// Package filter parses catalog API query parameters.
package filter

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"

	sitefilter "github.com/agentstation/stonemap/internal/cmd/filter"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/sites"
)

// Pagination limits.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Sort fields accepted by the sites endpoint.
const (
	SortCatalog = ""      // catalog insertion order
	SortID      = "id"    // canonical id
	SortName    = "name"  // display name
	SortScore   = "score" // quality score
)

// SiteQuery holds the parsed parameters of GET /sites.
type SiteQuery struct {
	Filter sitefilter.SiteFilter
	Sort   string
	Desc   bool
	Limit  int
	Offset int
}

// ParseSiteQuery extracts site list parameters from a request.
func ParseSiteQuery(r *http.Request) (SiteQuery, error) {
	q := r.URL.Query()

	query := SiteQuery{
		Filter: sitefilter.SiteFilter{
			Type:    q.Get("type"),
			Country: q.Get("country"),
			Flag:    q.Get("flag"),
			Search:  q.Get("q"),
		},
		Sort: q.Get("sort"),
		Desc: q.Get("order") == "desc",
	}

	if kind := q.Get("kind"); kind != "" {
		k, err := sites.ParseSourceKind(kind)
		if err != nil {
			return SiteQuery{}, err
		}
		query.Filter.Kind = k
	}

	var err error
	if query.Filter.MinScore, err = intParam(q, "min_score", 0); err != nil {
		return SiteQuery{}, err
	}
	if query.Limit, err = intParam(q, "limit", DefaultLimit); err != nil {
		return SiteQuery{}, err
	}
	if query.Offset, err = intParam(q, "offset", 0); err != nil {
		return SiteQuery{}, err
	}
	query.Limit = min(max(query.Limit, 1), MaxLimit)
	query.Offset = max(query.Offset, 0)

	switch query.Sort {
	case SortCatalog, SortID, SortName, SortScore:
	default:
		return SiteQuery{}, errors.NewValidationError("sort", query.Sort, "must be one of id, name, score")
	}
	return query, nil
}

// Apply filters, sorts and pages list. It returns the page and the number
// of sites that matched before paging.
func (sq SiteQuery) Apply(list []*sites.CanonicalSite) ([]*sites.CanonicalSite, int) {
	matched := sq.Filter.Apply(list)
	// Apply may return the input slice itself
	out := make([]*sites.CanonicalSite, len(matched))
	copy(out, matched)

	if less := sq.less(out); less != nil {
		sort.SliceStable(out, less)
	}

	total := len(out)
	if sq.Offset >= total {
		return []*sites.CanonicalSite{}, total
	}
	end := min(sq.Offset+sq.Limit, total)
	return out[sq.Offset:end], total
}

func (sq SiteQuery) less(list []*sites.CanonicalSite) func(i, j int) bool {
	var key func(i, j int) bool
	switch sq.Sort {
	case SortID:
		key = func(i, j int) bool { return list[i].CanonicalID < list[j].CanonicalID }
	case SortName:
		key = func(i, j int) bool { return list[i].Name < list[j].Name }
	case SortScore:
		key = func(i, j int) bool { return list[i].QualityScore < list[j].QualityScore }
	default:
		return nil
	}
	if sq.Desc {
		return func(i, j int) bool { return key(j, i) }
	}
	return key
}

// NearQuery holds the parsed parameters of GET /sites/near.
type NearQuery struct {
	Coordinates sites.Coordinates
	Radius      float64 // metres
	Limit       int
}

// MaxRadius bounds /sites/near queries, in metres.
const MaxRadius = 50_000

// ParseNearQuery extracts lat, lon, radius and limit from a request.
func ParseNearQuery(r *http.Request) (NearQuery, error) {
	q := r.URL.Query()

	lat, err := floatParam(q, "lat")
	if err != nil {
		return NearQuery{}, err
	}
	lon, err := floatParam(q, "lon")
	if err != nil {
		return NearQuery{}, err
	}
	c := sites.Coordinates{Lat: lat, Lon: lon}
	if !c.Valid() {
		return NearQuery{}, errors.NewValidationError("coordinates", c.String(), "out of range")
	}

	radius := 1000.0
	if v := q.Get("radius"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil {
			return NearQuery{}, errors.NewValidationError("radius", v, "must be a number")
		}
	}
	if radius <= 0 || radius > MaxRadius {
		return NearQuery{}, errors.NewValidationError("radius", radius, "must be between 0 and 50000 metres")
	}

	limit, err := intParam(q, "limit", DefaultLimit)
	if err != nil {
		return NearQuery{}, err
	}
	return NearQuery{Coordinates: c, Radius: radius, Limit: min(max(limit, 1), MaxLimit)}, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.NewValidationError(name, v, "must be an integer")
	}
	return n, nil
}

func floatParam(q url.Values, name string) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return 0, errors.NewValidationError(name, v, "is required")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.NewValidationError(name, v, "must be a number")
	}
	return f, nil
}
