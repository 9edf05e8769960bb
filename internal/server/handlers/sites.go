package handlers

import (
	"net/http"

	"github.com/agentstation/stonemap/internal/server/filter"
	"github.com/agentstation/stonemap/internal/server/response"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/sites"
)

// SitesPage is the data of GET /sites.
type SitesPage struct {
	Sites      []*sites.CanonicalSite `json:"sites"`
	Pagination response.Pagination    `json:"pagination"`
}

// NearbySite is one result of GET /sites/near.
type NearbySite struct {
	Site     *sites.CanonicalSite `json:"site"`
	Distance float64              `json:"distanceMeters"`
}

// HandleListSites handles GET /api/v1/sites.
func (h *Handlers) HandleListSites(w http.ResponseWriter, r *http.Request) {
	cacheKey := "sites:" + r.URL.RawQuery
	if cached, found := h.cache.Get(cacheKey); found {
		response.OK(w, cached)
		return
	}

	q, err := filter.ParseSiteQuery(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	page, total := q.Apply(h.catalog.Sites())
	result := SitesPage{
		Sites: page,
		Pagination: response.Pagination{
			Total:  total,
			Limit:  q.Limit,
			Offset: q.Offset,
			Count:  len(page),
		},
	}

	h.cache.Set(cacheKey, result)
	response.OK(w, result)
}

// HandleGetSite handles GET /api/v1/sites/{id}.
func (h *Handlers) HandleGetSite(w http.ResponseWriter, _ *http.Request, id string) {
	site, ok := h.catalog.Get(id)
	if !ok {
		response.ErrorFromType(w, errors.NewNotFoundError("site", id))
		return
	}
	response.OK(w, site)
}

// HandleNearSites handles GET /api/v1/sites/near?lat=&lon=&radius=.
func (h *Handlers) HandleNearSites(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseNearQuery(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	hits := h.index.Query(q.Coordinates, q.Radius)
	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	results := make([]NearbySite, 0, len(hits))
	for _, hit := range hits {
		site, ok := h.catalog.Get(hit.ID)
		if !ok {
			logging.FromContext(r.Context()).Warn().Str("site", hit.ID).Msg("Indexed site missing from catalog")
			continue
		}
		results = append(results, NearbySite{Site: site, Distance: hit.Distance})
	}
	response.OK(w, results)
}

// Stats is the data of GET /stats.
type Stats struct {
	Sites   int            `json:"sites"`
	ByKind  map[string]int `json:"byKind"`
	ByType  map[string]int `json:"byType"`
	Flagged int            `json:"flagged"`
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, _ *http.Request) {
	if cached, found := h.cache.Get("stats"); found {
		response.OK(w, cached)
		return
	}

	stats := Stats{Sites: h.catalog.Len(), ByKind: map[string]int{}, ByType: map[string]int{}}
	for _, s := range h.catalog.Sites() {
		for _, k := range s.Kinds() {
			stats.ByKind[string(k)]++
		}
		typ := s.SiteType
		if typ == "" {
			typ = "unknown"
		}
		stats.ByType[typ]++
		if len(s.Flags) > 0 {
			stats.Flagged++
		}
	}

	h.cache.Set("stats", stats)
	response.OK(w, stats)
}
