package filter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/sites"
)

func request(query string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/v1/sites?"+query, nil)
}

func TestParseSiteQuery(t *testing.T) {
	q, err := ParseSiteQuery(request("type=dolmen&country=France&kind=crowd_geo&flag=outside_land_boxes&q=menga&min_score=20&sort=score&order=desc&limit=5&offset=10"))
	require.NoError(t, err)
	assert.Equal(t, "dolmen", q.Filter.Type)
	assert.Equal(t, "France", q.Filter.Country)
	assert.Equal(t, sites.KindCrowdGeo, q.Filter.Kind)
	assert.Equal(t, "outside_land_boxes", q.Filter.Flag)
	assert.Equal(t, "menga", q.Filter.Search)
	assert.Equal(t, 20, q.Filter.MinScore)
	assert.Equal(t, SortScore, q.Sort)
	assert.True(t, q.Desc)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 10, q.Offset)

	q, err = ParseSiteQuery(request(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, q.Limit)

	q, err = ParseSiteQuery(request("limit=100000&offset=-3"))
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, 0, q.Offset)
}

func TestParseSiteQueryErrors(t *testing.T) {
	for _, query := range []string{"limit=ten", "offset=x", "min_score=high", "kind=rumour", "sort=size"} {
		t.Run(query, func(t *testing.T) {
			_, err := ParseSiteQuery(request(query))
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestSiteQueryApply(t *testing.T) {
	list := []*sites.CanonicalSite{
		{CanonicalID: "stonehenge", Name: "Stonehenge", QualityScore: 80},
		{CanonicalID: "avebury", Name: "Avebury", QualityScore: 60},
		{CanonicalID: "castlerigg", Name: "Castlerigg", QualityScore: 90},
	}
	ids := func(l []*sites.CanonicalSite) []string {
		out := []string{}
		for _, s := range l {
			out = append(out, s.CanonicalID)
		}
		return out
	}

	page, total := SiteQuery{Limit: 10}.Apply(list)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"stonehenge", "avebury", "castlerigg"}, ids(page))

	page, _ = SiteQuery{Sort: SortScore, Desc: true, Limit: 2}.Apply(list)
	assert.Equal(t, []string{"castlerigg", "stonehenge"}, ids(page))

	page, total = SiteQuery{Sort: SortName, Limit: 2, Offset: 2}.Apply(list)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"stonehenge"}, ids(page))

	page, _ = SiteQuery{Limit: 10, Offset: 5}.Apply(list)
	assert.Empty(t, page)

	assert.Equal(t, "stonehenge", list[0].CanonicalID, "input order is preserved")
}

func TestParseNearQuery(t *testing.T) {
	q, err := ParseNearQuery(request("lat=51.1789&lon=-1.8262&radius=250&limit=3"))
	require.NoError(t, err)
	assert.InDelta(t, 51.1789, q.Coordinates.Lat, 1e-9)
	assert.Equal(t, 250.0, q.Radius)
	assert.Equal(t, 3, q.Limit)

	q, err = ParseNearQuery(request("lat=0.5&lon=0.5"))
	require.NoError(t, err)
	assert.Equal(t, 1000.0, q.Radius)

	for _, bad := range []string{"lon=1", "lat=1", "lat=91&lon=0", "lat=1&lon=1&radius=0", "lat=1&lon=1&radius=60000", "lat=a&lon=1", "lat=1&lon=1&radius=far"} {
		_, err := ParseNearQuery(request(bad))
		assert.True(t, errors.IsValidationError(err), bad)
	}
}
