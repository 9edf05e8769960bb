package differ

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/pkg/sites"
)

func site(id, name string) *sites.CanonicalSite {
	return &sites.CanonicalSite{
		CanonicalID:         id,
		Name:                name,
		Coordinates:         sites.Coordinates{Lat: 51.1789, Lon: -1.8262},
		ContributingSources: []sites.SourceRef{{Kind: sites.KindCrowdGeo, ID: "node/" + id}},
		QualityScore:        20,
	}
}

func TestSitesAddedUpdatedRemoved(t *testing.T) {
	stonehenge := site("stonehenge", "Stonehenge")
	avebury := site("avebury", "Avebury")
	carnac := site("carnac", "Carnac")

	updatedStonehenge := stonehenge.Copy()
	updatedStonehenge.ImageURL = "https://img.example.org/s.jpg"
	updatedStonehenge.QualityScore = 35

	cs := New().Sites(
		[]*sites.CanonicalSite{stonehenge, avebury},
		[]*sites.CanonicalSite{updatedStonehenge, carnac},
	)

	require.Len(t, cs.Added, 1)
	assert.Equal(t, SiteChange{ID: "carnac", Name: "Carnac"}, cs.Added[0])
	require.Len(t, cs.Removed, 1)
	assert.Equal(t, "avebury", cs.Removed[0].ID)
	require.Len(t, cs.Updated, 1)

	u := cs.Updated[0]
	assert.Equal(t, "stonehenge", u.ID)
	require.Len(t, u.Changes, 2)
	assert.Equal(t, FieldChange{Path: "imageUrl", NewValue: "https://img.example.org/s.jpg", Type: ChangeTypeAdd}, u.Changes[0])
	assert.Equal(t, FieldChange{Path: "qualityScore", OldValue: "20", NewValue: "35", Type: ChangeTypeUpdate}, u.Changes[1])

	assert.Equal(t, Summary{Added: 1, Updated: 1, Removed: 1, FieldChanges: 2, TotalChanges: 3}, cs.Summary)
	assert.True(t, cs.HasChanges())
}

func TestSitesNoChanges(t *testing.T) {
	list := []*sites.CanonicalSite{site("a", "A"), site("b", "B")}
	cs := New().Sites(list, []*sites.CanonicalSite{list[0].Copy(), list[1].Copy()})
	assert.True(t, cs.IsEmpty())
	assert.Equal(t, "No changes detected", cs.String())
	assert.NotNil(t, cs.Added)
}

func TestIgnoredFields(t *testing.T) {
	old := site("a", "A")
	upd := old.Copy()
	upd.QualityScore = 99

	cs := New(WithIgnoredFields("qualityScore")).Sites([]*sites.CanonicalSite{old}, []*sites.CanonicalSite{upd})
	assert.True(t, cs.IsEmpty())
}

func TestSourceChanges(t *testing.T) {
	old := site("a", "A")
	upd := old.Copy()
	upd.AddSource(sites.SourceRef{Kind: sites.KindKnowledgeBase, ID: "Q1"})
	upd.SourceIDs = map[sites.SourceKind]string{sites.KindKnowledgeBase: "Q1"}

	cs := New().Sites([]*sites.CanonicalSite{old}, []*sites.CanonicalSite{upd})
	require.Len(t, cs.Updated, 1)
	paths := []string{}
	for _, ch := range cs.Updated[0].Changes {
		paths = append(paths, ch.Path)
	}
	assert.Equal(t, []string{"sourceIds", "contributingSources"}, paths)
	assert.Equal(t, "crowd_geo:node/a,knowledge_base:Q1", cs.Updated[0].Changes[1].NewValue)
}

func TestTruncateLongValues(t *testing.T) {
	old := site("a", "A")
	upd := old.Copy()
	upd.Summary = strings.Repeat("é", 80)

	cs := New(WithMaxValueLength(10)).Sites([]*sites.CanonicalSite{old}, []*sites.CanonicalSite{upd})
	require.Len(t, cs.Updated, 1)
	assert.Equal(t, strings.Repeat("é", 10)+"...", cs.Updated[0].Changes[0].NewValue)
}

func TestCatalogsNil(t *testing.T) {
	c, err := sites.FromSites([]*sites.CanonicalSite{site("a", "A")})
	require.NoError(t, err)

	cs := New().Catalogs(nil, c)
	assert.Equal(t, 1, cs.Summary.Added)

	cs = New().Catalogs(c, nil)
	assert.Equal(t, 1, cs.Summary.Removed)
}

func TestPrint(t *testing.T) {
	old := site("a", "A")
	upd := old.Copy()
	upd.Country = "France"
	cs := New().Sites([]*sites.CanonicalSite{old}, []*sites.CanonicalSite{upd, site("b", "B")})

	var buf bytes.Buffer
	cs.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "Sites: 1 added, 1 updated (Total: 2 changes)")
	assert.Contains(t, out, "country: (empty) → France")
	assert.Contains(t, out, "• b (B)")
}
