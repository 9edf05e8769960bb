package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/pkg/sites"
)

var (
	kb    = sites.SourceRef{Kind: sites.KindKnowledgeBase, ID: "Q39671"}
	crowd = sites.SourceRef{Kind: sites.KindCrowdGeo, ID: "node/1"}
)

func TestTracker(t *testing.T) {
	tr := NewTracker(true)
	tr.Track("stonehenge", "imageUrl", Provenance{Source: crowd, Value: "a.jpg", Applied: true, Reason: ReasonSeeded})
	tr.Track("stonehenge", "imageUrl", Provenance{Source: kb, Value: "b.jpg", Reason: ReasonKeptExisting})
	tr.Track("stonehenge", "name", Provenance{Source: crowd, Value: "Stonehenge", Applied: true, Reason: ReasonSeeded})
	tr.Track("stonehenge-1", "name", Provenance{Source: kb, Value: "Stonehenge", Applied: true, Reason: ReasonSeeded})

	history := tr.FindByField("stonehenge", "imageUrl")
	require.Len(t, history, 2)
	assert.Equal(t, "imageUrl", history[0].Field)
	assert.Less(t, history[0].Seq, history[1].Seq)

	fields := tr.FindBySite("stonehenge")
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "name")

	m := tr.Map()
	m["stonehenge:name"][0].Value = "mutated"
	assert.Equal(t, "Stonehenge", tr.FindByField("stonehenge", "name")[0].Value)

	tr.Clear()
	assert.Empty(t, tr.Map())
}

func TestDisabledTracker(t *testing.T) {
	tr := NewTracker(false)
	tr.Track("a", "name", Provenance{Source: kb, Applied: true})
	assert.False(t, tr.Enabled())
	assert.Nil(t, tr.FindByField("a", "name"))
	assert.Nil(t, tr.FindBySite("a"))
	assert.Nil(t, tr.Map())
}

func TestGenerateReport(t *testing.T) {
	tr := NewTracker(true)
	tr.Track("b-site", "summary", Provenance{Source: crowd, Value: "x", Applied: true, Reason: ReasonSeeded})
	tr.Track("a-site", "imageUrl", Provenance{Source: crowd, Value: "a.jpg", Applied: true, Reason: ReasonSeeded})
	tr.Track("a-site", "imageUrl", Provenance{Source: kb, Value: "b.jpg", Reason: ReasonKeptExisting})
	tr.Track("a-site", "country", Provenance{Source: kb, Value: "UK", Applied: true, Reason: ReasonFilled})

	report := GenerateReport(tr.Map())
	require.Len(t, report.Sites, 2)
	assert.Equal(t, "a-site", report.Sites[0].SiteID)

	fields := report.Sites[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, "country", fields[0].Name)
	assert.Equal(t, "imageUrl", fields[1].Name)
	require.NotNil(t, fields[1].Current)
	assert.Equal(t, "a.jpg", fields[1].Current.Value)
	assert.Len(t, fields[1].History, 2)
}
