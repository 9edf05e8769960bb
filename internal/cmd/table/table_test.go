package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/pkg/differ"
	"github.com/agentstation/stonemap/pkg/provenance"
	"github.com/agentstation/stonemap/pkg/reconciler"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/validity"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "12,345", FormatNumber(12345))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Carnac ...", Truncate("Carnac stones alignment", 10))
	assert.Equal(t, "Ħaġar ...", Truncate("Ħaġar Qim temple", 9))
}

func TestSitesToTableData(t *testing.T) {
	list := []*sites.CanonicalSite{{
		CanonicalID:         "stonehenge",
		Name:                "Stonehenge",
		Coordinates:         sites.Coordinates{Lat: 51.1789, Lon: -1.8262},
		QualityScore:        42,
		ContributingSources: []sites.SourceRef{{Kind: sites.KindCrowdGeo, ID: "node/1"}},
		Flags:               []string{"outside_land_boxes"},
	}}

	d := SitesToTableData(list, false)
	require.Len(t, d.Rows, 1)
	assert.Len(t, d.Headers, 7)
	assert.Equal(t, []string{"stonehenge", "Stonehenge", "-", "51.17890", "-1.82620", "-", "42"}, d.Rows[0])

	wide := SitesToTableData(list, true)
	assert.Len(t, wide.Headers, 11)
	assert.Equal(t, "crowd_geo:node/1", wide.Rows[0][7])
	assert.Equal(t, "outside_land_boxes", wide.Rows[0][8])
	assert.Len(t, wide.ColumnAlignment, len(wide.Headers))
}

func TestReportToTableData(t *testing.T) {
	r := reconciler.NewReport("run")
	r.Counts.Received = 1200
	r.Counts.Rejected = 2
	r.Counts.RejectedByReason["invalid_coordinates"] = 1
	r.Counts.RejectedByReason["garbage_content"] = 1

	d := ReportToTableData(r)
	assert.Equal(t, []string{"Received", "1,200"}, d.Rows[0])
	assert.Equal(t, []string{"  garbage_content", "1"}, d.Rows[3])
	assert.Equal(t, []string{"  invalid_coordinates", "1"}, d.Rows[4])
}

func TestVerdictsToTableData(t *testing.T) {
	recs := []sites.SourceRecord{
		{SourceID: "1", SourceKind: sites.KindCrowdGeo, RawName: "Stonehenge"},
		{SourceID: "2", SourceKind: sites.KindCrowdGeo, RawName: "Tesco"},
		{SourceID: "3", SourceKind: sites.KindCrowdGeo, RawName: "Lonely Stone"},
	}
	verdicts := []validity.Verdict{
		{Accepted: true},
		{Reason: validity.ReasonGarbageContent, Pattern: "retail"},
		{Accepted: true, Flags: []string{"outside_land_boxes"}},
	}

	d := VerdictsToTableData(recs, verdicts, false)
	require.Len(t, d.Rows, 2)
	assert.Equal(t, "crowd_geo:2", d.Rows[0][1])
	assert.Equal(t, "garbage_content", d.Rows[0][3])
	assert.Equal(t, "retail", d.Rows[0][4])
	assert.Equal(t, "accepted", d.Rows[1][3])

	assert.Len(t, VerdictsToTableData(recs, verdicts, true).Rows, 3)
}

func TestChangesetToTableData(t *testing.T) {
	c := &differ.Changeset{
		Added: []differ.SiteChange{{ID: "avebury", Name: "Avebury"}},
		Updated: []differ.SiteUpdate{{ID: "stonehenge", Name: "Stonehenge", Changes: []differ.FieldChange{
			{Path: "imageUrl"}, {Path: "contributingSources"},
		}}},
	}
	d := ChangesetToTableData(c)
	require.Len(t, d.Rows, 2)
	assert.Equal(t, "+", d.Rows[0][0])
	assert.Equal(t, "[imageUrl contributingSources]", d.Rows[1][3])

	assert.Empty(t, ChangesetToTableData(nil).Rows)
}

func TestProvenanceToTableData(t *testing.T) {
	tr := provenance.NewTracker(true)
	src := sites.SourceRef{Kind: sites.KindCrowdGeo, ID: "node/1"}
	tr.Track("stonehenge", "name", provenance.Provenance{Source: src, Field: "name", Value: "Stonehenge", Applied: true, Reason: provenance.ReasonSeeded})
	tr.Track("stonehenge", "imageUrl", provenance.Provenance{Source: src, Field: "imageUrl", Value: "", Applied: false, Reason: provenance.ReasonKeptExisting})

	d := ProvenanceToTableData(provenance.GenerateReport(tr.Map()), nil)
	require.Len(t, d.Rows, 2)
	assert.Equal(t, "stonehenge", d.Rows[0][0])
	assert.Empty(t, d.Rows[1][0])

	filtered := ProvenanceToTableData(provenance.GenerateReport(tr.Map()), []string{"NAME"})
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, "name", filtered.Rows[0][1])
	assert.Equal(t, "→", filtered.Rows[0][2])
}

func TestMatchField(t *testing.T) {
	assert.True(t, MatchField("sourceIds", nil))
	assert.True(t, MatchField("sourceIds", []string{"source*"}))
	assert.False(t, MatchField("name", []string{"source*"}))
}

func TestFormatValueAsYAML(t *testing.T) {
	assert.Equal(t, "<nil>", formatValueAsYAML(nil))
	assert.Equal(t, "<empty>", formatValueAsYAML(""))
	assert.Equal(t, "3", formatValueAsYAML(3.0))
	assert.Equal(t, "[a, b]", formatValueAsYAML([]string{"a", "b"}))
}
