package validity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/normalize"
	"github.com/agentstation/stonemap/pkg/sites"
)

func record(name, summary, siteType string, lat, lon float64) normalize.Normalized {
	return normalize.Record(sites.SourceRecord{
		SourceID:      "1",
		SourceKind:    sites.KindCrowdGeo,
		RawName:       name,
		RawSummary:    summary,
		SiteTypeLabel: siteType,
		Coordinates:   sites.Coordinates{Lat: lat, Lon: lon},
	})
}

func newFilter(t *testing.T, cfg Config) *Filter {
	t.Helper()
	f, err := New(cfg)
	require.NoError(t, err)
	return f
}

func TestCheck(t *testing.T) {
	f := newFilter(t, DefaultConfig())

	tests := []struct {
		name    string
		rec     normalize.Normalized
		reason  Reason
		pattern string
		flags   []string
	}{
		{
			name: "stonehenge accepted",
			rec:  record("Stonehenge", "Prehistoric monument", "stone circle", 51.1789, -1.8262),
		},
		{
			name:    "lat out of range",
			rec:     record("Stonehenge", "", "", 95, 0),
			reason:  ReasonInvalidCoordinates,
			pattern: PatternOutOfRange,
		},
		{
			name:    "nan",
			rec:     record("Stonehenge", "", "", math.NaN(), 0),
			reason:  ReasonInvalidCoordinates,
			pattern: PatternOutOfRange,
		},
		{
			name:    "null island",
			rec:     record("Stonehenge", "", "", 0, 0),
			reason:  ReasonInvalidCoordinates,
			pattern: PatternNullIsland,
		},
		{
			name:    "supermarket",
			rec:     record("Tesco Supermarket", "local grocery store", "", 51.5, -0.1),
			reason:  ReasonGarbageContent,
			pattern: "retail",
		},
		{
			name:    "empty name",
			rec:     record(" !! ", "", "", 51.5, -0.1),
			reason:  ReasonGarbageContent,
			pattern: PatternEmptyName,
		},
		{
			name:    "shouting",
			rec:     record("AMAZING ANCIENT STONES", "", "", 51.5, -0.1),
			reason:  ReasonGarbageContent,
			pattern: "all_caps",
		},
		{
			name: "ellipsis in summary accepted",
			rec:  record("Long Meg and Her Daughters", "Visited in 1725 by Stukeley.....", "", 54.7276, -2.6673),
		},
		{
			name:    "repeated letters",
			rec:     record("Stooooones", "", "", 51.5, -0.1),
			reason:  ReasonGarbageContent,
			pattern: "character_repetition",
		},
		{
			name: "allow-listed type overrides",
			rec:  record("Church Stone", "", "Menhir", 48.5, -2.7),
		},
		{
			name: "vocabulary in summary overrides",
			rec:  record("Chapel Euny", "Iron Age settlement and fogou", "", 50.1, -5.6),
		},
		{
			name:  "mid ocean is flagged",
			rec:   record("Lost Stone", "", "", 30, -40),
			flags: []string{FlagOutsideLandBoxes},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := f.Check(tt.rec)
			if tt.reason == ReasonNone {
				assert.True(t, v.Accepted, "pattern %s", v.Pattern)
				assert.Equal(t, tt.flags, v.Flags)
				assert.NoError(t, v.Err("x"))
				return
			}
			assert.False(t, v.Accepted)
			assert.Equal(t, tt.reason, v.Reason)
			assert.Equal(t, tt.pattern, v.Pattern)
			assert.ErrorIs(t, v.Err("x"), tt.reason.Err())
		})
	}
}

func TestRejectLandPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LandPolicy = LandPolicyReject
	f := newFilter(t, cfg)

	v := f.Check(record("Lost Stone", "", "", 30, -40))
	assert.False(t, v.Accepted)
	assert.Equal(t, ReasonInvalidCoordinates, v.Reason)
	assert.Equal(t, PatternOutsideLand, v.Pattern)
	assert.True(t, errors.IsRejection(v.Err("crowd_geo:1")))
}

func TestInvalidLandPolicy(t *testing.T) {
	_, err := New(Config{LandPolicy: "ignore"})
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestExtraAllowedTypes(t *testing.T) {
	f := newFilter(t, DefaultConfig())
	rec := record("Hotel Alignment", "", "Stone Row", 50.6, -3.9)
	assert.False(t, f.Check(rec).Accepted)

	cfg := DefaultConfig()
	cfg.AllowedTypes = []string{" Stone  Row "}
	f = newFilter(t, cfg)
	assert.True(t, f.Check(rec).Accepted)
	assert.True(t, f.AllowedType("stone row"))
	assert.False(t, f.AllowedType(""))
}

func TestLandBoxes(t *testing.T) {
	boxes := DefaultLandBoxes()
	tests := []struct {
		name string
		c    sites.Coordinates
		box  string
	}{
		{"stonehenge", sites.Coordinates{Lat: 51.1789, Lon: -1.8262}, "europe"},
		{"newgrange", sites.Coordinates{Lat: 53.6947, Lon: -6.4755}, "europe"},
		{"gobekli tepe", sites.Coordinates{Lat: 37.2231, Lon: 38.9225}, "europe"},
		{"senegambian circles", sites.Coordinates{Lat: 13.69, Lon: -15.52}, "africa"},
		{"gochang dolmens", sites.Coordinates{Lat: 35.43, Lon: 126.7}, "asia"},
		{"south pacific", sites.Coordinates{Lat: -40, Lon: -130}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := Box(boxes, tt.c)
			assert.Equal(t, tt.box != "", ok)
			assert.Equal(t, tt.box, name)
			assert.Equal(t, ok, InLand(boxes, tt.c))
		})
	}
}
