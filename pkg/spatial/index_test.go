package spatial

import (
	"fmt"
	"math"
	"testing"

	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/pkg/sites"
)

// offset returns c moved north and east by the given metres.
func offset(c sites.Coordinates, north, east float64) sites.Coordinates {
	return sites.Coordinates{
		Lat: c.Lat + north/metersPerDegree,
		Lon: c.Lon + east/(metersPerDegree*math.Cos(c.Lat*math.Pi/180)),
	}
}

var stonehenge = sites.Coordinates{Lat: 51.1789, Lon: -1.8262}

func ids(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestNewClampsPrecision(t *testing.T) {
	assert.Equal(t, 0, New(-3).Precision())
	assert.Equal(t, 7, New(12).Precision())
	assert.InDelta(t, 11.13, New(4).CellSizeMeters(), 0.05)
}

func TestQueryRadii(t *testing.T) {
	ix := New(4)
	ix.Insert("near", offset(stonehenge, 20, 0))
	ix.Insert("mid", offset(stonehenge, 0, 300))
	ix.Insert("far", offset(stonehenge, -4000, 0))
	ix.Insert("away", offset(stonehenge, 30000, 0))
	require.Equal(t, 4, ix.Len())

	tests := []struct {
		radius float64
		want   []string
	}{
		{10, nil},
		{50, []string{"near"}},
		{500, []string{"near", "mid"}},
		{5000, []string{"near", "mid", "far"}},
		{50000, []string{"near", "mid", "far", "away"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.0fm", tt.radius), func(t *testing.T) {
			hits := ix.Query(stonehenge, tt.radius)
			if tt.want == nil {
				assert.Empty(t, hits)
				return
			}
			assert.Equal(t, tt.want, ids(hits))
			for _, h := range hits {
				assert.LessOrEqual(t, h.Distance, tt.radius)
			}
		})
	}
}

func TestQueryMatchesBruteForce(t *testing.T) {
	ix := New(4)
	points := map[string]sites.Coordinates{}
	for i := 0; i < 40; i++ {
		for j := 0; j < 40; j++ {
			id := fmt.Sprintf("p%02d-%02d", i, j)
			c := offset(stonehenge, float64(i-20)*37, float64(j-20)*41)
			points[id] = c
			ix.Insert(id, c)
		}
	}

	for _, radius := range []float64{5, 50, 120, 500} {
		want := 0
		for _, c := range points {
			if geo.DistanceHaversine(stonehenge.Point(), c.Point()) <= radius {
				want++
			}
		}
		assert.Len(t, ix.Query(stonehenge, radius), want, "radius %.0f", radius)
	}
}

func TestQueryTieBreaksOnInsertionOrder(t *testing.T) {
	ix := New(4)
	p := offset(stonehenge, 10, 0)
	ix.Insert("second-name-but-first", p)
	ix.Insert("a-first-name-but-second", p)

	assert.Equal(t, []string{"second-name-but-first", "a-first-name-but-second"}, ids(ix.Query(stonehenge, 50)))
}

func TestUpdateAndRemove(t *testing.T) {
	ix := New(4)
	ix.Insert("a", stonehenge)
	ix.Insert("b", offset(stonehenge, 30, 0))

	ix.Update("a", offset(stonehenge, 2000, 0))
	assert.Equal(t, []string{"b"}, ids(ix.Query(stonehenge, 50)))
	assert.Equal(t, []string{"a"}, ids(ix.Query(offset(stonehenge, 2000, 0), 1)))

	ix.Insert("a", stonehenge) // re-insert moves
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, []string{"a", "b"}, ids(ix.Query(stonehenge, 50)))

	assert.True(t, ix.Remove("a"))
	assert.False(t, ix.Remove("a"))
	assert.Equal(t, []string{"b"}, ids(ix.Query(stonehenge, 50)))
	assert.Equal(t, 1, ix.Len())
}

func TestQueryAcrossAntimeridian(t *testing.T) {
	ix := New(4)
	ix.Insert("west", sites.Coordinates{Lat: -17.0, Lon: 179.9999})
	ix.Insert("east", sites.Coordinates{Lat: -17.0, Lon: -179.9999})

	hits := ix.Query(sites.Coordinates{Lat: -17.0, Lon: 180}, 50)
	assert.ElementsMatch(t, []string{"west", "east"}, ids(hits))
}

func TestQueryNearPole(t *testing.T) {
	ix := New(3)
	ix.Insert("a", sites.Coordinates{Lat: 89.9995, Lon: 10})
	ix.Insert("b", sites.Coordinates{Lat: 89.9995, Lon: -170})

	hits := ix.Query(sites.Coordinates{Lat: 90, Lon: 0}, 200)
	assert.ElementsMatch(t, []string{"a", "b"}, ids(hits))
}

func TestQueryEmptyIndex(t *testing.T) {
	assert.Empty(t, New(4).Query(stonehenge, 1000))
	ix := New(4)
	ix.Insert("a", stonehenge)
	assert.Empty(t, ix.Query(stonehenge, -1))
}
