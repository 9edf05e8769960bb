// Package spatial provides a grid-bucketed proximity index over site
// coordinates. Points are bucketed by latitude and longitude truncated to a
// fixed number of decimal places; a radius query visits the rings of cells
// around the query point and filters by haversine distance.
package spatial

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/sites"
)

// metres per degree of latitude on orb's earth radius
var metersPerDegree = orb.EarthRadius * math.Pi / 180

type cellKey struct {
	lat, lon int64
}

type entry struct {
	point orb.Point
	cell  cellKey
	seq   uint64
}

// Hit is one query result.
type Hit struct {
	ID       string
	Distance float64 // metres
}

// Index is a grid spatial index. It is not safe for concurrent mutation.
type Index struct {
	precision int
	scale     float64
	lonCells  int64
	cells     map[cellKey][]string
	entries   map[string]entry
	seq       uint64
}

// New creates an index. Precision is clamped to [0, constants.MaxGridPrecision].
func New(precision int) *Index {
	precision = max(0, min(precision, constants.MaxGridPrecision))
	scale := math.Pow10(precision)
	return &Index{
		precision: precision,
		scale:     scale,
		lonCells:  int64(math.Round(360 * scale)),
		cells:     make(map[cellKey][]string),
		entries:   make(map[string]entry),
	}
}

// Precision returns the number of decimal places in a cell key.
func (ix *Index) Precision() int {
	return ix.precision
}

// CellSizeMeters returns the north-south size of a cell.
func (ix *Index) CellSizeMeters() float64 {
	return metersPerDegree / ix.scale
}

// Len returns the number of indexed ids.
func (ix *Index) Len() int {
	return len(ix.entries)
}

func (ix *Index) key(p orb.Point) cellKey {
	return cellKey{
		lat: int64(math.Floor(p.Lat() * ix.scale)),
		lon: ix.wrapLon(int64(math.Floor(p.Lon() * ix.scale))),
	}
}

// wrapLon maps a longitude cell index onto [-180, 180).
func (ix *Index) wrapLon(lon int64) int64 {
	half := ix.lonCells / 2
	lon = (lon + half) % ix.lonCells
	if lon < 0 {
		lon += ix.lonCells
	}
	return lon - half
}

// Insert adds or moves id to the given coordinates.
func (ix *Index) Insert(id string, c sites.Coordinates) {
	if _, ok := ix.entries[id]; ok {
		ix.Update(id, c)
		return
	}
	p := c.Point()
	k := ix.key(p)
	ix.seq++
	ix.entries[id] = entry{point: p, cell: k, seq: ix.seq}
	ix.cells[k] = append(ix.cells[k], id)
}

// Update moves an indexed id. Unknown ids are inserted.
func (ix *Index) Update(id string, c sites.Coordinates) {
	e, ok := ix.entries[id]
	if !ok {
		ix.Insert(id, c)
		return
	}
	p := c.Point()
	k := ix.key(p)
	if k != e.cell {
		ix.removeFromCell(e.cell, id)
		ix.cells[k] = append(ix.cells[k], id)
	}
	e.point, e.cell = p, k
	ix.entries[id] = e
}

// Remove deletes id from the index.
func (ix *Index) Remove(id string) bool {
	e, ok := ix.entries[id]
	if !ok {
		return false
	}
	ix.removeFromCell(e.cell, id)
	delete(ix.entries, id)
	return true
}

func (ix *Index) removeFromCell(k cellKey, id string) {
	ids := ix.cells[k]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(ix.cells, k)
		return
	}
	ix.cells[k] = ids
}

// Query returns every id within radius metres of c, nearest first. Ties on
// distance keep insertion order.
func (ix *Index) Query(c sites.Coordinates, radius float64) []Hit {
	if radius < 0 || len(ix.entries) == 0 {
		return nil
	}
	p := c.Point()
	center := ix.key(p)
	latRings, lonRings := ix.rings(p, radius)

	var hits []Hit
	visit := func(ids []string) {
		for _, id := range ids {
			d := geo.DistanceHaversine(p, ix.entries[id].point)
			if d <= radius {
				hits = append(hits, Hit{ID: id, Distance: d})
			}
		}
	}

	cellsToVisit := (2*latRings + 1) * (2*lonRings + 1)
	if cellsToVisit > int64(len(ix.cells)) {
		// fewer occupied cells than ring cells: scan the occupied ones
		for k, ids := range ix.cells {
			if ix.withinRings(center, k, latRings, lonRings) {
				visit(ids)
			}
		}
	} else {
		maxLat := int64(math.Floor(90 * ix.scale))
		lonFrom, lonTo := -lonRings, lonRings
		if 2*lonRings+1 >= ix.lonCells {
			// the rings wrap all the way round
			lonFrom, lonTo = -ix.lonCells/2, ix.lonCells/2-1
		}
		for dLat := -latRings; dLat <= latRings; dLat++ {
			lat := center.lat + dLat
			if lat < -maxLat || lat > maxLat {
				continue
			}
			for dLon := lonFrom; dLon <= lonTo; dLon++ {
				visit(ix.cells[cellKey{lat: lat, lon: ix.wrapLon(center.lon + dLon)}])
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return ix.entries[hits[i].ID].seq < ix.entries[hits[j].ID].seq
	})
	return hits
}

// rings returns how many cell rings a query must cover in each direction so
// that the covered extent exceeds the radius. Longitude cells shrink towards
// the poles, so the narrowest row within reach decides.
func (ix *Index) rings(p orb.Point, radius float64) (int64, int64) {
	cell := ix.CellSizeMeters()
	latRings := max(1, int64(math.Ceil(radius/cell)))

	maxAbsLat := math.Abs(p.Lat()) + radius/metersPerDegree + 1/ix.scale
	halfLon := ix.lonCells / 2
	if maxAbsLat >= 90 {
		return latRings, halfLon
	}
	width := cell * math.Cos(maxAbsLat*math.Pi/180)
	lonRings := max(1, int64(math.Ceil(radius/width)))
	return latRings, min(lonRings, halfLon)
}

func (ix *Index) withinRings(center, k cellKey, latRings, lonRings int64) bool {
	dLat := k.lat - center.lat
	if dLat < -latRings || dLat > latRings {
		return false
	}
	dLon := ix.wrapLon(k.lon - center.lon)
	return dLon >= -lonRings && dLon <= lonRings
}
