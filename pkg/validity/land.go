package validity

import (
	"github.com/paulmach/orb"

	"github.com/agentstation/stonemap/pkg/sites"
)

// LandBox is a coarse rectangular land region.
type LandBox struct {
	Name  string
	Bound orb.Bound
}

func box(name string, minLon, minLat, maxLon, maxLat float64) LandBox {
	return LandBox{Name: name, Bound: orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}}
}

// DefaultLandBoxes returns continental bounding boxes. They are deliberately
// generous; anything outside is open ocean or a remote island.
func DefaultLandBoxes() []LandBox {
	return []LandBox{
		box("europe", -25, 34, 45, 72),
		box("africa", -18, -35, 52, 38),
		box("asia", 25, -11, 180, 78),
		box("north_america", -170, 7, -50, 84),
		box("greenland", -74, 59, -11, 84),
		box("south_america", -82, -56, -34, 13),
		box("oceania", 110, -48, 180, -9),
	}
}

// InLand reports whether c lies inside any of the boxes.
func InLand(boxes []LandBox, c sites.Coordinates) bool {
	p := c.Point()
	for _, b := range boxes {
		if b.Bound.Contains(p) {
			return true
		}
	}
	return false
}

// Box returns the name of the first box containing c.
func Box(boxes []LandBox, c sites.Coordinates) (string, bool) {
	p := c.Point()
	for _, b := range boxes {
		if b.Bound.Contains(p) {
			return b.Name, true
		}
	}
	return "", false
}
