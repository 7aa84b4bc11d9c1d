package discrete

import (
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// Orbit is one cycle of a 1D map starting from the detected point.
type Orbit []float64

// DetectPeriodicOrbits scans nSearch seeds across searchRange for each period
// 2..periodMax and keeps seeds with |f^p(x) − x| below tolerance. Two orbits
// sharing any point within tolerance are the same orbit. The search is
// approximate and covers one-dimensional maps only; other maps yield an
// empty result.
func (m *Map) DetectPeriodicOrbits(periodMax int, searchRange [2]float64, nSearch int) map[int][]Orbit {
	out := make(map[int][]Orbit)
	if m.Dimension() != 1 {
		return out
	}
	seeds := dynamo.Linspace(searchRange[0], searchRange[1], nSearch)
	for p := 2; p <= periodMax; p++ {
		var orbits []Orbit
		for _, x0 := range seeds {
			x := x0
			for i := 0; i < p; i++ {
				x = m.apply1(x)
			}
			if !(math.Abs(x-x0) < pointTol) {
				continue
			}
			orbit := make(Orbit, p)
			x = x0
			for i := range orbit {
				orbit[i] = x
				x = m.apply1(x)
			}
			if !containsOrbit(orbits, orbit) {
				orbits = append(orbits, orbit)
			}
		}
		if len(orbits) > 0 {
			out[p] = orbits
		}
	}
	return out
}

func containsOrbit(orbits []Orbit, o Orbit) bool {
	for _, existing := range orbits {
		for _, a := range existing {
			for _, b := range o {
				if math.Abs(a-b) < pointTol {
					return true
				}
			}
		}
	}
	return false
}
