package discrete

import (
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
)

const (
	plateauWindow  = 30
	maxReturnPoint = 150
)

// ReturnMap pairs x[n] with x[n+delay] along an orbit.
type ReturnMap struct {
	XN          []float64 `json:"x_n"`
	XNPlusDelay []float64 `json:"x_n_plus_delay"`
	Delay       int       `json:"delay"`
	TotalPoints int       `json:"total_points"`
}

// ReturnMap iterates from x0 for nSteps and builds delay pairs from the
// first coordinate. A converged 1D orbit is cut where it settles, provided
// enough points remain. It returns nil when fewer than delay+1 points are
// left.
func (m *Map) ReturnMap(x0 dynamo.State, nSteps, delay int) *ReturnMap {
	if delay < 1 {
		delay = 1
	}
	orbit := m.Iterate(x0, nSteps)
	series := make([]float64, len(orbit))
	for i, s := range orbit {
		series[i] = s[0]
	}

	if m.Dimension() == 1 {
		series = truncatePlateau(series, nSteps)
	}
	if len(series) <= delay {
		return nil
	}
	n := len(series) - delay
	return &ReturnMap{
		XN:          append([]float64(nil), series[:n]...),
		XNPlusDelay: append([]float64(nil), series[delay:]...),
		Delay:       delay,
		TotalPoints: n,
	}
}

// truncatePlateau cuts series at the start of the first window of
// plateauWindow samples whose consecutive differences are all below
// pointTol, skipping windows that begin before min(0.8·nSteps,
// maxReturnPoint) points have been kept.
func truncatePlateau(series []float64, nSteps int) []float64 {
	minPoints := int(0.8 * float64(nSteps))
	if minPoints > maxReturnPoint {
		minPoints = maxReturnPoint
	}
	for i := 0; i+plateauWindow < len(series); i++ {
		if i+1 < minPoints {
			continue
		}
		flat := true
		for k := i + 1; k < i+plateauWindow; k++ {
			if !(math.Abs(series[k]-series[k-1]) < pointTol) {
				flat = false
				break
			}
		}
		if flat {
			return series[:i+1]
		}
	}
	return series
}
