package discrete

import (
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// Cobweb is the staircase path of a 1D orbit: (x0, x0), then alternating
// vertical moves to the graph and horizontal moves to the diagonal.
type Cobweb struct {
	X      []float64 `json:"x_points"`
	Y      []float64 `json:"y_points"`
	X0     float64   `json:"x0"`
	NSteps int       `json:"n_steps"`
}

func (m *Map) Cobweb(x0 float64, nSteps int) (*Cobweb, error) {
	if err := m.require1D("cobweb"); err != nil {
		return nil, err
	}
	if nSteps < 0 {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "n_steps must not be negative, got %d", nSteps)
	}
	if err := dynamo.CheckSamples("n_steps", 2*float64(nSteps)+1); err != nil {
		return nil, err
	}
	cw := &Cobweb{X: []float64{x0}, Y: []float64{x0}, X0: x0}
	x := x0
	for i := 0; i < nSteps; i++ {
		fx := m.apply1(x)
		cw.X = append(cw.X, x, fx)
		cw.Y = append(cw.Y, fx, fx)
		x = fx
		// The divergent step is drawn, then the walk stops.
		if !(math.Abs(fx) <= divergenceBound) {
			break
		}
	}
	cw.NSteps = len(cw.X) / 2
	return cw, nil
}

// Curve samples y = f(x) for cobweb backgrounds. Identity holds the
// diagonal y = x over the same abscissae.
type Curve struct {
	X        []float64 `json:"x"`
	Y        []float64 `json:"y"`
	Identity []float64 `json:"identity"`
}

// MapCurve samples a 1D map on n points of [lo, hi]. Non-finite values are
// replaced with NaN-free zeros so the curve can be plotted directly.
func (m *Map) MapCurve(lo, hi float64, n int) (Curve, error) {
	if err := m.require1D("map curve"); err != nil {
		return Curve{}, err
	}
	xs := dynamo.Linspace(lo, hi, n)
	c := Curve{X: xs, Y: make([]float64, len(xs)), Identity: append([]float64(nil), xs...)}
	for i, x := range xs {
		y := m.apply1(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			y = 0
		}
		c.Y[i] = y
	}
	return c, nil
}

// PhasePortrait2D iterates a planar map from x0 and returns the orbit. Only
// the Hénon and linear_2d maps have meaningful portraits here.
func (m *Map) PhasePortrait2D(x0 dynamo.State, n int) ([]dynamo.State, error) {
	if m.kind != Henon && m.kind != Linear2D {
		return nil, dynamo.NewError(dynamo.KindUnsupportedConfiguration,
			"phase portraits are available for henon and linear_2d maps, not %s", m.kind).
			WithSuggestion("use kind=henon or kind=linear_2d")
	}
	if err := m.checkState(x0); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "n_steps must not be negative, got %d", n)
	}
	if err := dynamo.CheckSamples("n_steps", float64(n)+1); err != nil {
		return nil, err
	}
	orbit := m.Iterate(x0, n)
	if last := orbit[len(orbit)-1]; last.MaxAbs() > divergenceBound {
		orbit = orbit[:len(orbit)-1]
	}
	return orbit, nil
}
