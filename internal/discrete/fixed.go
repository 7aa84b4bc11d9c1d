package discrete

import (
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/numeric"
)

var seeds2D = []dynamo.State{
	{0, 0}, {0.1, 0.1}, {-0.1, -0.1}, {0.5, 0.5}, {-0.5, -0.5},
	{1, 0}, {0, 1}, {-1, 0}, {0, -1},
}

// FindFixedPoints finds states with f(x) = x. One-dimensional maps are scanned
// over nPoints samples of searchRange, bisecting sign changes of f(x) − x;
// two-dimensional maps use a multi-start root finder.
func (m *Map) FindFixedPoints(searchRange [2]float64, nPoints int) []dynamo.State {
	if m.Dimension() == 1 {
		var out []dynamo.State
		for _, x := range m.fixedPoints1D(searchRange, nPoints) {
			out = append(out, dynamo.State{x})
		}
		return out
	}
	return m.fixedPoints2D()
}

func (m *Map) fixedPoints1D(searchRange [2]float64, nPoints int) []float64 {
	g := func(x float64) float64 { return m.apply1(x) - x }
	var found []float64
	add := func(x float64) {
		for _, p := range found {
			if math.Abs(p-x) < pointTol {
				return
			}
		}
		found = append(found, x)
	}

	xs := dynamo.Linspace(searchRange[0], searchRange[1], nPoints)
	for i := 0; i+1 < len(xs); i++ {
		x1, x2 := xs[i], xs[i+1]
		f1, f2 := g(x1), g(x2)
		if math.Abs(f1) < pointTol {
			add(x1)
		}
		if f1*f2 < 0 {
			root := numeric.Bisect(g, x1, x2, 1e-12)
			if math.Abs(g(root)) < pointTol {
				add(root)
			}
		}
	}
	if n := len(xs); n > 0 && math.Abs(g(xs[n-1])) < pointTol {
		add(xs[n-1])
	}
	return found
}

func (m *Map) fixedPoints2D() []dynamo.State {
	g := func(p []float64) []float64 {
		fx := m.Apply(dynamo.State(p))
		return []float64{fx[0] - p[0], fx[1] - p[1]}
	}
	var out []dynamo.State
	for _, s := range seeds2D {
		root := numeric.NewtonSystem(g, nil, s)
		if root.Residual >= pointTol {
			continue
		}
		p := dynamo.State(root.X)
		dup := false
		for _, q := range out {
			if p.Sub(q).Norm() < pointTol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}
