// Package linear analyses planar constant-coefficient systems dX/dt = A·X.
package linear

import (
	"fmt"
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/integrators"
	"github.com/san-kum/dynlab/internal/numeric"
)

// Matrix2x2 is the coefficient matrix, row major.
type Matrix2x2 [2][2]float64

func (m Matrix2x2) Trace() float64 { return m[0][0] + m[1][1] }

func (m Matrix2x2) Det() float64 { return m[0][0]*m[1][1] - m[0][1]*m[1][0] }

// EigenResult pairs each eigenvalue with its unit eigenvector.
type EigenResult struct {
	Values  [2]complex128
	Vectors [2][2]complex128
}

// Formatted renders eigenvalues as "%.4f" or "%.4f + %.4fi".
func (e EigenResult) Formatted() []string {
	out := make([]string, 2)
	for i, v := range e.Values {
		if imag(v) == 0 {
			out[i] = fmt.Sprintf("%.4f", real(v))
		} else {
			out[i] = fmt.Sprintf("%.4f + %.4fi", real(v), imag(v))
		}
	}
	return out
}

// Analyzer is built once per matrix and never mutated.
type Analyzer struct {
	a     Matrix2x2
	trace float64
	det   float64
	disc  float64
	eigen EigenResult
	err   error
}

func New(a Matrix2x2) *Analyzer {
	an := &Analyzer{
		a:     a,
		trace: a.Trace(),
		det:   a.Det(),
	}
	an.disc = an.trace*an.trace - 4*an.det
	an.eigen.Values, an.eigen.Vectors, an.err = numeric.Eigen2(a)
	if an.err != nil {
		an.eigen.Values = quadraticRoots(an.trace, an.det)
	}
	return an
}

// quadraticRoots solves λ² − Tλ + D = 0 directly.
func quadraticRoots(tr, det float64) [2]complex128 {
	disc := tr*tr - 4*det
	if disc >= 0 {
		s := math.Sqrt(disc)
		return [2]complex128{complex((tr+s)/2, 0), complex((tr-s)/2, 0)}
	}
	s := math.Sqrt(-disc) / 2
	return [2]complex128{complex(tr/2, s), complex(tr/2, -s)}
}

func (an *Analyzer) Matrix() Matrix2x2     { return an.a }
func (an *Analyzer) Trace() float64        { return an.trace }
func (an *Analyzer) Determinant() float64  { return an.det }
func (an *Analyzer) Discriminant() float64 { return an.disc }
func (an *Analyzer) Eigen() EigenResult    { return an.eigen }
func (an *Analyzer) StateDim() int         { return 2 }

func (an *Analyzer) Derive(x dynamo.State, _ float64) dynamo.State {
	return dynamo.State{
		an.a[0][0]*x[0] + an.a[0][1]*x[1],
		an.a[1][0]*x[0] + an.a[1][1]*x[1],
	}
}

// Classification is the decision-table verdict with its reasoning trace.
type Classification struct {
	Class        dynamo.StabilityClass `json:"class"`
	Trace        float64               `json:"trace"`
	Determinant  float64               `json:"determinant"`
	Discriminant float64               `json:"discriminant"`
	Conditions   []string              `json:"stability_conditions"`
	Reasoning    []string              `json:"reasoning"`
}

// Classify applies the trace/determinant/discriminant table.
func (an *Analyzer) Classify() Classification {
	c := Classification{
		Trace:        an.trace,
		Determinant:  an.det,
		Discriminant: an.disc,
	}
	add := func(class dynamo.StabilityClass, cond, why string) {
		c.Class = class
		c.Conditions = append(c.Conditions, cond)
		c.Reasoning = append(c.Reasoning, why)
	}

	switch {
	case an.det < 0:
		add(dynamo.Saddle, "det(A) < 0 → saddle (unstable)", "one positive and one negative real eigenvalue")
	case an.det > 0 && an.trace < 0 && an.disc >= 0:
		add(dynamo.StableNode, "det(A) > 0, tr(A) < 0, Δ ≥ 0 → stable node", "two negative real eigenvalues")
	case an.det > 0 && an.trace < 0:
		add(dynamo.StableFocus, "det(A) > 0, tr(A) < 0, Δ < 0 → stable focus", "complex eigenvalues with negative real part")
	case an.det > 0 && an.trace > 0 && an.disc >= 0:
		add(dynamo.UnstableNode, "det(A) > 0, tr(A) > 0, Δ ≥ 0 → unstable node", "two positive real eigenvalues")
	case an.det > 0 && an.trace > 0:
		add(dynamo.UnstableFocus, "det(A) > 0, tr(A) > 0, Δ < 0 → unstable focus", "complex eigenvalues with positive real part")
	case an.det > 0:
		add(dynamo.Center, "det(A) > 0, tr(A) = 0 → center", "purely imaginary eigenvalues")
	default:
		add(dynamo.Degenerate, "det(A) = 0 → degenerate", "at least one zero eigenvalue")
	}
	return c
}

// ClassifyEigenvalues labels an equilibrium from the eigenvalues of its
// Jacobian. Imaginary parts below 1e-10 count as real.
func ClassifyEigenvalues(vals []complex128) dynamo.StabilityClass {
	const eps = 1e-10
	realValued := true
	for _, v := range vals {
		if math.Abs(imag(v)) >= eps {
			realValued = false
		}
	}
	all := func(pred func(float64) bool) bool {
		for _, v := range vals {
			if !pred(real(v)) {
				return false
			}
		}
		return true
	}

	if realValued {
		switch {
		case all(func(r float64) bool { return r < 0 }):
			return dynamo.StableNode
		case all(func(r float64) bool { return r > 0 }):
			return dynamo.UnstableNode
		case len(vals) == 2 && real(vals[0])*real(vals[1]) < 0:
			return dynamo.Saddle
		}
		return dynamo.Unclassified
	}
	switch {
	case all(func(r float64) bool { return r < -eps }):
		return dynamo.StableFocus
	case all(func(r float64) bool { return r > eps }):
		return dynamo.UnstableFocus
	case all(func(r float64) bool { return math.Abs(r) < eps }):
		return dynamo.Center
	}
	return dynamo.Unclassified
}

// SampleVectorField evaluates A·[x y]ᵀ on a linspace grid.
func (an *Analyzer) SampleVectorField(xRange, yRange [2]float64, gridSize int) dynamo.VectorField {
	a := an.a
	return dynamo.SampleField(func(x, y float64) (float64, float64) {
		return a[0][0]*x + a[0][1]*y, a[1][0]*x + a[1][1]*y
	}, xRange, yRange, gridSize)
}

// Integrate samples the solution at numPoints evenly spaced times over span.
// The linear flow is well posed, so no divergence truncation is applied.
func (an *Analyzer) Integrate(initial [2]float64, span [2]float64, numPoints int) (*dynamo.Trajectory, error) {
	if err := dynamo.CheckSamples("num_points", float64(numPoints)); err != nil {
		return nil, err
	}
	cfg := dynamo.TightConfig()
	cfg.DivergenceBound = 0
	times := dynamo.Linspace(span[0], span[1], numPoints)
	integ := integrators.NewRK45().WithAbsTolerance(cfg.AbsTolerance)
	return dynamo.Integrate(an, integ, dynamo.State{initial[0], initial[1]}, times, cfg)
}
