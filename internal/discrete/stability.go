package discrete

import (
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/numeric"
)

// Stability describes the linearisation at a fixed point. One-dimensional
// maps fill Derivative and Multiplier; two-dimensional maps fill Jacobian,
// Eigenvalues and MaxEigenvalue.
type Stability struct {
	FixedPoint    dynamo.State     `json:"fixed_point"`
	Derivative    *float64         `json:"derivative,omitempty"`
	Multiplier    *float64         `json:"multiplier,omitempty"`
	Jacobian      *[2][2]float64   `json:"jacobian,omitempty"`
	Eigenvalues   []dynamo.Complex `json:"eigenvalues,omitempty"`
	MaxEigenvalue *float64         `json:"max_eigenvalue,omitempty"`
	Verdict       dynamo.Verdict   `json:"stability"`
}

// Derivative is the central-difference slope of a 1D map at x.
func (m *Map) Derivative(x float64) float64 {
	return numeric.CentralDerivative(m.apply1, x, diffStep)
}

// Jacobian is the central-difference Jacobian at x.
func (m *Map) Jacobian(x dynamo.State) [2][2]float64 {
	f := func(p []float64) []float64 { return m.Apply(dynamo.State(p)) }
	j := numeric.CentralJacobian(f, x, 2, diffStep)
	return [2][2]float64{{j.At(0, 0), j.At(0, 1)}, {j.At(1, 0), j.At(1, 1)}}
}

func (m *Map) AnalyzeStability(fp dynamo.State) Stability {
	st := Stability{FixedPoint: fp.Clone()}
	if m.Dimension() == 1 {
		d := m.Derivative(fp[0])
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return st
		}
		st.Derivative, st.Multiplier = &d, &d
		st.Verdict = dynamo.VerdictFor(math.Abs(d))
		return st
	}

	j := m.Jacobian(fp)
	vals, _, err := numeric.Eigen2(j)
	if err != nil {
		return st
	}
	radius := numeric.SpectralRadius(vals[:])
	st.Jacobian = &j
	st.MaxEigenvalue = &radius
	for _, v := range vals {
		st.Eigenvalues = append(st.Eigenvalues, dynamo.ToComplex(v))
	}
	st.Verdict = dynamo.VerdictFor(radius)
	return st
}
