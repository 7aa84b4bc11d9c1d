package discrete

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/numeric"
)

// derivativeFloor bounds log|f'| from below so a superstable point (f' = 0)
// contributes a large negative term instead of -Inf.
const derivativeFloor = 1e-300

// LyapunovEstimate is the exponent of a 1D map or the spectrum of a 2D map.
type LyapunovEstimate struct {
	Exponent  float64   `json:"lyapunov_exponent"`
	Exponents []float64 `json:"lyapunov_exponents,omitempty"`
	Chaotic   bool      `json:"is_chaotic"`
	Info      string    `json:"convergence_info"`
}

// LyapunovExponent averages log|f'| along the orbit of x0 for 1D maps and
// uses repeated QR re-orthonormalisation of the tangent frame for 2D maps.
// Sums are divided by nSteps even when the orbit diverges early.
func (m *Map) LyapunovExponent(x0 dynamo.State, nSteps int) (LyapunovEstimate, error) {
	if err := m.checkState(x0); err != nil {
		return LyapunovEstimate{}, err
	}
	if nSteps <= 0 {
		return LyapunovEstimate{}, dynamo.NewError(dynamo.KindInvalidInput, "n_steps must be positive, got %d", nSteps)
	}
	info := fmt.Sprintf("based on %d iterations", nSteps)

	if m.Dimension() == 1 {
		sum := 0.0
		x := x0[0]
		for i := 0; i < nSteps; i++ {
			d := math.Abs(m.Derivative(x))
			if !math.IsNaN(d) {
				sum += math.Log(math.Max(d, derivativeFloor))
			}
			x = m.apply1(x)
			if !(math.Abs(x) <= divergenceBound) {
				break
			}
		}
		exp := sum / float64(nSteps)
		return LyapunovEstimate{Exponent: exp, Chaotic: exp > 0, Info: info}, nil
	}

	sums := make([]float64, 2)
	w := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	x := x0.Clone()
	for i := 0; i < nSteps; i++ {
		j := m.Jacobian(x)
		jm := mat.NewDense(2, 2, []float64{j[0][0], j[0][1], j[1][0], j[1][1]})
		var jw mat.Dense
		jw.Mul(jm, w)
		q, r := numeric.QR(&jw)
		w = q
		for k := 0; k < 2; k++ {
			if d := math.Abs(r.At(k, k)); !math.IsNaN(d) {
				sums[k] += math.Log(math.Max(d, derivativeFloor))
			}
		}
		x = m.Apply(x)
		if x.MaxAbs() > divergenceBound {
			break
		}
	}
	exps := []float64{sums[0] / float64(nSteps), sums[1] / float64(nSteps)}
	maxExp := math.Max(exps[0], exps[1])
	return LyapunovEstimate{Exponent: maxExp, Exponents: exps, Chaotic: maxExp > 0, Info: info}, nil
}
