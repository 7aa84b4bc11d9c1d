package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dynlab/internal/numeric"
)

const noLyapunovFunction = "no quadratic Lyapunov function found"

// LyapunovAnalysis reports the quadratic form V(x) = xᵀPx solving
// AᵀP + PA = −I when P is positive definite.
type LyapunovAnalysis struct {
	Found         bool           `json:"found"`
	QuadraticForm *[2][2]float64 `json:"quadratic_form"`
	Function      string         `json:"lyapunov_function,omitempty"`
	Conclusion    string         `json:"stability_conclusion"`
}

// LyapunovFunction solves for the symmetric P over [p11 p12 p22]. A singular
// system or an indefinite P yields a negative conclusion, never an error.
func (an *Analyzer) LyapunovFunction() LyapunovAnalysis {
	a, b := an.a[0][0], an.a[0][1]
	c, d := an.a[1][0], an.a[1][1]

	coeff := mat.NewDense(3, 3, []float64{
		2 * a, 2 * c, 0,
		b, a + d, c,
		0, 2 * b, 2 * d,
	})
	sol, err := numeric.Solve(coeff, []float64{-1, 0, -1})
	if err != nil {
		return LyapunovAnalysis{Conclusion: noLyapunovFunction}
	}

	p := [2][2]float64{{sol[0], sol[1]}, {sol[1], sol[2]}}
	vals, err := numeric.SymmetricEigenvalues(mat.NewSymDense(2, []float64{p[0][0], p[0][1], p[1][0], p[1][1]}))
	if err != nil || vals[0] <= 0 || vals[1] <= 0 {
		return LyapunovAnalysis{Conclusion: noLyapunovFunction}
	}
	return LyapunovAnalysis{
		Found:         true,
		QuadraticForm: &p,
		Function: fmt.Sprintf("V(x) = x^T P x, where P = [[%.4f, %.4f], [%.4f, %.4f]]",
			p[0][0], p[0][1], p[1][0], p[1][1]),
		Conclusion: "Lyapunov function found; the system is asymptotically stable",
	}
}
