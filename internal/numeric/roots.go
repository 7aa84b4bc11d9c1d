package numeric

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Bisect narrows a sign-changing bracket [lo, hi] of g until its width is
// below tol and returns the midpoint.
func Bisect(g func(float64) float64, lo, hi, tol float64) float64 {
	glo := g(lo)
	for iter := 0; iter < 200 && hi-lo > tol; iter++ {
		mid := 0.5 * (lo + hi)
		gm := g(mid)
		if gm == 0 {
			return mid
		}
		if (gm < 0) == (glo < 0) {
			lo, glo = mid, gm
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}

// Root is the outcome of a multivariate root search.
type Root struct {
	X        []float64
	Residual float64
}

// JacobianFunc returns the Jacobian of a system at x.
type JacobianFunc func(x []float64) *mat.Dense

// NewtonSystem searches for a zero of f from x0. It runs damped Newton
// iterations using jac (or central differences when jac is nil) and falls
// back to Nelder-Mead on the squared residual when Newton stalls. The caller
// decides whether Residual is small enough.
func NewtonSystem(f VectorFunc, jac JacobianFunc, x0 []float64) Root {
	n := len(x0)
	if jac == nil {
		jac = func(x []float64) *mat.Dense { return CentralJacobian(f, x, n, 1e-7) }
	}

	x := append([]float64(nil), x0...)
	fx := f(x)
	res := residual(fx)

	for iter := 0; iter < 60 && res > 1e-14; iter++ {
		step, err := Solve(jac(x), floats.ScaleTo(make([]float64, n), -1, fx))
		if err != nil {
			break
		}
		improved := false
		for lambda := 1.0; lambda > 1e-4; lambda *= 0.5 {
			cand := floats.AddScaledTo(make([]float64, n), x, lambda, step)
			fc := f(cand)
			if rc := residual(fc); rc < res {
				x, fx, res = cand, fc, rc
				improved = true
				break
			}
		}
		if !improved {
			break
		}
	}
	if res < 1e-10 {
		return Root{X: x, Residual: res}
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			r := residual(f(p))
			return r * r
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: 4000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-20,
			Iterations: 200,
		},
	}
	result, err := optimize.Minimize(problem, x, settings, &optimize.NelderMead{})
	if result == nil || (err != nil && result.X == nil) {
		return Root{X: x, Residual: res}
	}
	if r := residual(f(result.X)); r < res {
		return Root{X: result.X, Residual: r}
	}
	return Root{X: x, Residual: res}
}

func residual(v []float64) float64 {
	r := floats.Norm(v, 2)
	if math.IsNaN(r) {
		return math.Inf(1)
	}
	return r
}
