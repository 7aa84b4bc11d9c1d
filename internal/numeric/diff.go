package numeric

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// VectorFunc maps a point to a vector of the same or another dimension.
type VectorFunc func(x []float64) []float64

func (f VectorFunc) fill(y, x []float64) {
	copy(y, f(x))
}

// CentralJacobian approximates the Jacobian of f at x with central
// differences of step h. m is the output dimension.
func CentralJacobian(f VectorFunc, x []float64, m int, h float64) *mat.Dense {
	dst := mat.NewDense(m, len(x), nil)
	fd.Jacobian(dst, f.fill, x, &fd.JacobianSettings{
		Formula: fd.Central,
		Step:    h,
	})
	return dst
}

// ForwardJacobian approximates the Jacobian of f at x with forward
// differences of step h.
func ForwardJacobian(f VectorFunc, x []float64, m int, h float64) *mat.Dense {
	dst := mat.NewDense(m, len(x), nil)
	fd.Jacobian(dst, f.fill, x, &fd.JacobianSettings{
		Formula: fd.Forward,
		Step:    h,
	})
	return dst
}

// CentralDerivative approximates f'(x) for a scalar function.
func CentralDerivative(f func(float64) float64, x, h float64) float64 {
	return fd.Derivative(f, x, &fd.Settings{
		Formula: fd.Central,
		Step:    h,
	})
}
