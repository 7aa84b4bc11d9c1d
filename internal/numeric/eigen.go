package numeric

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

var ErrNoConvergence = errors.New("numeric: factorisation did not converge")

// Eigen2 decomposes a 2x2 real matrix. Eigenvectors are the columns of the
// returned array (vectors[i] is the vector for values[i]) scaled to unit
// Euclidean length.
func Eigen2(a [2][2]float64) ([2]complex128, [2][2]complex128, error) {
	var values [2]complex128
	var vectors [2][2]complex128

	m := mat.NewDense(2, 2, []float64{a[0][0], a[0][1], a[1][0], a[1][1]})
	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenRight) {
		return values, vectors, ErrNoConvergence
	}
	vals := eig.Values(nil)
	var ev mat.CDense
	eig.VectorsTo(&ev)

	for i := 0; i < 2; i++ {
		values[i] = vals[i]
		v0, v1 := ev.At(0, i), ev.At(1, i)
		n := math.Sqrt(sqAbs(v0) + sqAbs(v1))
		if n > 0 {
			v0 /= complex(n, 0)
			v1 /= complex(n, 0)
		}
		vectors[i] = [2]complex128{v0, v1}
	}
	return values, vectors, nil
}

func sqAbs(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

// Eigenvalues returns the eigenvalues of a square matrix.
func Eigenvalues(m mat.Matrix) ([]complex128, error) {
	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenNone) {
		return nil, ErrNoConvergence
	}
	return eig.Values(nil), nil
}

// SpectralRadius is the largest eigenvalue modulus.
func SpectralRadius(values []complex128) float64 {
	r := 0.0
	for _, v := range values {
		r = math.Max(r, cmplx.Abs(v))
	}
	return r
}

// SymmetricEigenvalues returns the eigenvalues of a symmetric matrix in
// ascending order.
func SymmetricEigenvalues(s *mat.SymDense) ([]float64, error) {
	var es mat.EigenSym
	if !es.Factorize(s, false) {
		return nil, ErrNoConvergence
	}
	return es.Values(nil), nil
}

// PolyRoots returns the complex roots of c[0] + c[1]x + ... + c[n]x^n using
// the eigenvalues of the companion matrix. Leading zero coefficients are
// dropped; a constant polynomial has no roots.
func PolyRoots(c []float64) []complex128 {
	n := len(c) - 1
	for n >= 0 && c[n] == 0 {
		n--
	}
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []complex128{complex(-c[0]/c[1], 0)}
	}
	comp := mat.NewDense(n, n, nil)
	for i := 1; i < n; i++ {
		comp.Set(i, i-1, 1)
	}
	for i := 0; i < n; i++ {
		comp.Set(i, n-1, -c[i]/c[n])
	}
	roots, err := Eigenvalues(comp)
	if err != nil {
		return nil
	}
	return roots
}

// RealRoots filters PolyRoots to the roots whose imaginary part is below
// tol and polishes each with a few Newton steps on the polynomial.
func RealRoots(c []float64, tol float64) []float64 {
	var out []float64
	for _, r := range PolyRoots(c) {
		if math.Abs(imag(r)) > tol*math.Max(1, cmplx.Abs(r)) {
			continue
		}
		out = append(out, polish(c, real(r)))
	}
	return out
}

func polish(c []float64, x float64) float64 {
	for iter := 0; iter < 8; iter++ {
		p, dp := 0.0, 0.0
		for i := len(c) - 1; i >= 0; i-- {
			dp = dp*x + p
			p = p*x + c[i]
		}
		if dp == 0 || p == 0 {
			break
		}
		next := x - p/dp
		if math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		x = next
	}
	return x
}
