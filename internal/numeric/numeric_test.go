package numeric

import (
	"math"
	"math/cmplx"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestEigen2Rotation(t *testing.T) {
	vals, vecs, err := Eigen2([2][2]float64{{0, 1}, {-1, 0}})
	require.NoError(t, err)

	for i, v := range vals {
		assert.InDelta(t, 0, real(v), 1e-12)
		assert.InDelta(t, 1, math.Abs(imag(v)), 1e-12)
		n := math.Sqrt(sqAbs(vecs[i][0]) + sqAbs(vecs[i][1]))
		assert.InDelta(t, 1, n, 1e-12)
	}
}

func TestEigen2SatisfiesCharacteristicPolynomial(t *testing.T) {
	a := [2][2]float64{{2, -3}, {4, 1}}
	vals, _, err := Eigen2(a)
	require.NoError(t, err)

	tr := complex(a[0][0]+a[1][1], 0)
	det := complex(a[0][0]*a[1][1]-a[0][1]*a[1][0], 0)
	for _, l := range vals {
		assert.Less(t, cmplx.Abs(l*l-tr*l+det), 1e-9)
	}
}

func TestPolyRoots(t *testing.T) {
	// (x-1)(x-2)(x+3) = x^3 - 7x + 6
	roots := RealRoots([]float64{6, -7, 0, 1}, 1e-9)
	sort.Float64s(roots)
	require.Len(t, roots, 3)
	assert.InDelta(t, -3, roots[0], 1e-10)
	assert.InDelta(t, 1, roots[1], 1e-10)
	assert.InDelta(t, 2, roots[2], 1e-10)

	assert.Empty(t, RealRoots([]float64{1, 0, 1}, 1e-9))
	assert.Nil(t, PolyRoots([]float64{3, 0, 0}))
}

func TestBisect(t *testing.T) {
	root := Bisect(func(x float64) float64 { return x*x - 2 }, 0, 2, 1e-10)
	assert.InDelta(t, math.Sqrt2, root, 1e-9)
}

func TestNewtonSystem(t *testing.T) {
	// x^2 + y^2 = 4, x = y
	f := func(p []float64) []float64 {
		return []float64{p[0]*p[0] + p[1]*p[1] - 4, p[0] - p[1]}
	}
	root := NewtonSystem(f, nil, []float64{1, 0.5})
	assert.Less(t, root.Residual, 1e-8)
	assert.InDelta(t, math.Sqrt2, root.X[0], 1e-6)
	assert.InDelta(t, math.Sqrt2, root.X[1], 1e-6)
}

func TestJacobians(t *testing.T) {
	f := func(p []float64) []float64 {
		return []float64{p[0] * p[1], math.Sin(p[0])}
	}
	x := []float64{0.5, 2}

	central := CentralJacobian(f, x, 2, 1e-6)
	assert.InDelta(t, 2, central.At(0, 0), 1e-6)
	assert.InDelta(t, 0.5, central.At(0, 1), 1e-6)
	assert.InDelta(t, math.Cos(0.5), central.At(1, 0), 1e-6)

	forward := ForwardJacobian(f, x, 2, 1e-8)
	assert.InDelta(t, 2, forward.At(0, 0), 1e-5)
}

func TestSymmetricEigenvaluesAndQR(t *testing.T) {
	vals, err := SymmetricEigenvalues(mat.NewSymDense(2, []float64{2, 1, 1, 2}))
	require.NoError(t, err)
	assert.InDelta(t, 1, vals[0], 1e-12)
	assert.InDelta(t, 3, vals[1], 1e-12)

	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	q, r := QR(m)
	var prod mat.Dense
	prod.Mul(q, r)
	assert.True(t, mat.EqualApprox(&prod, m, 1e-12))
}
