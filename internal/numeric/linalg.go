package numeric

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Solve returns x with a·x = b.
func Solve(a *mat.Dense, b []float64) ([]float64, error) {
	var x mat.VecDense
	if err := x.SolveVec(a, mat.NewVecDense(len(b), b)); err != nil {
		return nil, fmt.Errorf("numeric: solve: %w", err)
	}
	out := make([]float64, len(b))
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// QR returns the factors of m = q·r.
func QR(m *mat.Dense) (q, r *mat.Dense) {
	var qr mat.QR
	qr.Factorize(m)
	q, r = new(mat.Dense), new(mat.Dense)
	qr.QTo(q)
	qr.RTo(r)
	return q, r
}
