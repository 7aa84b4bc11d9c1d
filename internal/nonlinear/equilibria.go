package nonlinear

import (
	"math"
	"sort"

	"github.com/san-kum/dynlab/internal/expr"
	"github.com/san-kum/dynlab/internal/numeric"
)

const (
	searchBound = 100.0
	residualTol = 1e-6
	dedupeTol   = 1e-2
)

// Source records how an equilibrium was found.
type Source string

const (
	SourceSymbolic Source = "symbolic"
	SourceNumeric  Source = "numeric"
	SourceFallback Source = "fallback"
)

type Equilibrium struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Source Source  `json:"source"`
}

// latticeExtent bounds the integer lattice of extra Newton seeds, which
// reaches roots of periodic terms such as sin(x) at ±π.
const latticeExtent = 4

// seeds lists the nine unit seeds first, then the remaining points of the
// integer lattice over [-latticeExtent, latticeExtent]².
var seeds = func() [][2]float64 {
	out := [][2]float64{
		{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {-1, -1}, {1, -1}, {-1, 1},
	}
	for i := -latticeExtent; i <= latticeExtent; i++ {
		for j := -latticeExtent; j <= latticeExtent; j++ {
			if max(i, -i) <= 1 && max(j, -j) <= 1 {
				continue
			}
			out = append(out, [2]float64{float64(i), float64(j)})
		}
	}
	return out
}()

// findEquilibria tries an exact solve, then a multi-start numeric search,
// then reports the origin. When some factor pairing has no exact solution
// the numeric search runs too and adds the roots the exact solve missed.
func (a *Analyzer) findEquilibria() []Equilibrium {
	exact, complete := a.solveSymbolic()
	if complete && len(exact) > 0 {
		return exact
	}
	if pts := a.solveNumeric(exact); len(pts) > 0 {
		return pts
	}
	return []Equilibrium{{X: 0, Y: 0, Source: SourceFallback}}
}

func (a *Analyzer) residual(x, y float64) float64 {
	r := math.Hypot(a.ff(x, y), a.gf(x, y))
	if math.IsNaN(r) {
		return math.Inf(1)
	}
	return r
}

// solveNumeric runs Newton from every seed and adds the roots not already in
// known.
func (a *Analyzer) solveNumeric(known []Equilibrium) []Equilibrium {
	fn := func(p []float64) []float64 {
		return []float64{a.ff(p[0], p[1]), a.gf(p[0], p[1])}
	}
	out := append([]Equilibrium(nil), known...)
	for _, s := range seeds {
		root := numeric.NewtonSystem(fn, a.jacobianDense, []float64{s[0], s[1]})
		if root.Residual >= residualTol {
			continue
		}
		x, y := root.X[0], root.X[1]
		if math.Abs(x) >= searchBound || math.Abs(y) >= searchBound {
			continue
		}
		dup := false
		for _, e := range out {
			if math.Abs(e.X-x) < dedupeTol && math.Abs(e.Y-y) < dedupeTol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, Equilibrium{X: x, Y: y, Source: SourceNumeric})
		}
	}
	sortEquilibria(out)
	return out
}

// solveSymbolic handles the cases an exact solve can enumerate. Each
// equation is split into the factors of its top-level product and every
// pairing of a factor of f with a factor of g is solved on its own: affine
// pairs by Cramer's rule, the rest by eliminating one variable to leave a
// polynomial in the other. Candidates are checked against the full system.
// complete reports whether every pairing was solved exactly.
func (a *Analyzer) solveSymbolic() (eq []Equilibrium, complete bool) {
	var pts [][2]float64
	complete = true
	for _, p := range expr.Factors(a.f) {
		for _, q := range expr.Factors(a.g) {
			sol, ok := solvePair(p, q)
			pts = append(pts, sol...)
			complete = complete && ok
		}
	}

	var out []Equilibrium
	for _, p := range pts {
		x, y := p[0], p[1]
		if math.IsNaN(x) || math.IsNaN(y) || math.Abs(x) >= searchBound || math.Abs(y) >= searchBound {
			continue
		}
		if a.residual(x, y) >= residualTol {
			continue
		}
		dup := false
		for _, e := range out {
			if math.Abs(e.X-x) < 1e-9 && math.Abs(e.Y-y) < 1e-9 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, Equilibrium{X: x, Y: y, Source: SourceSymbolic})
		}
	}
	sortEquilibria(out)
	return out, complete
}

func sortEquilibria(eq []Equilibrium) {
	sort.Slice(eq, func(i, j int) bool {
		if eq[i].X != eq[j].X {
			return eq[i].X < eq[j].X
		}
		return eq[i].Y < eq[j].Y
	})
}

// solvePair solves p = q = 0. A constant factor here is identically zero and
// contributes no isolated points.
func solvePair(p, q expr.Node) ([][2]float64, bool) {
	if expr.IsConstant(p) || expr.IsConstant(q) {
		return nil, true
	}
	if isAffine(p) && isAffine(q) {
		return solveAffine(p, q), true
	}
	return solveByElimination(p, q)
}

func isAffine(n expr.Node) bool {
	return expr.IsConstant(expr.Derivative(n, "x")) && expr.IsConstant(expr.Derivative(n, "y"))
}

// solveAffine applies Cramer's rule; a singular pair has no isolated
// solution and yields nothing.
func solveAffine(p, q expr.Node) [][2]float64 {
	origin := expr.Env{"x": 0, "y": 0}
	a1, b1, c1 := expr.Derivative(p, "x").Eval(nil), expr.Derivative(p, "y").Eval(nil), p.Eval(origin)
	a2, b2, c2 := expr.Derivative(q, "x").Eval(nil), expr.Derivative(q, "y").Eval(nil), q.Eval(origin)
	det := a1*b2 - b1*a2
	if det == 0 || math.IsNaN(det) {
		return nil
	}
	return [][2]float64{{(-c1*b2 + b1*c2) / det, (-a1*c2 + c1*a2) / det}}
}

func other(v string) string {
	if v == "x" {
		return "y"
	}
	return "x"
}

// solveByElimination returns the first non-empty elimination. ok is false
// when no elimination applies; an elimination that applies but finds no
// real root proves there is none.
func solveByElimination(f, g expr.Node) (pts [][2]float64, ok bool) {
	eqs := [2]expr.Node{f, g}
	for k := 0; k < 2; k++ {
		eqA, eqB := eqs[k], eqs[1-k]
		for _, v := range []string{"x", "y"} {
			if sol, solved := eliminateAffine(eqA, eqB, v); solved {
				if len(sol) > 0 {
					return sol, true
				}
				ok = true
			}
		}
		for _, u := range []string{"x", "y"} {
			if sol, solved := eliminateUnivariate(eqA, eqB, u); solved {
				if len(sol) > 0 {
					return sol, true
				}
				ok = true
			}
		}
	}
	return nil, ok
}

// eliminateAffine solves eqA = c·v + rest(w) = 0 for v when c is a nonzero
// constant, substitutes into eqB and takes the real roots of the resulting
// polynomial in w.
func eliminateAffine(eqA, eqB expr.Node, v string) ([][2]float64, bool) {
	if !expr.Depends(eqA, v) {
		return nil, false
	}
	dv := expr.Derivative(eqA, v)
	if !expr.IsConstant(dv) {
		return nil, false
	}
	c := dv.Eval(nil)
	if c == 0 || math.IsNaN(c) {
		return nil, false
	}
	w := other(v)
	rest := eqA.Sub(v, &expr.Num{V: 0}).Simplify()
	vExpr := (&expr.Bin{Op: '/', L: &expr.Neg{X: rest}, R: &expr.Num{V: c}}).Simplify()

	h := eqB.Sub(v, vExpr).Simplify()
	ws, ok := univariateRoots(h, w)
	if !ok {
		return nil, false
	}
	var pts [][2]float64
	for _, wv := range ws {
		vv := vExpr.Eval(expr.Env{w: wv})
		pts = append(pts, orient(v, vv, wv))
	}
	return pts, true
}

// eliminateUnivariate handles eqA depending on u alone: each real root of
// eqA is substituted into eqB, which must then be polynomial in the other
// variable.
func eliminateUnivariate(eqA, eqB expr.Node, u string) ([][2]float64, bool) {
	vars := eqA.Vars()
	if len(vars) != 1 || !vars[u] {
		return nil, false
	}
	us, ok := univariateRoots(eqA, u)
	if !ok {
		return nil, false
	}
	w := other(u)
	var pts [][2]float64
	for _, uv := range us {
		h := eqB.Sub(u, &expr.Num{V: uv}).Simplify()
		ws, ok := univariateRoots(h, w)
		if !ok {
			return nil, false
		}
		for _, wv := range ws {
			pts = append(pts, orient(u, uv, wv))
		}
	}
	return pts, true
}

// univariateRoots returns the real roots of n as a polynomial in v. A
// constant n has no isolated roots; ok is false when n is not polynomial.
func univariateRoots(n expr.Node, v string) ([]float64, bool) {
	if !expr.IsConstant(n) && !expr.Depends(n, v) {
		return nil, false
	}
	c, ok := expr.Polynomial(n, v)
	if !ok || len(c) < 2 {
		return nil, false
	}
	return numeric.RealRoots(c, 1e-9), true
}

// orient places the value of variable v and its partner into (x, y) order.
func orient(v string, vv, wv float64) [2]float64 {
	if v == "x" {
		return [2]float64{vv, wv}
	}
	return [2]float64{wv, vv}
}
