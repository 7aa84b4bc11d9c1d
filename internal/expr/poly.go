package expr

import "math"

const maxPolyDegree = 12

// Polynomial extracts ascending coefficients of n as a polynomial in v.
// It fails when n involves another variable or is not polynomial in v
// (negative, fractional or symbolic powers, v under a function, division
// by a v-dependent expression) or exceeds a small degree bound.
func Polynomial(n Node, v string) ([]float64, bool) {
	c, ok := poly(n, v)
	if !ok {
		return nil, false
	}
	for i := range c {
		if !isFinite(c[i]) {
			return nil, false
		}
	}
	return trim(c), true
}

func poly(n Node, v string) ([]float64, bool) {
	vars := n.Vars()
	if len(vars) == 0 {
		x := n.Eval(nil)
		return []float64{x}, isFinite(x)
	}
	if len(vars) > 1 || !vars[v] {
		return nil, false
	}

	switch n := n.(type) {
	case *Var:
		return []float64{0, 1}, true
	case *Neg:
		c, ok := poly(n.X, v)
		if !ok {
			return nil, false
		}
		return scale(c, -1), true
	case *Bin:
		l, ok := poly(n.L, v)
		if !ok && n.Op != '^' {
			return nil, false
		}
		switch n.Op {
		case '+', '-':
			r, ok := poly(n.R, v)
			if !ok {
				return nil, false
			}
			if n.Op == '-' {
				r = scale(r, -1)
			}
			return addPoly(l, r), true
		case '*':
			r, ok := poly(n.R, v)
			if !ok {
				return nil, false
			}
			return mulPoly(l, r), true
		case '/':
			if Depends(n.R, v) {
				return nil, false
			}
			d := n.R.Eval(nil)
			if d == 0 || !isFinite(d) {
				return nil, false
			}
			return scale(l, 1/d), true
		case '^':
			if !ok || Depends(n.R, v) {
				return nil, false
			}
			e := n.R.Eval(nil)
			k := int(e)
			if float64(k) != e || k < 0 || k > maxPolyDegree {
				return nil, false
			}
			out := []float64{1}
			for i := 0; i < k; i++ {
				out = mulPoly(out, l)
			}
			if len(out)-1 > maxPolyDegree {
				return nil, false
			}
			return out, true
		}
	}
	return nil, false
}

func scale(c []float64, f float64) []float64 {
	out := make([]float64, len(c))
	for i := range c {
		out[i] = c[i] * f
	}
	return out
}

func addPoly(a, b []float64) []float64 {
	if len(a) < len(b) {
		a, b = b, a
	}
	out := append([]float64(nil), a...)
	for i := range b {
		out[i] += b[i]
	}
	return out
}

func mulPoly(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i := range a {
		for j := range b {
			out[i+j] += a[i] * b[j]
		}
	}
	return out
}

// trim drops negligible leading coefficients.
func trim(c []float64) []float64 {
	maxAbs := 0.0
	for _, x := range c {
		maxAbs = math.Max(maxAbs, math.Abs(x))
	}
	n := len(c)
	for n > 1 && math.Abs(c[n-1]) <= 1e-14*maxAbs {
		n--
	}
	return c[:n]
}
