package expr

import "math"

func (n *Num) Simplify() Node   { return n }
func (n *Const) Simplify() Node { return n }
func (n *Var) Simplify() Node   { return n }

func (n *Neg) Simplify() Node {
	x := n.X.Simplify()
	switch x := x.(type) {
	case *Num:
		return num(-x.V)
	case *Neg:
		return x.X
	}
	return &Neg{X: x}
}

func (n *Call) Simplify() Node {
	a := n.Arg.Simplify()
	if c, ok := a.(*Num); ok {
		if v := applyFn(n.Fn, c.V); isFinite(v) {
			return num(v)
		}
	}
	return &Call{Fn: n.Fn, Arg: a}
}

func (n *Bin) Simplify() Node {
	l, r := n.L.Simplify(), n.R.Simplify()
	lc, lok := l.(*Num)
	rc, rok := r.(*Num)

	if lok && rok {
		if v := applyBin(n.Op, lc.V, rc.V); isFinite(v) {
			return num(v)
		}
	}

	is := func(ok bool, c *Num, v float64) bool { return ok && c.V == v }

	switch n.Op {
	case '+':
		if is(lok, lc, 0) {
			return r
		}
		if is(rok, rc, 0) {
			return l
		}
		if neg, ok := r.(*Neg); ok {
			return sub(l, neg.X)
		}
	case '-':
		if is(rok, rc, 0) {
			return l
		}
		if is(lok, lc, 0) {
			return (&Neg{X: r}).Simplify()
		}
		if neg, ok := r.(*Neg); ok {
			return add(l, neg.X)
		}
	case '*':
		if is(lok, lc, 0) || is(rok, rc, 0) {
			return num(0)
		}
		if is(lok, lc, 1) {
			return r
		}
		if is(rok, rc, 1) {
			return l
		}
		if is(lok, lc, -1) {
			return (&Neg{X: r}).Simplify()
		}
		if is(rok, rc, -1) {
			return (&Neg{X: l}).Simplify()
		}
		if rok && !lok {
			l, r = r, l
		}
		if ln, ok := l.(*Neg); ok {
			return (&Neg{X: mul(ln.X, r)}).Simplify()
		}
		if rn, ok := r.(*Neg); ok {
			return (&Neg{X: mul(l, rn.X)}).Simplify()
		}
	case '/':
		if is(lok, lc, 0) && !is(rok, rc, 0) {
			return num(0)
		}
		if is(rok, rc, 1) {
			return l
		}
	case '^':
		if is(rok, rc, 0) {
			return num(1)
		}
		if is(rok, rc, 1) {
			return l
		}
		if is(lok, lc, 1) {
			return num(1)
		}
	}
	return &Bin{Op: n.Op, L: l, R: r}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
