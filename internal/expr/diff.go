package expr

func num(v float64) Node { return &Num{V: v} }

func add(a, b Node) Node          { return &Bin{Op: '+', L: a, R: b} }
func sub(a, b Node) Node          { return &Bin{Op: '-', L: a, R: b} }
func mul(a, b Node) Node          { return &Bin{Op: '*', L: a, R: b} }
func div(a, b Node) Node          { return &Bin{Op: '/', L: a, R: b} }
func pow(a, b Node) Node          { return &Bin{Op: '^', L: a, R: b} }
func call(fn string, a Node) Node { return &Call{Fn: fn, Arg: a} }

// Derivative differentiates n with respect to v and simplifies the result.
func Derivative(n Node, v string) Node {
	return n.Diff(v).Simplify()
}

func (n *Num) Diff(string) Node   { return num(0) }
func (n *Const) Diff(string) Node { return num(0) }

func (n *Var) Diff(v string) Node {
	if n.Name == v {
		return num(1)
	}
	return num(0)
}

func (n *Neg) Diff(v string) Node { return &Neg{X: n.X.Diff(v)} }

func (n *Bin) Diff(v string) Node {
	dl, dr := n.L.Diff(v), n.R.Diff(v)
	switch n.Op {
	case '+':
		return add(dl, dr)
	case '-':
		return sub(dl, dr)
	case '*':
		return add(mul(dl, n.R), mul(n.L, dr))
	case '/':
		return div(sub(mul(dl, n.R), mul(n.L, dr)), pow(n.R, num(2)))
	}

	// Power rule, split on which side depends on v.
	switch {
	case !Depends(n.R, v):
		return mul(mul(n.R, pow(n.L, sub(n.R, num(1)))), dl)
	case !Depends(n.L, v):
		return mul(mul(n, call("log", n.L)), dr)
	default:
		return mul(n, add(mul(dr, call("log", n.L)), div(mul(n.R, dl), n.L)))
	}
}

func (n *Call) Diff(v string) Node {
	a := n.Arg
	da := a.Diff(v)
	var outer Node
	switch n.Fn {
	case "sin":
		outer = call("cos", a)
	case "cos":
		outer = &Neg{X: call("sin", a)}
	case "tan":
		outer = div(num(1), pow(call("cos", a), num(2)))
	case "exp":
		outer = n
	case "log":
		outer = div(num(1), a)
	case "sqrt":
		outer = div(num(1), mul(num(2), n))
	case "abs":
		outer = div(a, n)
	default:
		return num(0)
	}
	return mul(outer, da)
}
