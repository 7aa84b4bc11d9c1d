package expr

import "math"

// Func evaluates a compiled expression at (x, y).
type Func func(x, y float64) float64

// Compile turns n into a closure tree, avoiding map lookups in hot loops
// such as integration and grid sampling.
func Compile(n Node) Func {
	switch n := n.(type) {
	case *Num:
		v := n.V
		return func(float64, float64) float64 { return v }
	case *Const:
		v := n.V
		return func(float64, float64) float64 { return v }
	case *Var:
		switch n.Name {
		case "x":
			return func(x, _ float64) float64 { return x }
		case "y":
			return func(_, y float64) float64 { return y }
		}
		return func(float64, float64) float64 { return math.NaN() }
	case *Neg:
		f := Compile(n.X)
		return func(x, y float64) float64 { return -f(x, y) }
	case *Bin:
		l, r := Compile(n.L), Compile(n.R)
		switch n.Op {
		case '+':
			return func(x, y float64) float64 { return l(x, y) + r(x, y) }
		case '-':
			return func(x, y float64) float64 { return l(x, y) - r(x, y) }
		case '*':
			return func(x, y float64) float64 { return l(x, y) * r(x, y) }
		case '/':
			return func(x, y float64) float64 { return l(x, y) / r(x, y) }
		default:
			return func(x, y float64) float64 { return math.Pow(l(x, y), r(x, y)) }
		}
	case *Call:
		a := Compile(n.Arg)
		fn := n.Fn
		return func(x, y float64) float64 { return applyFn(fn, a(x, y)) }
	}
	return func(x, y float64) float64 { return n.Eval(Env{"x": x, "y": y}) }
}
