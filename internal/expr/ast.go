// Package expr parses planar vector-field equations over x and y into
// expression trees that can be evaluated, differentiated and simplified.
package expr

import (
	"math"
	"strconv"
)

// Env binds variable names to values.
type Env map[string]float64

// Node is an expression tree node. Nodes are immutable; every transform
// returns a new tree.
type Node interface {
	Eval(env Env) float64
	Diff(v string) Node
	Simplify() Node
	Sub(v string, with Node) Node
	String() string
	Vars() map[string]bool
}

type Num struct{ V float64 }

// Const is a named constant such as pi.
type Const struct {
	Name string
	V    float64
}

type Var struct{ Name string }

type Neg struct{ X Node }

// Bin is a binary operation; Op is one of + - * / ^.
type Bin struct {
	Op   byte
	L, R Node
}

// Call applies one of the supported single-argument functions.
type Call struct {
	Fn  string
	Arg Node
}

func (n *Num) Eval(Env) float64   { return n.V }
func (n *Const) Eval(Env) float64 { return n.V }

func (n *Var) Eval(env Env) float64 {
	v, ok := env[n.Name]
	if !ok {
		return math.NaN()
	}
	return v
}

func (n *Neg) Eval(env Env) float64 { return -n.X.Eval(env) }

func (n *Bin) Eval(env Env) float64 {
	return applyBin(n.Op, n.L.Eval(env), n.R.Eval(env))
}

func (n *Call) Eval(env Env) float64 {
	return applyFn(n.Fn, n.Arg.Eval(env))
}

func applyBin(op byte, l, r float64) float64 {
	switch op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r
	case '^':
		return math.Pow(l, r)
	}
	return math.NaN()
}

func applyFn(fn string, a float64) float64 {
	switch fn {
	case "sin":
		return math.Sin(a)
	case "cos":
		return math.Cos(a)
	case "tan":
		return math.Tan(a)
	case "exp":
		return math.Exp(a)
	case "log":
		return math.Log(a)
	case "sqrt":
		return math.Sqrt(a)
	case "abs":
		return math.Abs(a)
	}
	return math.NaN()
}

func (n *Num) Sub(string, Node) Node   { return n }
func (n *Const) Sub(string, Node) Node { return n }

func (n *Var) Sub(v string, with Node) Node {
	if n.Name == v {
		return with
	}
	return n
}

func (n *Neg) Sub(v string, with Node) Node { return &Neg{X: n.X.Sub(v, with)} }

func (n *Bin) Sub(v string, with Node) Node {
	return &Bin{Op: n.Op, L: n.L.Sub(v, with), R: n.R.Sub(v, with)}
}

func (n *Call) Sub(v string, with Node) Node {
	return &Call{Fn: n.Fn, Arg: n.Arg.Sub(v, with)}
}

func (n *Num) Vars() map[string]bool   { return map[string]bool{} }
func (n *Const) Vars() map[string]bool { return map[string]bool{} }
func (n *Var) Vars() map[string]bool   { return map[string]bool{n.Name: true} }
func (n *Neg) Vars() map[string]bool   { return n.X.Vars() }
func (n *Call) Vars() map[string]bool  { return n.Arg.Vars() }

func (n *Bin) Vars() map[string]bool {
	out := n.L.Vars()
	for k := range n.R.Vars() {
		out[k] = true
	}
	return out
}

// Depends reports whether n mentions variable v.
func Depends(n Node, v string) bool { return n.Vars()[v] }

// IsConstant reports whether n mentions no variables.
func IsConstant(n Node) bool { return len(n.Vars()) == 0 }

const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precAtom
)

func prec(n Node) int {
	switch n := n.(type) {
	case *Bin:
		switch n.Op {
		case '+', '-':
			return precAdd
		case '*', '/':
			return precMul
		default:
			return precPow
		}
	case *Neg:
		return precNeg
	case *Num:
		if n.V < 0 {
			return precNeg
		}
	}
	return precAtom
}

func wrap(n Node, min int) string {
	if prec(n) < min {
		return "(" + n.String() + ")"
	}
	return n.String()
}

func (n *Num) String() string   { return strconv.FormatFloat(n.V, 'g', -1, 64) }
func (n *Const) String() string { return n.Name }
func (n *Var) String() string   { return n.Name }
func (n *Neg) String() string   { return "-" + wrap(n.X, precPow) }
func (n *Call) String() string  { return n.Fn + "(" + n.Arg.String() + ")" }

func (n *Bin) String() string {
	switch n.Op {
	case '+':
		return wrap(n.L, precAdd) + " + " + wrap(n.R, precAdd)
	case '-':
		return wrap(n.L, precAdd) + " - " + wrap(n.R, precMul)
	case '*':
		return wrap(n.L, precMul) + "*" + wrap(n.R, precNeg)
	case '/':
		return wrap(n.L, precMul) + "/" + wrap(n.R, precPow)
	default:
		return wrap(n.L, precAtom) + "^" + wrap(n.R, precPow)
	}
}
