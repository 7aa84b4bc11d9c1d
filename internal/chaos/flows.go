package chaos

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// FlowKind is the closed set of supported three-dimensional flows.
type FlowKind int

const (
	Lorenz FlowKind = iota
	Rossler
	Chua
	Thomas
)

var flowNames = [...]string{
	Lorenz:  "lorenz",
	Rossler: "rossler",
	Chua:    "chua",
	Thomas:  "thomas",
}

func (k FlowKind) String() string {
	if k < 0 || int(k) >= len(flowNames) {
		return fmt.Sprintf("FlowKind(%d)", int(k))
	}
	return flowNames[k]
}

func (k FlowKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *FlowKind) UnmarshalText(b []byte) error {
	v, err := ParseFlowKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func ParseFlowKind(s string) (FlowKind, error) {
	for i, name := range flowNames {
		if name == s {
			return FlowKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: flow %q", dynamo.ErrUnknownKind, s)
}

func FlowNames() []string {
	return append([]string(nil), flowNames[:]...)
}

// Flow is a tunable three-dimensional vector field.
type Flow interface {
	dynamo.System
	dynamo.Configurable
	Kind() FlowKind
	DefaultState() dynamo.State
}

// NewFlow builds the flow of the given kind with params applied over its
// defaults.
func NewFlow(kind FlowKind, params map[string]float64) (Flow, error) {
	var f Flow
	switch kind {
	case Lorenz:
		f = NewLorenz()
	case Rossler:
		f = NewRossler()
	case Chua:
		f = NewChua()
	case Thomas:
		f = NewThomas()
	default:
		return nil, fmt.Errorf("%w: flow kind %d", dynamo.ErrUnknownKind, int(kind))
	}
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := f.SetParam(n, params[n]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MustFlow is NewFlow for literals known to be valid.
func MustFlow(kind FlowKind, params map[string]float64) Flow {
	f, err := NewFlow(kind, params)
	if err != nil {
		panic(err)
	}
	return f
}

func unknownParam(kind FlowKind, name string) error {
	return dynamo.NewError(dynamo.KindInvalidInput, "unknown parameter %q for %s", name, kind).
		WithCause(dynamo.ErrUnknownParam)
}

type LorenzSystem struct{ sigma, rho, beta float64 }

func NewLorenz() *LorenzSystem                     { return &LorenzSystem{10.0, 28.0, 8.0 / 3.0} }
func (l *LorenzSystem) Kind() FlowKind             { return Lorenz }
func (l *LorenzSystem) StateDim() int              { return 3 }
func (l *LorenzSystem) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (l *LorenzSystem) Derive(s dynamo.State, _ float64) dynamo.State {
	return dynamo.State{l.sigma * (s[1] - s[0]), s[0]*(l.rho-s[2]) - s[1], s[0]*s[1] - l.beta*s[2]}
}

func (l *LorenzSystem) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}

func (l *LorenzSystem) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.sigma = v
	case "rho":
		l.rho = v
	case "beta":
		l.beta = v
	default:
		return unknownParam(Lorenz, n)
	}
	return nil
}

type RosslerSystem struct{ a, b, c float64 }

func NewRossler() *RosslerSystem                    { return &RosslerSystem{0.2, 0.2, 5.7} }
func (r *RosslerSystem) Kind() FlowKind             { return Rossler }
func (r *RosslerSystem) StateDim() int              { return 3 }
func (r *RosslerSystem) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (r *RosslerSystem) Derive(s dynamo.State, _ float64) dynamo.State {
	return dynamo.State{-s[1] - s[2], s[0] + r.a*s[1], r.b + s[2]*(s[0]-r.c)}
}

func (r *RosslerSystem) GetParams() map[string]float64 {
	return map[string]float64{"a": r.a, "b": r.b, "c": r.c}
}

func (r *RosslerSystem) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.a = v
	case "b":
		r.b = v
	case "c":
		r.c = v
	default:
		return unknownParam(Rossler, n)
	}
	return nil
}

// ChuaCircuit is the dimensionless Chua circuit with a piecewise-linear
// diode characteristic of inner slope m0 and outer slope m1.
type ChuaCircuit struct{ alpha, beta, m0, m1 float64 }

func NewChua() *ChuaCircuit                       { return &ChuaCircuit{15.6, 28.0, -1.143, -0.714} }
func (c *ChuaCircuit) Kind() FlowKind             { return Chua }
func (c *ChuaCircuit) StateDim() int              { return 3 }
func (c *ChuaCircuit) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (c *ChuaCircuit) diode(x float64) float64 {
	return c.m1*x + 0.5*(c.m0-c.m1)*(math.Abs(x+1)-math.Abs(x-1))
}

func (c *ChuaCircuit) Derive(s dynamo.State, _ float64) dynamo.State {
	return dynamo.State{c.alpha * (s[1] - s[0] - c.diode(s[0])), s[0] - s[1] + s[2], -c.beta * s[1]}
}

func (c *ChuaCircuit) GetParams() map[string]float64 {
	return map[string]float64{"alpha": c.alpha, "beta": c.beta, "m0": c.m0, "m1": c.m1}
}

func (c *ChuaCircuit) SetParam(n string, v float64) error {
	switch n {
	case "alpha":
		c.alpha = v
	case "beta":
		c.beta = v
	case "m0":
		c.m0 = v
	case "m1":
		c.m1 = v
	default:
		return unknownParam(Chua, n)
	}
	return nil
}

// ThomasSystem is Thomas' cyclically symmetric attractor.
type ThomasSystem struct{ b float64 }

func NewThomas() *ThomasSystem                      { return &ThomasSystem{0.208186} }
func (th *ThomasSystem) Kind() FlowKind             { return Thomas }
func (th *ThomasSystem) StateDim() int              { return 3 }
func (th *ThomasSystem) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (th *ThomasSystem) Derive(s dynamo.State, _ float64) dynamo.State {
	return dynamo.State{
		math.Sin(s[1]) - th.b*s[0],
		math.Sin(s[2]) - th.b*s[1],
		math.Sin(s[0]) - th.b*s[2],
	}
}

func (th *ThomasSystem) GetParams() map[string]float64 {
	return map[string]float64{"b": th.b}
}

func (th *ThomasSystem) SetParam(n string, v float64) error {
	if n != "b" {
		return unknownParam(Thomas, n)
	}
	th.b = v
	return nil
}

// Spec names a flow and parameter overrides.
type Spec struct {
	Kind   FlowKind           `json:"system_type" yaml:"system_type"`
	Params map[string]float64 `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

func (s Spec) Build() (Flow, error) { return NewFlow(s.Kind, s.Params) }
