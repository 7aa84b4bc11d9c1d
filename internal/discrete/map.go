// Package discrete analyses one- and two-dimensional iterated maps
// x[n+1] = f(x[n]; θ): fixed points and their stability, periodic orbits,
// Lyapunov exponents, bifurcation sweeps, cobweb and return-map data.
package discrete

import (
	"fmt"
	"strings"

	"github.com/san-kum/dynlab/internal/dynamo"
)

const (
	divergenceBound = 1e6
	pointTol        = 1e-6
	diffStep        = 1e-8
)

// Map is one map kind with its parameter set. Parameters change only via
// SetParam; bifurcation sweeps work on copies.
type Map struct {
	kind   MapKind
	params Params
}

// New merges params over the kind's defaults. Names the kind does not
// define are rejected.
func New(kind MapKind, params Params) (*Map, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: map kind %d", dynamo.ErrUnknownKind, int(kind))
	}
	m := &Map{kind: kind, params: kind.Defaults()}
	for _, name := range params.Names() {
		if err := m.SetParam(name, params[name]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New for literals known to be valid.
func MustNew(kind MapKind, params Params) *Map {
	m, err := New(kind, params)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Map) Kind() MapKind  { return m.kind }
func (m *Map) Dimension() int { return m.kind.Dimension() }
func (m *Map) Params() Params { return m.params.Clone() }
func (m *Map) String() string { return m.kind.String() }

func (m *Map) GetParams() map[string]float64 { return m.params.Clone() }

func (m *Map) SetParam(name string, value float64) error {
	if _, ok := m.params[name]; !ok {
		return dynamo.NewError(dynamo.KindInvalidInput, "unknown parameter %q for %s map", name, m.kind).
			WithCause(dynamo.ErrUnknownParam).
			WithSuggestion("valid parameters: " + strings.Join(m.params.Names(), ", "))
	}
	m.params[name] = value
	return nil
}

// Apply evaluates f(x). x must have the map's dimension.
func (m *Map) Apply(x dynamo.State) dynamo.State {
	return kinds[m.kind].apply(m.params, x)
}

func (m *Map) apply1(x float64) float64 {
	return m.Apply(dynamo.State{x})[0]
}

// checkState validates x against the map dimension.
func (m *Map) checkState(x dynamo.State) error {
	if len(x) != m.Dimension() {
		return dynamo.NewError(dynamo.KindInvalidInput,
			"%s map expects a %d-dimensional state, got %d", m.kind, m.Dimension(), len(x)).
			WithCause(dynamo.ErrDimensionMismatch)
	}
	return nil
}

func (m *Map) require1D(op string) error {
	if m.Dimension() != 1 {
		return dynamo.NewError(dynamo.KindUnsupportedConfiguration,
			"%s applies to one-dimensional maps only; %s is %d-dimensional", op, m.kind, m.Dimension()).
			WithSuggestion("choose one of the 1D maps such as logistic, tent or sine")
	}
	return nil
}

// Iterate returns x0 followed by up to n images. Iteration stops after the
// first state whose magnitude exceeds the divergence bound; that state is
// included. The map is deterministic, so repeated calls agree. A negative or
// oversized n, or an x0 of the wrong dimension, yields nil.
func (m *Map) Iterate(x0 dynamo.State, n int) []dynamo.State {
	if n < 0 || n >= dynamo.MaxSamples || m.checkState(x0) != nil {
		return nil
	}
	out := make([]dynamo.State, 0, n+1)
	x := x0.Clone()
	out = append(out, x)
	for i := 0; i < n; i++ {
		x = m.Apply(x)
		out = append(out, x)
		if x.MaxAbs() > divergenceBound {
			break
		}
	}
	return out
}
