// Package nonlinear analyses user-supplied planar systems
//
//	dx/dt = f(x, y)
//	dy/dt = g(x, y)
//
// given as equation text. The Jacobian is obtained by symbolic
// differentiation once at construction.
package nonlinear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/expr"
	"github.com/san-kum/dynlab/internal/integrators"
	"github.com/san-kum/dynlab/internal/linear"
	"github.com/san-kum/dynlab/internal/numeric"
)

// Analyzer holds the parsed system and its equilibria. It is immutable after
// New returns.
type Analyzer struct {
	dxdt, dydt string
	f, g       expr.Node
	ff, gf     expr.Func
	jac        [2][2]expr.Node
	jacf       [2][2]expr.Func
	equilibria []Equilibrium
}

// New parses both equations, differentiates them and searches for
// equilibria. Only parse failures are returned as errors.
func New(dxdt, dydt string) (*Analyzer, error) {
	f, err := expr.Parse(dxdt)
	if err != nil {
		return nil, fmt.Errorf("dx/dt: %w", err)
	}
	g, err := expr.Parse(dydt)
	if err != nil {
		return nil, fmt.Errorf("dy/dt: %w", err)
	}

	a := &Analyzer{
		dxdt: dxdt,
		dydt: dydt,
		f:    f,
		g:    g,
		ff:   expr.Compile(f),
		gf:   expr.Compile(g),
	}
	for i, eq := range []expr.Node{f, g} {
		for j, v := range []string{"x", "y"} {
			a.jac[i][j] = expr.Derivative(eq, v)
			a.jacf[i][j] = expr.Compile(a.jac[i][j])
		}
	}
	a.equilibria = a.findEquilibria()
	return a, nil
}

// Equations returns the equation text as supplied.
func (a *Analyzer) Equations() (dxdt, dydt string) { return a.dxdt, a.dydt }

func (a *Analyzer) Equilibria() []Equilibrium {
	return append([]Equilibrium(nil), a.equilibria...)
}

// JacobianText renders the four symbolic partial derivatives.
func (a *Analyzer) JacobianText() [2][2]string {
	var out [2][2]string
	for i := range a.jac {
		for j := range a.jac[i] {
			out[i][j] = a.jac[i][j].String()
		}
	}
	return out
}

// Jacobian evaluates the symbolic Jacobian at (x, y).
func (a *Analyzer) Jacobian(x, y float64) [2][2]float64 {
	var out [2][2]float64
	for i := range a.jacf {
		for j := range a.jacf[i] {
			out[i][j] = a.jacf[i][j](x, y)
		}
	}
	return out
}

func (a *Analyzer) jacobianDense(p []float64) *mat.Dense {
	j := a.Jacobian(p[0], p[1])
	return mat.NewDense(2, 2, []float64{j[0][0], j[0][1], j[1][0], j[1][1]})
}

// Eigenvalues of the Jacobian at p; nil when the Jacobian is not finite.
func (a *Analyzer) Eigenvalues(p Equilibrium) []complex128 {
	j := a.Jacobian(p.X, p.Y)
	if !(dynamo.State{j[0][0], j[0][1], j[1][0], j[1][1]}).IsValid() {
		return nil
	}
	vals, _, err := numeric.Eigen2(j)
	if err != nil {
		return nil
	}
	return vals[:]
}

// Classify linearises the system at p.
func (a *Analyzer) Classify(p Equilibrium) dynamo.StabilityClass {
	vals := a.Eigenvalues(p)
	if vals == nil {
		return dynamo.Unclassified
	}
	return linear.ClassifyEigenvalues(vals)
}

func (a *Analyzer) StateDim() int { return 2 }

func (a *Analyzer) Derive(s dynamo.State, _ float64) dynamo.State {
	return dynamo.State{a.ff(s[0], s[1]), a.gf(s[0], s[1])}
}

// Integrate samples the trajectory at numPoints evenly spaced times with tight
// tolerances. Samples past the divergence bound are cut; evaluation failures
// degrade to a single-sample trajectory carrying the error text, as does a
// sample count above dynamo.MaxSamples.
func (a *Analyzer) Integrate(initial, span [2]float64, numPoints int) *dynamo.Trajectory {
	x0 := dynamo.State{initial[0], initial[1]}
	if err := dynamo.CheckSamples("num_points", float64(numPoints)); err != nil {
		return dynamo.Single(x0, err)
	}
	cfg := dynamo.TightConfig()
	integ := integrators.NewRK45().WithAbsTolerance(cfg.AbsTolerance)
	return dynamo.IntegrateOrDegrade(a, integ, x0, dynamo.Linspace(span[0], span[1], numPoints), cfg)
}

// EvaluateGrid samples the field on a grid. A failing batch evaluation is
// retried point by point with zero substituted for failing points; non-finite
// values become zero.
func (a *Analyzer) EvaluateGrid(xRange, yRange [2]float64, gridSize int) dynamo.VectorField {
	field, err := a.evaluateBatch(xRange, yRange, gridSize)
	if err == nil {
		return field
	}
	return dynamo.SampleField(func(x, y float64) (float64, float64) {
		return safeEval(a.ff, x, y), safeEval(a.gf, x, y)
	}, xRange, yRange, gridSize)
}

func (a *Analyzer) evaluateBatch(xRange, yRange [2]float64, gridSize int) (vf dynamo.VectorField, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch evaluation: %v", r)
		}
	}()
	return dynamo.SampleField(func(x, y float64) (float64, float64) {
		return a.ff(x, y), a.gf(x, y)
	}, xRange, yRange, gridSize), nil
}

func safeEval(f expr.Func, x, y float64) (v float64) {
	defer func() {
		if recover() != nil {
			v = 0
		}
	}()
	return f(x, y)
}
