package integrators

import "github.com/san-kum/dynlab/internal/dynamo"

// tableau is the Butcher tableau of an explicit Runge-Kutta method. a is
// strictly lower triangular: stage i reads a[i][:i].
type tableau struct {
	name string
	a    [][]float64
	b    []float64
	c    []float64
}

var (
	eulerTableau = tableau{
		name: "euler",
		a:    [][]float64{{}},
		b:    []float64{1},
		c:    []float64{0},
	}
	midpointTableau = tableau{
		name: "midpoint",
		a:    [][]float64{{}, {0.5}},
		b:    []float64{0, 1},
		c:    []float64{0, 0.5},
	}
	heunTableau = tableau{
		name: "heun",
		a:    [][]float64{{}, {1}},
		b:    []float64{0.5, 0.5},
		c:    []float64{0, 1},
	}
	rk4Tableau = tableau{
		name: "rk4",
		a:    [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		b:    []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		c:    []float64{0, 0.5, 0.5, 1},
	}
)

// Explicit is a fixed-step explicit Runge-Kutta method. Stage buffers are
// reused between calls, so a value must not be shared across goroutines.
type Explicit struct {
	tab     tableau
	k       []dynamo.State
	scratch dynamo.State
}

// NewEuler is the first-order method, kept for comparison runs and cheap
// previews; analyzers default to RK45.
func NewEuler() *Explicit { return &Explicit{tab: eulerTableau} }

// NewMidpoint is the second-order explicit midpoint rule.
func NewMidpoint() *Explicit { return &Explicit{tab: midpointTableau} }

// NewHeun is the second-order trapezoidal predictor-corrector.
func NewHeun() *Explicit { return &Explicit{tab: heunTableau} }

// NewRK4 is the classic fourth-order method.
func NewRK4() *Explicit { return &Explicit{tab: rk4Tableau} }

func (e *Explicit) Name() string { return e.tab.name }

// Stages is the number of derivative evaluations per step.
func (e *Explicit) Stages() int { return len(e.tab.b) }

func (e *Explicit) ensureScratch(n int) {
	if len(e.scratch) == n && len(e.k) == len(e.tab.b) {
		return
	}
	e.k = make([]dynamo.State, len(e.tab.b))
	for i := range e.k {
		e.k[i] = make(dynamo.State, n)
	}
	e.scratch = make(dynamo.State, n)
}

func (e *Explicit) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	e.ensureScratch(n)

	for s, row := range e.tab.a {
		copy(e.scratch, x)
		for j, aij := range row {
			if aij == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				e.scratch[i] += dt * aij * e.k[j][i]
			}
		}
		copy(e.k[s], sys.Derive(e.scratch, t+e.tab.c[s]*dt))
	}

	result := x.Clone()
	for s, bs := range e.tab.b {
		if bs == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			result[i] += dt * bs * e.k[s][i]
		}
	}
	return result
}
