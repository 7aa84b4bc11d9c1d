package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs is the infinity norm. Non-finite components yield +Inf so that a
// poisoned state never passes a magnitude bound.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		if math.IsNaN(v) {
			return math.Inf(1)
		}
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous or time-dependent vector field dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator reports ErrStepRejected when the local error estimate
// exceeds tol; the returned step size is the suggested retry (or next) step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Dt              float64
	Tolerance       float64
	AbsTolerance    float64
	MaxDt           float64
	MinDt           float64
	MaxSteps        int
	DivergenceBound float64
}

func DefaultConfig() Config {
	return Config{
		Dt:              0.01,
		Tolerance:       1e-6,
		AbsTolerance:    1e-9,
		MaxDt:           0.1,
		MinDt:           1e-10,
		MaxSteps:        2_000_000,
		DivergenceBound: 1e6,
	}
}

// TightConfig is used where trajectories of user supplied fields must stay
// accurate over long spans.
func TightConfig() Config {
	cfg := DefaultConfig()
	cfg.Tolerance = 1e-8
	cfg.AbsTolerance = 1e-10
	return cfg
}
