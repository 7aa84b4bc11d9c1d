package dynamo

import (
	"errors"
	"fmt"
	"math"
)

// Trajectory is an ordered sequence of (time, state) samples.
type Trajectory struct {
	Times  []float64
	States []State
	// Truncated is set when samples past the divergence bound were dropped.
	Truncated bool
	// Err carries a degraded-result annotation; the samples are still usable.
	Err string
}

func (tr *Trajectory) Len() int { return len(tr.States) }

// Component returns the i-th coordinate of every sample.
func (tr *Trajectory) Component(i int) []float64 {
	out := make([]float64, len(tr.States))
	for k, s := range tr.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}

// Last returns the final sample, or nil for an empty trajectory.
func (tr *Trajectory) Last() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// TruncateDivergent keeps the samples up to and including the last one whose
// infinity norm is below bound. If none qualifies the trajectory collapses
// to the single initial sample at t=0.
func (tr *Trajectory) TruncateDivergent(bound float64, initial State) {
	last := -1
	for i, s := range tr.States {
		if s.MaxAbs() < bound {
			last = i
		}
	}
	switch {
	case last == len(tr.States)-1 && last >= 0:
		return
	case last < 0:
		tr.Times = []float64{0}
		tr.States = []State{initial.Clone()}
	default:
		tr.Times = tr.Times[:last+1]
		tr.States = tr.States[:last+1]
	}
	tr.Truncated = true
}

// Single builds the degraded one-sample trajectory used when a computation
// fails before producing any samples.
func Single(initial State, err error) *Trajectory {
	tr := &Trajectory{
		Times:  []float64{0},
		States: []State{initial.Clone()},
	}
	if err != nil {
		tr.Err = err.Error()
	}
	return tr
}

// Integrate samples sys at the given increasing times starting from x0 at
// times[0]. Adaptive integrators take error-controlled sub-steps between
// samples; fixed-step integrators take ceil(gap/cfg.Dt) equal sub-steps.
//
// Integration stops early once a sample exceeds cfg.DivergenceBound or the
// stepper fails; the samples gathered so far are returned together with the
// error, which is nil for a divergence stop.
func Integrate(sys System, integ Integrator, x0 State, times []float64, cfg Config) (*Trajectory, error) {
	if len(x0) != sys.StateDim() {
		return nil, ErrDimensionMismatch
	}
	tr := &Trajectory{
		Times:  make([]float64, 0, len(times)),
		States: make([]State, 0, len(times)),
	}
	if len(times) == 0 {
		return tr, nil
	}

	x := x0.Clone()
	tr.Times = append(tr.Times, times[0])
	tr.States = append(tr.States, x.Clone())

	adaptive, isAdaptive := integ.(AdaptiveIntegrator)
	h := cfg.Dt
	steps := 0

	for k := 1; k < len(times); k++ {
		t0, t1 := times[k-1], times[k]
		var err error
		if isAdaptive {
			x, h, err = advanceAdaptive(sys, adaptive, x, t0, t1, h, cfg, &steps)
		} else {
			x, err = advanceFixed(sys, integ, x, t0, t1, cfg, &steps)
		}
		if err != nil {
			return tr, &SimulationError{Step: k, Time: t0, State: x, Wrapped: err}
		}
		tr.Times = append(tr.Times, t1)
		tr.States = append(tr.States, x.Clone())
		if bound := cfg.DivergenceBound; bound > 0 && x.MaxAbs() >= bound {
			tr.TruncateDivergent(bound, x0)
			return tr, nil
		}
	}
	return tr, nil
}

// IntegrateOrDegrade runs Integrate and never fails. A stepper that breaks
// down on invalid states, a collapsing step size or an exhausted step budget
// leaves the trajectory truncated at the divergence bound; any other failure,
// including a panic inside the vector field, yields Single(x0, err).
func IntegrateOrDegrade(sys System, integ Integrator, x0 State, times []float64, cfg Config) (tr *Trajectory) {
	defer func() {
		if r := recover(); r != nil {
			tr = Single(x0, fmt.Errorf("evaluation failed: %v", r))
		}
	}()

	tr, err := Integrate(sys, integ, x0, times, cfg)
	if err == nil {
		return tr
	}
	if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrStepTooSmall) || errors.Is(err, ErrTooManySteps) {
		tr.TruncateDivergent(cfg.DivergenceBound, x0)
		tr.Truncated = true
		return tr
	}
	return Single(x0, err)
}

func advanceFixed(sys System, integ Integrator, x State, t0, t1 float64, cfg Config, steps *int) (State, error) {
	gap := t1 - t0
	if gap <= 0 {
		return x, nil
	}
	n := int(math.Ceil(gap/cfg.Dt - 1e-9))
	if n < 1 {
		n = 1
	}
	dt := gap / float64(n)
	t := t0
	for i := 0; i < n; i++ {
		x = integ.Step(sys, x, t, dt)
		t += dt
		*steps++
		if cfg.MaxSteps > 0 && *steps > cfg.MaxSteps {
			return x, ErrTooManySteps
		}
		if !x.IsValid() {
			return x, ErrInvalidState
		}
	}
	return x, nil
}

func advanceAdaptive(sys System, integ AdaptiveIntegrator, x State, t0, t1, h float64, cfg Config, steps *int) (State, float64, error) {
	t := t0
	if h <= 0 {
		h = cfg.Dt
	}
	for t1-t > 1e-12*math.Max(1, math.Abs(t1)) {
		dt := math.Min(h, t1-t)
		if cfg.MaxDt > 0 {
			dt = math.Min(dt, cfg.MaxDt)
		}
		xNew, next, err := integ.StepAdaptive(sys, x, t, dt, cfg.Tolerance)
		*steps++
		if cfg.MaxSteps > 0 && *steps > cfg.MaxSteps {
			return x, h, ErrTooManySteps
		}
		if errors.Is(err, ErrStepRejected) {
			if next < cfg.MinDt {
				return x, h, ErrStepTooSmall
			}
			h = next
			continue
		}
		if err != nil {
			return x, h, err
		}
		if !xNew.IsValid() {
			return x, h, ErrInvalidState
		}
		x = xNew
		t += dt
		// A step clipped to land on t1 should not shrink the next one.
		if dt == h || next > h {
			h = next
		}
		if cfg.MaxDt > 0 && h > cfg.MaxDt {
			h = cfg.MaxDt
		}
		if bound := cfg.DivergenceBound; bound > 0 && x.MaxAbs() >= bound {
			return x, h, nil
		}
	}
	return x, h, nil
}

// MaxSamples bounds the number of samples, grid cells or iterations a single
// analysis may allocate.
const MaxSamples = 1_000_000

// CheckSamples rejects a sample count above MaxSamples. what names the
// request fields that produced n.
func CheckSamples(what string, n float64) error {
	if math.IsNaN(n) || n > MaxSamples {
		return NewError(KindInvalidInput, "%s asks for %g samples, the limit is %d", what, n, MaxSamples).
			WithContext("field", what).
			WithSuggestion("use a coarser step, a shorter span or fewer points")
	}
	return nil
}

// ArangeLen is the length of Arange(start, stop, step), as a float so that
// absurd requests can be checked before anything is allocated.
func ArangeLen(start, stop, step float64) float64 {
	if !(step > 0) || !(stop > start) {
		return 0
	}
	return math.Ceil((stop - start) / step)
}

// Linspace returns n evenly spaced values over [start, stop]. It returns nil
// when n is not in [1, MaxSamples].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 || n > MaxSamples {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// Arange returns start, start+step, ... strictly below stop, or nil when
// that would be more than MaxSamples values.
func Arange(start, stop, step float64) []float64 {
	l := ArangeLen(start, stop, step)
	if l == 0 || l > MaxSamples {
		return nil
	}
	n := int(l)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
