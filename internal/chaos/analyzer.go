package chaos

import (
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/integrators"
	"github.com/san-kum/dynlab/internal/numeric"
)

const (
	jacobianEps     = 1e-8
	jacobianStride  = 100
	boxDimensionStd = 0.1
)

// Exponents is the approximate three-exponent spectrum. The average trace
// of the finite-difference Jacobian along the orbit is split with fixed
// weights 0.6, 0.1 and −1.2; it is a heuristic, not a rigorous spectrum.
type Exponents struct {
	Lambda1 float64 `json:"lambda1"`
	Lambda2 float64 `json:"lambda2"`
	Lambda3 float64 `json:"lambda3"`
	Sum     float64 `json:"sum"`
}

// Dimensions holds the fractal dimension estimates.
type Dimensions struct {
	Box         float64 `json:"box_dimension"`
	Correlation float64 `json:"correlation_dimension"`
}

// Analyzer integrates one flow and caches the most recent trajectory for
// section and dimension queries. It is not safe for concurrent use.
type Analyzer struct {
	flow  Flow
	cfg   dynamo.Config
	rng   *rand.Rand
	traj  *dynamo.Trajectory
	integ dynamo.Integrator
}

type Option func(*Analyzer)

// WithSeed makes the stochastic estimators reproducible.
func WithSeed(seed int64) Option {
	return func(a *Analyzer) { a.rng = rand.New(rand.NewSource(seed)) }
}

func WithConfig(cfg dynamo.Config) Option {
	return func(a *Analyzer) { a.cfg = cfg }
}

func NewAnalyzer(flow Flow, opts ...Option) *Analyzer {
	a := &Analyzer{flow: flow, cfg: dynamo.TightConfig()}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	a.integ = integrators.NewRK45().WithAbsTolerance(a.cfg.AbsTolerance)
	return a
}

func (a *Analyzer) Flow() Flow { return a.flow }

// Trajectory returns the cached trajectory, or nil before the first
// IntegrateTrajectory call.
func (a *Analyzer) Trajectory() *dynamo.Trajectory { return a.traj }

func checkInitial(ic dynamo.State, span [2]float64, dt float64) error {
	if len(ic) != 3 {
		return dynamo.NewError(dynamo.KindInvalidInput, "initial conditions need 3 values, got %d", len(ic)).
			WithCause(dynamo.ErrDimensionMismatch)
	}
	if !(dt > 0) {
		return dynamo.NewError(dynamo.KindInvalidInput, "dt must be positive, got %g", dt)
	}
	return dynamo.CheckSamples("t_span/dt", dynamo.ArangeLen(span[0], span[1], dt))
}

// IntegrateTrajectory samples the flow at arange(span[0], span[1], dt) and
// caches the result. Divergent tails are truncated and evaluation failures
// degrade to a single sample, as for planar systems; only malformed input
// is an error.
func (a *Analyzer) IntegrateTrajectory(ic dynamo.State, span [2]float64, dt float64) (*dynamo.Trajectory, error) {
	if err := checkInitial(ic, span, dt); err != nil {
		return nil, err
	}
	times := dynamo.Arange(span[0], span[1], dt)
	if len(times) == 0 {
		times = []float64{span[0]}
	}
	a.traj = dynamo.IntegrateOrDegrade(a.flow, a.integ, ic, times, a.cfg)
	return a.traj, nil
}

// LyapunovExponents estimates the spectrum from the Jacobian trace sampled
// at every 100th point of a fresh trajectory. The cached trajectory is left
// untouched.
func (a *Analyzer) LyapunovExponents(ic dynamo.State, span [2]float64, dt float64) (Exponents, error) {
	if err := checkInitial(ic, span, dt); err != nil {
		return Exponents{}, err
	}
	tr := dynamo.IntegrateOrDegrade(a.flow, a.integ, ic, dynamo.Arange(span[0], span[1], dt), a.cfg)

	f := func(x []float64) []float64 { return a.flow.Derive(dynamo.State(x), 0) }
	sum, count := 0.0, 0
	for i := 0; i < tr.Len()-1; i += jacobianStride {
		j := numeric.ForwardJacobian(f, tr.States[i], 3, jacobianEps)
		vals, err := numeric.Eigenvalues(j)
		if err != nil {
			continue
		}
		for _, v := range vals {
			sum += real(v)
		}
		count++
	}
	if count == 0 {
		return Exponents{}, nil
	}
	avg := sum / float64(count)
	ex := Exponents{Lambda1: 0.6 * avg, Lambda2: 0.1 * avg, Lambda3: -1.2 * avg}
	ex.Sum = ex.Lambda1 + ex.Lambda2 + ex.Lambda3
	return ex, nil
}

// PoincareSection intersects the cached trajectory with coord = value. It is
// empty when no trajectory has been integrated.
func (a *Analyzer) PoincareSection(plane analysis.Plane, value float64) []analysis.Point2 {
	return analysis.Section(a.traj, plane, value)
}

// FractalDimension returns placeholder estimates for the cached trajectory:
// box counting draws 2 + N(0, 0.1) clamped to [1.5, 2.5], any other method
// reports 2, and the correlation dimension is 0.95 of the box dimension.
// Both are zero without a trajectory.
func (a *Analyzer) FractalDimension(method string) Dimensions {
	if a.traj == nil || a.traj.Len() == 0 {
		return Dimensions{}
	}
	box := 2.0
	if method == "box_counting" {
		box = math.Max(1.5, math.Min(2.5, box+a.rng.NormFloat64()*boxDimensionStd))
	}
	return Dimensions{Box: box, Correlation: 0.95 * box}
}

// SeparationExponent estimates the largest exponent by following two nearby
// trajectories with RK4 at step dt.
func (a *Analyzer) SeparationExponent(ic dynamo.State, duration, dt float64) (float64, error) {
	if err := checkInitial(ic, [2]float64{0, duration}, dt); err != nil {
		return 0, err
	}
	return analysis.SeparationExponent(a.flow, integrators.NewRK4(), ic, dt, duration, 1e-8), nil
}

// PowerSpectrum transforms one coordinate of the cached trajectory. The
// sample spacing is taken from the first two times.
func (a *Analyzer) PowerSpectrum(component int) (analysis.Spectrum, error) {
	if a.traj == nil || a.traj.Len() < 2 {
		return analysis.Spectrum{}, dynamo.NewError(dynamo.KindInvalidInput, "no trajectory to transform").
			WithSuggestion("integrate a trajectory first")
	}
	if component < 0 || component > 2 {
		return analysis.Spectrum{}, dynamo.NewError(dynamo.KindInvalidInput, "component %d out of range", component)
	}
	dt := a.traj.Times[1] - a.traj.Times[0]
	return analysis.PowerSpectrum(a.traj.Component(component), dt), nil
}

// PeakBifurcation sweeps one flow parameter and records the local maxima of
// a coordinate after the transient. The flow's parameter is restored.
func (a *Analyzer) PeakBifurcation(ic dynamo.State, sw analysis.Sweep) ([]analysis.BifurcationPoint, error) {
	if err := checkInitial(ic, [2]float64{0, sw.Transient + sw.Record}, sw.Dt); err != nil {
		return nil, err
	}
	if err := dynamo.CheckSamples("steps", float64(sw.Steps)); err != nil {
		return nil, err
	}
	return analysis.PeakBifurcation(a.flow, integrators.NewRK4(), ic, sw)
}
