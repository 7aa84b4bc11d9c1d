package analysis

import (
	"fmt"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// BifurcationPoint holds the values recorded at one parameter value.
type BifurcationPoint struct {
	Param  float64   `json:"parameter"`
	Values []float64 `json:"points"`
}

// Tunable is a flow whose parameters can be changed in place.
type Tunable interface {
	dynamo.System
	dynamo.Configurable
}

// Sweep configures PeakBifurcation.
type Sweep struct {
	Param     string
	Min, Max  float64
	Steps     int
	Component int
	Dt        float64
	Transient float64
	Record    float64
}

// PeakBifurcation sweeps a parameter of a continuous flow. For each value the
// flow is integrated from x0 with the fixed-step integrator, the transient is
// discarded and the local maxima of one coordinate are recorded. The
// parameter is restored to its original value before returning.
func PeakBifurcation(sys Tunable, integ dynamo.Integrator, x0 dynamo.State, sw Sweep) ([]BifurcationPoint, error) {
	orig, ok := sys.GetParams()[sw.Param]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, sw.Param)
	}
	if sw.Component < 0 || sw.Component >= sys.StateDim() {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "component %d out of range", sw.Component)
	}
	if sw.Dt <= 0 || sw.Steps <= 0 {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "dt and steps must be positive")
	}
	defer sys.SetParam(sw.Param, orig)

	out := make([]BifurcationPoint, 0, sw.Steps)
	for _, p := range dynamo.Linspace(sw.Min, sw.Max, sw.Steps) {
		if err := sys.SetParam(sw.Param, p); err != nil {
			return nil, err
		}
		out = append(out, BifurcationPoint{Param: p, Values: recordPeaks(sys, integ, x0, sw)})
	}
	return out, nil
}

func recordPeaks(sys dynamo.System, integ dynamo.Integrator, x0 dynamo.State, sw Sweep) []float64 {
	x := x0.Clone()
	t := 0.0
	for ; t < sw.Transient; t += sw.Dt {
		x = integ.Step(sys, x, t, sw.Dt)
		if !x.IsValid() {
			return nil
		}
	}

	var peaks []float64
	prev2, prev1 := x[sw.Component], x[sw.Component]
	for end := sw.Transient + sw.Record; t < end; t += sw.Dt {
		x = integ.Step(sys, x, t, sw.Dt)
		if !x.IsValid() {
			break
		}
		cur := x[sw.Component]
		if prev1 > prev2 && prev1 > cur {
			peaks = append(peaks, prev1)
		}
		prev2, prev1 = prev1, cur
	}
	return peaks
}
