package discrete

import (
	"fmt"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// BifurcationPoint holds the post-transient values recorded at one
// parameter value. Err annotates a value whose trial failed; the sweep
// continues past it.
type BifurcationPoint struct {
	Param  float64   `json:"parameter"`
	Values []float64 `json:"points"`
	Err    string    `json:"error,omitempty"`
}

// Bifurcation sweeps paramName over paramSteps evenly spaced values. For
// each value the map is iterated transient times from x0 and then nPoints
// more times, recording the first coordinate while it stays below the
// divergence bound. Trials run concurrently, each on its own copy of the
// parameters, so the map itself is never modified.
func (m *Map) Bifurcation(paramName string, paramRange [2]float64, paramSteps int, x0 dynamo.State, transient, nPoints int) ([]BifurcationPoint, error) {
	if _, ok := m.params[paramName]; !ok {
		return nil, m.SetParam(paramName, 0)
	}
	if paramSteps <= 0 {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "param_steps must be positive, got %d", paramSteps)
	}
	if transient < 0 || nPoints < 0 {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "transient and n_points must not be negative")
	}
	if err := dynamo.CheckSamples("param_steps×n_points", float64(paramSteps)*float64(max(nPoints, 1))); err != nil {
		return nil, err
	}
	if len(x0) != m.Dimension() {
		if m.Dimension() == 2 {
			x0 = dynamo.State{0.1, 0.1}
		} else if err := m.checkState(x0); err != nil {
			return nil, err
		}
	}

	values := dynamo.Linspace(paramRange[0], paramRange[1], paramSteps)
	out := make([]BifurcationPoint, len(values))
	dynamo.ParallelFor(len(values), 16, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = m.bifurcationTrial(paramName, values[i], x0, transient, nPoints)
		}
	})
	return out, nil
}

func (m *Map) bifurcationTrial(name string, value float64, x0 dynamo.State, transient, nPoints int) (pt BifurcationPoint) {
	pt = BifurcationPoint{Param: value}
	trial := &Map{kind: m.kind, params: m.params.Clone()}
	trial.params[name] = value
	defer func() {
		if r := recover(); r != nil {
			pt.Err = fmt.Sprint(r)
		}
	}()

	x := x0.Clone()
	for i := 0; i < transient; i++ {
		x = trial.Apply(x)
		if !(x.MaxAbs() < divergenceBound) {
			return pt
		}
	}
	for i := 0; i < nPoints; i++ {
		x = trial.Apply(x)
		if !(x.MaxAbs() < divergenceBound) {
			break
		}
		pt.Values = append(pt.Values, x[0])
	}
	return pt
}
