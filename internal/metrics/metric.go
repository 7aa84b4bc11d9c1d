package metrics

import (
	"github.com/san-kum/dynlab/internal/dynamo"
)

// Metric accumulates a scalar summary over the samples of a trajectory.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// Evaluate feeds every sample of tr to each metric and collects the values
// keyed by name. Metrics are reset first.
func Evaluate(tr *dynamo.Trajectory, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
	}
	if tr != nil {
		for i, x := range tr.States {
			for _, m := range ms {
				m.Observe(x, tr.Times[i])
			}
		}
	}
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Default is the set recorded with every stored run.
func Default(bound float64) []Metric {
	return []Metric{NewMaxNorm(), NewMeanNorm(), NewBounded(bound), NewSamples()}
}
