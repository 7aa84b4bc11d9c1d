package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// ComponentStats summarises one state component over a trajectory.
type ComponentStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize returns per-component statistics, or nil for an empty trajectory.
func Summarize(tr *dynamo.Trajectory) []ComponentStats {
	if tr == nil || tr.Len() == 0 {
		return nil
	}
	out := make([]ComponentStats, len(tr.States[0]))
	for i := range out {
		col := tr.Component(i)
		mean, std := stat.MeanStdDev(col, nil)
		if len(col) < 2 {
			std = 0
		}
		out[i] = ComponentStats{Min: floats.Min(col), Max: floats.Max(col), Mean: mean, StdDev: std}
	}
	return out
}
