package discrete

import (
	"github.com/san-kum/dynlab/internal/dynamo"
)

// Default search settings used by Analyze.
var (
	DefaultSearchRange = [2]float64{-2, 2}
)

const (
	DefaultFixedPointSamples = 100
	DefaultPeriodMax         = 10
	DefaultOrbitSeeds        = 50
	DefaultLyapunovSteps     = 1000
)

// Spec names a map kind and parameter overrides; it is the serialisable
// form of a Map.
type Spec struct {
	Kind   MapKind `json:"map_type" yaml:"map_type"`
	Params Params  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

func (s Spec) Build() (*Map, error) { return New(s.Kind, s.Params) }

// Report is the full analysis of a map: fixed points with their stability,
// periodic orbits and the Lyapunov estimate from the conventional start.
type Report struct {
	Kind           MapKind           `json:"map_type"`
	Params         Params            `json:"parameters"`
	FixedPoints    []dynamo.State    `json:"fixed_points"`
	Stability      []Stability       `json:"stability_analysis"`
	PeriodicOrbits map[int][]Orbit   `json:"periodic_orbits"`
	Lyapunov       *LyapunovEstimate `json:"lyapunov_analysis"`
}

// LyapunovStart is the initial state conventionally used for a kind's
// Lyapunov estimate.
func LyapunovStart(dim int) dynamo.State {
	if dim == 2 {
		return dynamo.State{0.1, 0.1}
	}
	return dynamo.State{0.5}
}

func (m *Map) Analyze() Report {
	r := Report{
		Kind:        m.kind,
		Params:      m.Params(),
		FixedPoints: m.FindFixedPoints(DefaultSearchRange, DefaultFixedPointSamples),
	}
	for _, fp := range r.FixedPoints {
		r.Stability = append(r.Stability, m.AnalyzeStability(fp))
	}
	r.PeriodicOrbits = m.DetectPeriodicOrbits(DefaultPeriodMax, DefaultSearchRange, DefaultOrbitSeeds)
	if est, err := m.LyapunovExponent(LyapunovStart(m.Dimension()), DefaultLyapunovSteps); err == nil {
		r.Lyapunov = &est
	}
	return r
}
