package config

import (
	"sort"

	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/discrete"
)

// Preset families.
const (
	FamilyLinear    = "linear"
	FamilyNonlinear = "nonlinear"
	FamilyMap       = "map"
	FamilyFlow      = "flow"
)

// Preset is a named system ready to analyse. Exactly one of Matrix,
// DxDt/DyDt, Map or Flow is set, according to the family.
type Preset struct {
	Description string         `yaml:"description"`
	Matrix      *[2][2]float64 `yaml:"matrix,omitempty"`
	DxDt        string         `yaml:"dx_dt,omitempty"`
	DyDt        string         `yaml:"dy_dt,omitempty"`
	Map         *discrete.Spec `yaml:"map,omitempty"`
	Flow        *chaos.Spec    `yaml:"flow,omitempty"`
	Initial     []float64      `yaml:"initial,omitempty"`
}

var Presets = map[string]map[string]Preset{
	FamilyLinear: {
		"stable_spiral":   {Description: "decaying rotation", Matrix: &[2][2]float64{{-0.5, -1}, {1, -0.5}}, Initial: []float64{2, 0}},
		"unstable_spiral": {Description: "growing rotation", Matrix: &[2][2]float64{{0.3, -1}, {1, 0.3}}, Initial: []float64{0.2, 0}},
		"center":          {Description: "closed elliptical orbits", Matrix: &[2][2]float64{{0, 2}, {-0.5, 0}}, Initial: []float64{1, 0}},
		"saddle":          {Description: "one stable and one unstable direction", Matrix: &[2][2]float64{{1, 0}, {0, -1}}, Initial: []float64{0.01, 2}},
		"stable_node":     {Description: "two negative real eigenvalues", Matrix: &[2][2]float64{{-1, 0}, {0, -0.5}}, Initial: []float64{2, 2}},
		"unstable_node":   {Description: "two positive real eigenvalues", Matrix: &[2][2]float64{{1, 0}, {0, 0.5}}, Initial: []float64{0.1, 0.1}},
		"star":            {Description: "repeated eigenvalue, every direction is an eigenvector", Matrix: &[2][2]float64{{-1, 0}, {0, -1}}, Initial: []float64{2, 1}},
	},
	FamilyNonlinear: {
		"van_der_pol":    {Description: "relaxation oscillator with a stable limit cycle", DxDt: "y", DyDt: "(1 - x^2)*y - x", Initial: []float64{0.5, 0}},
		"duffing":        {Description: "damped double well", DxDt: "y", DyDt: "x - x^3 - 0.2*y", Initial: []float64{0.1, 0}},
		"pendulum":       {Description: "undamped pendulum", DxDt: "y", DyDt: "-sin(x)", Initial: []float64{1, 0}},
		"lotka_volterra": {Description: "predator and prey", DxDt: "x*(1 - y)", DyDt: "y*(x - 1)", Initial: []float64{1.5, 1}},
		"competition":    {Description: "two competing species", DxDt: "x*(3 - x - 2*y)", DyDt: "y*(2 - x - y)", Initial: []float64{0.5, 0.5}},
	},
	FamilyMap: {
		"logistic_chaos": {Description: "logistic map in the chaotic band", Map: &discrete.Spec{Kind: discrete.Logistic, Params: discrete.Params{"r": 3.9}}, Initial: []float64{0.5}},
		"logistic_cycle": {Description: "logistic map on a stable 2-cycle", Map: &discrete.Spec{Kind: discrete.Logistic, Params: discrete.Params{"r": 3.2}}, Initial: []float64{0.5}},
		"henon":          {Description: "classic Hénon attractor", Map: &discrete.Spec{Kind: discrete.Henon}, Initial: []float64{0.1, 0.1}},
		"tent":           {Description: "tent map, fully chaotic", Map: &discrete.Spec{Kind: discrete.Tent, Params: discrete.Params{"mu": 2}}, Initial: []float64{0.3}},
		"sine":           {Description: "sine map", Map: &discrete.Spec{Kind: discrete.Sine}, Initial: []float64{0.4}},
	},
	FamilyFlow: {
		"lorenz":  {Description: "Lorenz butterfly", Flow: &chaos.Spec{Kind: chaos.Lorenz}, Initial: []float64{1, 1, 1}},
		"rossler": {Description: "Rössler band", Flow: &chaos.Spec{Kind: chaos.Rossler}, Initial: []float64{1, 1, 1}},
		"chua":    {Description: "Chua's double scroll", Flow: &chaos.Spec{Kind: chaos.Chua}, Initial: []float64{0.1, 0, 0}},
		"thomas":  {Description: "Thomas cyclically symmetric attractor", Flow: &chaos.Spec{Kind: chaos.Thomas}, Initial: []float64{1, 1, 1}},
	},
}

func GetPreset(family, name string) *Preset {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	p, ok := familyPresets[name]
	if !ok {
		return nil
	}
	return &p
}

// ListPresets returns the preset names of a family in sorted order, or nil
// for an unknown family.
func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(familyPresets))
	for name := range familyPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Families() []string {
	return []string{FamilyLinear, FamilyNonlinear, FamilyMap, FamilyFlow}
}

// Payload renders the preset as an operation payload.
func (p Preset) Payload() map[string]any {
	out := map[string]any{}
	switch {
	case p.Matrix != nil:
		out["matrix"] = *p.Matrix
		if len(p.Initial) == 2 {
			out["initial_point"] = p.Initial
		}
	case p.DxDt != "":
		out["dx_dt"], out["dy_dt"] = p.DxDt, p.DyDt
		if len(p.Initial) == 2 {
			out["initial_point"] = p.Initial
		}
	case p.Map != nil:
		out["map_type"] = p.Map.Kind.String()
		if len(p.Map.Params) > 0 {
			out["parameters"] = map[string]float64(p.Map.Params)
		}
		if len(p.Initial) > 0 {
			out["x0"] = p.Initial
		}
	case p.Flow != nil:
		out["system_type"] = p.Flow.Kind.String()
		if len(p.Flow.Params) > 0 {
			out["parameters"] = p.Flow.Params
		}
		if len(p.Initial) > 0 {
			out["initial_conditions"] = p.Initial
		}
	}
	return out
}
