package discrete

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// MapKind is the closed set of supported maps.
type MapKind int

const (
	Logistic MapKind = iota
	Henon
	Tent
	Linear1D
	Linear2D
	Rotation2D
	Sine
	Quadratic
)

type kindInfo struct {
	name     string
	dim      int
	defaults Params
	apply    func(p Params, x dynamo.State) dynamo.State
}

const tentEpsilon = 1e-10

var kinds = [...]kindInfo{
	Logistic: {
		name:     "logistic",
		dim:      1,
		defaults: Params{"r": 3.5},
		apply: func(p Params, x dynamo.State) dynamo.State {
			return dynamo.State{p["r"] * x[0] * (1 - x[0])}
		},
	},
	Henon: {
		name:     "henon",
		dim:      2,
		defaults: Params{"a": 1.4, "b": 0.3},
		apply: func(p Params, x dynamo.State) dynamo.State {
			return dynamo.State{1 - p["a"]*x[0]*x[0] + x[1], p["b"] * x[0]}
		},
	},
	Tent: {
		name:     "tent",
		dim:      1,
		defaults: Params{"mu": 2.0},
		apply: func(p Params, x dynamo.State) dynamo.State {
			v := clamp(x[0], tentEpsilon, 1-tentEpsilon)
			if v <= 0.5 {
				v = p["mu"] * v
			} else {
				v = p["mu"] * (1 - v)
			}
			return dynamo.State{clamp(v, 0, 1)}
		},
	},
	Linear1D: {
		name:     "linear_1d",
		dim:      1,
		defaults: Params{"a": 0.5, "b": 0.1},
		apply: func(p Params, x dynamo.State) dynamo.State {
			return dynamo.State{p["a"]*x[0] + p["b"]}
		},
	},
	Linear2D: {
		name:     "linear_2d",
		dim:      2,
		defaults: Params{"a11": 0.8, "a12": 0.2, "a21": 0.1, "a22": 0.9},
		apply: func(p Params, x dynamo.State) dynamo.State {
			return dynamo.State{
				p["a11"]*x[0] + p["a12"]*x[1],
				p["a21"]*x[0] + p["a22"]*x[1],
			}
		},
	},
	Rotation2D: {
		name:     "rotation_2d",
		dim:      2,
		defaults: Params{"theta": math.Pi / 6, "r": 0.95},
		apply: func(p Params, x dynamo.State) dynamo.State {
			c, s := math.Cos(p["theta"]), math.Sin(p["theta"])
			r := p["r"]
			return dynamo.State{r * (c*x[0] - s*x[1]), r * (s*x[0] + c*x[1])}
		},
	},
	Sine: {
		name:     "sine",
		dim:      1,
		defaults: Params{"r": 1.0},
		apply: func(p Params, x dynamo.State) dynamo.State {
			return dynamo.State{p["r"] * math.Sin(math.Pi*x[0])}
		},
	},
	Quadratic: {
		name:     "quadratic",
		dim:      1,
		defaults: Params{"c": 0},
		apply: func(p Params, x dynamo.State) dynamo.State {
			return dynamo.State{x[0]*x[0] + p["c"]}
		},
	},
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (k MapKind) valid() bool { return k >= 0 && int(k) < len(kinds) }

func (k MapKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("MapKind(%d)", int(k))
	}
	return kinds[k].name
}

// Dimension is 1 or 2.
func (k MapKind) Dimension() int {
	if !k.valid() {
		return 0
	}
	return kinds[k].dim
}

// Defaults returns a fresh copy of the kind's default parameters.
func (k MapKind) Defaults() Params {
	if !k.valid() {
		return Params{}
	}
	return kinds[k].defaults.Clone()
}

func (k MapKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *MapKind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func ParseKind(s string) (MapKind, error) {
	for i, info := range kinds {
		if info.name == s {
			return MapKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: map %q", dynamo.ErrUnknownKind, s)
}

// KindNames lists every map kind in declaration order.
func KindNames() []string {
	out := make([]string, len(kinds))
	for i, info := range kinds {
		out[i] = info.name
	}
	return out
}

// Params maps parameter names to values.
type Params map[string]float64

func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
