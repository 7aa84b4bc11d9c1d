package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/discrete"
	"github.com/san-kum/dynlab/internal/dynamo"
)

// Point accepts either a bare number or an array of numbers, so a 1D map
// can be started from 0.5 and a planar one from [0.1, 0.1].
type Point []float64

func (p *Point) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var xs []float64
		if err := json.Unmarshal(b, &xs); err != nil {
			return err
		}
		*p = xs
		return nil
	}
	var x float64
	if err := json.Unmarshal(b, &x); err != nil {
		return fmt.Errorf("point must be a number or an array of numbers: %w", err)
	}
	*p = Point{x}
	return nil
}

func (p Point) State() dynamo.State { return dynamo.State(p).Clone() }

// Scalar is the value reported back for a 1D start, the array otherwise.
func (p Point) Scalar() any {
	if len(p) == 1 {
		return p[0]
	}
	return []float64(p)
}

type LinearRequest struct {
	Matrix       *[2][2]float64 `json:"matrix"`
	XRange       [2]float64     `json:"x_range"`
	YRange       [2]float64     `json:"y_range"`
	GridSize     int            `json:"grid_size"`
	InitialPoint *[2]float64    `json:"initial_point"`
	TSpan        [2]float64     `json:"t_span"`
	NumPoints    int            `json:"num_points"`
}

func defaultLinearRequest() LinearRequest {
	return LinearRequest{
		XRange:    [2]float64{-3.5, 3.5},
		YRange:    [2]float64{-3.5, 3.5},
		GridSize:  20,
		TSpan:     [2]float64{0, 10},
		NumPoints: 500,
	}
}

func (r LinearRequest) validate() error {
	return checkCounts(
		count{"grid_size", r.GridSize, float64(r.GridSize) * float64(r.GridSize)},
		count{"num_points", r.NumPoints, float64(r.NumPoints)},
	)
}

type NonlinearRequest struct {
	DxDt         string     `json:"dx_dt"`
	DyDt         string     `json:"dy_dt"`
	ViewRange    float64    `json:"view_range"`
	GridSize     int        `json:"grid_size"`
	InitialPoint [2]float64 `json:"initial_point"`
	TSpan        [2]float64 `json:"t_span"`
	NumPoints    int        `json:"num_points"`
}

func defaultNonlinearRequest() NonlinearRequest {
	return NonlinearRequest{
		ViewRange:    5,
		GridSize:     20,
		InitialPoint: [2]float64{1, 1},
		TSpan:        [2]float64{0, 20},
		NumPoints:    1000,
	}
}

func (r NonlinearRequest) validate() error {
	return checkCounts(
		count{"grid_size", r.GridSize, float64(r.GridSize) * float64(r.GridSize)},
		count{"num_points", r.NumPoints, float64(r.NumPoints)},
	)
}

// ChaosRequest covers every attractor operation; fields an operation does
// not read are ignored.
type ChaosRequest struct {
	chaos.Spec
	InitialConditions []float64  `json:"initial_conditions"`
	TSpan             [2]float64 `json:"t_span"`
	Dt                float64    `json:"dt"`
	SectionPlane      string     `json:"section_plane"`
	SectionValue      float64    `json:"section_value"`
	Method            string     `json:"method"`
}

func defaultChaosRequest(span [2]float64) ChaosRequest {
	return ChaosRequest{
		Spec:              chaos.Spec{Kind: chaos.Lorenz},
		InitialConditions: []float64{1, 1, 1},
		TSpan:             span,
		Dt:                0.01,
		SectionPlane:      "z",
		SectionValue:      27,
		Method:            "box_counting",
	}
}

func (r ChaosRequest) validate() error {
	if !(r.Dt > 0) {
		return dynamo.NewError(dynamo.KindInvalidInput, "dt must be positive, got %g", r.Dt)
	}
	return dynamo.CheckSamples("t_span/dt", dynamo.ArangeLen(r.TSpan[0], r.TSpan[1], r.Dt))
}

var (
	defaultBifurcationRange = [2]float64{2.5, 4.0}
	henonBifurcationRange   = [2]float64{0.8, 1.4}
)

// MapRequest covers every discrete-map operation.
type MapRequest struct {
	discrete.Spec
	X0         Point      `json:"x0"`
	NSteps     int        `json:"n_steps"`
	Delay      int        `json:"delay"`
	ParamName  string     `json:"param_name"`
	ParamRange [2]float64 `json:"param_range"`
	ParamSteps int        `json:"param_steps"`
	Transient  int        `json:"transient"`
	NPoints    int        `json:"n_points"`
}

func defaultMapRequest(kind discrete.MapKind, x0 Point, nSteps int) MapRequest {
	return MapRequest{
		Spec:       discrete.Spec{Kind: kind},
		X0:         x0,
		NSteps:     nSteps,
		Delay:      1,
		ParamName:  "r",
		ParamRange: defaultBifurcationRange,
		ParamSteps: 500,
	}
}

// validate bounds the counts every map operation allocates from. n_points
// and transient of zero select the per-kind defaults.
func (r MapRequest) validate() error {
	if r.NSteps < 0 || r.Transient < 0 || r.NPoints < 0 {
		return dynamo.NewError(dynamo.KindInvalidInput, "n_steps, transient and n_points must not be negative")
	}
	if err := dynamo.CheckSamples("n_steps", 2*float64(r.NSteps)+1); err != nil {
		return err
	}
	points := max(r.NPoints, 100)
	return dynamo.CheckSamples("param_steps×n_points", float64(r.ParamSteps)*float64(points))
}

// count is a requested size. value must be positive and the n samples it
// allocates must stay within dynamo.MaxSamples.
type count struct {
	field string
	value int
	n     float64
}

func checkCounts(cs ...count) error {
	for _, c := range cs {
		if c.value < 1 {
			return dynamo.NewError(dynamo.KindInvalidInput, "%s must be positive, got %d", c.field, c.value)
		}
		if err := dynamo.CheckSamples(c.field, float64(c.n)); err != nil {
			return err
		}
	}
	return nil
}

// decode overlays the payload on req, which already holds the defaults.
// An empty payload keeps them all.
func decode(raw json.RawMessage, req any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, req); err != nil {
		return dynamo.NewError(dynamo.KindInvalidInput, "malformed request").WithCause(err)
	}
	return nil
}
