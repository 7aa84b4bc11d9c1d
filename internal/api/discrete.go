package api

import (
	"encoding/json"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/discrete"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/render"
)

func (s *Service) mapFor(raw json.RawMessage, req *MapRequest) (*discrete.Map, error) {
	if err := decode(raw, req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return req.Build()
}

func startState(m *discrete.Map, p Point) (dynamo.State, error) {
	if len(p) != m.Dimension() {
		return nil, dynamo.NewError(dynamo.KindInvalidInput,
			"%s map expects x0 with %d values, got %d", m.Kind(), m.Dimension(), len(p)).
			WithCause(dynamo.ErrDimensionMismatch)
	}
	return p.State(), nil
}

// orbitView flattens 1D orbits to a list of numbers.
func orbitView(m *discrete.Map, orbit []dynamo.State) any {
	if m.Dimension() != 1 {
		return orbit
	}
	out := make([]float64, len(orbit))
	for i, x := range orbit {
		out[i] = x[0]
	}
	return out
}

func (s *Service) analyzeMap(raw json.RawMessage) (any, error) {
	req := defaultMapRequest(discrete.Logistic, Point{0.5}, 0)
	m, err := s.mapFor(raw, &req)
	if err != nil {
		return nil, err
	}
	return m.Analyze(), nil
}

func (s *Service) mapTrajectory(raw json.RawMessage) (any, error) {
	req := defaultMapRequest(discrete.Logistic, Point{0.5}, 100)
	m, err := s.mapFor(raw, &req)
	if err != nil {
		return nil, err
	}
	x0, err := startState(m, req.X0)
	if err != nil {
		return nil, err
	}
	orbit := m.Iterate(x0, req.NSteps)
	return map[string]any{
		"trajectory": orbitView(m, orbit),
		"x0":         req.X0.Scalar(),
		"n_steps":    len(orbit) - 1,
	}, nil
}

func (s *Service) bifurcation(raw json.RawMessage) (any, error) {
	req := defaultMapRequest(discrete.Logistic, Point{0.5}, 0)
	m, err := s.mapFor(raw, &req)
	if err != nil {
		return nil, err
	}

	transient, points := 100, 50
	if m.Kind() == discrete.Henon {
		if req.ParamName == "a" && req.ParamRange == defaultBifurcationRange {
			req.ParamRange = henonBifurcationRange
		}
		if len(req.X0) == 1 {
			req.X0 = Point{0.1, 0.1}
		}
		transient, points = 200, 100
	}
	if req.Transient > 0 {
		transient = req.Transient
	}
	if req.NPoints > 0 {
		points = req.NPoints
	}

	data, err := m.Bifurcation(req.ParamName, req.ParamRange, req.ParamSteps, req.X0.State(), transient, points)
	if err != nil {
		return nil, err
	}
	var pts []analysis.Point2
	for _, bp := range data {
		for _, v := range bp.Values {
			pts = append(pts, analysis.Point2{X: bp.Param, Y: v})
		}
	}
	return map[string]any{
		"bifurcation_data": data,
		"param_name":       req.ParamName,
		"param_range":      req.ParamRange,
		"image":            render.DataURI(s.style.ScatterSVG(pts)),
	}, nil
}

func (s *Service) cobweb(raw json.RawMessage) (any, error) {
	req := defaultMapRequest(discrete.Logistic, Point{0.5}, 20)
	m, err := s.mapFor(raw, &req)
	if err != nil {
		return nil, err
	}
	if len(req.X0) != 1 {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "cobweb plots need a scalar x0")
	}
	cw, err := m.Cobweb(req.X0[0], req.NSteps)
	if err != nil {
		return nil, err
	}
	curve, err := m.MapCurve(0, 1, 200)
	if err != nil {
		return nil, err
	}
	svg := s.style.PathSVG(zipPoints(curve.X, curve.Y), zipPoints(curve.X, curve.Identity), zipPoints(cw.X, cw.Y))
	return map[string]any{
		"cobweb_data":   cw,
		"map_function":  map[string][]float64{"x": curve.X, "y": curve.Y},
		"identity_line": map[string][]float64{"x": curve.X, "y": curve.Identity},
		"image":         render.DataURI(svg),
	}, nil
}

func (s *Service) returnMap(raw json.RawMessage) (any, error) {
	req := defaultMapRequest(discrete.Logistic, Point{0.5}, 200)
	m, err := s.mapFor(raw, &req)
	if err != nil {
		return nil, err
	}
	x0, err := startState(m, req.X0)
	if err != nil {
		return nil, err
	}
	if req.Delay < 1 {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "delay must be at least 1, got %d", req.Delay)
	}
	return map[string]any{"return_map_data": m.ReturnMap(x0, req.NSteps, req.Delay)}, nil
}

func (s *Service) mapPortrait(raw json.RawMessage) (any, error) {
	req := defaultMapRequest(discrete.Henon, Point{0.1, 0.1}, 200)
	m, err := s.mapFor(raw, &req)
	if err != nil {
		return nil, err
	}
	orbit, err := m.PhasePortrait2D(req.X0.State(), req.NSteps)
	if err != nil {
		return nil, err
	}
	xs, ys := make([]float64, len(orbit)), make([]float64, len(orbit))
	for i, p := range orbit {
		xs[i], ys[i] = p[0], p[1]
	}
	return map[string]any{
		"trajectory": map[string][]float64{"x": xs, "y": ys},
		"x0":         req.X0.Scalar(),
		"n_steps":    len(orbit) - 1,
		"image":      render.DataURI(s.style.ScatterSVG(zipPoints(xs, ys))),
	}, nil
}

func zipPoints(xs, ys []float64) []analysis.Point2 {
	n := min(len(xs), len(ys))
	out := make([]analysis.Point2, n)
	for i := 0; i < n; i++ {
		out[i] = analysis.Point2{X: xs[i], Y: ys[i]}
	}
	return out
}
