package api

import (
	"encoding/json"
	"fmt"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/linear"
	"github.com/san-kum/dynlab/internal/nonlinear"
	"github.com/san-kum/dynlab/internal/render"
)

type eigenvalueView struct {
	Real      float64 `json:"real"`
	Imag      float64 `json:"imag"`
	Formatted string  `json:"formatted"`
}

type eigenvectorView struct {
	Index     int        `json:"index"`
	Real      [2]float64 `json:"real"`
	Imag      [2]float64 `json:"imag"`
	Formatted [2]string  `json:"formatted"`
}

// PlanarTrajectory is a sampled solution of a planar system.
type PlanarTrajectory struct {
	Time         []float64  `json:"time"`
	X            []float64  `json:"x"`
	Y            []float64  `json:"y"`
	InitialPoint [2]float64 `json:"initial_point"`
	Truncated    bool       `json:"truncated,omitempty"`
	Error        string     `json:"error,omitempty"`
}

func planarView(tr *dynamo.Trajectory, initial [2]float64) PlanarTrajectory {
	return PlanarTrajectory{
		Time:         tr.Times,
		X:            tr.Component(0),
		Y:            tr.Component(1),
		InitialPoint: initial,
		Truncated:    tr.Truncated,
		Error:        tr.Err,
	}
}

// SpatialTrajectory is a sampled solution of a three-dimensional flow.
type SpatialTrajectory struct {
	Time              []float64 `json:"time"`
	X                 []float64 `json:"x"`
	Y                 []float64 `json:"y"`
	Z                 []float64 `json:"z"`
	InitialConditions []float64 `json:"initial_conditions"`
	Truncated         bool      `json:"truncated,omitempty"`
	Error             string    `json:"error,omitempty"`
}

func spatialView(tr *dynamo.Trajectory, ic []float64) SpatialTrajectory {
	return SpatialTrajectory{
		Time:              tr.Times,
		X:                 tr.Component(0),
		Y:                 tr.Component(1),
		Z:                 tr.Component(2),
		InitialConditions: ic,
		Truncated:         tr.Truncated,
		Error:             tr.Err,
	}
}

func (s *Service) linearAnalyzer(raw json.RawMessage) (*linear.Analyzer, LinearRequest, error) {
	req := defaultLinearRequest()
	if err := decode(raw, &req); err != nil {
		return nil, req, err
	}
	if err := req.validate(); err != nil {
		return nil, req, err
	}
	if req.Matrix == nil {
		return nil, req, dynamo.NewError(dynamo.KindInvalidInput, "matrix is required").
			WithSuggestion(`send "matrix": [[a, b], [c, d]]`)
	}
	return linear.New(linear.Matrix2x2(*req.Matrix)), req, nil
}

func (s *Service) analyzeSystem(raw json.RawMessage) (any, error) {
	an, req, err := s.linearAnalyzer(raw)
	if err != nil {
		return nil, err
	}
	eig := an.Eigen()
	formatted := eig.Formatted()
	values := make([]eigenvalueView, len(eig.Values))
	for i, v := range eig.Values {
		values[i] = eigenvalueView{Real: real(v), Imag: imag(v), Formatted: formatted[i]}
	}
	vectors := make([]eigenvectorView, len(eig.Vectors))
	for i, vec := range eig.Vectors {
		ev := eigenvectorView{Index: i}
		for k, c := range vec {
			ev.Real[k], ev.Imag[k] = real(c), imag(c)
			ev.Formatted[k] = fmt.Sprintf("%.4f + %.4fi", real(c), imag(c))
		}
		vectors[i] = ev
	}
	return map[string]any{
		"matrix":                  *req.Matrix,
		"eigenvalues":             values,
		"eigenvectors":            vectors,
		"classification":          an.Classify(),
		"mathematical_derivation": an.Derivation(),
		"trace":                   an.Trace(),
		"determinant":             an.Determinant(),
		"discriminant":            an.Discriminant(),
	}, nil
}

func (s *Service) getDerivation(raw json.RawMessage) (any, error) {
	an, _, err := s.linearAnalyzer(raw)
	if err != nil {
		return nil, err
	}
	return map[string]any{"derivation": an.Derivation()}, nil
}

func (s *Service) linearPortrait(raw json.RawMessage) (any, error) {
	an, req, err := s.linearAnalyzer(raw)
	if err != nil {
		return nil, err
	}
	vf := an.SampleVectorField(req.XRange, req.YRange, req.GridSize)
	svg := s.style.FieldSVG(vf, []analysis.Point2{{X: 0, Y: 0}})
	return map[string]any{
		"image":          render.DataURI(svg),
		"field":          vf,
		"classification": an.Classify().Class,
	}, nil
}

func (s *Service) linearTrajectory(raw json.RawMessage) (any, error) {
	an, req, err := s.linearAnalyzer(raw)
	if err != nil {
		return nil, err
	}
	if req.InitialPoint == nil {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "initial_point is required")
	}
	ip := *req.InitialPoint
	tr, err := an.Integrate(ip, req.TSpan, req.NumPoints)
	if tr == nil {
		tr = dynamo.Single(dynamo.State{ip[0], ip[1]}, err)
	} else if err != nil {
		tr.Err = err.Error()
	}
	return map[string]any{"trajectory": planarView(tr, ip)}, nil
}

func (s *Service) nonlinearAnalyzer(raw json.RawMessage) (*nonlinear.Analyzer, NonlinearRequest, error) {
	req := defaultNonlinearRequest()
	if err := decode(raw, &req); err != nil {
		return nil, req, err
	}
	if err := req.validate(); err != nil {
		return nil, req, err
	}
	if req.DxDt == "" || req.DyDt == "" {
		return nil, req, dynamo.NewError(dynamo.KindInvalidInput, "both dx_dt and dy_dt are required")
	}
	a, err := nonlinear.New(req.DxDt, req.DyDt)
	if err != nil {
		return nil, req, err
	}
	return a, req, nil
}

type equilibriumView struct {
	Point       [2]float64       `json:"point"`
	Type        string           `json:"type"`
	Formatted   string           `json:"formatted"`
	Source      nonlinear.Source `json:"source"`
	Jacobian    [2][2]float64    `json:"jacobian"`
	Eigenvalues []dynamo.Complex `json:"eigenvalues"`
}

func (s *Service) analyzeNonlinear(raw json.RawMessage) (any, error) {
	a, req, err := s.nonlinearAnalyzer(raw)
	if err != nil {
		return nil, err
	}
	report := a.Analyze()
	points := make([]equilibriumView, len(report.Equilibria))
	for i, e := range report.Equilibria {
		points[i] = equilibriumView{
			Point:       [2]float64{e.X, e.Y},
			Type:        e.Class.String(),
			Formatted:   fmt.Sprintf("(%.3f, %.3f)", e.X, e.Y),
			Source:      e.Source,
			Jacobian:    e.Jacobian,
			Eigenvalues: e.Eigenvalues,
		}
	}
	return map[string]any{
		"equilibrium_points": points,
		"equations":          map[string]string{"dx_dt": req.DxDt, "dy_dt": req.DyDt},
		"jacobian":           report.Jacobian,
	}, nil
}

func (s *Service) nonlinearPortrait(raw json.RawMessage) (any, error) {
	a, req, err := s.nonlinearAnalyzer(raw)
	if err != nil {
		return nil, err
	}
	span := [2]float64{-req.ViewRange, req.ViewRange}
	vf := a.EvaluateGrid(span, span, req.GridSize)

	var markers []analysis.Point2
	for _, e := range a.Equilibria() {
		if e.X >= span[0] && e.X <= span[1] && e.Y >= span[0] && e.Y <= span[1] {
			markers = append(markers, analysis.Point2{X: e.X, Y: e.Y})
		}
	}
	return map[string]any{
		"image":      render.DataURI(s.style.FieldSVG(vf, markers)),
		"field":      vf,
		"equilibria": markers,
	}, nil
}

func (s *Service) nonlinearTrajectory(raw json.RawMessage) (any, error) {
	a, req, err := s.nonlinearAnalyzer(raw)
	if err != nil {
		return nil, err
	}
	tr := a.Integrate(req.InitialPoint, req.TSpan, req.NumPoints)
	return map[string]any{"trajectory": planarView(tr, req.InitialPoint)}, nil
}

func (s *Service) chaosAnalyzer(raw json.RawMessage, span [2]float64) (*chaos.Analyzer, ChaosRequest, error) {
	req := defaultChaosRequest(span)
	if err := decode(raw, &req); err != nil {
		return nil, req, err
	}
	if err := req.validate(); err != nil {
		return nil, req, err
	}
	flow, err := req.Build()
	if err != nil {
		return nil, req, err
	}
	var opts []chaos.Option
	if s.seed != nil {
		opts = append(opts, chaos.WithSeed(*s.seed))
	}
	return chaos.NewAnalyzer(flow, opts...), req, nil
}

var (
	attractorSpan = [2]float64{0, 50}
	lyapunovSpan  = [2]float64{0, 100}
)

func (s *Service) attractor(raw json.RawMessage) (any, error) {
	an, req, err := s.chaosAnalyzer(raw, attractorSpan)
	if err != nil {
		return nil, err
	}
	tr, err := an.IntegrateTrajectory(req.InitialConditions, req.TSpan, req.Dt)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"trajectory":  spatialView(tr, req.InitialConditions),
		"system_type": req.Kind,
		"parameters":  an.Flow().GetParams(),
	}, nil
}

func (s *Service) flowLyapunov(raw json.RawMessage) (any, error) {
	an, req, err := s.chaosAnalyzer(raw, lyapunovSpan)
	if err != nil {
		return nil, err
	}
	ex, err := an.LyapunovExponents(req.InitialConditions, req.TSpan, req.Dt)
	if err != nil {
		return nil, err
	}
	return map[string]any{"lyapunov_exponents": ex}, nil
}

func (s *Service) poincareSection(raw json.RawMessage) (any, error) {
	an, req, err := s.chaosAnalyzer(raw, attractorSpan)
	if err != nil {
		return nil, err
	}
	plane, err := analysis.ParsePlane(req.SectionPlane)
	if err != nil {
		return nil, err
	}
	tr, err := an.IntegrateTrajectory(req.InitialConditions, req.TSpan, req.Dt)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"section_plane":     plane.String(),
		"section_value":     req.SectionValue,
		"trajectory_points": tr.Len(),
	}
	if tr.Err != "" {
		out["intersections"] = []analysis.Point2{}
		out["message"] = "integration failed or diverged; adjust the initial conditions or parameters"
		return out, nil
	}
	pts := an.PoincareSection(plane, req.SectionValue)
	if pts == nil {
		pts = []analysis.Point2{}
	}
	out["intersections"] = pts
	out["message"] = fmt.Sprintf("found %d intersections", len(pts))
	if len(pts) == 0 {
		out["message"] = fmt.Sprintf("no intersections found; adjust the section value (currently %g) or integrate longer", req.SectionValue)
	}
	return out, nil
}

func (s *Service) fractalDimension(raw json.RawMessage) (any, error) {
	an, req, err := s.chaosAnalyzer(raw, attractorSpan)
	if err != nil {
		return nil, err
	}
	if _, err := an.IntegrateTrajectory(req.InitialConditions, req.TSpan, req.Dt); err != nil {
		return nil, err
	}
	return map[string]any{"fractal_dimensions": an.FractalDimension(req.Method)}, nil
}
