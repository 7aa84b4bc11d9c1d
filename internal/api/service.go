// Package api exposes every analysis as a named operation taking a JSON
// payload, over HTTP and websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/render"
)

// Error codes that are not analysis error kinds.
const (
	CodeUnknownOperation = "unknown_operation"
	CodeInternal         = "internal_error"
)

// Response is the envelope returned by every operation.
type Response struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError describes a failed operation.
type APIError struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Context     map[string]string `json:"context,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

type handler func(s *Service, raw json.RawMessage) (any, error)

var operations = map[string]handler{
	"analyze_system":               (*Service).analyzeSystem,
	"get_derivation":               (*Service).getDerivation,
	"generate_phase_portrait":      (*Service).linearPortrait,
	"compute_trajectory":           (*Service).linearTrajectory,
	"analyze_nonlinear":            (*Service).analyzeNonlinear,
	"generate_nonlinear_portrait":  (*Service).nonlinearPortrait,
	"compute_nonlinear_trajectory": (*Service).nonlinearTrajectory,
	"generate_attractor":           (*Service).attractor,
	"calculate_lyapunov":           (*Service).flowLyapunov,
	"poincare_section":             (*Service).poincareSection,
	"fractal_dimension":            (*Service).fractalDimension,
	"analyze_discrete_system":      (*Service).analyzeMap,
	"generate_discrete_trajectory": (*Service).mapTrajectory,
	"generate_bifurcation_diagram": (*Service).bifurcation,
	"generate_cobweb_plot":         (*Service).cobweb,
	"generate_return_map":          (*Service).returnMap,
	"discrete_phase_portrait":      (*Service).mapPortrait,
}

var aliases = map[string]string{
	"analyze_discrete_map": "analyze_discrete_system",
	"bifurcation_diagram":  "generate_bifurcation_diagram",
}

// Operations lists the canonical operation names.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps an alias to its operation and reports whether name is known.
func Resolve(name string) (string, bool) {
	if target, ok := aliases[name]; ok {
		name = target
	}
	_, ok := operations[name]
	return name, ok
}

// Service runs operations. It holds only read-only settings and builds
// fresh analyzers per call, so one Service may serve concurrent requests.
type Service struct {
	style render.Style
	seed  *int64
}

type ServiceOption func(*Service)

// WithSeed fixes the seed of stochastic estimators.
func WithSeed(seed int64) ServiceOption {
	return func(s *Service) { s.seed = &seed }
}

func NewService(style render.Style, opts ...ServiceOption) *Service {
	s := &Service{style: style}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Call runs one operation. It never panics and never returns a payload
// that encoding/json would reject.
func (s *Service) Call(ctx context.Context, op string, raw json.RawMessage) (resp Response) {
	name, ok := Resolve(op)
	if !ok {
		return Failure(&APIError{Code: CodeUnknownOperation, Message: fmt.Sprintf("unknown operation %q", op)})
	}
	if err := ctx.Err(); err != nil {
		return Failure(toAPIError(err))
	}

	defer func() {
		if r := recover(); r != nil {
			resp = Failure(&APIError{Code: CodeInternal, Message: fmt.Sprintf("%s failed: %v", name, r)})
		}
	}()

	data, err := operations[name](s, raw)
	if err != nil {
		return Failure(toAPIError(err))
	}
	return Response{Success: true, Data: Normalize(data)}
}

func Failure(e *APIError) Response {
	return Response{Success: false, Error: e}
}

func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	out := &APIError{Code: CodeInternal, Message: err.Error()}
	var de *dynamo.Error
	if errors.As(err, &de) {
		out.Code = string(de.Kind)
		out.Context = de.Context
		out.Suggestions = de.Suggestions
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		out.Code = "cancelled"
	}
	return out
}
