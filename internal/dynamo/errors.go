package dynamo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors for integration and analysis.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepRejected is returned by adaptive steppers when the error estimate exceeds tolerance.
	ErrStepRejected = errors.New("dynamo: adaptive step rejected")

	// ErrStepTooSmall indicates the adaptive timestep fell below the configured minimum.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrTooManySteps indicates the step budget ran out before the span was covered.
	ErrTooManySteps = errors.New("dynamo: step budget exhausted")

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrUnknownParam indicates a parameter name the system does not define.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrUnknownKind indicates an unrecognised map, flow or integrator name.
	ErrUnknownKind = errors.New("dynamo: unknown kind")
)

// SimulationError wraps an error with integration context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("%v at step %d (t=%.4f)", e.Wrapped, e.Step, e.Time)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ErrorKind classifies analysis failures surfaced to callers.
type ErrorKind string

const (
	KindParse                    ErrorKind = "parse_error"
	KindConvergenceFailure       ErrorKind = "convergence_failure"
	KindDivergenceTruncation     ErrorKind = "divergence_truncation"
	KindUnsupportedConfiguration ErrorKind = "unsupported_configuration"
	KindInvalidInput             ErrorKind = "invalid_input"
)

// Error is a structured analysis error. Two Errors match under errors.Is when
// their kinds are equal.
type Error struct {
	Kind        ErrorKind
	Message     string
	Context     map[string]string
	Cause       error
	Suggestions []string
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Context: make(map[string]string),
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Context[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestions = append(e.Suggestions, s)
	return e
}

// Kind targets for errors.Is.
var (
	ParseError               = &Error{Kind: KindParse}
	ConvergenceFailure       = &Error{Kind: KindConvergenceFailure}
	DivergenceTruncation     = &Error{Kind: KindDivergenceTruncation}
	UnsupportedConfiguration = &Error{Kind: KindUnsupportedConfiguration}
	InvalidInput             = &Error{Kind: KindInvalidInput}
)

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
