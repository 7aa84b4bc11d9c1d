package dynamo

import (
	"errors"
	"math"
	"testing"
)

type decay struct{ k float64 }

func (d decay) Derive(x State, _ float64) State {
	out := make(State, len(x))
	for i := range x {
		out[i] = -d.k * x[i]
	}
	return out
}
func (d decay) StateDim() int { return 1 }

type euler struct{}

func (euler) Step(sys System, x State, t, dt float64) State {
	return x.Add(sys.Derive(x, t).Scale(dt))
}

type growth struct{}

func (growth) Derive(x State, _ float64) State { return State{x[0] * x[0]} }
func (growth) StateDim() int                   { return 1 }

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if Linspace(0, 1, 0) != nil {
		t.Error("expected nil for n=0")
	}
}

func TestArange(t *testing.T) {
	got := Arange(0, 1, 0.25)
	if len(got) != 4 {
		t.Fatalf("got %d values, want 4", len(got))
	}
	if got[3] != 0.75 {
		t.Errorf("last value: got %v, want 0.75", got[3])
	}
	if Arange(1, 0, 0.1) != nil {
		t.Error("expected nil for empty range")
	}
}

func TestSampleLimits(t *testing.T) {
	tests := []struct {
		name string
		what string
		n    float64
		ok   bool
	}{
		{"at limit", "num_points", MaxSamples, true},
		{"zero", "num_points", 0, true},
		{"above limit", "num_points", MaxSamples + 1, false},
		{"tiny dt", "t_span/dt", ArangeLen(0, 50, 1e-7), false},
		{"infinite", "t_span/dt", math.Inf(1), false},
		{"nan", "t_span/dt", math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSamples(tt.what, tt.n)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if !errors.Is(err, InvalidInput) {
					t.Fatalf("got %v, want an invalid input error", err)
				}
				var de *Error
				if !errors.As(err, &de) || de.Context["field"] != tt.what {
					t.Errorf("error does not name the field %q", tt.what)
				}
			}
		})
	}

	if Arange(0, 50, 1e-7) != nil {
		t.Error("Arange should refuse more than MaxSamples values")
	}
	if Linspace(0, 1, MaxSamples+1) != nil {
		t.Error("Linspace should refuse more than MaxSamples values")
	}
	if ArangeLen(0, 1, 0.25) != 4 || ArangeLen(1, 0, 0.1) != 0 || ArangeLen(0, 1, 0) != 0 {
		t.Error("ArangeLen disagrees with Arange")
	}
	vf := SampleField(func(x, y float64) (float64, float64) { return x, y }, [2]float64{-1, 1}, [2]float64{-1, 1}, 1001)
	if len(vf.X) != 0 || len(vf.U) != 0 {
		t.Error("oversized grid should yield an empty field")
	}
}

func TestTruncateDivergent(t *testing.T) {
	tests := []struct {
		name      string
		states    []State
		wantLen   int
		truncated bool
	}{
		{"bounded", []State{{1}, {2}, {3}}, 3, false},
		{"cut after last valid", []State{{1}, {2}, {2e6}, {3e6}}, 2, true},
		{"nan counts as divergent", []State{{1}, {math.NaN()}}, 1, true},
		{"no valid sample", []State{{2e6}, {3e6}}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Trajectory{States: tt.states, Times: make([]float64, len(tt.states))}
			for i := range tr.Times {
				tr.Times[i] = float64(i) + 1
			}
			tr.TruncateDivergent(1e6, State{0.5})
			if tr.Len() != tt.wantLen {
				t.Errorf("got %d samples, want %d", tr.Len(), tt.wantLen)
			}
			if tr.Truncated != tt.truncated {
				t.Errorf("truncated: got %v, want %v", tr.Truncated, tt.truncated)
			}
		})
	}

	tr := &Trajectory{States: []State{{5e6}}, Times: []float64{3}}
	tr.TruncateDivergent(1e6, State{0.5})
	if tr.Times[0] != 0 || tr.States[0][0] != 0.5 {
		t.Errorf("expected collapse to initial sample at t=0, got t=%v x=%v", tr.Times[0], tr.States[0])
	}
}

func TestIntegrateFixedStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 1e-4
	times := Linspace(0, 1, 11)

	tr, err := Integrate(decay{k: 1}, euler{}, State{1}, times, cfg)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	if tr.Len() != len(times) {
		t.Fatalf("got %d samples, want %d", tr.Len(), len(times))
	}
	if got, want := tr.Last()[0], math.Exp(-1); math.Abs(got-want) > 1e-3 {
		t.Errorf("final value: got %.6f, want %.6f", got, want)
	}
}

func TestIntegrateStopsOnDivergence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 1e-3
	times := Linspace(0, 2, 201)

	// x' = x^2 from x=1 blows up at t=1.
	tr, err := Integrate(growth{}, euler{}, State{1}, times, cfg)
	if err != nil && !errors.Is(err, ErrInvalidState) {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Len() >= len(times) {
		t.Errorf("expected early stop, got %d samples", tr.Len())
	}
	for _, s := range tr.States {
		if s.MaxAbs() >= cfg.DivergenceBound {
			t.Errorf("sample %v exceeds divergence bound", s)
		}
	}
}

func TestIntegrateDimensionMismatch(t *testing.T) {
	_, err := Integrate(decay{k: 1}, euler{}, State{1, 2}, Linspace(0, 1, 3), DefaultConfig())
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestErrorIsByKind(t *testing.T) {
	err := NewError(KindParse, "cannot parse %q", "x+").WithContext("offset", "2")
	if !errors.Is(err, ParseError) {
		t.Error("expected parse error to match ParseError")
	}
	if errors.Is(err, ConvergenceFailure) {
		t.Error("parse error should not match ConvergenceFailure")
	}
	if KindOf(err) != KindParse {
		t.Errorf("KindOf: got %q", KindOf(err))
	}
}

func TestStabilityClassText(t *testing.T) {
	if StableFocus.String() != "stable focus" {
		t.Errorf("got %q", StableFocus.String())
	}
	c, err := ParseStabilityClass("saddle")
	if err != nil || c != Saddle {
		t.Errorf("got %v, %v", c, err)
	}
	if VerdictFor(0.5) != VerdictStable || VerdictFor(2) != VerdictUnstable || VerdictFor(1) != VerdictCritical {
		t.Error("unexpected verdicts")
	}
}
