package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dynlab/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK4Accuracy(t *testing.T) {
	sys := &harmonicOscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestEulerFirstOrder(t *testing.T) {
	x := NewEuler().Step(&harmonicOscillator{}, dynamo.State{1, 0}, 0, 0.1)
	if x[0] != 1 || x[1] != -0.1 {
		t.Errorf("got %v, expected [1 -0.1]", x)
	}
}

// globalError integrates the oscillator to t=1 and returns the distance from
// the exact solution.
func globalError(integ *Explicit, steps int) float64 {
	sys := &harmonicOscillator{}
	dt := 1.0 / float64(steps)
	x := dynamo.State{1, 0}
	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}
	return math.Hypot(x[0]-math.Cos(1), x[1]+math.Sin(1))
}

func TestExplicitConvergenceOrder(t *testing.T) {
	tests := []struct {
		integ  *Explicit
		order  float64
		stages int
	}{
		{NewEuler(), 1, 1},
		{NewMidpoint(), 2, 2},
		{NewHeun(), 2, 2},
		{NewRK4(), 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.integ.Name(), func(t *testing.T) {
			if tt.integ.Stages() != tt.stages {
				t.Errorf("got %d stages, expected %d", tt.integ.Stages(), tt.stages)
			}
			coarse := globalError(tt.integ, 20)
			fine := globalError(tt.integ, 40)
			observed := math.Log2(coarse / fine)
			if math.Abs(observed-tt.order) > 0.25 {
				t.Errorf("observed order %.3f, expected %.0f", observed, tt.order)
			}
		})
	}
}

func TestExplicitReusesBuffersAcrossDimensions(t *testing.T) {
	integ := NewRK4()
	_ = integ.Step(&harmonicOscillator{}, dynamo.State{1, 0}, 0, 0.1)
	x := integ.Step(lorenzBench{}, dynamo.State{1, 1, 1}, 0, 1e-3)
	if len(x) != 3 || !x.IsValid() {
		t.Errorf("got %v after switching to a 3D system", x)
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		integ, err := New(name)
		if err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
			continue
		}
		if integ == nil {
			t.Errorf("New(%q) returned nil", name)
		}
	}

	if _, err := New("leapfrog"); !errors.Is(err, dynamo.ErrUnknownKind) {
		t.Errorf("got %v, expected ErrUnknownKind", err)
	}
}
