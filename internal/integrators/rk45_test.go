package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dynlab/internal/dynamo"
)

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	sys := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		x = integrator.Step(sys, x, float64(i)*dt, dt)
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	sys := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := sys.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x = integrator.Step(sys, x, float64(i)*dt, dt)
	}

	drift := math.Abs(sys.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	sys := &harmonicOscillator{}

	x, newDt, err := integrator.StepAdaptive(sys, dynamo.State{1.0, 0.0}, 0, 0.01, 1e-6)
	if err != nil {
		t.Errorf("StepAdaptive returned error: %v", err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if newDt <= 0.01 {
		t.Errorf("expected step to grow on an easy problem, got %f", newDt)
	}
}

func TestRK45_RejectsLargeStep(t *testing.T) {
	integrator := NewRK45()
	sys := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, newDt, err := integrator.StepAdaptive(sys, x0, 0, 2.0, 1e-12)
	if !errors.Is(err, dynamo.ErrStepRejected) {
		t.Fatalf("got %v, expected ErrStepRejected", err)
	}
	if newDt >= 2.0 {
		t.Errorf("rejected step should shrink, got %f", newDt)
	}
	if x[0] != x0[0] || x[1] != x0[1] {
		t.Errorf("rejected step must not advance the state, got %v", x)
	}
}

func TestRK45_IntegrateMatchesExact(t *testing.T) {
	times := dynamo.Linspace(0, 10, 101)
	tr, err := dynamo.Integrate(&harmonicOscillator{}, NewRK45(), dynamo.State{1, 0}, times, dynamo.TightConfig())
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	if tr.Len() != len(times) {
		t.Fatalf("got %d samples, expected %d", tr.Len(), len(times))
	}
	if got, want := tr.Last()[0], math.Cos(10); math.Abs(got-want) > 1e-5 {
		t.Errorf("final position: got %.8f, expected %.8f", got, want)
	}
}
