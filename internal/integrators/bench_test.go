package integrators

import (
	"testing"

	"github.com/san-kum/dynlab/internal/dynamo"
)

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	sys := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	sys := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	sys := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkIntegrateLorenzLike(b *testing.B) {
	sys := lorenzBench{}
	times := dynamo.Arange(0, 10, 0.01)
	cfg := dynamo.DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = dynamo.Integrate(sys, NewRK45(), dynamo.State{1, 1, 1}, times, cfg)
	}
}

type lorenzBench struct{}

func (lorenzBench) StateDim() int { return 3 }
func (lorenzBench) Derive(x dynamo.State, _ float64) dynamo.State {
	return dynamo.State{10 * (x[1] - x[0]), x[0]*(28-x[2]) - x[1], x[0]*x[1] - 8.0/3.0*x[2]}
}
