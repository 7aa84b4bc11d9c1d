package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/dynlab/internal/dynamo"
)

type MaxNorm struct {
	name string
	max  float64
}

func NewMaxNorm() *MaxNorm {
	return &MaxNorm{name: "max_norm"}
}

func (m *MaxNorm) Name() string { return m.name }

func (m *MaxNorm) Observe(x dynamo.State, t float64) {
	m.max = math.Max(m.max, floats.Norm(x, 2))
}

func (m *MaxNorm) Value() float64 { return m.max }

func (m *MaxNorm) Reset() { m.max = 0 }

// MeanNorm is the time-unweighted mean Euclidean distance from the origin.
type MeanNorm struct {
	name    string
	sum     float64
	samples int
}

func NewMeanNorm() *MeanNorm {
	return &MeanNorm{name: "mean_norm"}
}

func (m *MeanNorm) Name() string { return m.name }

func (m *MeanNorm) Observe(x dynamo.State, t float64) {
	m.sum += floats.Norm(x, 2)
	m.samples++
}

func (m *MeanNorm) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanNorm) Reset() {
	m.sum = 0
	m.samples = 0
}

type Samples struct {
	n int
}

func NewSamples() *Samples { return &Samples{} }

func (s *Samples) Name() string                      { return "samples" }
func (s *Samples) Observe(x dynamo.State, t float64) { s.n++ }
func (s *Samples) Value() float64                    { return float64(s.n) }
func (s *Samples) Reset()                            { s.n = 0 }
