package metrics

import (
	"github.com/san-kum/dynlab/internal/dynamo"
)

// Bounded reports the fraction of samples whose every component stays
// within the threshold. An empty trajectory counts as fully bounded.
type Bounded struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewBounded(threshold float64) *Bounded {
	return &Bounded{
		name:      "bounded_fraction",
		threshold: threshold,
	}
}

func (b *Bounded) Name() string {
	return b.name
}

func (b *Bounded) Observe(x dynamo.State, t float64) {
	b.samples++
	if x.MaxAbs() > b.threshold {
		b.violations++
	}
}

func (b *Bounded) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounded) Reset() {
	b.violations = 0
	b.samples = 0
}
