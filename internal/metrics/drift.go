package metrics

import (
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// Drift tracks the largest relative change of a conserved quantity from its
// value at the first sample, e.g. the quadratic form of a linear center.
type Drift struct {
	name     string
	quantity func(dynamo.State) float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewDrift(name string, quantity func(dynamo.State) float64) *Drift {
	return &Drift{name: name, quantity: quantity}
}

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(x dynamo.State, t float64) {
	q := d.quantity(x)
	if d.samples == 0 {
		d.initial = q
	}
	d.samples++

	if d.initial != 0 {
		d.maxDrift = math.Max(d.maxDrift, math.Abs(q-d.initial)/math.Abs(d.initial))
	}
}

func (d *Drift) Value() float64 {
	return d.maxDrift
}

func (d *Drift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
