package analysis

import (
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// SeparationExponent estimates the largest Lyapunov exponent by following a
// reference trajectory and a companion displaced by d0 along the first
// coordinate. After every step the log growth of the separation is
// accumulated and the companion is pulled back to distance d0 along the
// current separation direction.
//
//	λ ≈ Σ ln(|δx(t+dt)| / d0) / (n·dt)
func SeparationExponent(sys dynamo.System, integ dynamo.Integrator, x0 dynamo.State, dt, duration, d0 float64) float64 {
	if len(x0) == 0 || dt <= 0 || d0 <= 0 {
		return 0
	}
	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += d0

	sumLog := 0.0
	count := 0
	for t := 0.0; t < duration; t += dt {
		x = integ.Step(sys, x, t, dt)
		xp = integ.Step(sys, xp, t, dt)
		if !x.IsValid() || !xp.IsValid() {
			break
		}

		sep := xp.Sub(x).Norm()
		if sep == 0 {
			xp = x.Clone()
			xp[0] += d0
			continue
		}
		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*scale
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}
