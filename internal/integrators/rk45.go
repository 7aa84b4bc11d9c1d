package integrators

import (
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand-Prince embedded 5(4) pair. Step ignores the error
// estimate; StepAdaptive rejects steps whose scaled error exceeds tol.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
	absTol   float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		absTol:   1e-9,
	}
}

// WithAbsTolerance sets the absolute error floor used when a component is
// near zero.
func (r *RK45) WithAbsTolerance(atol float64) *RK45 {
	if atol > 0 {
		r.absTol = atol
	}
	return r
}

func (r *RK45) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	xNew, _ := r.stages(sys, x, t, dt)
	return xNew
}

// StepAdaptive attempts one step of size dt. On success it returns the new
// state and the suggested next step. When the error estimate exceeds tol it
// returns the unchanged state, a reduced step and dynamo.ErrStepRejected.
func (r *RK45) StepAdaptive(sys dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, error) {
	xNew, errEst := r.stages(sys, x, t, dt)

	errMax := 0.0
	for i := range x {
		scale := r.absTol + tol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		errMax = math.Max(errMax, math.Abs(errEst[i])/scale)
	}
	if math.IsNaN(errMax) {
		return x, dt * r.minScale, dynamo.ErrStepRejected
	}

	if errMax > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errMax, -0.25))
		return x, dt * scale, dynamo.ErrStepRejected
	}
	if errMax == 0 {
		return xNew, dt * r.maxScale, nil
	}
	scale := math.Min(r.maxScale, r.safety*math.Pow(errMax, -0.2))
	return xNew, dt * scale, nil
}

func (r *RK45) stages(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State) {
	n := len(x)
	tmp := make(dynamo.State, n)

	k1 := sys.Derive(x, t)

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*b21*k1[i]
	}
	k2 := sys.Derive(tmp, t+a2*dt)

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(tmp, t+a3*dt)

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(tmp, t+a4*dt)

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(tmp, t+a5*dt)

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(tmp, t+dt)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derive(xNew, t+dt)

	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		errEst[i] = dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
	}
	return xNew, errEst
}
