// Package dynamo provides the primitives shared by every analyzer.
//
//   - [State]: vector representing a point in phase space
//   - [System]: interface for vector fields (dX/dt = f(X, t))
//   - [Integrator] and [AdaptiveIntegrator]: numerical steppers
//   - [Trajectory]: sampled solution with divergence truncation
//   - [StabilityClass] and [Verdict]: equilibrium and fixed-point labels
//   - [Error]: structured analysis errors with kinds and remedies
//
// # Example
//
//	sys := chaos.MustFlow(chaos.Lorenz, nil)
//	times := dynamo.Arange(0, 50, 0.01)
//	tr, err := dynamo.Integrate(sys, integrators.NewRK45(), sys.DefaultState(), times, dynamo.DefaultConfig())
//
// Nothing in this package is safe for concurrent mutation; analyzers are
// built per request.
package dynamo
