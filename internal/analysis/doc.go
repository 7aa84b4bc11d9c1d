// Package analysis provides trajectory-level tools for continuous flows.
//
//   - [Section]: Poincaré section of a sampled trajectory
//   - [SeparationExponent]: largest Lyapunov exponent via trajectory separation
//   - [PowerSpectrum]: one-sided spectrum of a scalar series
//   - [PeakBifurcation]: parameter sweep recording local maxima
//
// # Chaos Detection
//
// A positive largest exponent indicates sensitive dependence:
//
//	lambda := analysis.SeparationExponent(sys, integrators.NewRK4(), x0, 0.01, 50, 1e-8)
//	if lambda > 0 {
//	    // nearby trajectories separate exponentially
//	}
package analysis
