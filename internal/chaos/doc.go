// Package chaos integrates and characterises three-dimensional chaotic
// flows: Lorenz, Rössler, Chua's circuit and Thomas' attractor.
//
// An [Analyzer] caches the last integrated trajectory, which Poincaré
// sections, fractal dimensions and spectra are computed from:
//
//	a := chaos.NewAnalyzer(chaos.MustFlow(chaos.Lorenz, nil), chaos.WithSeed(1))
//	tr, _ := a.IntegrateTrajectory(dynamo.State{1, 1, 1}, [2]float64{0, 50}, 0.01)
//	pts := a.PoincareSection(analysis.PlaneZ, 27)
//
// The exponent spectrum from LyapunovExponents and the dimensions from
// FractalDimension are rough indicators. SeparationExponent gives a
// conventional estimate of the largest exponent.
package chaos
