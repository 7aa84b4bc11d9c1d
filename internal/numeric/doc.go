// Package numeric wraps the gonum routines the analyzers share: small dense
// eigenproblems, linear solves, QR factorisation, polynomial roots, root
// finding and finite-difference Jacobians.
package numeric
