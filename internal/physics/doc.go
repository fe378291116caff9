// Package physics builds the linear stochastic model of two beads joined
// by a spring.
//
// Each bead may be tethered to its initial position (k1, k2) and the two
// are coupled by a spring of rest length L12 (k12). Dividing the forces by
// the drag gamma gives the overdamped drift
//
//	dX = (A X + a) dt + diag(b) dW
//
// with
//
//	A = [[-(k1+k12), k12], [k12, -(k2+k12)]] / gamma
//	a = [k1*x10 - k12*L12, k2*x20 + k12*L12] / gamma
//	b = [sqrt(2*D1), sqrt(2*D2)]
//
// Use [Build] to derive a [System] from validated [Params]:
//
//	sys, err := physics.Build(params)
//	if err != nil {
//	    return err // wraps dynamo.ErrInvalidParameter
//	}
package physics
