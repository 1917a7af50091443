// Package hnp provides tools for recovering ECDSA private keys when the
// bit-length of signing nonces leaks through a timing side channel.
//
// Each signature (r, s) over a hash h gives a Hidden Number Problem sample
// k = t*x + u (mod n) with t = s^-1 * r and u = -s^-1 * h. Signatures that
// were produced faster are assumed to have nonces with more leading zero
// bits. A bound policy turns that ordering into a per-signature number of
// known zero bits, and the samples are embedded into a lattice whose
// short (or close) vector reveals the private key x.
//
// WARNING: This package is for security research and testing purposes only.
// It should only be used to analyze your own signatures or with explicit permission.
//
// Basic Usage:
//
//	client, err := hnp.NewClientByName("secp256r1", "sha256")
//	result, err := client.RecoverKey(ctx, "path/to/signatures.csv")
//	// Or from an in-memory set (e.g. your own parser):
//	// result, err := client.RecoverKeyFromSignatures(ctx, set)
//
// Customizing the attack (the defaults target 256-bit curves with
// thousands of signatures):
//
//	params := hnp.DefaultParams().
//		WithMethod(hnp.MethodNearestPlane).
//		WithDimension(60).
//		WithBounds(hnp.BoundsConfig{Type: hnp.PolicyGeomN})
//	client = client.WithParams(params).WithReducer(myBKZ)
//
// Methods:
//
// - svp: scan the rows of the reduced (d+2)-dimensional embedding
// - sieve: LLL, then verify the lifts of an Enumerator
// - np, round, cvp: Babai on the (d+1)-dimensional CVP embedding
//
// The built-in reducer is an exact LLL suitable for small dimensions. Real
// attacks plug an external BKZ engine through lattice.Reducer.
package hnp
