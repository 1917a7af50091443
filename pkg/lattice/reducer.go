package lattice

import (
	"context"
	"math/big"
)

// Reducer is the contract of a lattice reduction engine. A blockSize of 0
// requests LLL; larger values request BKZ with that block size. Engines
// must return a basis of the same lattice and honour ctx cancellation.
type Reducer interface {
	Reduce(ctx context.Context, b Basis, blockSize int) (Basis, error)
}

// Lift is a short lattice vector produced by an Enumerator, given by its
// coefficients with respect to the basis it was enumerated from.
type Lift struct {
	Index  int
	Norm   *big.Int
	Coeffs []*big.Int
}

// Enumerator is the contract of a short vector search such as a sieve.
type Enumerator interface {
	Enumerate(ctx context.Context, b Basis) ([]Lift, error)
}

// Identity is a Reducer that returns its input unchanged.
type Identity struct{}

var _ Reducer = Identity{}

// Reduce returns a copy of b.
func (Identity) Reduce(ctx context.Context, b Basis, _ int) (Basis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}
