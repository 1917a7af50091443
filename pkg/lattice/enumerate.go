package lattice

import (
	"context"
	"math/big"
	"sort"
)

// RowEnumerator is a small stand-in for a sieve. It lifts every basis row
// and every sum and difference of two rows, shortest first. On a reduced
// basis this covers the vectors a sieve database would report first.
type RowEnumerator struct {
	// Limit caps the number of returned lifts; 0 means no cap.
	Limit int
}

var _ Enumerator = RowEnumerator{}

// Enumerate returns the candidate vectors of b as coefficient lifts.
func (e RowEnumerator) Enumerate(ctx context.Context, b Basis) ([]Lift, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	n := b.Rows()
	lifts := make([]Lift, 0, n*n)
	add := func(coeffs []*big.Int) error {
		v, err := VectorFromCoeffs(coeffs, b)
		if err != nil {
			return err
		}
		lifts = append(lifts, Lift{Norm: Dot(v, v), Coeffs: coeffs})
		return nil
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := add(unitCoeffs(n, i, -1, 0)); err != nil {
			return nil, err
		}
		for j := i + 1; j < n; j++ {
			for _, sign := range []int64{1, -1} {
				if err := add(unitCoeffs(n, i, j, sign)); err != nil {
					return nil, err
				}
			}
		}
	}

	sort.SliceStable(lifts, func(a, c int) bool {
		return lifts[a].Norm.Cmp(lifts[c].Norm) < 0
	})
	if e.Limit > 0 && len(lifts) > e.Limit {
		lifts = lifts[:e.Limit]
	}
	for i := range lifts {
		lifts[i].Index = i
	}
	return lifts, nil
}

// unitCoeffs returns e_i + sign*e_j, or e_i when j < 0.
func unitCoeffs(n, i, j int, sign int64) []*big.Int {
	c := make([]*big.Int, n)
	for k := range c {
		c[k] = new(big.Int)
	}
	c[i].SetInt64(1)
	if j >= 0 {
		c[j].SetInt64(sign)
	}
	return c
}
