// Package lattice holds the integer lattice primitives used by the hidden
// number problem solver: bases, the reduction and enumeration contracts of
// external engines, a reference LLL reducer, Gram-Schmidt orthogonalisation
// and Babai's closest vector heuristics.
package lattice

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrDimension is returned when matrix and vector shapes disagree.
	ErrDimension = errors.New("lattice: dimension mismatch")

	// ErrDependent is returned when the rows of a basis are linearly
	// dependent.
	ErrDependent = errors.New("lattice: basis rows are linearly dependent")

	// ErrPrecision is returned when a floating point method cannot represent
	// the basis.
	ErrPrecision = errors.New("lattice: basis exceeds floating point range")
)

// Basis is a row-major integer matrix whose rows generate a lattice.
type Basis [][]*big.Int

// NewBasis returns a rows x cols zero matrix.
func NewBasis(rows, cols int) Basis {
	b := make(Basis, rows)
	for i := range b {
		b[i] = make([]*big.Int, cols)
		for j := range b[i] {
			b[i][j] = new(big.Int)
		}
	}
	return b
}

// Rows returns the number of basis vectors.
func (b Basis) Rows() int { return len(b) }

// Cols returns the ambient dimension.
func (b Basis) Cols() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Clone returns a deep copy.
func (b Basis) Clone() Basis {
	out := make(Basis, len(b))
	for i, row := range b {
		out[i] = cloneVector(row)
	}
	return out
}

// Validate checks the basis is rectangular and fully populated.
func (b Basis) Validate() error {
	cols := b.Cols()
	for i, row := range b {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d entries, want %d: %w", i, len(row), cols, ErrDimension)
		}
		for j, v := range row {
			if v == nil {
				return fmt.Errorf("row %d entry %d is nil: %w", i, j, ErrDimension)
			}
		}
	}
	return nil
}

func (b Basis) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, row := range b {
		if i > 0 {
			sb.WriteString("\n ")
		}
		sb.WriteString("[")
		for j, v := range row {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(v.String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

// VectorFromCoeffs returns sum(coeffs[i] * b[i]).
func VectorFromCoeffs(coeffs []*big.Int, b Basis) ([]*big.Int, error) {
	if len(coeffs) != b.Rows() {
		return nil, fmt.Errorf("%d coefficients for %d rows: %w", len(coeffs), b.Rows(), ErrDimension)
	}
	out := make([]*big.Int, b.Cols())
	for j := range out {
		out[j] = new(big.Int)
	}
	tmp := new(big.Int)
	for i, c := range coeffs {
		if c.Sign() == 0 {
			continue
		}
		for j, v := range b[i] {
			out[j].Add(out[j], tmp.Mul(c, v))
		}
	}
	return out, nil
}

// Dot returns the inner product of two integer vectors.
func Dot(a, b []*big.Int) *big.Int {
	r := new(big.Int)
	tmp := new(big.Int)
	for i := range a {
		r.Add(r, tmp.Mul(a[i], b[i]))
	}
	return r
}

func cloneVector(v []*big.Int) []*big.Int {
	out := make([]*big.Int, len(v))
	for i, x := range v {
		out[i] = new(big.Int).Set(x)
	}
	return out
}

// subScaled sets a = a - q*b.
func subScaled(a []*big.Int, q *big.Int, b []*big.Int) {
	tmp := new(big.Int)
	for i := range a {
		a[i].Sub(a[i], tmp.Mul(q, b[i]))
	}
}

// roundRat returns the integer nearest to r, rounding halves up.
func roundRat(r *big.Rat) *big.Int {
	num := new(big.Int).Lsh(r.Num(), 1)
	num.Add(num, r.Denom())
	den := new(big.Int).Lsh(r.Denom(), 1)
	// Div is Euclidean, so floor for a positive divisor.
	return num.Div(num, den)
}
