package lattice

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"gonum.org/v1/gonum/mat"
)

// GramSchmidt returns the exact orthogonalisation of the rows of b.
func GramSchmidt(b Basis) ([][]*big.Rat, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	out := make([][]*big.Rat, b.Rows())
	norms := make([]*big.Rat, b.Rows())
	tmp := new(big.Rat)
	for i, row := range b {
		v := make([]*big.Rat, len(row))
		for j, x := range row {
			v[j] = new(big.Rat).SetInt(x)
		}
		for k := 0; k < i; k++ {
			mu := ratVecDot(v, out[k])
			mu.Quo(mu, norms[k])
			for j := range v {
				v[j].Sub(v[j], tmp.Mul(mu, out[k][j]))
			}
		}
		norms[i] = ratVecDot(v, v)
		if norms[i].Sign() == 0 {
			return nil, fmt.Errorf("row %d: %w", i, ErrDependent)
		}
		out[i] = v
	}
	return out, nil
}

func ratVecDot(a, b []*big.Rat) *big.Rat {
	r := new(big.Rat)
	tmp := new(big.Rat)
	for i := range a {
		r.Add(r, tmp.Mul(a[i], b[i]))
	}
	return r
}

// BabaiNearestPlane returns the lattice vector found by Babai's nearest
// plane algorithm for target. The quality of the answer depends on how
// well b is reduced.
func BabaiNearestPlane(b Basis, target []*big.Int) ([]*big.Int, error) {
	if len(target) != b.Cols() {
		return nil, fmt.Errorf("target of length %d for %d columns: %w", len(target), b.Cols(), ErrDimension)
	}
	gs, err := GramSchmidt(b)
	if err != nil {
		return nil, err
	}

	// w stays integral since every step subtracts an integer multiple of a
	// basis row.
	w := cloneVector(target)
	for i := b.Rows() - 1; i >= 0; i-- {
		wr := make([]*big.Rat, len(w))
		for j, x := range w {
			wr[j] = new(big.Rat).SetInt(x)
		}
		c := ratVecDot(wr, gs[i])
		c.Quo(c, ratVecDot(gs[i], gs[i]))
		q := roundRat(c)
		if q.Sign() != 0 {
			subScaled(w, q, b[i])
		}
	}

	out := make([]*big.Int, len(target))
	for j := range out {
		out[j] = new(big.Int).Sub(target[j], w[j])
	}
	return out, nil
}

// BabaiRound returns the lattice vector obtained by rounding the real
// coordinates of target in the basis b. Coordinates are solved in float64,
// so the answer is approximate for bases with large entries.
func BabaiRound(b Basis, target []*big.Int) ([]*big.Int, error) {
	if b.Rows() != b.Cols() || len(target) != b.Cols() {
		return nil, fmt.Errorf("rounding needs a square basis: %w", ErrDimension)
	}
	n := b.Rows()

	// Rows of b are lattice vectors, so solve b^T x = target.
	bt := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			f, err := toFloat(b[i][j])
			if err != nil {
				return nil, err
			}
			bt.Set(j, i, f)
		}
	}
	tv := mat.NewVecDense(n, nil)
	for i, x := range target {
		f, err := toFloat(x)
		if err != nil {
			return nil, err
		}
		tv.SetVec(i, f)
	}

	var x mat.VecDense
	if err := x.SolveVec(bt, tv); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve coordinates: %w", err)
		}
		log.Debugf("babai rounding on ill-conditioned basis: %v", err)
	}

	coeffs := make([]*big.Int, n)
	for i := range coeffs {
		r := math.Round(x.AtVec(i))
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, ErrPrecision
		}
		coeffs[i], _ = new(big.Float).SetFloat64(r).Int(nil)
	}
	return VectorFromCoeffs(coeffs, b)
}

func toFloat(v *big.Int) (float64, error) {
	f, _ := new(big.Float).SetInt(v).Float64()
	if math.IsInf(f, 0) {
		return 0, ErrPrecision
	}
	return f, nil
}
