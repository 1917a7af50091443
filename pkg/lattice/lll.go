package lattice

import (
	"context"
	"fmt"
	"math/big"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("lattice")

// DefaultDelta is the Lovasz constant used when LLL.Delta is unset.
const DefaultDelta = 0.99

// LLL is a reference reducer running the textbook LLL algorithm in exact
// rational arithmetic. It is slow but has no precision limits, which makes
// it suitable for tests and small dimensions. Every block size is served
// with plain LLL; plug an external engine for BKZ.
type LLL struct {
	Delta float64
}

var _ Reducer = LLL{}

// Reduce returns an LLL-reduced copy of b.
func (l LLL) Reduce(ctx context.Context, b Basis, blockSize int) (Basis, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	delta := l.Delta
	if delta <= 0.25 || delta > 1 {
		delta = DefaultDelta
	}
	if blockSize > 0 {
		log.Debugf("block size %d requested, running LLL", blockSize)
	}

	out := b.Clone()
	if out.Rows() < 2 {
		return out, nil
	}
	st := &lllState{
		b:     out,
		delta: new(big.Rat).SetFloat64(delta),
		mu:    make([][]*big.Rat, out.Rows()),
		bb:    make([]*big.Rat, out.Rows()),
	}
	for i := range st.mu {
		st.mu[i] = make([]*big.Rat, out.Rows())
		for j := range st.mu[i] {
			st.mu[i][j] = new(big.Rat)
		}
	}
	if err := st.run(ctx); err != nil {
		return nil, err
	}
	log.Debugf("LLL finished: dim=%d swaps=%d", out.Rows(), st.swaps)
	return out, nil
}

type lllState struct {
	b     Basis
	delta *big.Rat
	mu    [][]*big.Rat
	bb    []*big.Rat
	swaps int
}

func ratDot(a, b []*big.Int) *big.Rat {
	return new(big.Rat).SetInt(Dot(a, b))
}

// gram fills row k of mu and bb[k] from inner products with the previous
// rows.
func (s *lllState) gram(k int) error {
	for j := 0; j < k; j++ {
		v := ratDot(s.b[k], s.b[j])
		tmp := new(big.Rat)
		for i := 0; i < j; i++ {
			tmp.Mul(s.mu[j][i], s.mu[k][i])
			tmp.Mul(tmp, s.bb[i])
			v.Sub(v, tmp)
		}
		s.mu[k][j] = v.Quo(v, s.bb[j])
	}
	v := ratDot(s.b[k], s.b[k])
	tmp := new(big.Rat)
	for j := 0; j < k; j++ {
		tmp.Mul(s.mu[k][j], s.mu[k][j])
		tmp.Mul(tmp, s.bb[j])
		v.Sub(v, tmp)
	}
	if v.Sign() == 0 {
		return fmt.Errorf("row %d: %w", k, ErrDependent)
	}
	s.bb[k] = v
	return nil
}

var ratHalf = big.NewRat(1, 2)

// red size-reduces row k against row l.
func (s *lllState) red(k, l int) {
	abs := new(big.Rat).Abs(s.mu[k][l])
	if abs.Cmp(ratHalf) <= 0 {
		return
	}
	q := roundRat(s.mu[k][l])
	subScaled(s.b[k], q, s.b[l])
	qr := new(big.Rat).SetInt(q)
	s.mu[k][l].Sub(s.mu[k][l], qr)
	tmp := new(big.Rat)
	for i := 0; i < l; i++ {
		s.mu[k][i].Sub(s.mu[k][i], tmp.Mul(qr, s.mu[l][i]))
	}
}

func (s *lllState) swap(k, kmax int) {
	s.swaps++
	s.b[k], s.b[k-1] = s.b[k-1], s.b[k]
	for j := 0; j < k-1; j++ {
		s.mu[k][j], s.mu[k-1][j] = s.mu[k-1][j], s.mu[k][j]
	}

	m := new(big.Rat).Set(s.mu[k][k-1])
	bnew := new(big.Rat).Mul(m, m)
	bnew.Mul(bnew, s.bb[k-1])
	bnew.Add(bnew, s.bb[k])

	s.mu[k][k-1] = new(big.Rat).Mul(m, s.bb[k-1])
	s.mu[k][k-1].Quo(s.mu[k][k-1], bnew)

	bk := new(big.Rat).Mul(s.bb[k-1], s.bb[k])
	s.bb[k] = bk.Quo(bk, bnew)
	s.bb[k-1] = bnew

	tmp := new(big.Rat)
	for i := k + 1; i <= kmax; i++ {
		t := new(big.Rat).Set(s.mu[i][k])
		s.mu[i][k] = new(big.Rat).Sub(s.mu[i][k-1], tmp.Mul(m, t))
		s.mu[i][k-1] = new(big.Rat).Add(t, tmp.Mul(s.mu[k][k-1], s.mu[i][k]))
	}
}

func (s *lllState) run(ctx context.Context) error {
	n := s.b.Rows()
	s.bb[0] = ratDot(s.b[0], s.b[0])
	if s.bb[0].Sign() == 0 {
		return fmt.Errorf("row 0: %w", ErrDependent)
	}

	k, kmax := 1, 0
	lhs, rhs := new(big.Rat), new(big.Rat)
	for k < n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if k > kmax {
			kmax = k
			if err := s.gram(k); err != nil {
				return err
			}
		}
		s.red(k, k-1)

		// Lovasz condition: B_k >= (delta - mu_{k,k-1}^2) B_{k-1}
		rhs.Mul(s.mu[k][k-1], s.mu[k][k-1])
		rhs.Sub(s.delta, rhs)
		rhs.Mul(rhs, s.bb[k-1])
		lhs.Set(s.bb[k])
		if lhs.Cmp(rhs) < 0 {
			s.swap(k, kmax)
			if k > 1 {
				k--
			}
			continue
		}
		for l := k - 2; l >= 0; l-- {
			s.red(k, l)
		}
		k++
	}
	return nil
}
