package hnp

import (
	"fmt"
	"math/big"

	"github.com/mahdiidarabi/ecdsa-hnp/pkg/lattice"
)

// scales returns 2^bound (plus one bit when recentering) for every index.
func scales(bounds []int, recenter bool) []*big.Int {
	out := make([]*big.Int, len(bounds))
	for i, b := range bounds {
		if recenter {
			b++
		}
		out[i] = new(big.Int).Lsh(big.NewInt(1), uint(b))
	}
	return out
}

// offset is the value added to every embedded u term. Recentering moves
// the nonce interval [0, 2n) of the doubled weights to [-n, n).
func offset(n *big.Int, recenter bool) *big.Int {
	if recenter {
		return new(big.Int).Neg(n)
	}
	return new(big.Int)
}

func checkShape(pairs []Pair, bounds []int) error {
	if len(pairs) == 0 {
		return fmt.Errorf("no signatures: %w", lattice.ErrDimension)
	}
	if len(pairs) != len(bounds) {
		return fmt.Errorf("%d signatures for %d bounds: %w", len(pairs), len(bounds), lattice.ErrDimension)
	}
	return nil
}

// hnpRows fills the first d+1 rows shared by both formulations.
func hnpRows(b lattice.Basis, pairs []Pair, w []*big.Int, n *big.Int) {
	d := len(pairs)
	for i, p := range pairs {
		b[i][i].Mul(w[i], n)
		b[d][i].Mul(w[i], p.T)
	}
	b[d][d].SetInt64(1)
}

// BuildSVPBasis embeds d HNP samples into the (d+2)-dimensional lattice
// whose short vector carries the private key at coordinate d:
//
//	diag(2^b_i * n)         0  0
//	2^b_i * t_i             1  0
//	2^b_i * u_i + offset    0  n
//
// Without recentering offset is 0. With recentering every b_i is raised by
// one and offset is -n, so the embedded nonce terms 2^(b_i+1)*k_i - n lie
// in [-n, n). An offset of +n would keep x at coordinate d as well but
// move those terms to [n, 3n), lengthening the hidden vector.
func BuildSVPBasis(pairs []Pair, bounds []int, n *big.Int, recenter bool) (lattice.Basis, error) {
	if err := checkShape(pairs, bounds); err != nil {
		return nil, err
	}
	d := len(pairs)
	w := scales(bounds, recenter)
	off := offset(n, recenter)

	b := lattice.NewBasis(d+2, d+2)
	hnpRows(b, pairs, w, n)
	for i, p := range pairs {
		b[d+1][i].Mul(w[i], p.U)
		b[d+1][i].Add(b[d+1][i], off)
	}
	b[d+1][d+1].Set(n)
	return b, nil
}

// BuildCVPBasis returns the (d+1)-dimensional lattice of the closest
// vector formulation. The lattice point closest to BuildTarget has -x mod
// n as its last coordinate.
func BuildCVPBasis(pairs []Pair, bounds []int, n *big.Int, recenter bool) (lattice.Basis, error) {
	if err := checkShape(pairs, bounds); err != nil {
		return nil, err
	}
	d := len(pairs)
	b := lattice.NewBasis(d+1, d+1)
	hnpRows(b, pairs, scales(bounds, recenter), n)
	return b, nil
}

// BuildTarget returns the CVP target (2^b_i * u_i + offset, ..., 0) with
// the offset described at BuildSVPBasis.
func BuildTarget(pairs []Pair, bounds []int, n *big.Int, recenter bool) ([]*big.Int, error) {
	if err := checkShape(pairs, bounds); err != nil {
		return nil, err
	}
	w := scales(bounds, recenter)
	off := offset(n, recenter)
	target := make([]*big.Int, len(pairs)+1)
	for i, p := range pairs {
		target[i] = new(big.Int).Mul(w[i], p.U)
		target[i].Add(target[i], off)
	}
	target[len(pairs)] = new(big.Int)
	return target, nil
}
