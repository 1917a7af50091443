package hnp

import (
	"fmt"
	"hash"
	"math/big"
	"sort"

	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
)

// Signature is one ECDSA signature rewritten as a hidden number problem
// sample: the nonce k satisfies k = T*x + U (mod n) for private key x.
type Signature struct {
	Elapsed int64    // measured signing duration
	H       *big.Int // truncated message hash
	R       *big.Int
	S       *big.Int
	SInv    *big.Int // s^-1 mod n
	T       *big.Int // s^-1 * r mod n
	U       *big.Int // -s^-1 * h mod n
}

// Pair holds the HNP coefficients of one signature.
type Pair struct {
	T, U *big.Int
}

// NewSignature derives the HNP coefficients of (r, s) over data.
func NewSignature(curve *ec.Curve, newHash func() hash.Hash, data []byte, r, s *big.Int, elapsed int64) (*Signature, error) {
	h := newHash()
	h.Write(data)
	return NewSignatureFromDigest(curve, h.Sum(nil), r, s, elapsed)
}

// NewSignatureFromDigest is NewSignature for a precomputed message digest.
func NewSignatureFromDigest(curve *ec.Curve, digest []byte, r, s *big.Int, elapsed int64) (*Signature, error) {
	n := curve.N()
	if r.Sign() <= 0 || r.Cmp(n) >= 0 {
		return nil, fmt.Errorf("r out of range: %w", ErrInvalidSignature)
	}
	if s.Sign() <= 0 || s.Cmp(n) >= 0 {
		return nil, fmt.Errorf("s out of range: %w", ErrInvalidSignature)
	}

	hm := HashToInt(digest, curve.BitSize())
	sinv, err := ec.NewMod(s, n).Inverse()
	if err != nil {
		return nil, fmt.Errorf("s: %w", err)
	}
	t, err := sinv.Mul(ec.NewMod(r, n))
	if err != nil {
		return nil, err
	}
	u, err := sinv.Neg().Mul(ec.NewMod(hm, n))
	if err != nil {
		return nil, err
	}

	return &Signature{
		Elapsed: elapsed,
		H:       hm,
		R:       new(big.Int).Set(r),
		S:       new(big.Int).Set(s),
		SInv:    sinv.Int(),
		T:       t.Int(),
		U:       u.Int(),
	}, nil
}

// HashToInt interprets digest as a big-endian integer and keeps its
// leftmost orderBits bits when the digest is longer.
func HashToInt(digest []byte, orderBits int) *big.Int {
	h := new(big.Int).SetBytes(digest)
	if excess := len(digest)*8 - orderBits; excess > 0 {
		h.Rsh(h, uint(excess))
	}
	return h
}

// Pair returns the (t, u) coefficients.
func (s *Signature) Pair() Pair {
	return Pair{T: s.T, U: s.U}
}

// RecomputeNonce returns s^-1 * (h + r*priv) mod n. It needs the private
// key and so only serves controlled experiments.
func RecomputeNonce(curve *ec.Curve, sig *Signature, priv *big.Int) *big.Int {
	n := curve.N()
	k := new(big.Int).Mul(sig.R, priv)
	k.Add(k, sig.H)
	k.Mul(k, sig.SInv)
	return k.Mod(k, n)
}

// SortByTiming orders signatures by ascending elapsed time, keeping the
// collection order of equal timings.
func SortByTiming(sigs []*Signature) {
	sort.SliceStable(sigs, func(i, j int) bool {
		return sigs[i].Elapsed < sigs[j].Elapsed
	})
}

// Pairs extracts the HNP coefficients of sigs.
func Pairs(sigs []*Signature) []Pair {
	out := make([]Pair, len(sigs))
	for i, s := range sigs {
		out[i] = s.Pair()
	}
	return out
}
