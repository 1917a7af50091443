package hnp

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
)

// Verifier decides whether a candidate scalar is the private key.
type Verifier interface {
	Verify(guess *big.Int) (bool, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(guess *big.Int) (bool, error)

// Verify calls f(guess).
func (f VerifierFunc) Verify(guess *big.Int) (bool, error) { return f(guess) }

// PublicKeyVerifier checks guess*G against a public key.
type PublicKeyVerifier struct {
	curve *ec.Curve
	pub   ec.Point
}

// NewVerifier returns the verifier for pub on curve. Keys on secp256k1 are
// checked with the decred implementation instead of the generic ladder.
func NewVerifier(curve *ec.Curve, pub ec.Point) (Verifier, error) {
	if pub.IsIdentity() {
		return nil, fmt.Errorf("public key is the identity: %w", ec.ErrPointNotOnCurve)
	}
	if !pub.Curve().Equal(curve) {
		return nil, fmt.Errorf("public key on %s, attack on %s: %w", pub.Curve().Name(), curve.Name(), ec.ErrDomainMismatch)
	}
	if curve.Name() == "secp256k1" {
		enc, err := curve.EncodePoint(pub, false)
		if err != nil {
			return nil, err
		}
		return &secp256k1Verifier{n: curve.N(), pub: enc}, nil
	}
	return &PublicKeyVerifier{curve: curve, pub: pub}, nil
}

// Verify implements Verifier.
func (v *PublicKeyVerifier) Verify(guess *big.Int) (bool, error) {
	pt, err := v.curve.ScalarBaseMult(guess)
	if err != nil {
		return false, err
	}
	return pt.Equal(v.pub), nil
}

type secp256k1Verifier struct {
	n   *big.Int
	pub []byte
}

func (v *secp256k1Verifier) Verify(guess *big.Int) (bool, error) {
	k := new(big.Int).Mod(guess, v.n)
	if k.Sign() == 0 {
		return false, nil
	}
	var buf [32]byte
	k.FillBytes(buf[:])
	priv := secp256k1.PrivKeyFromBytes(buf[:])
	return bytes.Equal(priv.PubKey().SerializeUncompressed(), v.pub), nil
}

// guessSet records tested candidates. A guess and its negation modulo n
// identify the same candidate pair.
type guessSet struct {
	n    *big.Int
	seen map[string]struct{}
}

func newGuessSet(n *big.Int) *guessSet {
	return &guessSet{n: n, seen: make(map[string]struct{})}
}

// add returns false if g or n-g was already recorded.
func (s *guessSet) add(g *big.Int) bool {
	key := g.Text(16)
	if _, ok := s.seen[key]; ok {
		return false
	}
	neg := new(big.Int).Sub(s.n, g)
	if _, ok := s.seen[neg.Text(16)]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.seen[neg.Text(16)] = struct{}{}
	return true
}

func (s *guessSet) len() int { return len(s.seen) }
