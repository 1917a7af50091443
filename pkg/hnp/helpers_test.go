package hnp

import (
	"crypto/sha256"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/ecdsa-hnp/internal/simulate"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
)

// fixture is a simulated signature set on secp256r1 whose nonces are all
// below 2^nonceBits, so a constant bound of 256-nonceBits never lies.
type fixture struct {
	curve  *ec.Curve
	set    *SignatureSet
	sigs   []*Signature
	nonces []*big.Int
	pub    ec.Point
}

func newFixture(t *testing.T, count, nonceBits int) *fixture {
	t.Helper()
	curve, err := ec.GetCurve("secp256r1")
	require.NoError(t, err)

	cfg := simulate.DefaultConfig()
	cfg.Count = count
	cfg.NonceBits = nonceBits
	cfg.DataLen = 32
	res, err := simulate.Run(curve, sha256.New, cfg)
	require.NoError(t, err)

	set := setFromFile(res.File)
	sigs, err := set.Signatures(curve, sha256.New)
	require.NoError(t, err)
	pub, err := curve.DecodePoint(set.PublicKey)
	require.NoError(t, err)
	return &fixture{curve: curve, set: set, sigs: sigs, nonces: res.Nonces, pub: pub}
}

func (f *fixture) verifier(t *testing.T) Verifier {
	t.Helper()
	v, err := NewVerifier(f.curve, f.pub)
	require.NoError(t, err)
	return v
}

// testParams returns a small, fast configuration for fixtures with
// nonceBits-bit nonces.
func testParams(method Method, dim, nonceBits int) Params {
	p := DefaultParams()
	p.Attack = AttackParams{Method: method, Type: SelectAll}
	p.Dimension = dim
	p.Bounds = BoundsConfig{Type: PolicyConstant, Value: 256 - nonceBits}
	p.Betas = []int{10}
	p.MaxAttempts = 1
	return p
}

// recorder is an Observer keeping every event.
type recorder struct {
	mu          sync.Mutex
	transitions map[string][]State
	rounds      []int
	guesses     int
}

func newRecorder() *recorder {
	return &recorder{transitions: make(map[string][]State)}
}

func (r *recorder) Transition(attempt string, _, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[attempt] = append(r.transitions[attempt], to)
}

func (r *recorder) Round(_ string, _ Method, beta int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, beta)
}

func (r *recorder) Guess(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guesses++
}
