package hnp

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/ecdsa-hnp/pkg/lattice"
)

const (
	testDim       = 8
	testNonceBits = 160
)

func TestSolveRecoversKey(t *testing.T) {
	f := newFixture(t, 12, testNonceBits)
	for _, method := range []Method{MethodSVP, MethodSieve, MethodNearestPlane, MethodCVP} {
		for _, recenter := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/recenter=%v", method, recenter), func(t *testing.T) {
				p := testParams(method, testDim, testNonceBits)
				p.Recenter = YesNo(recenter)
				res, err := NewSolver(f.curve, f.verifier(t), p).Solve(context.Background(), "12", f.sigs, len(f.sigs))
				require.NoError(t, err)
				assert.Equal(t, StateFound, res.State)
				assert.Equal(t, 0, res.PrivateKey.Cmp(f.set.PrivateKey))
				assert.Equal(t, testDim, res.Dimension)
				assert.Positive(t, res.Guesses)
			})
		}
	}
}

func TestSolveRoundOnlyExhaustsOrFinds(t *testing.T) {
	f := newFixture(t, 12, testNonceBits)
	p := testParams(MethodRound, testDim, testNonceBits)
	res, err := NewSolver(f.curve, f.verifier(t), p).Solve(context.Background(), "round", f.sigs, len(f.sigs))
	if err != nil {
		require.ErrorIs(t, err, ErrAttackExhausted)
		assert.Equal(t, StateExhausted, res.State)
		return
	}
	assert.Equal(t, 0, res.PrivateKey.Cmp(f.set.PrivateKey))
}

func TestSolveKnownPolicy(t *testing.T) {
	f := newFixture(t, 12, 176)
	p := testParams(MethodSVP, testDim, 176)
	p.Bounds = BoundsConfig{Type: PolicyKnown}

	res, err := NewSolver(f.curve, f.verifier(t), p).
		WithPrivateKey(f.set.PrivateKey).
		Solve(context.Background(), "known", f.sigs, len(f.sigs))
	require.NoError(t, err)
	assert.Equal(t, 0, res.PrivateKey.Cmp(f.set.PrivateKey))
	assert.True(t, res.Info.Oracle)
	assert.Zero(t, res.Info.Liars)
	assert.Equal(t, res.Info.Total, res.Info.Real)
	assert.GreaterOrEqual(t, res.Info.Bounds[0], 256-176)

	// Without the key there is nothing to take the bounds from.
	res, err = NewSolver(f.curve, f.verifier(t), p).Solve(context.Background(), "known", f.sigs, len(f.sigs))
	assert.ErrorIs(t, err, ErrBadBoundPolicy)
	assert.Equal(t, StateFailed, res.State)
}

// With many signatures the known policy picks the d shortest true nonces
// out of the whole window, not the first d.
func TestSolveKnownPolicyPicksShortestNonces(t *testing.T) {
	const count = 128
	f := newFixture(t, count, 200)
	p := testParams(MethodSVP, testDim, 200)
	p.Bounds = BoundsConfig{Type: PolicyKnown}

	lens := make([]int, count)
	for i, k := range f.nonces {
		lens[i] = k.BitLen()
	}
	sort.Ints(lens)

	res, err := NewSolver(f.curve, f.verifier(t), p).
		WithPrivateKey(f.set.PrivateKey).
		Solve(context.Background(), "known-128", f.sigs, count)
	require.NoError(t, err)
	assert.Equal(t, 0, res.PrivateKey.Cmp(f.set.PrivateKey))
	require.Len(t, res.Info.Bounds, testDim)
	for i, b := range res.Info.Bounds {
		assert.Equal(t, 256-lens[i], b, "bound %d", i)
	}
	assert.Zero(t, res.Info.Liars)
}

// The leakage diagnostics count lying bounds when the key is known.
func TestSolveReportsLiars(t *testing.T) {
	f := newFixture(t, 12, testNonceBits)
	p := testParams(MethodSVP, testDim, testNonceBits)
	p.Bounds = BoundsConfig{Type: PolicyConstant, Value: 256 - testNonceBits + 40}

	res, _ := NewSolver(f.curve, f.verifier(t), p).
		WithReducer(lattice.Identity{}).
		WithPrivateKey(f.set.PrivateKey).
		Solve(context.Background(), "liars", f.sigs, len(f.sigs))
	require.NotNil(t, res)
	assert.Equal(t, testDim, res.Info.Liars)
	assert.Len(t, res.Info.LiarPositions, testDim)
	assert.Contains(t, res.Info.String(), "liars")
}

func TestSolveIdentityReducerExhausts(t *testing.T) {
	f := newFixture(t, 12, testNonceBits)
	p := testParams(MethodSVP, testDim, testNonceBits)
	rec := newRecorder()

	res, err := NewSolver(f.curve, f.verifier(t), p).
		WithReducer(lattice.Identity{}).
		WithObserver(rec).
		Solve(context.Background(), "identity", f.sigs, len(f.sigs))
	require.ErrorIs(t, err, ErrAttackExhausted)
	assert.Equal(t, StateExhausted, res.State)
	assert.Nil(t, res.PrivateKey)
	assert.Equal(t, 1, res.Round)
	assert.Equal(t, 10, res.Beta)
	assert.Equal(t, []int{0, 10}, rec.rounds)

	want := []State{
		StateBoundsAssigned, StateLatticeBuilt,
		StateReducing, StateVerifying,
		StateReducing, StateVerifying,
		StateExhausted,
	}
	assert.Equal(t, want, rec.transitions["identity"])
}

func TestSolveZeroBoundsExhausts(t *testing.T) {
	f := newFixture(t, 12, 0)
	p := testParams(MethodSVP, testDim, 256)
	res, err := NewSolver(f.curve, f.verifier(t), p).
		WithReducer(lattice.Identity{}).
		Solve(context.Background(), "zero", f.sigs, len(f.sigs))
	require.ErrorIs(t, err, ErrAttackExhausted)
	assert.Equal(t, StateExhausted, res.State)
	assert.Zero(t, res.Info.Total)
}

// A verifier that only accepts n-x is satisfied by testing the negated guess.
func TestSolveTriesNegation(t *testing.T) {
	f := newFixture(t, 12, testNonceBits)
	neg := new(big.Int).Sub(f.curve.N(), f.set.PrivateKey)
	v := VerifierFunc(func(g *big.Int) (bool, error) { return g.Cmp(neg) == 0, nil })

	res, err := NewSolver(f.curve, v, testParams(MethodSVP, testDim, testNonceBits)).
		Solve(context.Background(), "neg", f.sigs, len(f.sigs))
	require.NoError(t, err)
	assert.Equal(t, 0, res.PrivateKey.Cmp(neg))
}

func TestSolveCancelled(t *testing.T) {
	f := newFixture(t, 12, testNonceBits)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewSolver(f.curve, f.verifier(t), testParams(MethodSVP, testDim, testNonceBits)).
		Solve(ctx, "cancelled", f.sigs, len(f.sigs))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, res.State)
}

func TestSolveBadInput(t *testing.T) {
	f := newFixture(t, 4, testNonceBits)
	s := NewSolver(f.curve, f.verifier(t), testParams(MethodSVP, testDim, testNonceBits))
	res, err := s.Solve(context.Background(), "short", f.sigs, len(f.sigs))
	assert.ErrorIs(t, err, ErrBadParams)
	assert.Nil(t, res)

	s = NewSolver(f.curve, f.verifier(t), testParams("magic", 4, testNonceBits))
	_, err = s.Solve(context.Background(), "magic", f.sigs, len(f.sigs))
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestSolveUsesClock(t *testing.T) {
	f := newFixture(t, 12, testNonceBits)
	mock := clock.NewMock()
	res, err := NewSolver(f.curve, f.verifier(t), testParams(MethodSVP, testDim, testNonceBits)).
		WithClock(mock).
		Solve(context.Background(), "clock", f.sigs, len(f.sigs))
	require.NoError(t, err)
	assert.Zero(t, res.Elapsed)
}
