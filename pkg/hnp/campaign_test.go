package hnp

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/ecdsa-hnp/pkg/lattice"
)

func TestWindows(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		dim    int
		attack AttackParams
		want   []int
	}{
		{"single window", 100, 10, AttackParams{}, []int{100}},
		{"stepped", 100, 10, AttackParams{Start: 40, Step: 20}, []int{40, 60, 80, 100}},
		{"last below total", 90, 10, AttackParams{Start: 40, Step: 20}, []int{40, 60, 80}},
		{"start raised to dim", 30, 10, AttackParams{Start: 2, Step: 10}, []int{10, 20, 30}},
		{"start equals total", 30, 10, AttackParams{Start: 30, Step: 10}, []int{30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Windows(tt.total, tt.dim, tt.attack)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Windows(5, 10, AttackParams{})
	assert.ErrorIs(t, err, ErrBadParams)
	_, err = Windows(50, 10, AttackParams{Start: 60, Step: 10})
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestSelectSignatures(t *testing.T) {
	sigs := make([]*Signature, 20)
	for i := range sigs {
		sigs[i] = &Signature{R: big.NewInt(int64(i))}
	}

	out, err := SelectSignatures(sigs, AttackParams{Type: SelectAll, Skip: 5}, 0)
	require.NoError(t, err)
	require.Len(t, out, 15)
	assert.Equal(t, int64(5), out[0].R.Int64())

	attack := AttackParams{Type: SelectRandom, Skip: 5, Num: 8}
	a, err := SelectSignatures(sigs, attack, 7)
	require.NoError(t, err)
	b, err := SelectSignatures(sigs, attack, 7)
	require.NoError(t, err)
	require.Len(t, a, 8)
	assert.Equal(t, a, b)
	for _, s := range a {
		assert.GreaterOrEqual(t, s.R.Int64(), int64(5))
	}

	// An explicit seed overrides the clock seed.
	seed := int64(7)
	attack.Seed = &seed
	c, err := SelectSignatures(sigs, attack, 99)
	require.NoError(t, err)
	assert.Equal(t, a, c)

	// The input is never reordered.
	assert.Equal(t, int64(0), sigs[0].R.Int64())
	assert.Equal(t, int64(19), sigs[19].R.Int64())

	_, err = SelectSignatures(sigs, AttackParams{Type: SelectAll, Skip: 20}, 0)
	assert.ErrorIs(t, err, ErrBadParams)
}

func campaignParams() Params {
	p := testParams(MethodSVP, testDim, testNonceBits)
	p.Attack.Start = testDim
	p.Attack.Step = 4
	p.MaxAttempts = 2
	return p
}

func TestCampaignRun(t *testing.T) {
	f := newFixture(t, 16, testNonceBits)
	rec := newRecorder()
	solver := NewSolver(f.curve, f.verifier(t), campaignParams()).WithObserver(rec)

	res, err := NewCampaign(solver).Run(context.Background(), f.sigs)
	require.NoError(t, err)
	assert.Equal(t, StateFound, res.State)
	assert.Equal(t, 0, res.PrivateKey.Cmp(f.set.PrivateKey))
	assert.Contains(t, []string{"8", "12", "16"}, res.Name)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for name, states := range rec.transitions {
		assert.True(t, states[len(states)-1].Terminal(), "attempt %s ended in %s", name, states[len(states)-1])
	}
}

func TestCampaignExhausted(t *testing.T) {
	f := newFixture(t, 16, testNonceBits)
	rec := newRecorder()
	solver := NewSolver(f.curve, f.verifier(t), campaignParams()).
		WithReducer(lattice.Identity{}).
		WithObserver(rec)

	_, err := NewCampaign(solver).Run(context.Background(), f.sigs)
	assert.ErrorIs(t, err, ErrAttackExhausted)
	assert.Len(t, rec.transitions, 3)
	for _, name := range []string{"8", "12", "16"} {
		states := rec.transitions[name]
		require.NotEmpty(t, states, name)
		assert.Equal(t, StateExhausted, states[len(states)-1])
	}
}

func TestCampaignCancelled(t *testing.T) {
	f := newFixture(t, 16, testNonceBits)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCampaign(NewSolver(f.curve, f.verifier(t), campaignParams())).Run(ctx, f.sigs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCampaignRejectsBadParams(t *testing.T) {
	f := newFixture(t, 4, testNonceBits)
	_, err := NewCampaign(NewSolver(f.curve, f.verifier(t), campaignParams())).Run(context.Background(), f.sigs)
	assert.ErrorIs(t, err, ErrBadParams)

	p := campaignParams()
	p.Dimension = 0
	_, err = NewCampaign(NewSolver(f.curve, f.verifier(t), p)).Run(context.Background(), f.sigs)
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestCampaignKnownPolicyNeedsPrivateKey(t *testing.T) {
	f := newFixture(t, 16, testNonceBits)
	p := campaignParams()
	p.Bounds = BoundsConfig{Type: PolicyKnown}
	rec := newRecorder()

	_, err := NewCampaign(NewSolver(f.curve, f.verifier(t), p).WithObserver(rec)).Run(context.Background(), f.sigs)
	assert.ErrorIs(t, err, ErrBadBoundPolicy)
	assert.NotErrorIs(t, err, ErrAttackExhausted)
	assert.Empty(t, rec.transitions)

	res, err := NewCampaign(NewSolver(f.curve, f.verifier(t), p).WithPrivateKey(f.set.PrivateKey)).
		Run(context.Background(), f.sigs)
	require.NoError(t, err)
	assert.Equal(t, 0, res.PrivateKey.Cmp(f.set.PrivateKey))
}

var errBrokenEngine = errors.New("engine crashed")

type brokenReducer struct{}

func (brokenReducer) Reduce(context.Context, lattice.Basis, int) (lattice.Basis, error) {
	return nil, errBrokenEngine
}

// Failing attempts are reported as such, not as an exhausted search.
func TestCampaignAllAttemptsFailed(t *testing.T) {
	f := newFixture(t, 16, testNonceBits)
	rec := newRecorder()
	solver := NewSolver(f.curve, f.verifier(t), campaignParams()).
		WithReducer(brokenReducer{}).
		WithObserver(rec)

	_, err := NewCampaign(solver).Run(context.Background(), f.sigs)
	assert.ErrorIs(t, err, errBrokenEngine)
	assert.NotErrorIs(t, err, ErrAttackExhausted)
	for name, states := range rec.transitions {
		assert.Equal(t, StateFailed, states[len(states)-1], name)
	}
}
