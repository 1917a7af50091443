package hnp

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	logging "github.com/ipfs/go-log/v2"

	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/lattice"
)

var log = logging.Logger("hnp")

// Solver runs single lattice attacks on a window of signatures. A Solver
// is safe for concurrent use; every call to Solve owns its own basis and
// seen-guess set.
type Solver struct {
	curve      *ec.Curve
	verifier   Verifier
	params     Params
	reducer    lattice.Reducer
	enumerator lattice.Enumerator
	observer   Observer
	clock      clock.Clock
	privateKey *big.Int
}

// NewSolver creates a solver with the reference LLL reducer.
func NewSolver(curve *ec.Curve, verifier Verifier, params Params) *Solver {
	return &Solver{
		curve:      curve,
		verifier:   verifier,
		params:     params,
		reducer:    lattice.LLL{Delta: lattice.DefaultDelta},
		enumerator: lattice.RowEnumerator{},
		observer:   NopObserver{},
		clock:      clock.New(),
	}
}

// WithReducer sets the reduction engine.
func (s *Solver) WithReducer(r lattice.Reducer) *Solver {
	s.reducer = r
	return s
}

// WithEnumerator sets the short vector enumerator used by the sieve method.
func (s *Solver) WithEnumerator(e lattice.Enumerator) *Solver {
	s.enumerator = e
	return s
}

// WithObserver sets the progress observer.
func (s *Solver) WithObserver(o Observer) *Solver {
	s.observer = o
	return s
}

// WithClock sets the time source used for elapsed times.
func (s *Solver) WithClock(c clock.Clock) *Solver {
	s.clock = c
	return s
}

// WithPrivateKey makes the true key available for the known bound policy
// and the leakage diagnostics. It is never used to verify guesses.
func (s *Solver) WithPrivateKey(priv *big.Int) *Solver {
	s.privateKey = priv
	return s
}

// Params returns the solver parameters.
func (s *Solver) Params() Params { return s.params }

// Solve runs one attempt named name on sigs, which must be sorted by
// timing. total is the number of signatures the window was drawn from and
// feeds the sample count based bound policies.
//
// The returned error is nil when the key was found, ErrAttackExhausted
// when the schedule completed without it, and the context error when ctx
// was cancelled between rounds. A Result is returned in every case except
// invalid input.
func (s *Solver) Solve(ctx context.Context, name string, sigs []*Signature, total int) (*Result, error) {
	dim := s.params.Dimension
	if dim <= 0 || len(sigs) < dim {
		return nil, fmt.Errorf("%d signatures for dimension %d: %w", len(sigs), dim, ErrBadParams)
	}
	if !s.params.Attack.Method.valid() {
		return nil, fmt.Errorf("unknown method %q: %w", s.params.Attack.Method, ErrBadParams)
	}

	a := &attempt{
		Solver: s,
		name:   name,
		start:  s.clock.Now(),
		seen:   newGuessSet(s.curve.N()),
		result: &Result{
			Name:      name,
			Method:    s.params.Attack.Method,
			Dimension: dim,
			Row:       -1,
		},
	}
	err := a.run(ctx, sigs, total)
	a.result.Guesses = a.seen.len() / 2
	a.result.Elapsed = s.clock.Since(a.start)
	return a.result, err
}

// attempt is the state of one Solve call.
type attempt struct {
	*Solver
	name   string
	start  time.Time
	seen   *guessSet
	result *Result
}

func (a *attempt) logf(format string, args ...interface{}) {
	log.Infof("[%s] %s [%ds]", a.name, fmt.Sprintf(format, args...), int(a.clock.Since(a.start).Seconds()))
}

func (a *attempt) transition(to State) {
	from := a.result.State
	a.result.State = to
	a.observer.Transition(a.name, from, to)
}

func (a *attempt) fail(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		a.transition(StateCancelled)
		return err
	}
	a.transition(StateFailed)
	a.logf("Attempt failed: %v", err)
	return err
}

// selectSignatures returns the signatures of the lattice and, when the
// private key is known, their nonces. The known policy uses the signatures
// with the shortest true nonces instead of the fastest ones.
func (a *attempt) selectSignatures(sigs []*Signature) ([]*Signature, []*big.Int, error) {
	dim := a.params.Dimension
	known := a.params.Bounds.Type == PolicyKnown
	if a.privateKey == nil {
		if known {
			return nil, nil, fmt.Errorf("known policy needs the private key: %w", ErrBadBoundPolicy)
		}
		return sigs[:dim], nil, nil
	}

	type entry struct {
		sig   *Signature
		nonce *big.Int
	}
	entries := make([]entry, len(sigs))
	for i, sig := range sigs {
		entries[i] = entry{sig: sig, nonce: RecomputeNonce(a.curve, sig, a.privateKey)}
	}
	if known {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].nonce.BitLen() < entries[j].nonce.BitLen()
		})
	}
	selected := make([]*Signature, dim)
	nonces := make([]*big.Int, dim)
	for i := range selected {
		selected[i] = entries[i].sig
		nonces[i] = entries[i].nonce
	}
	return selected, nonces, nil
}

func (a *attempt) run(ctx context.Context, sigs []*Signature, total int) error {
	if err := ctx.Err(); err != nil {
		a.transition(StateCancelled)
		return err
	}
	n := a.curve.N()
	orderBits := a.curve.BitSize()
	method := a.params.Attack.Method
	recenter := bool(a.params.Recenter)

	selected, nonces, err := a.selectSignatures(sigs)
	if err != nil {
		return a.fail(err)
	}
	policy, err := NewBoundPolicy(a.params.Bounds, orderBits, nonces)
	if err != nil {
		return a.fail(err)
	}
	bounds := AssignBounds(policy, len(selected), total, orderBits)
	a.result.Info = newInfo(bounds, orderBits, nonces)
	a.transition(StateBoundsAssigned)
	a.logf("Building lattice with %s.", a.result.Info)

	pairs := Pairs(selected)
	var (
		basis  lattice.Basis
		target []*big.Int
	)
	if method.svp() {
		basis, err = BuildSVPBasis(pairs, bounds, n, recenter)
	} else {
		basis, err = BuildCVPBasis(pairs, bounds, n, recenter)
		if err == nil {
			target, err = BuildTarget(pairs, bounds, n, recenter)
		}
	}
	if err != nil {
		return a.fail(err)
	}
	a.transition(StateLatticeBuilt)

	schedule := append([]int{0}, a.params.Betas...)
	if method == MethodSieve {
		schedule = schedule[:1]
	}
	for round, beta := range schedule {
		if err := ctx.Err(); err != nil {
			a.transition(StateCancelled)
			a.logf("Cancelled before round %d.", round)
			return err
		}

		a.transition(StateReducing)
		a.result.Round, a.result.Beta = round, beta
		if beta == 0 {
			a.logf("Start LLL.")
		} else {
			a.logf("Start BKZ-%d.", beta)
		}
		roundStart := a.clock.Now()
		basis, err = a.reducer.Reduce(ctx, basis, beta)
		if err != nil {
			return a.fail(fmt.Errorf("reduction round %d: %w", round, err))
		}
		a.observer.Round(a.name, method, beta, a.clock.Since(roundStart))

		a.transition(StateVerifying)
		found, err := a.verify(ctx, basis, target)
		if err != nil {
			return a.fail(err)
		}
		if found {
			a.transition(StateFound)
			a.logf("*** FOUND PRIVATE KEY *** : %#x", a.result.PrivateKey)
			return nil
		}
	}

	a.transition(StateExhausted)
	a.logf("Exhausted the reduction schedule after %d guesses.", a.seen.len()/2)
	return ErrAttackExhausted
}

func (a *attempt) verify(ctx context.Context, basis lattice.Basis, target []*big.Int) (bool, error) {
	switch a.params.Attack.Method {
	case MethodSVP:
		return a.verifyRows(basis)
	case MethodSieve:
		if found, err := a.verifyRows(basis); found || err != nil {
			return found, err
		}
		return a.verifyLifts(ctx, basis)
	case MethodNearestPlane:
		return a.verifyNearestPlane(basis, target)
	case MethodRound:
		return a.verifyRound(basis, target)
	default:
		if found, err := a.verifyRound(basis, target); found || err != nil {
			return found, err
		}
		return a.verifyNearestPlane(basis, target)
	}
}

// verifyRows reads the key coordinate of every reduced SVP row.
func (a *attempt) verifyRows(basis lattice.Basis) (bool, error) {
	for i, row := range basis {
		ok, err := a.tryGuess(row[len(row)-2])
		if err != nil || ok {
			a.result.Row = i
			return ok, err
		}
	}
	return false, nil
}

func (a *attempt) verifyLifts(ctx context.Context, basis lattice.Basis) (bool, error) {
	a.logf("Start sieving.")
	lifts, err := a.enumerator.Enumerate(ctx, basis)
	if err != nil {
		return false, fmt.Errorf("enumerate: %w", err)
	}
	for _, l := range lifts {
		v, err := lattice.VectorFromCoeffs(l.Coeffs, basis)
		if err != nil {
			return false, err
		}
		ok, err := a.tryGuess(v[len(v)-2])
		if err != nil || ok {
			a.result.Row = l.Index
			return ok, err
		}
	}
	return false, nil
}

func (a *attempt) verifyNearestPlane(basis lattice.Basis, target []*big.Int) (bool, error) {
	a.logf("Start Babai's Nearest Plane.")
	closest, err := lattice.BabaiNearestPlane(basis, target)
	if err != nil {
		return false, err
	}
	return a.tryGuess(closest[len(closest)-1])
}

// verifyRound is advisory: a precision failure is logged and the round
// continues.
func (a *attempt) verifyRound(basis lattice.Basis, target []*big.Int) (bool, error) {
	a.logf("Start Babai's Rounding.")
	closest, err := lattice.BabaiRound(basis, target)
	if errors.Is(err, lattice.ErrPrecision) {
		log.Warnf("[%s] babai rounding: %v", a.name, err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.tryGuess(closest[len(closest)-1])
}

// tryGuess tests v mod n and its negation as the private key.
func (a *attempt) tryGuess(v *big.Int) (bool, error) {
	n := a.curve.N()
	g := new(big.Int).Mod(v, n)
	if g.Sign() == 0 || !a.seen.add(g) {
		return false, nil
	}
	a.observer.Guess(a.name)
	log.Debugf("[%s] Guess: %#x", a.name, g)

	for _, cand := range []*big.Int{g, new(big.Int).Sub(n, g)} {
		ok, err := a.verifier.Verify(cand)
		if err != nil {
			return false, fmt.Errorf("verify guess: %w", err)
		}
		if ok {
			a.result.PrivateKey = cand
			return true, nil
		}
	}
	return false, nil
}
