package hnp

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"
)

var clog = logging.Logger("hnp/campaign")

// SelectSignatures drops the first attack.Skip signatures and, for random
// selection, draws attack.Num of the rest. The seed in use is logged so a
// run can be repeated.
func SelectSignatures(sigs []*Signature, attack AttackParams, seed int64) ([]*Signature, error) {
	if attack.Skip > 0 {
		if attack.Skip >= len(sigs) {
			return nil, fmt.Errorf("skipping %d of %d signatures: %w", attack.Skip, len(sigs), ErrBadParams)
		}
		clog.Infof("Skipping first %d signatures.", attack.Skip)
		sigs = sigs[attack.Skip:]
	}
	out := append([]*Signature(nil), sigs...)
	if attack.Type == SelectRandom && attack.Num < len(out) {
		if attack.Seed != nil {
			seed = *attack.Seed
		}
		clog.Infof("Random seed: %d", seed)
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		out = out[:attack.Num]
	}
	clog.Infof("Using %d signatures.", len(out))
	return out, nil
}

// Windows returns the sizes of the signature prefixes attacked in turn:
// start, start+step, ... up to total. A non-positive step yields a single
// window of every signature. Windows smaller than dim are raised to dim.
func Windows(total, dim int, attack AttackParams) ([]int, error) {
	if total < dim {
		return nil, fmt.Errorf("%d signatures for dimension %d: %w", total, dim, ErrBadParams)
	}
	if attack.Step <= 0 {
		return []int{total}, nil
	}
	if attack.Start > total {
		return nil, fmt.Errorf("first window of %d exceeds %d signatures: %w", attack.Start, total, ErrBadParams)
	}
	start := attack.Start
	if start < dim {
		start = dim
	}
	var sizes []int
	for size := start; size <= total; size += attack.Step {
		sizes = append(sizes, size)
	}
	return sizes, nil
}

// Campaign runs attempts on growing windows of a signature sequence in
// parallel and stops all of them once one recovers the key.
type Campaign struct {
	solver *Solver
	seed   func() int64
}

// NewCampaign creates a campaign whose attempts are run by solver.
func NewCampaign(solver *Solver) *Campaign {
	return &Campaign{
		solver: solver,
		seed:   func() int64 { return solver.clock.Now().UnixNano() },
	}
}

// Run selects signatures, then attacks every window with at most
// MaxAttempts attempts in flight, one per CPU when MaxAttempts is 0.
// Attempt failures are logged and do not stop the other attempts. When
// every attempt failed, the first failure is returned instead of
// ErrAttackExhausted.
func (c *Campaign) Run(ctx context.Context, sigs []*Signature) (*Result, error) {
	params := c.solver.params
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Bounds.Type == PolicyKnown && c.solver.privateKey == nil {
		return nil, fmt.Errorf("known policy needs the private key: %w", ErrBadBoundPolicy)
	}
	selected, err := SelectSignatures(sigs, params.Attack, c.seed())
	if err != nil {
		return nil, err
	}
	windows, err := Windows(len(selected), params.Dimension, params.Attack)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := params.MaxAttempts
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	clog.Infof("Running %d windows with %d parallel attempts.", len(windows), limit)
	var (
		g     errgroup.Group
		once  sync.Once
		found *Result

		mu       sync.Mutex
		ran      int
		failures int
		firstErr error
	)
	g.SetLimit(limit)
	for _, size := range windows {
		if runCtx.Err() != nil {
			break
		}
		size := size
		g.Go(func() error {
			if runCtx.Err() != nil {
				return nil
			}
			name := strconv.Itoa(size)
			clog.Infof("Starting attack attempt %s.", name)
			window := append([]*Signature(nil), selected[:size]...)
			SortByTiming(window)

			res, err := c.solver.Solve(runCtx, name, window, size)
			mu.Lock()
			ran++
			if err != nil && !errors.Is(err, ErrAttackExhausted) && !errors.Is(err, context.Canceled) {
				failures++
				if firstErr == nil {
					firstErr = fmt.Errorf("attempt %s: %w", name, err)
				}
			}
			mu.Unlock()

			switch {
			case err == nil:
				once.Do(func() {
					found = res
					cancel()
				})
			case errors.Is(err, ErrAttackExhausted), errors.Is(err, context.Canceled):
			default:
				clog.Errorf("attempt %s: %v", name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if found != nil {
		return found, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ran > 0 && failures == ran {
		return nil, firstErr
	}
	return nil, ErrAttackExhausted
}
