package hnp

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

// State is the progress of a single attack attempt.
type State int

const (
	StateIdle State = iota
	StateBoundsAssigned
	StateLatticeBuilt
	StateReducing
	StateVerifying
	StateFound
	StateExhausted
	StateCancelled
	StateFailed
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateBoundsAssigned: "bounds_assigned",
	StateLatticeBuilt:   "lattice_built",
	StateReducing:       "reducing",
	StateVerifying:      "verifying",
	StateFound:          "found",
	StateExhausted:      "exhausted",
	StateCancelled:      "cancelled",
	StateFailed:         "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s >= StateFound
}

// Observer receives progress events from running attempts. Implementations
// must be safe for concurrent use since a campaign shares one observer
// between attempts.
type Observer interface {
	Transition(attempt string, from, to State)
	// Round is called after each reduction round; beta is 0 for LLL.
	Round(attempt string, method Method, beta int, elapsed time.Duration)
	Guess(attempt string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Transition(string, State, State)          {}
func (NopObserver) Round(string, Method, int, time.Duration) {}
func (NopObserver) Guess(string)                             {}

// Info describes the leakage put into a lattice. The Real, Good and Bad
// fields and the liars are only known when the private key is.
type Info struct {
	Bounds   []int
	Total    int     // sum of assigned bounds
	Overhead float64 // Total / bitlen(n)
	Mean     float64
	Median   float64
	StdDev   float64

	Oracle        bool
	Real          int
	Good          int
	Bad           int
	Liars         int
	LiarPositions []string // "index@excess"
}

// newInfo summarizes bounds and, given the true nonces, compares them with
// the leakage actually present. A liar is an index whose bound claims more
// zero bits than its nonce has.
func newInfo(bounds []int, orderBits int, nonces []*big.Int) Info {
	info := Info{Bounds: bounds}
	data := make(stats.Float64Data, len(bounds))
	for i, b := range bounds {
		info.Total += b
		data[i] = float64(b)
	}
	if orderBits > 0 {
		info.Overhead = float64(info.Total) / float64(orderBits)
	}
	info.Mean, _ = data.Mean()
	info.Median, _ = data.Median()
	info.StdDev, _ = data.StandardDeviation()

	if nonces == nil {
		return info
	}
	info.Oracle = true
	for i, b := range bounds {
		actual := orderBits - nonces[i].BitLen()
		info.Real += actual
		if actual < b {
			info.Liars++
			info.Bad += actual
			info.LiarPositions = append(info.LiarPositions, fmt.Sprintf("%d@%d", i, b-actual))
		} else {
			info.Good += actual
		}
	}
	return info
}

func (i Info) String() string {
	s := fmt.Sprintf("%d bits of information (overhead %.2f, mean %.2f, median %.2f, stddev %.2f)",
		i.Total, i.Overhead, i.Mean, i.Median, i.StdDev)
	if i.Oracle {
		s += fmt.Sprintf("; real %d, good %d, bad %d, liars %d [%s]",
			i.Real, i.Good, i.Bad, i.Liars, strings.Join(i.LiarPositions, ";"))
	}
	return s
}

// Result is the outcome of an attempt.
type Result struct {
	Name       string
	State      State
	PrivateKey *big.Int
	Method     Method
	Dimension  int
	Round      int // index into the reduction schedule
	Beta       int
	Row        int // reduced row or lift index that produced the key, -1 for CVP
	Guesses    int
	Info       Info
	Elapsed    time.Duration
}
