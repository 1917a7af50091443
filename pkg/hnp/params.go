package hnp

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Method selects how candidate keys are extracted from a reduced lattice.
type Method string

const (
	// MethodSVP scans the rows of the reduced SVP basis.
	MethodSVP Method = "svp"
	// MethodSieve enumerates short vectors of the LLL-reduced SVP basis.
	MethodSieve Method = "sieve"
	// MethodNearestPlane solves CVP with Babai's nearest plane.
	MethodNearestPlane Method = "np"
	// MethodRound solves CVP with Babai's rounding.
	MethodRound Method = "round"
	// MethodCVP tries rounding and then nearest plane in every round.
	MethodCVP Method = "cvp"
)

func (m Method) valid() bool {
	switch m {
	case MethodSVP, MethodSieve, MethodNearestPlane, MethodRound, MethodCVP:
		return true
	}
	return false
}

// svp reports whether m works on the shortest vector embedding.
func (m Method) svp() bool {
	return m == MethodSVP || m == MethodSieve
}

// Selection types.
const (
	SelectAll    = "all"
	SelectRandom = "random"
)

// YesNo is a boolean that also accepts "yes" and "no" in parameter files.
type YesNo bool

// UnmarshalJSON implements json.Unmarshaler.
func (y *YesNo) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*y = YesNo(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected bool or yes/no: %w", err)
	}
	switch strings.ToLower(s) {
	case "yes", "true":
		*y = true
	case "no", "false", "":
		*y = false
	default:
		return fmt.Errorf("expected yes or no, got %q", s)
	}
	return nil
}

// AttackParams controls signature selection and the attempt windows.
type AttackParams struct {
	Method Method `json:"method"`
	// Type is "all" to use every signature after Skip or "random" to draw
	// Num of them.
	Type string `json:"type"`
	Skip int    `json:"skip"`
	Num  int    `json:"num"`
	// Seed fixes the random selection; nil draws one from the clock.
	Seed *int64 `json:"seed,omitempty"`
	// Start is the size of the first window, Step its growth. A Step of 0
	// runs a single attempt on every selected signature.
	Start int `json:"start"`
	Step  int `json:"step"`
}

// Params holds attack configuration, loaded from JSON parameter files.
type Params struct {
	Attack      AttackParams `json:"attack"`
	Dimension   int          `json:"dimension"`
	Bounds      BoundsConfig `json:"bounds"`
	Betas       []int        `json:"betas"`
	Recenter    YesNo        `json:"recenter"`
	MaxAttempts int          `json:"max_threads"`
}

// DefaultParams returns the parameters used when none are given.
func DefaultParams() Params {
	return Params{
		Attack: AttackParams{
			Method: MethodSVP,
			Type:   SelectRandom,
			Skip:   50,
			Num:    5000,
			Start:  2000,
			Step:   200,
		},
		Dimension: 90,
		Bounds: BoundsConfig{
			Type:  PolicyGeom,
			Parts: map[string]int{"16": 8, "8": 7, "4": 5, "2": 4, "1": 3},
		},
		Betas:       []int{15, 20, 30, 40, 45, 48, 51, 53, 55},
		Recenter:    false,
		MaxAttempts: 2,
	}
}

// LoadParams reads a JSON parameter file. Fields absent from the file keep
// their DefaultParams values.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read params: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse params %s: %w", path, err)
	}
	return p, p.Validate()
}

// Validate checks the parameters before any lattice is built.
func (p Params) Validate() error {
	if !p.Attack.Method.valid() {
		return fmt.Errorf("unknown method %q: %w", p.Attack.Method, ErrBadParams)
	}
	switch p.Attack.Type {
	case SelectAll, "full":
	case SelectRandom:
		if p.Attack.Num <= 0 {
			return fmt.Errorf("random selection of %d signatures: %w", p.Attack.Num, ErrBadParams)
		}
	default:
		return fmt.Errorf("unknown selection type %q: %w", p.Attack.Type, ErrBadParams)
	}
	if p.Attack.Skip < 0 || p.Attack.Start < 0 {
		return fmt.Errorf("negative skip or start: %w", ErrBadParams)
	}
	if p.Dimension <= 0 {
		return fmt.Errorf("dimension %d: %w", p.Dimension, ErrBadParams)
	}
	if p.MaxAttempts < 0 {
		return fmt.Errorf("max attempts %d: %w", p.MaxAttempts, ErrBadParams)
	}
	prev := 0
	for _, b := range p.Betas {
		if b <= prev {
			return fmt.Errorf("betas %v must be positive and increasing: %w", p.Betas, ErrBadParams)
		}
		prev = b
	}
	return p.Bounds.Validate()
}

// WithMethod returns a copy of p using method m.
func (p Params) WithMethod(m Method) Params {
	p.Attack.Method = m
	return p
}

// WithBounds returns a copy of p using the bound configuration cfg.
func (p Params) WithBounds(cfg BoundsConfig) Params {
	p.Bounds = cfg
	return p
}

// WithDimension returns a copy of p with lattice dimension d.
func (p Params) WithDimension(d int) Params {
	p.Dimension = d
	return p
}

// WithBetas returns a copy of p with the given BKZ schedule.
func (p Params) WithBetas(betas ...int) Params {
	p.Betas = append([]int(nil), betas...)
	return p
}
