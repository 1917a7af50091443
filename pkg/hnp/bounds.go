package hnp

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
)

// BoundPolicy assigns to each signature index the number of leading nonce
// bits assumed to be zero.
type BoundPolicy interface {
	Name() string
	// Bound returns the bound of index within a lattice of dimension dim
	// built from total available signatures.
	Bound(index, dim, total int) int
}

// Policy type names as used in parameter files.
const (
	PolicyConstant = "constant"
	PolicyGeom     = "geom"
	PolicyGeomN    = "geomN"
	PolicyTemplate = "template"
	PolicyKnown    = "known"
)

// ConstantBound assigns Value to every index.
type ConstantBound struct {
	Value int
}

func (ConstantBound) Name() string { return PolicyConstant }

func (b ConstantBound) Bound(_, _, _ int) int { return b.Value }

// GeomBound splits the indices into dyadic fractions of the dimension. An
// index below dim/part receives Parts[part]; the largest matching bound
// wins, so {2: 1, 4: 2, 8: 3} gives the first eighth 3 bits, the rest of
// the first quarter 2 bits and the rest of the first half 1 bit.
type GeomBound struct {
	Parts map[int]int
}

func (GeomBound) Name() string { return PolicyGeom }

func (b GeomBound) Bound(index, dim, _ int) int {
	best := 0
	for part, bound := range b.Parts {
		if part > 0 && index*part < dim && bound > best {
			best = bound
		}
	}
	return best
}

// GeomNBound derives the bound from the number of available signatures:
// the i-th fastest of N signatures is expected to have about
// log2(N/(i+1)) leading zero bits. Exponents of one or less give no bound.
type GeomNBound struct {
	Index    int     // added to every index before the estimate
	Multiple float64 // scales N, 1 when zero
	Value    int     // subtracted from the estimate
}

func (GeomNBound) Name() string { return PolicyGeomN }

func (b GeomNBound) Bound(index, _, total int) int {
	mul := b.Multiple
	if mul == 0 {
		mul = 1
	}
	e := floorLog2Ratio(float64(total)*mul, float64(index+b.Index+1))
	if e <= 1 || e < b.Value {
		return 0
	}
	return e - b.Value
}

// floorLog2Ratio returns the largest i >= 0 with num >= den * 2^i, or 0.
func floorLog2Ratio(num, den float64) int {
	if den <= 0 {
		return 0
	}
	i := 0
	for num/math.Exp2(float64(i+1)) >= den {
		i++
	}
	return i
}

// TemplateBound assigns explicit bounds per index range. Ranges maps a
// nonce bit-length to the half-open index range [start, end) expected to
// have it; the bound is OrderBits minus that bit-length. Uncovered indices
// get 0.
type TemplateBound struct {
	OrderBits int
	Ranges    map[int][2]int
}

func (TemplateBound) Name() string { return PolicyTemplate }

func (b TemplateBound) Bound(index, _, _ int) int {
	for bitlen, r := range b.Ranges {
		if index >= r[0] && index < r[1] {
			return b.OrderBits - bitlen
		}
	}
	return 0
}

// KnownBound is the oracle policy computed from the true nonces. It exists
// to calibrate the other policies in controlled experiments.
type KnownBound struct {
	OrderBits int
	Nonces    []*big.Int
}

func (KnownBound) Name() string { return PolicyKnown }

func (b KnownBound) Bound(index, _, _ int) int {
	if index < 0 || index >= len(b.Nonces) {
		return 0
	}
	return b.OrderBits - b.Nonces[index].BitLen()
}

// AssignBounds evaluates policy for every index of a dim-dimensional
// lattice, clamping each bound to [0, orderBits].
func AssignBounds(policy BoundPolicy, dim, total, orderBits int) []int {
	bounds := make([]int, dim)
	for i := range bounds {
		v := policy.Bound(i, dim, total)
		if v < 0 {
			v = 0
		}
		if v > orderBits {
			v = orderBits
		}
		bounds[i] = v
	}
	return bounds
}

// BoundsConfig is the parameter file form of a bound policy. Besides the
// named fields, top-level numeric keys are accepted: "<bitlen>": [start,
// end] adds a template range and "<part>": bound adds a geom part. An
// untyped config with parts is a geom policy.
type BoundsConfig struct {
	Type     string            `json:"type"`
	Value    int               `json:"value,omitempty"`
	Parts    map[string]int    `json:"parts,omitempty"`
	Index    int               `json:"index,omitempty"`
	Multiple float64           `json:"multiple,omitempty"`
	Template map[string][2]int `json:"template,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *BoundsConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	type plain BoundsConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	for key, val := range raw {
		if _, err := strconv.Atoi(key); err != nil {
			continue
		}
		var r [2]int
		if err := json.Unmarshal(val, &r); err == nil {
			if p.Template == nil {
				p.Template = make(map[string][2]int)
			}
			p.Template[key] = r
			continue
		}
		var bound int
		if err := json.Unmarshal(val, &bound); err != nil {
			return fmt.Errorf("bound entry %q: %w", key, ErrBadBoundPolicy)
		}
		if p.Parts == nil {
			p.Parts = make(map[string]int)
		}
		p.Parts[key] = bound
	}
	if p.Type == "" && len(p.Parts) > 0 {
		p.Type = PolicyGeom
	}
	*c = BoundsConfig(p)
	return nil
}

// Validate checks the configuration independently of any signature set.
func (c BoundsConfig) Validate() error {
	switch c.Type {
	case PolicyConstant:
		if c.Value < 0 {
			return fmt.Errorf("constant bound %d is negative: %w", c.Value, ErrBadBoundPolicy)
		}
	case PolicyGeom:
		if len(c.Parts) == 0 {
			return fmt.Errorf("geom policy without parts: %w", ErrBadBoundPolicy)
		}
		if _, err := c.parts(); err != nil {
			return err
		}
	case PolicyGeomN:
		if c.Multiple < 0 || c.Index < 0 {
			return fmt.Errorf("geomN multiple %v and index %d must not be negative: %w", c.Multiple, c.Index, ErrBadBoundPolicy)
		}
	case PolicyTemplate:
		if _, err := c.ranges(); err != nil {
			return err
		}
	case PolicyKnown:
	case "":
		return fmt.Errorf("missing bound policy type: %w", ErrBadBoundPolicy)
	default:
		return fmt.Errorf("unknown bound policy %q: %w", c.Type, ErrBadBoundPolicy)
	}
	return nil
}

func (c BoundsConfig) parts() (map[int]int, error) {
	out := make(map[int]int, len(c.Parts))
	for key, bound := range c.Parts {
		part, err := strconv.Atoi(key)
		if err != nil || part <= 0 {
			return nil, fmt.Errorf("geom part %q is not a positive integer: %w", key, ErrBadBoundPolicy)
		}
		if bound < 0 {
			return nil, fmt.Errorf("geom part %q has negative bound: %w", key, ErrBadBoundPolicy)
		}
		out[part] = bound
	}
	return out, nil
}

// ranges parses the template and rejects overlapping index ranges.
func (c BoundsConfig) ranges() (map[int][2]int, error) {
	if len(c.Template) == 0 {
		return nil, fmt.Errorf("template policy without ranges: %w", ErrBadBoundPolicy)
	}
	out := make(map[int][2]int, len(c.Template))
	spans := make([][2]int, 0, len(c.Template))
	for key, r := range c.Template {
		bitlen, err := strconv.Atoi(key)
		if err != nil || bitlen < 0 {
			return nil, fmt.Errorf("template key %q is not a bit-length: %w", key, ErrBadBoundPolicy)
		}
		if r[0] < 0 || r[1] < r[0] {
			return nil, fmt.Errorf("template range %v for %q is invalid: %w", r, key, ErrBadBoundPolicy)
		}
		out[bitlen] = r
		spans = append(spans, r)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	for i := 1; i < len(spans); i++ {
		if spans[i][0] < spans[i-1][1] {
			return nil, fmt.Errorf("template ranges %v and %v overlap: %w", spans[i-1], spans[i], ErrBadBoundPolicy)
		}
	}
	return out, nil
}

// NewBoundPolicy builds the policy described by cfg for a group order of
// orderBits bits. The known policy needs the true nonces of the selected
// signatures, in lattice order.
func NewBoundPolicy(cfg BoundsConfig, orderBits int, nonces []*big.Int) (BoundPolicy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case PolicyConstant:
		return ConstantBound{Value: cfg.Value}, nil
	case PolicyGeom:
		parts, err := cfg.parts()
		if err != nil {
			return nil, err
		}
		return GeomBound{Parts: parts}, nil
	case PolicyGeomN:
		return GeomNBound{Index: cfg.Index, Multiple: cfg.Multiple, Value: cfg.Value}, nil
	case PolicyTemplate:
		ranges, err := cfg.ranges()
		if err != nil {
			return nil, err
		}
		return TemplateBound{OrderBits: orderBits, Ranges: ranges}, nil
	default:
		if nonces == nil {
			return nil, fmt.Errorf("known policy needs the private key: %w", ErrBadBoundPolicy)
		}
		return KnownBound{OrderBits: orderBits, Nonces: nonces}, nil
	}
}
