package hnp

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Templates holds measured template bounds indexed by dataset, lattice
// dimension and number of signatures. Each leaf maps a nonce bit-length to
// the index range [start, end) of the sorted signatures expected to have
// it. The JSON form is
//
//	{"card": {"90": {"5000": {"252": [0, 3], "253": [3, 20]}}}}
type Templates map[string]map[string]map[string]map[string][2]int

// LoadTemplates reads a template file.
func LoadTemplates(path string) (Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	var t Templates
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse templates %s: %w", path, err)
	}
	return t, nil
}

// Lookup returns the template policy configuration for a dataset. When no
// template was measured for exactly total signatures, the closest smaller
// sample count is used.
func (t Templates) Lookup(dataset string, dim, total int) (BoundsConfig, error) {
	byDim, ok := t[dataset]
	if !ok {
		return BoundsConfig{}, fmt.Errorf("no templates for dataset %q: %w", dataset, ErrBadBoundPolicy)
	}
	byN, ok := byDim[strconv.Itoa(dim)]
	if !ok {
		return BoundsConfig{}, fmt.Errorf("no templates for %q at dimension %d: %w", dataset, dim, ErrBadBoundPolicy)
	}

	counts := make([]int, 0, len(byN))
	for key := range byN {
		n, err := strconv.Atoi(key)
		if err != nil {
			return BoundsConfig{}, fmt.Errorf("template sample count %q: %w", key, ErrBadBoundPolicy)
		}
		counts = append(counts, n)
	}
	sort.Ints(counts)
	i := sort.SearchInts(counts, total+1) - 1
	if i < 0 {
		return BoundsConfig{}, fmt.Errorf("no templates for %q with at most %d signatures: %w", dataset, total, ErrBadBoundPolicy)
	}

	cfg := BoundsConfig{Type: PolicyTemplate, Template: make(map[string][2]int)}
	for bitlen, r := range byN[strconv.Itoa(counts[i])] {
		cfg.Template[bitlen] = r
	}
	return cfg, cfg.Validate()
}
