package hnp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultParamsValid(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, MethodSVP, p.Attack.Method)
	assert.Equal(t, 90, p.Dimension)
	assert.Equal(t, []int{15, 20, 30, 40, 45, 48, 51, 53, 55}, p.Betas)
}

func TestLoadParams(t *testing.T) {
	path := writeFile(t, "params.json", `{
		"attack": {"method": "np", "type": "random", "skip": 10, "num": 500, "seed": 42, "start": 100, "step": 50},
		"max_threads": 4,
		"dimension": 60,
		"recenter": "yes",
		"bounds": {"type": "template", "250": [0, 2], "253": [2, 5]},
		"betas": [10, 20]
	}`)
	p, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, MethodNearestPlane, p.Attack.Method)
	require.NotNil(t, p.Attack.Seed)
	assert.Equal(t, int64(42), *p.Attack.Seed)
	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, 60, p.Dimension)
	assert.True(t, bool(p.Recenter))
	assert.Equal(t, PolicyTemplate, p.Bounds.Type)
	assert.Len(t, p.Bounds.Template, 2)
	assert.Nil(t, p.Bounds.Parts)
	assert.Equal(t, []int{10, 20}, p.Betas)

	// Absent fields keep their defaults.
	path = writeFile(t, "partial.json", `{"dimension": 30}`)
	p, err = LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, 30, p.Dimension)
	assert.Equal(t, DefaultParams().Betas, p.Betas)

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	_, err = LoadParams(writeFile(t, "bad.json", `{"dimension": "x"}`))
	assert.Error(t, err)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"unknown method", func(p *Params) { p.Attack.Method = "magic" }},
		{"unknown type", func(p *Params) { p.Attack.Type = "sliding" }},
		{"random without num", func(p *Params) { p.Attack.Num = 0 }},
		{"negative skip", func(p *Params) { p.Attack.Skip = -1 }},
		{"zero dimension", func(p *Params) { p.Dimension = 0 }},
		{"decreasing betas", func(p *Params) { p.Betas = []int{20, 10} }},
		{"repeated betas", func(p *Params) { p.Betas = []int{20, 20} }},
		{"zero beta", func(p *Params) { p.Betas = []int{0, 10} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrBadParams)
		})
	}

	p := DefaultParams().WithBounds(BoundsConfig{Type: "fancy"})
	assert.ErrorIs(t, p.Validate(), ErrBadBoundPolicy)
}

func TestYesNo(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"yes"`, true},
		{`"NO"`, false},
	}
	for _, tt := range tests {
		var y YesNo
		require.NoError(t, json.Unmarshal([]byte(tt.in), &y), tt.in)
		assert.Equal(t, tt.want, bool(y), tt.in)
	}
	var y YesNo
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &y))
	assert.Error(t, json.Unmarshal([]byte(`3`), &y))
}

func TestTemplates(t *testing.T) {
	path := writeFile(t, "templates.json", `{
		"card": {
			"90": {
				"1000": {"250": [0, 2]},
				"5000": {"248": [0, 1], "252": [1, 10]}
			}
		}
	}`)
	templates, err := LoadTemplates(path)
	require.NoError(t, err)

	cfg, err := templates.Lookup("card", 90, 5000)
	require.NoError(t, err)
	assert.Equal(t, map[string][2]int{"248": {0, 1}, "252": {1, 10}}, cfg.Template)

	cfg, err = templates.Lookup("card", 90, 4999)
	require.NoError(t, err)
	assert.Equal(t, map[string][2]int{"250": {0, 2}}, cfg.Template)
	assert.Equal(t, PolicyTemplate, cfg.Type)

	_, err = templates.Lookup("card", 90, 999)
	assert.ErrorIs(t, err, ErrBadBoundPolicy)
	_, err = templates.Lookup("card", 60, 5000)
	assert.ErrorIs(t, err, ErrBadBoundPolicy)
	_, err = templates.Lookup("tpm", 90, 5000)
	assert.ErrorIs(t, err, ErrBadBoundPolicy)

	_, err = LoadTemplates(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
