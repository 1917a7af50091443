package hnp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/ecdsa-hnp/internal/parser"
	"github.com/mahdiidarabi/ecdsa-hnp/internal/simulate"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
)

// writeSimulated stores a simulated signature file and returns its path
// together with the private key that produced it.
func writeSimulated(t *testing.T, curveName, hashName string, format parser.Format) (string, *simulate.Result) {
	t.Helper()
	curve, err := ec.GetCurve(curveName)
	require.NoError(t, err)
	newHash, err := NewHash(hashName)
	require.NoError(t, err)

	cfg := simulate.DefaultConfig()
	cfg.Count = 16
	cfg.NonceBits = testNonceBits
	res, err := simulate.Run(curve, newHash, cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "signatures."+string(format))
	require.NoError(t, parser.WriteFile(path, format, res.File))
	return path, res
}

func TestClientRecoverKey(t *testing.T) {
	tests := []struct {
		curve  string
		hash   string
		format parser.Format
	}{
		{"secp256r1", "sha256", parser.FormatCSV},
		{"secp256k1", "sha3_256", parser.FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.curve+"/"+string(tt.format), func(t *testing.T) {
			path, sim := writeSimulated(t, tt.curve, tt.hash, tt.format)

			p, err := NewParser(string(tt.format))
			require.NoError(t, err)
			client, err := NewClientByName(tt.curve, tt.hash)
			require.NoError(t, err)
			client = client.WithParser(p).WithParams(campaignParams())

			res, err := client.RecoverKey(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, 0, res.PrivateKey.Cmp(sim.File.PrivateKey))
			assert.True(t, res.Info.Oracle)
		})
	}
}

func TestClientRecoverKeyWithoutPrivateKey(t *testing.T) {
	path, sim := writeSimulated(t, "secp256r1", "sha256", parser.FormatCSV)
	client, err := NewClientByName("secp256r1", "sha256")
	require.NoError(t, err)
	set, err := client.parser.ParseSignatures(path)
	require.NoError(t, err)
	set.PrivateKey = nil

	res, err := client.WithParams(campaignParams()).RecoverKeyFromSignatures(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, 0, res.PrivateKey.Cmp(sim.File.PrivateKey))
	assert.False(t, res.Info.Oracle)

	// The known policy cannot run on a set without its private key.
	p := campaignParams()
	p.Bounds = BoundsConfig{Type: PolicyKnown}
	_, err = client.WithParams(p).RecoverKeyFromSignatures(context.Background(), set)
	assert.ErrorIs(t, err, ErrBadBoundPolicy)
}

func TestClientErrors(t *testing.T) {
	_, err := NewClientByName("secp999r1", "sha256")
	assert.ErrorIs(t, err, ec.ErrUnknownCurve)
	_, err = NewClientByName("secp256r1", "md5")
	assert.ErrorIs(t, err, ErrUnknownHash)
	_, err = NewParser("xml")
	assert.Error(t, err)

	client, err := NewClientByName("secp256r1", "sha256")
	require.NoError(t, err)
	client = client.WithParams(campaignParams())
	_, err = client.RecoverKey(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	// A key on another curve is rejected before any lattice work.
	path, _ := writeSimulated(t, "secp256k1", "sha256", parser.FormatCSV)
	_, err = client.RecoverKey(context.Background(), path)
	assert.Error(t, err)

	bad := DefaultParams()
	bad.Dimension = 0
	_, err = client.WithParams(bad).RecoverKey(context.Background(), path)
	assert.ErrorIs(t, err, ErrBadParams)
}
